// Package staging holds the ordered working arrangement a user edits: item
// entries interleaved with placeholders.
//
// Every operation is total. Unknown ids and out-of-range indices are no-ops,
// since the interaction layer can be briefly out of sync with the store while
// asynchronous pool updates land.
package staging

import (
	"strings"

	"gallery-cli/internal/model"
)

type Store struct {
	entries []model.StagedEntry
}

func New(entries []model.StagedEntry) *Store {
	s := &Store{}
	s.Replace(entries)
	return s
}

// Replace swaps in a new sequence wholesale.
func (s *Store) Replace(entries []model.StagedEntry) {
	s.entries = append([]model.StagedEntry(nil), entries...)
}

// Entries returns a copy of the ordered sequence.
func (s *Store) Entries() []model.StagedEntry {
	return append([]model.StagedEntry{}, s.entries...)
}

func (s *Store) Len() int { return len(s.entries) }

func (s *Store) At(index int) (model.StagedEntry, bool) {
	if index < 0 || index >= len(s.entries) {
		return model.StagedEntry{}, false
	}
	return s.entries[index], true
}

// HasStagedContent reports whether anything (item or placeholder) is staged.
func (s *Store) HasStagedContent() bool { return len(s.entries) > 0 }

func (s *Store) Contains(id string) bool {
	return s.IndexOf(id) >= 0
}

// IndexOf returns the position of the item entry with id, or -1.
func (s *Store) IndexOf(id string) int {
	id = strings.TrimSpace(id)
	if id == "" {
		return -1
	}
	for i, e := range s.entries {
		if !e.IsPlaceholder() && e.ID == id {
			return i
		}
	}
	return -1
}

// IDs returns staged item ids in order.
func (s *Store) IDs() []string {
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		if !e.IsPlaceholder() {
			out = append(out, e.ID)
		}
	}
	return out
}

// Stage appends items that are not already staged. Returns how many entries
// were added.
func (s *Store) Stage(items ...model.Item) int {
	seen := make(map[string]bool, len(s.entries)+len(items))
	for _, e := range s.entries {
		if !e.IsPlaceholder() {
			seen[e.ID] = true
		}
	}
	added := 0
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" || seen[id] {
			continue
		}
		it.ID = id
		seen[id] = true
		s.entries = append(s.entries, model.ItemEntry(it))
		added++
	}
	return added
}

// Unstage removes every item entry whose id is in ids in a single pass.
// Placeholders and the relative order of survivors are untouched.
func (s *Store) Unstage(ids ...string) int {
	if len(ids) == 0 || len(s.entries) == 0 {
		return 0
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			drop[id] = true
		}
	}
	next, removed := Prune(s.entries, drop)
	if removed > 0 {
		s.entries = next
	}
	return removed
}

// Prune returns entries without the item entries whose id is in drop, and the
// number removed. The input slice is not modified.
func Prune(entries []model.StagedEntry, drop map[string]bool) ([]model.StagedEntry, int) {
	out := make([]model.StagedEntry, 0, len(entries))
	removed := 0
	for _, e := range entries {
		if !e.IsPlaceholder() && drop[e.ID] {
			removed++
			continue
		}
		out = append(out, e)
	}
	return out, removed
}

// InsertPlaceholder inserts a placeholder after afterIndex. -1 inserts at the
// front.
func (s *Store) InsertPlaceholder(afterIndex int) bool {
	if afterIndex < -1 || afterIndex >= len(s.entries) {
		return false
	}
	at := afterIndex + 1
	s.entries = append(s.entries, model.StagedEntry{})
	copy(s.entries[at+1:], s.entries[at:])
	s.entries[at] = model.Placeholder()
	return true
}

// RemovePlaceholder removes the entry at index when it is a placeholder.
func (s *Store) RemovePlaceholder(index int) bool {
	e, ok := s.At(index)
	if !ok || !e.IsPlaceholder() {
		return false
	}
	s.entries = append(s.entries[:index], s.entries[index+1:]...)
	return true
}

// Refresh replaces item payloads with the versions returned by lookup,
// keeping positions. Returns how many already-resolved payloads changed
// revision.
func (s *Store) Refresh(lookup func(id string) (model.Item, bool)) int {
	changed := 0
	for i, e := range s.entries {
		if e.IsPlaceholder() {
			continue
		}
		it, ok := lookup(e.ID)
		if !ok {
			continue
		}
		if e.Item != nil && e.Item.OwnerRevision != it.OwnerRevision {
			changed++
		}
		s.entries[i] = model.ItemEntry(it)
	}
	return changed
}
