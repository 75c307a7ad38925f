// Package reconcile merges a refreshed pool snapshot against the current
// selection and staged order.
//
// Reconcile is a pure function: the sidebar and the staged sequence are both
// projections computed together from the same inputs, so callers commit them
// as a pair and never observe one without the other.
package reconcile

import (
	"sort"

	"gallery-cli/internal/model"
	"gallery-cli/internal/registry"
	"gallery-cli/internal/staging"
	"gallery-cli/internal/whitespace"
)

// Seed is the persisted arrangement used to populate the staged sequence on
// the first pass of an editing session.
type Seed struct {
	OrderedItemIDs []string
	Whitespace     []model.WhitespaceRun
}

type Input struct {
	View     registry.View
	Previous model.Sidebar
	Staged   []model.StagedEntry

	// Seed is set only on a session's first pass. When set, Staged is ignored.
	Seed *Seed
}

type Output struct {
	Sidebar model.Sidebar
	Staged  []model.StagedEntry

	// Removed lists staged ids that no longer exist in the pool, sorted.
	Removed []string

	// Deselected lists ids that were selected in Previous without being
	// staged; their selection is dropped.
	Deselected []string

	// Refreshed counts staged items whose payload revision changed.
	Refreshed int

	Seeded bool
}

func Reconcile(in Input) Output {
	staged := in.Staged
	seeded := false
	if in.Seed != nil {
		staged = dedupe(whitespace.Decode(in.Seed.OrderedItemIDs, in.Seed.Whitespace))
		seeded = true
	}
	st := staging.New(staged)

	sidebar := make(model.Sidebar, in.View.Len())
	for _, it := range in.View.Items() {
		sidebar[it.ID] = model.SidebarEntry{ID: it.ID, Item: it}
	}

	drop := map[string]bool{}
	stagedIDs := map[string]bool{}
	for _, id := range st.IDs() {
		stagedIDs[id] = true
		e, ok := sidebar[id]
		if !ok {
			drop[id] = true
			continue
		}
		e.IsSelected = true
		sidebar[id] = e
	}

	var deselected []string
	for id, prev := range in.Previous {
		if !prev.IsSelected || stagedIDs[id] {
			continue
		}
		if _, ok := sidebar[id]; ok {
			deselected = append(deselected, id)
		}
	}
	sort.Strings(deselected)

	removed := make([]string, 0, len(drop))
	for id := range drop {
		removed = append(removed, id)
	}
	sort.Strings(removed)

	if len(drop) > 0 {
		st.Unstage(removed...)
	}
	refreshed := st.Refresh(in.View.Lookup)

	return Output{
		Sidebar:    sidebar,
		Staged:     st.Entries(),
		Removed:    removed,
		Deselected: deselected,
		Refreshed:  refreshed,
		Seeded:     seeded,
	}
}

// dedupe keeps the first entry for each item id.
func dedupe(entries []model.StagedEntry) []model.StagedEntry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		if !e.IsPlaceholder() {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
		}
		out = append(out, e)
	}
	return out
}
