package model

import (
	"fmt"
	"time"
)

// Column bounds for a collection layout.
const (
	MinColumns     = 1
	MaxColumns     = 6
	DefaultColumns = 3
)

// Item is a single owned item in the pool.
type Item struct {
	ID string `json:"id" yaml:"id"`

	// OwnerRevision changes whenever the owner-side record is modified.
	// Two items with the same ID and OwnerRevision are considered identical.
	OwnerRevision string `json:"ownerRevision" yaml:"ownerRevision"`

	Name            string `json:"name" yaml:"name"`
	MediaURL        string `json:"mediaUrl,omitempty" yaml:"mediaUrl,omitempty"`
	ContractAddress string `json:"contractAddress,omitempty" yaml:"contractAddress,omitempty"`
}

type SidebarEntry struct {
	ID         string `json:"id" yaml:"id"`
	Item       Item   `json:"item" yaml:"item"`
	IsSelected bool   `json:"isSelected" yaml:"isSelected"`
}

// Sidebar maps item id to its sidebar entry. Iteration order is not meaningful.
type Sidebar map[string]SidebarEntry

// SelectedIDs returns the ids of selected entries (unordered).
func (s Sidebar) SelectedIDs() []string {
	out := make([]string, 0, len(s))
	for id, e := range s {
		if e.IsSelected {
			out = append(out, id)
		}
	}
	return out
}

type EntryKind string

const (
	EntryItem        EntryKind = "item"
	EntryPlaceholder EntryKind = "placeholder"
)

// StagedEntry is one slot of the staging area: either an item or a placeholder.
// Placeholders carry no identity.
type StagedEntry struct {
	Kind EntryKind `json:"kind" yaml:"kind"`
	ID   string    `json:"id,omitempty" yaml:"id,omitempty"`
	Item *Item     `json:"item,omitempty" yaml:"item,omitempty"`
}

func ItemEntry(it Item) StagedEntry {
	x := it
	return StagedEntry{Kind: EntryItem, ID: it.ID, Item: &x}
}

func Placeholder() StagedEntry {
	return StagedEntry{Kind: EntryPlaceholder}
}

func (e StagedEntry) IsPlaceholder() bool { return e.Kind == EntryPlaceholder }

// Label is a short human-readable description used by the CLI and TUI.
func (e StagedEntry) Label() string {
	if e.IsPlaceholder() {
		return "(space)"
	}
	if e.Item != nil && e.Item.Name != "" {
		return e.Item.Name
	}
	return e.ID
}

type Layout struct {
	Columns int `json:"columns" yaml:"columns"`
}

// WhitespaceRun is a run of Length placeholders that follows the item at
// PrecedingIndex in the ordered item id list. PrecedingIndex -1 means the run
// comes before every item.
type WhitespaceRun struct {
	PrecedingIndex int `json:"precedingIndex" yaml:"precedingIndex"`
	Length         int `json:"length" yaml:"length"`
}

// Collection is the persisted, compact form of a curated arrangement.
type Collection struct {
	ID             string          `json:"id" yaml:"id"`
	Name           string          `json:"name,omitempty" yaml:"name,omitempty"`
	OrderedItemIDs []string        `json:"orderedItemIds" yaml:"orderedItemIds"`
	Whitespace     []WhitespaceRun `json:"whitespace" yaml:"whitespace"`
	Layout         Layout          `json:"layout" yaml:"layout"`
	CreatedAt      time.Time       `json:"createdAt" yaml:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt" yaml:"updatedAt"`
}

type Event struct {
	ID       string    `json:"id" yaml:"id"`
	TS       time.Time `json:"ts" yaml:"ts"`
	Type     string    `json:"type" yaml:"type"`
	EntityID string    `json:"entityId" yaml:"entityId"`
	Payload  any       `json:"payload" yaml:"payload"`
}

func IsValidColumns(n int) bool {
	return n >= MinColumns && n <= MaxColumns
}

// ClampColumns forces n into [MinColumns, MaxColumns].
func ClampColumns(n int) int {
	if n < MinColumns {
		return MinColumns
	}
	if n > MaxColumns {
		return MaxColumns
	}
	return n
}

// InvalidColumnsError reports a column count outside the supported range.
type InvalidColumnsError struct {
	Value int
}

func (e InvalidColumnsError) Error() string {
	return fmt.Sprintf("invalid columns value %d (want %d..%d)", e.Value, MinColumns, MaxColumns)
}
