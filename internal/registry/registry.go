// Package registry normalizes a raw pool snapshot into an id-addressable view.
package registry

import (
	"encoding/binary"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"

	"gallery-cli/internal/model"
)

// View is an immutable id -> item mapping built from one pool snapshot.
type View struct {
	byID map[string]model.Item
	fp   Fingerprint
}

// Fingerprint is an order-independent digest over (id, ownerRevision) pairs.
type Fingerprint struct {
	Sum   uint64
	Count int
}

func (f Fingerprint) String() string {
	return strconv.Itoa(f.Count) + ":" + strconv.FormatUint(f.Sum, 16)
}

// Register builds a View. Items without an id are skipped; when an id repeats,
// the later item wins.
func Register(items []model.Item) View {
	byID := make(map[string]model.Item, len(items))
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		it.ID = id
		byID[id] = it
	}
	return View{byID: byID, fp: fingerprint(byID)}
}

// fingerprint sums a per-pair hash, so insertion order never matters and
// ids are unique within a view.
func fingerprint(byID map[string]model.Item) Fingerprint {
	var sum uint64
	for id, it := range byID {
		h := fnv.New64a()
		_, _ = h.Write([]byte(id))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(it.OwnerRevision))
		sum += binary.BigEndian.Uint64(h.Sum(nil))
	}
	return Fingerprint{Sum: sum, Count: len(byID)}
}

func (v View) Fingerprint() Fingerprint { return v.fp }

func (v View) Lookup(id string) (model.Item, bool) {
	it, ok := v.byID[strings.TrimSpace(id)]
	return it, ok
}

func (v View) Has(id string) bool {
	_, ok := v.byID[strings.TrimSpace(id)]
	return ok
}

func (v View) Len() int { return len(v.byID) }

// IDs returns every id in the view, sorted.
func (v View) IDs() []string {
	out := make([]string, 0, len(v.byID))
	for id := range v.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Items returns every item in the view, sorted by id.
func (v View) Items() []model.Item {
	ids := v.IDs()
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, v.byID[id])
	}
	return out
}
