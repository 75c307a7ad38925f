package reconcile

import (
	"math/rand"
	"strings"
	"testing"

	"gallery-cli/internal/model"
	"gallery-cli/internal/registry"
	"gallery-cli/internal/staging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pool(ids ...string) []model.Item {
	out := make([]model.Item, 0, len(ids))
	for _, id := range ids {
		out = append(out, model.Item{ID: id, OwnerRevision: "1", Name: "item " + id})
	}
	return out
}

func layout(entries []model.StagedEntry) string {
	var b strings.Builder
	for _, e := range entries {
		if e.IsPlaceholder() {
			b.WriteByte('_')
			continue
		}
		b.WriteString(e.ID)
	}
	return b.String()
}

// assertSynchronized checks that sidebar selection mirrors staged membership.
func assertSynchronized(t *testing.T, sidebar model.Sidebar, staged []model.StagedEntry) {
	t.Helper()
	inStage := map[string]bool{}
	for _, e := range staged {
		if !e.IsPlaceholder() {
			inStage[e.ID] = true
		}
	}
	for id, e := range sidebar {
		assert.Equal(t, inStage[id], e.IsSelected, "selection of %s", id)
	}
	for id := range inStage {
		_, ok := sidebar[id]
		assert.True(t, ok, "staged id %s missing from sidebar", id)
	}
}

func TestReconcile_StageThenPoolShrinks(t *testing.T) {
	first := Reconcile(Input{View: registry.Register(pool("A", "B", "C")), Seed: &Seed{}})
	require.Empty(t, first.Staged)

	st := staging.New(first.Staged)
	for _, id := range []string{"A", "C"} {
		it, _ := registry.Register(pool("A", "B", "C")).Lookup(id)
		st.Stage(it)
	}
	require.Equal(t, "AC", layout(st.Entries()))

	prev := first.Sidebar
	for _, id := range st.IDs() {
		e := prev[id]
		e.IsSelected = true
		prev[id] = e
	}

	out := Reconcile(Input{View: registry.Register(pool("A", "D")), Previous: prev, Staged: st.Entries()})
	assert.Equal(t, "A", layout(out.Staged))
	assert.Equal(t, []string{"C"}, out.Removed)
	assert.True(t, out.Sidebar["A"].IsSelected)
	assert.False(t, out.Sidebar["D"].IsSelected)
	_, hasC := out.Sidebar["C"]
	assert.False(t, hasC)
	assert.False(t, out.Seeded)
	assertSynchronized(t, out.Sidebar, out.Staged)
}

func TestReconcile_SeedExpandsWhitespaceAndPrunesDangling(t *testing.T) {
	out := Reconcile(Input{
		View: registry.Register(pool("a", "b", "c")),
		Seed: &Seed{
			OrderedItemIDs: []string{"a", "gone", "b", "a"},
			Whitespace: []model.WhitespaceRun{
				{PrecedingIndex: -1, Length: 1},
				{PrecedingIndex: 1, Length: 2},
			},
		},
	})
	require.True(t, out.Seeded)
	// "gone" is pruned but its trailing whitespace stays; the duplicate "a" is dropped.
	assert.Equal(t, "_a__b", layout(out.Staged))
	assert.Equal(t, []string{"gone"}, out.Removed)
	assert.True(t, out.Sidebar["a"].IsSelected)
	assert.True(t, out.Sidebar["b"].IsSelected)
	assert.False(t, out.Sidebar["c"].IsSelected)

	for _, e := range out.Staged {
		if !e.IsPlaceholder() {
			require.NotNil(t, e.Item, "seeded entry %s must resolve a payload", e.ID)
		}
	}
	assertSynchronized(t, out.Sidebar, out.Staged)
}

func TestReconcile_RevisionChangeKeepsPositionAndSelection(t *testing.T) {
	v1 := registry.Register(pool("a", "b"))
	first := Reconcile(Input{View: v1, Seed: &Seed{OrderedItemIDs: []string{"b", "a"}}})
	require.Equal(t, "ba", layout(first.Staged))

	v2 := registry.Register([]model.Item{
		{ID: "a", OwnerRevision: "1", Name: "item a"},
		{ID: "b", OwnerRevision: "2", Name: "renamed"},
	})
	out := Reconcile(Input{View: v2, Previous: first.Sidebar, Staged: first.Staged})
	assert.Equal(t, "ba", layout(out.Staged))
	assert.Equal(t, 1, out.Refreshed)
	assert.Equal(t, "renamed", out.Staged[0].Item.Name)
	assert.True(t, out.Sidebar["b"].IsSelected)
	assert.Equal(t, "renamed", out.Sidebar["b"].Item.Name)
}

func TestReconcile_EmptyInputsAreSteadyStates(t *testing.T) {
	out := Reconcile(Input{})
	assert.Empty(t, out.Sidebar)
	assert.Empty(t, out.Staged)
	assert.Empty(t, out.Removed)

	out = Reconcile(Input{View: registry.Register(nil), Seed: &Seed{OrderedItemIDs: []string{"x"}}})
	assert.Equal(t, []string{"x"}, out.Removed)
	assert.Empty(t, out.Staged)
}

func TestReconcile_PoolEmptiedThenRepopulatedIsNotReseeded(t *testing.T) {
	first := Reconcile(Input{View: registry.Register(pool("a", "b")), Seed: &Seed{OrderedItemIDs: []string{"a", "b"}}})
	emptied := Reconcile(Input{View: registry.Register(nil), Previous: first.Sidebar, Staged: first.Staged})
	require.Empty(t, emptied.Staged)

	back := Reconcile(Input{View: registry.Register(pool("a", "b")), Previous: emptied.Sidebar, Staged: emptied.Staged})
	assert.Empty(t, back.Staged)
	assert.False(t, back.Sidebar["a"].IsSelected)
}

func TestReconcile_SelectionWithoutStagedEntryIsDropped(t *testing.T) {
	prev := model.Sidebar{"a": {ID: "a", IsSelected: true}}
	out := Reconcile(Input{View: registry.Register(pool("a")), Previous: prev})
	assert.False(t, out.Sidebar["a"].IsSelected)
	assert.Equal(t, []string{"a"}, out.Deselected)
}

func TestReconcile_RandomOperationsKeepSelectionSynchronized(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	universe := []string{"a", "b", "c", "d", "e", "f", "g"}

	randomPool := func() []model.Item {
		var ids []string
		for _, id := range universe {
			if r.Intn(3) > 0 {
				ids = append(ids, id)
			}
		}
		return pool(ids...)
	}

	view := registry.Register(randomPool())
	out := Reconcile(Input{View: view, Seed: &Seed{}})
	sidebar, staged := out.Sidebar, out.Staged

	for step := 0; step < 300; step++ {
		st := staging.New(staged)
		switch r.Intn(4) {
		case 0:
			view = registry.Register(randomPool())
			out = Reconcile(Input{View: view, Previous: sidebar, Staged: staged})
			sidebar, staged = out.Sidebar, out.Staged
		case 1:
			if it, ok := view.Lookup(universe[r.Intn(len(universe))]); ok {
				st.Stage(it)
			}
		case 2:
			st.Unstage(universe[r.Intn(len(universe))])
		case 3:
			st.InsertPlaceholder(r.Intn(st.Len()+1) - 1)
		}
		if st.Len() != len(staged) || layout(st.Entries()) != layout(staged) {
			staged = st.Entries()
			// Local edits resync selection the same way the session does.
			out = Reconcile(Input{View: view, Previous: sidebar, Staged: staged})
			sidebar, staged = out.Sidebar, out.Staged
		}
		assertSynchronized(t, sidebar, staged)
	}
}
