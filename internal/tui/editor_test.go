package tui

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"gallery-cli/internal/logging"
	"gallery-cli/internal/model"
	"gallery-cli/internal/session"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"go.uber.org/goleak"
)

type fakeStore struct {
	saved   []model.Collection
	pruned  [][]string
	saveErr error
}

func (f *fakeStore) SaveCollection(_ context.Context, c model.Collection) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, c)
	return nil
}

func (f *fakeStore) RecordSave(_ context.Context, _ model.Collection, pruned []string) error {
	f.pruned = append(f.pruned, pruned)
	return nil
}

type staticSource []model.Item

func (s staticSource) Fetch(context.Context) ([]model.Item, error) { return s, nil }

var testPool = []model.Item{
	{ID: "a", OwnerRevision: "1", Name: "Alpha"},
	{ID: "b", OwnerRevision: "1", Name: "Beta"},
	{ID: "c", OwnerRevision: "1", Name: "Gamma"},
}

func quietLogs(t *testing.T) {
	t.Helper()
	logging.SetOutput(&strings.Builder{})
}

func newTestEditor(t *testing.T, seed *model.Collection, st *fakeStore) editorModel {
	t.Helper()
	quietLogs(t)
	sess := session.New(session.Options{CollectionID: "coll-t", Seed: seed})
	m := newEditorModel(sess, st, staticSource(testPool), nil)
	m = deliver(t, m, poolMsg{seq: sess.BeginRefresh(), items: testPool})
	return m
}

func deliver(t *testing.T, m editorModel, msg tea.Msg) editorModel {
	t.Helper()
	next, _ := m.Update(msg)
	em, ok := next.(editorModel)
	if !ok {
		t.Fatalf("unexpected model type %T", next)
	}
	return em
}

func press(t *testing.T, m editorModel, keys ...string) editorModel {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = deliver(t, m, msg)
	}
	return m
}

func stagedIDs(m editorModel) string {
	var b strings.Builder
	for _, e := range m.sess.Staged() {
		if e.IsPlaceholder() {
			b.WriteByte('_')
			continue
		}
		b.WriteString(e.ID)
	}
	return b.String()
}

func TestEditor_ToggleFromSidebarStagesInOrder(t *testing.T) {
	m := newTestEditor(t, nil, &fakeStore{})

	// Sidebar is sorted by name: Alpha, Beta, Gamma.
	m = press(t, m, "down", "down", "space", "up", "up", "space")
	if got := stagedIDs(m); got != "ca" {
		t.Fatalf("expected staged ca, got %q", got)
	}
	if !m.sess.Sidebar()["c"].IsSelected || !m.sess.Sidebar()["a"].IsSelected {
		t.Fatalf("expected a and c selected in sidebar")
	}
	if !m.dirty {
		t.Fatalf("expected model to be dirty")
	}

	m = press(t, m, "space")
	if got := stagedIDs(m); got != "c" {
		t.Fatalf("expected toggle to unstage a, got %q", got)
	}
}

func TestEditor_SeedsFromCollection(t *testing.T) {
	seed := &model.Collection{
		ID:             "coll-t",
		OrderedItemIDs: []string{"b", "gone", "a"},
		Whitespace:     []model.WhitespaceRun{{PrecedingIndex: 0, Length: 1}},
		Layout:         model.Layout{Columns: 2},
	}
	m := newTestEditor(t, seed, &fakeStore{})

	if got := stagedIDs(m); got != "b_a" {
		t.Fatalf("expected b_a, got %q", got)
	}
	if !m.dirty || len(m.pendingPruned) != 1 || m.pendingPruned[0] != "gone" {
		t.Fatalf("expected pending prune of gone, got dirty=%v pruned=%v", m.dirty, m.pendingPruned)
	}
}

func TestEditor_StaleRefreshIsDropped(t *testing.T) {
	m := newTestEditor(t, nil, &fakeStore{})

	older := m.sess.BeginRefresh()
	newer := m.sess.BeginRefresh()
	m = deliver(t, m, poolMsg{seq: newer, items: testPool[:1]})
	m = deliver(t, m, poolMsg{seq: older, items: testPool})

	if got := len(m.sess.Sidebar()); got != 1 {
		t.Fatalf("expected the newer single-item pool to win, got %d items", got)
	}
}

func TestEditor_RefreshCmdCarriesStamp(t *testing.T) {
	m := newTestEditor(t, nil, &fakeStore{})
	// newEditorModel stamps 1 for Init, newTestEditor delivers 2.
	cmd := m.startRefresh()
	msg, ok := cmd().(poolMsg)
	if !ok {
		t.Fatalf("expected poolMsg")
	}
	if msg.seq != 3 || len(msg.items) != 3 || msg.err != nil {
		t.Fatalf("unexpected msg: %+v", msg)
	}
}

func TestEditor_InitFetchesInitialStamp(t *testing.T) {
	quietLogs(t)
	sess := session.New(session.Options{CollectionID: "coll-t"})
	m := newEditorModel(sess, &fakeStore{}, staticSource(testPool), nil)
	if m.inFlight != 1 {
		t.Fatalf("expected initial fetch in flight")
	}
	msg, ok := m.fetch(m.initialSeq)().(poolMsg)
	if !ok || msg.seq != 1 {
		t.Fatalf("unexpected initial fetch: %+v", msg)
	}
	m = deliver(t, m, msg)
	if m.inFlight != 0 || len(m.sess.Sidebar()) != 3 {
		t.Fatalf("expected pool applied, inFlight=%d sidebar=%d", m.inFlight, len(m.sess.Sidebar()))
	}
}

func TestEditor_FetchErrorKeepsState(t *testing.T) {
	m := newTestEditor(t, nil, &fakeStore{})
	m = press(t, m, "space")
	m = deliver(t, m, poolMsg{seq: m.sess.BeginRefresh(), err: errors.New("offline")})

	if got := stagedIDs(m); got != "a" {
		t.Fatalf("expected staging untouched, got %q", got)
	}
	if !m.statusWarn || !strings.Contains(m.status, "offline") {
		t.Fatalf("expected warning status, got %q", m.status)
	}
}

func TestEditor_SaveWaitsForInitialPool(t *testing.T) {
	quietLogs(t)
	seed := &model.Collection{
		ID:             "coll-t",
		OrderedItemIDs: []string{"a", "b", "c"},
		Whitespace:     []model.WhitespaceRun{{PrecedingIndex: 1, Length: 2}},
		Layout:         model.Layout{Columns: 3},
	}
	st := &fakeStore{}
	sess := session.New(session.Options{CollectionID: "coll-t", Seed: seed})
	m := newEditorModel(sess, st, staticSource(testPool), nil)

	// Still fetching.
	m = press(t, m, "s")
	if len(st.saved) != 0 {
		t.Fatalf("expected no save while the initial fetch is running, got %+v", st.saved)
	}
	if !m.statusWarn || !strings.Contains(m.status, "Waiting for pool") {
		t.Fatalf("expected waiting status, got %q", m.status)
	}

	// Initial fetch failed.
	m = deliver(t, m, poolMsg{seq: m.initialSeq, err: errors.New("bad items file")})
	m = press(t, m, "s")
	if len(st.saved) != 0 {
		t.Fatalf("expected no save after a failed initial fetch, got %+v", st.saved)
	}

	m = deliver(t, m, poolMsg{seq: m.sess.BeginRefresh(), items: testPool})
	if got := stagedIDs(m); got != "ab__c" {
		t.Fatalf("expected seeded ab__c, got %q", got)
	}
	m = press(t, m, "s")
	if len(st.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(st.saved))
	}
	got := st.saved[0]
	if strings.Join(got.OrderedItemIDs, ",") != "a,b,c" || len(got.Whitespace) != 1 || got.Whitespace[0] != seed.Whitespace[0] {
		t.Fatalf("unexpected saved collection: %+v", got)
	}
}

func TestWatchChanges_ClosesOnCancel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fsnotify windows goroutines are not tracked reliably")
	}
	defer goleak.VerifyNone(t)
	quietLogs(t)

	path := filepath.Join(t.TempDir(), "items.json")
	if err := os.WriteFile(path, []byte("[]"), 0o644); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	m := editorModel{changes: watchChanges(ctx, path, 10*time.Millisecond)}
	wait := m.waitForChange()

	done := make(chan tea.Msg, 1)
	go func() { done <- wait() }()
	cancel()

	select {
	case msg := <-done:
		if msg != nil {
			t.Fatalf("expected nil after close, got %T", msg)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("waitForChange still blocked after cancel")
	}
}

func TestEditor_PickMoveDrop(t *testing.T) {
	m := newTestEditor(t, &model.Collection{ID: "coll-t", OrderedItemIDs: []string{"a", "b", "c"}, Layout: model.Layout{Columns: 3}}, &fakeStore{})
	m = press(t, m, "tab", "m", "down", "down", "enter")

	if got := stagedIDs(m); got != "bca" {
		t.Fatalf("expected bca, got %q", got)
	}
	if m.stageCur != 2 {
		t.Fatalf("expected cursor to follow the dropped entry, got %d", m.stageCur)
	}
	if !m.dirty {
		t.Fatalf("expected dirty after move")
	}
}

func TestEditor_PickCancelRestores(t *testing.T) {
	m := newTestEditor(t, &model.Collection{ID: "coll-t", OrderedItemIDs: []string{"a", "b", "c"}, Layout: model.Layout{Columns: 3}}, &fakeStore{})
	m = press(t, m, "tab", "down", "m", "down", "esc")

	if got := stagedIDs(m); got != "abc" {
		t.Fatalf("expected abc after cancel, got %q", got)
	}
	if m.stageCur != 1 {
		t.Fatalf("expected cursor back at 1, got %d", m.stageCur)
	}
}

func TestEditor_Placeholders(t *testing.T) {
	m := newTestEditor(t, &model.Collection{ID: "coll-t", OrderedItemIDs: []string{"a", "b"}, Layout: model.Layout{Columns: 3}}, &fakeStore{})
	m = press(t, m, "tab", "w")
	if got := stagedIDs(m); got != "a_b" {
		t.Fatalf("expected a_b, got %q", got)
	}
	if m.stageCur != 1 {
		t.Fatalf("expected cursor on the new space, got %d", m.stageCur)
	}
	m = press(t, m, "x")
	if got := stagedIDs(m); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
	// x on an item is a no-op.
	m = press(t, m, "x")
	if got := stagedIDs(m); got != "ab" {
		t.Fatalf("expected ab, got %q", got)
	}
}

func TestEditor_ColumnsClampAndWarn(t *testing.T) {
	m := newTestEditor(t, &model.Collection{ID: "coll-t", Layout: model.Layout{Columns: model.MaxColumns}}, &fakeStore{})
	m = press(t, m, "+")
	if got := m.sess.Layout().Columns; got != model.MaxColumns {
		t.Fatalf("expected columns clamped at %d, got %d", model.MaxColumns, got)
	}
	if !m.statusWarn {
		t.Fatalf("expected a warning for out-of-range columns")
	}
	m = press(t, m, "-")
	if got := m.sess.Layout().Columns; got != model.MaxColumns-1 {
		t.Fatalf("expected %d columns, got %d", model.MaxColumns-1, got)
	}
}

func TestEditor_SaveRecordsPrunedOnce(t *testing.T) {
	st := &fakeStore{}
	m := newTestEditor(t, &model.Collection{ID: "coll-t", OrderedItemIDs: []string{"a", "gone"}, Layout: model.Layout{Columns: 3}}, st)
	m = press(t, m, "s")

	if len(st.saved) != 1 {
		t.Fatalf("expected one save, got %d", len(st.saved))
	}
	if got := st.saved[0].OrderedItemIDs; len(got) != 1 || got[0] != "a" {
		t.Fatalf("unexpected saved ids: %v", got)
	}
	if len(st.pruned) != 1 || len(st.pruned[0]) != 1 || st.pruned[0][0] != "gone" {
		t.Fatalf("unexpected pruned: %v", st.pruned)
	}
	if m.dirty || m.pendingPruned != nil {
		t.Fatalf("expected clean model after save")
	}

	m = press(t, m, "s")
	if len(st.pruned) != 2 || len(st.pruned[1]) != 0 {
		t.Fatalf("expected second save without pruned ids, got %v", st.pruned)
	}
}

func TestEditor_SaveFailureKeepsDirty(t *testing.T) {
	st := &fakeStore{saveErr: errors.New("disk full")}
	m := newTestEditor(t, nil, st)
	m = press(t, m, "space", "s")

	if !m.dirty {
		t.Fatalf("expected model to stay dirty")
	}
	if !m.statusWarn || !strings.Contains(m.status, "disk full") {
		t.Fatalf("expected save failure status, got %q", m.status)
	}
	if got := stagedIDs(m); got != "a" {
		t.Fatalf("expected staging untouched, got %q", got)
	}
}

func TestEditor_QuitConfirmsUnsavedChanges(t *testing.T) {
	m := newTestEditor(t, nil, &fakeStore{})
	m = press(t, m, "space")

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd != nil {
		t.Fatalf("expected first q to only warn")
	}
	m = next.(editorModel)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
	if !m.sess.Closed() {
		t.Fatalf("expected session closed on quit")
	}
}

func TestEditor_ViewRendersBothPanes(t *testing.T) {
	lipgloss.SetColorProfile(termenv.Ascii)

	m := newTestEditor(t, &model.Collection{ID: "coll-t", Name: "Favourites", OrderedItemIDs: []string{"a"}, Whitespace: []model.WhitespaceRun{{PrecedingIndex: 0, Length: 1}}, Layout: model.Layout{Columns: 2}}, &fakeStore{})
	m = deliver(t, m, tea.WindowSizeMsg{Width: 90, Height: 20})

	out := m.View()
	for _, want := range []string{"Favourites", "[x] Alpha", "[ ] Beta", "···"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, out)
		}
	}
}
