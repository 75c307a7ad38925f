// Package session ties the registry, reconciler and staging store into one
// explicit editing session per collection.
//
// A Session is driven from a single goroutine (the UI event loop). Pool
// snapshots may be fetched concurrently elsewhere, but their results are fed
// back through ApplyPool on that same goroutine; ordering between snapshots is
// enforced by sequence stamps, not locks.
package session

import (
	"context"
	"sort"
	"strings"
	"time"

	"gallery-cli/internal/logging"
	"gallery-cli/internal/model"
	"gallery-cli/internal/reconcile"
	"gallery-cli/internal/registry"
	"gallery-cli/internal/staging"
	"gallery-cli/internal/whitespace"

	"github.com/sirupsen/logrus"
)

// Writer persists a collection. Retrying and batching are its concern.
type Writer interface {
	SaveCollection(ctx context.Context, c model.Collection) error
}

type Options struct {
	CollectionID string
	Name         string

	// Seed is the persisted collection being edited, nil for a new one.
	Seed *model.Collection

	Logger *logrus.Entry
	Now    func() time.Time
}

type Outcome int

const (
	// Applied means the snapshot was reconciled and committed.
	Applied Outcome = iota
	// Unchanged means the snapshot matched the committed fingerprint; only
	// its stamp was recorded.
	Unchanged
	// Stale means a newer snapshot was already committed; nothing changed.
	Stale
	// Discarded means the session was closed.
	Discarded
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Unchanged:
		return "unchanged"
	case Stale:
		return "stale"
	case Discarded:
		return "discarded"
	default:
		return "unknown"
	}
}

type Result struct {
	Outcome   Outcome
	Seq       uint64
	Removed   []string
	Refreshed int
	Seeded    bool
}

type Session struct {
	collectionID string
	name         string
	createdAt    time.Time

	seed    *reconcile.Seed
	hasPool bool

	view    registry.View
	sidebar model.Sidebar
	staged  *staging.Store
	layout  model.Layout
	drag    *staging.Gesture

	issued    uint64
	committed uint64

	closed bool
	log    *logrus.Entry
	now    func() time.Time
}

func New(opts Options) *Session {
	s := &Session{
		collectionID: strings.TrimSpace(opts.CollectionID),
		name:         strings.TrimSpace(opts.Name),
		sidebar:      model.Sidebar{},
		staged:       staging.New(nil),
		layout:       model.Layout{Columns: model.DefaultColumns},
		log:          opts.Logger,
		now:          opts.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.log == nil {
		s.log = logging.NewLogger("session")
	}
	if c := opts.Seed; c != nil {
		if s.collectionID == "" {
			s.collectionID = c.ID
		}
		if s.name == "" {
			s.name = c.Name
		}
		s.createdAt = c.CreatedAt
		s.seed = &reconcile.Seed{
			OrderedItemIDs: append([]string(nil), c.OrderedItemIDs...),
			Whitespace:     append([]model.WhitespaceRun(nil), c.Whitespace...),
		}
		if model.IsValidColumns(c.Layout.Columns) {
			s.layout = c.Layout
		} else {
			s.log.WithFields(logrus.Fields{
				"collection": s.collectionID,
				"columns":    c.Layout.Columns,
			}).Warn("persisted columns out of range; using default")
		}
	}
	s.log = s.log.WithField("collection", s.collectionID)
	return s
}

func (s *Session) CollectionID() string { return s.collectionID }

// BeginRefresh stamps a new pool request. The stamp must accompany the
// fetched items to ApplyPool.
func (s *Session) BeginRefresh() uint64 {
	s.issued++
	return s.issued
}

// ApplyPool reconciles a fetched pool snapshot. Snapshots whose stamp is not
// newer than the last committed one are dropped.
func (s *Session) ApplyPool(seq uint64, items []model.Item) Result {
	if s.closed {
		return Result{Outcome: Discarded, Seq: seq}
	}
	if seq <= s.committed {
		s.log.WithFields(logrus.Fields{"seq": seq, "committed": s.committed}).Debug("stale pool snapshot ignored")
		return Result{Outcome: Stale, Seq: seq}
	}
	if seq > s.issued {
		s.issued = seq
	}

	view := registry.Register(items)
	if s.hasPool && view.Fingerprint() == s.view.Fingerprint() {
		s.committed = seq
		s.log.WithField("seq", seq).Debug("pool unchanged")
		return Result{Outcome: Unchanged, Seq: seq}
	}

	in := reconcile.Input{View: view, Previous: s.sidebar, Staged: s.staged.Entries()}
	if !s.hasPool && s.seed != nil {
		in.Seed = s.seed
	}
	out := reconcile.Reconcile(in)

	if len(out.Removed) > 0 || out.Seeded {
		s.settleDrag()
	}

	s.view = view
	s.sidebar = out.Sidebar
	s.staged.Replace(out.Staged)
	s.committed = seq
	s.hasPool = true
	s.seed = nil

	if len(out.Removed) > 0 {
		s.log.WithFields(logrus.Fields{"seq": seq, "ids": out.Removed}).Warn("pruned staged items missing from pool")
	}
	if len(out.Deselected) > 0 {
		s.log.WithFields(logrus.Fields{"seq": seq, "ids": out.Deselected}).Warn("dropped selection without staged entry")
	}
	s.log.WithFields(logrus.Fields{
		"seq":       seq,
		"items":     view.Len(),
		"staged":    s.staged.Len(),
		"refreshed": out.Refreshed,
	}).Debug("pool applied")

	return Result{Outcome: Applied, Seq: seq, Removed: out.Removed, Refreshed: out.Refreshed, Seeded: out.Seeded}
}

// Committed returns the stamp of the last committed snapshot (0 before any).
func (s *Session) Committed() uint64 { return s.committed }

func (s *Session) Fingerprint() registry.Fingerprint { return s.view.Fingerprint() }

// Stage appends pool items by id. Unknown or already staged ids are ignored.
func (s *Session) Stage(ids ...string) int {
	if s.closed {
		return 0
	}
	var items []model.Item
	for _, id := range ids {
		if it, ok := s.view.Lookup(id); ok {
			items = append(items, it)
		}
	}
	if len(items) == 0 {
		return 0
	}
	n := s.staged.Stage(items...)
	for _, it := range items {
		s.setSelected(it.ID, true)
	}
	return n
}

// Unstage removes item entries by id. Unknown ids are ignored.
func (s *Session) Unstage(ids ...string) int {
	if s.closed {
		return 0
	}
	s.settleDrag()
	n := s.staged.Unstage(ids...)
	for _, id := range ids {
		s.setSelected(strings.TrimSpace(id), false)
	}
	return n
}

// Toggle stages id if it is not staged and unstages it otherwise.
// Returns whether id is staged afterwards.
func (s *Session) Toggle(id string) bool {
	if s.staged.Contains(id) {
		s.Unstage(id)
		return false
	}
	s.Stage(id)
	return s.staged.Contains(id)
}

// Reorder moves the entry at from to to.
func (s *Session) Reorder(from, to int) bool {
	if s.closed {
		return false
	}
	s.settleDrag()
	_, ok := s.staged.Move(from, to)
	return ok
}

func (s *Session) BeginDrag(index int) bool {
	if s.closed {
		return false
	}
	s.settleDrag()
	s.drag = s.staged.BeginDrag(index)
	return s.drag != nil
}

func (s *Session) DragOver(index int) bool {
	if !s.drag.Active() {
		return false
	}
	return s.drag.Over(index)
}

// Dragging returns the dragged entry's current index.
func (s *Session) Dragging() (int, bool) {
	if !s.drag.Active() {
		return 0, false
	}
	return s.drag.Index(), true
}

func (s *Session) DropDrag() (staging.Move, bool) {
	if !s.drag.Active() {
		return staging.Move{}, false
	}
	m := s.drag.Drop()
	s.drag = nil
	return m, true
}

func (s *Session) CancelDrag() bool {
	if !s.drag.Active() {
		return false
	}
	s.drag.Cancel()
	s.drag = nil
	return true
}

// settleDrag keeps an in-flight drag where it currently is before another
// mutation shifts indices under it.
func (s *Session) settleDrag() {
	if s.drag.Active() {
		s.drag.Drop()
	}
	s.drag = nil
}

func (s *Session) InsertPlaceholder(afterIndex int) bool {
	if s.closed {
		return false
	}
	s.settleDrag()
	return s.staged.InsertPlaceholder(afterIndex)
}

func (s *Session) RemovePlaceholder(index int) bool {
	if s.closed {
		return false
	}
	s.settleDrag()
	return s.staged.RemovePlaceholder(index)
}

// SetColumns sets the layout column count. Out-of-range values are clamped
// into range and reported with model.InvalidColumnsError.
func (s *Session) SetColumns(n int) (int, error) {
	if s.closed {
		return s.layout.Columns, ErrClosed
	}
	if !model.IsValidColumns(n) {
		s.layout.Columns = model.ClampColumns(n)
		return s.layout.Columns, model.InvalidColumnsError{Value: n}
	}
	s.layout.Columns = n
	return n, nil
}

func (s *Session) Layout() model.Layout { return s.layout }

// Sidebar returns a copy of the sidebar mapping.
func (s *Session) Sidebar() model.Sidebar {
	out := make(model.Sidebar, len(s.sidebar))
	for id, e := range s.sidebar {
		out[id] = e
	}
	return out
}

// SidebarList returns sidebar entries sorted by item name, then id.
func (s *Session) SidebarList() []model.SidebarEntry {
	out := make([]model.SidebarEntry, 0, len(s.sidebar))
	for _, e := range s.sidebar {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		ni := strings.ToLower(out[i].Item.Name)
		nj := strings.ToLower(out[j].Item.Name)
		if ni != nj {
			return ni < nj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Session) Staged() []model.StagedEntry { return s.staged.Entries() }

func (s *Session) HasStagedContent() bool { return s.staged.HasStagedContent() }

// Draft encodes the current arrangement into its persisted form.
func (s *Session) Draft() model.Collection {
	ids, runs := whitespace.Encode(s.staged.Entries())
	now := s.now().UTC()
	created := s.createdAt
	if created.IsZero() {
		created = now
	}
	return model.Collection{
		ID:             s.collectionID,
		Name:           s.name,
		OrderedItemIDs: ids,
		Whitespace:     runs,
		Layout:         s.layout,
		CreatedAt:      created,
		UpdatedAt:      now,
	}
}

// Seeding reports whether the persisted arrangement is still pending its
// first pool snapshot. Staged entries are empty until then.
func (s *Session) Seeding() bool { return s.seed != nil && !s.hasPool }

// Save hands the draft to w. A failed save leaves the session untouched.
func (s *Session) Save(ctx context.Context, w Writer) (model.Collection, error) {
	if s.closed {
		return model.Collection{}, ErrClosed
	}
	if s.Seeding() {
		return model.Collection{}, ErrNotSeeded
	}
	c := s.Draft()
	if err := w.SaveCollection(ctx, c); err != nil {
		s.log.WithError(err).Error("save failed")
		return model.Collection{}, PersistenceError{CollectionID: c.ID, Err: err}
	}
	s.createdAt = c.CreatedAt
	s.log.WithFields(logrus.Fields{"items": len(c.OrderedItemIDs), "runs": len(c.Whitespace)}).Info("collection saved")
	return c, nil
}

// Close ends the session. Later pool snapshots are discarded and commands
// become no-ops.
func (s *Session) Close() {
	if s.closed {
		return
	}
	s.settleDrag()
	s.closed = true
	s.log.Debug("session closed")
}

func (s *Session) Closed() bool { return s.closed }

func (s *Session) setSelected(id string, selected bool) {
	e, ok := s.sidebar[id]
	if !ok {
		return
	}
	e.IsSelected = selected
	s.sidebar[id] = e
}
