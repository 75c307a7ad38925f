package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gallery-cli/internal/logging"
	"gallery-cli/internal/model"
	"gallery-cli/internal/pool"
	"gallery-cli/internal/session"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
)

// Store persists the edited collection and its audit trail.
type Store interface {
	session.Writer
	RecordSave(ctx context.Context, c model.Collection, pruned []string) error
}

type pane int

const (
	paneSidebar pane = iota
	paneStaging
)

const fetchTimeout = 10 * time.Second

// poolMsg carries a fetched snapshot back to the event loop with the stamp it
// was requested under.
type poolMsg struct {
	seq   uint64
	items []model.Item
	err   error
}

// poolChangedMsg is sent when the watched pool file changed on disk.
type poolChangedMsg struct{}

type editorModel struct {
	sess   *session.Session
	store  Store
	source pool.Source
	log    *logrus.Entry

	changes <-chan struct{}

	keys     keyMap
	help     help.Model
	width    int
	height   int
	focus    pane
	sideCur  int
	stageCur int

	dragFrom   int
	inFlight   int
	initialSeq uint64

	dirty         bool
	quitArmed     bool
	pendingPruned []string
	status        string
	statusWarn    bool
}

func newEditorModel(sess *session.Session, st Store, src pool.Source, changes <-chan struct{}) editorModel {
	return editorModel{
		sess:       sess,
		store:      st,
		source:     src,
		log:        logging.NewLogger("tui").WithField("collection", sess.CollectionID()),
		changes:    changes,
		keys:       defaultKeyMap(),
		help:       help.New(),
		focus:      paneSidebar,
		initialSeq: sess.BeginRefresh(),
		inFlight:   1,
	}
}

func (m editorModel) Init() tea.Cmd {
	return tea.Batch(m.fetch(m.initialSeq), m.waitForChange())
}

// startRefresh stamps a new pool request and fetches it off the event loop.
// Results may arrive out of order; the session drops stale ones.
func (m *editorModel) startRefresh() tea.Cmd {
	seq := m.sess.BeginRefresh()
	m.inFlight++
	return m.fetch(seq)
}

func (m editorModel) fetch(seq uint64) tea.Cmd {
	src := m.source
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		items, err := src.Fetch(ctx)
		return poolMsg{seq: seq, items: items, err: err}
	}
}

func (m editorModel) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	ch := m.changes
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return poolChangedMsg{}
	}
}

func (m editorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case poolMsg:
		if m.inFlight > 0 {
			m.inFlight--
		}
		if msg.err != nil {
			m.log.WithError(msg.err).WithField("seq", msg.seq).Warn("pool fetch failed")
			m.setWarn("Refresh failed: " + msg.err.Error())
			return m, nil
		}
		res := m.sess.ApplyPool(msg.seq, msg.items)
		switch res.Outcome {
		case session.Applied:
			if len(res.Removed) > 0 {
				m.pendingPruned = append(m.pendingPruned, res.Removed...)
				m.dirty = true
				m.setWarn(fmt.Sprintf("Removed %d item(s) no longer in the pool", len(res.Removed)))
			} else if !res.Seeded {
				m.setStatus("Pool refreshed")
			}
			m.clampCursors()
		case session.Unchanged:
			m.setStatus("Pool unchanged")
		}
		return m, nil

	case poolChangedMsg:
		cmd := tea.Batch(m.startRefresh(), m.waitForChange())
		return m, cmd

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m editorModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if !key.Matches(msg, m.keys.Quit) {
		m.quitArmed = false
	}

	if _, dragging := m.sess.Dragging(); dragging {
		return m.updateDragKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.dirty && !m.quitArmed {
			m.quitArmed = true
			m.setWarn("Unsaved changes: press q again to discard, s to save")
			return m, nil
		}
		m.sess.Close()
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.SwitchPane):
		if m.focus == paneSidebar {
			m.focus = paneStaging
		} else {
			m.focus = paneSidebar
		}
		return m, nil

	case key.Matches(msg, m.keys.Refresh):
		m.setStatus("Refreshing…")
		cmd := m.startRefresh()
		return m, cmd

	case key.Matches(msg, m.keys.Save):
		m.save()
		return m, nil

	case key.Matches(msg, m.keys.MoreCols):
		m.setColumns(m.sess.Layout().Columns + 1)
		return m, nil

	case key.Matches(msg, m.keys.FewerCols):
		m.setColumns(m.sess.Layout().Columns - 1)
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.moveCursor(-1)
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.moveCursor(1)
		return m, nil
	}

	if m.focus == paneSidebar {
		if key.Matches(msg, m.keys.Toggle) {
			list := m.sess.SidebarList()
			if m.sideCur < len(list) {
				m.sess.Toggle(list[m.sideCur].ID)
				m.dirty = true
				m.clampCursors()
			}
		}
		return m, nil
	}

	staged := m.sess.Staged()
	switch {
	case key.Matches(msg, m.keys.Toggle):
		if m.stageCur < len(staged) && !staged[m.stageCur].IsPlaceholder() {
			m.sess.Unstage(staged[m.stageCur].ID)
			m.dirty = true
			m.clampCursors()
		}
	case key.Matches(msg, m.keys.Pick):
		if m.sess.BeginDrag(m.stageCur) {
			m.dragFrom = m.stageCur
			m.setStatus("Moving: ↑/↓ to position, enter to drop, esc to cancel")
		}
	case key.Matches(msg, m.keys.Space):
		after := m.stageCur
		if len(staged) == 0 {
			after = -1
		}
		if m.sess.InsertPlaceholder(after) {
			m.dirty = true
			if len(staged) > 0 {
				m.stageCur++
			}
		}
	case key.Matches(msg, m.keys.Unspace):
		if m.sess.RemovePlaceholder(m.stageCur) {
			m.dirty = true
			m.clampCursors()
		}
	}
	return m, nil
}

func (m editorModel) updateDragKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	idx, _ := m.sess.Dragging()
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.sess.DragOver(idx - 1) {
			m.stageCur = idx - 1
		}
	case key.Matches(msg, m.keys.Down):
		if m.sess.DragOver(idx + 1) {
			m.stageCur = idx + 1
		}
	case key.Matches(msg, m.keys.Drop), key.Matches(msg, m.keys.Pick):
		if mv, ok := m.sess.DropDrag(); ok {
			m.stageCur = mv.To
			if mv.From != mv.To {
				m.dirty = true
			}
			m.setStatus("")
		}
	case key.Matches(msg, m.keys.Cancel):
		if m.sess.CancelDrag() {
			m.stageCur = m.dragFrom
			m.setStatus("Move cancelled")
		}
	case key.Matches(msg, m.keys.Quit):
		m.sess.CancelDrag()
		m.stageCur = m.dragFrom
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *editorModel) save() {
	if m.sess.Seeding() {
		m.setWarn("Waiting for pool…")
		return
	}
	c, err := m.sess.Save(context.Background(), m.store)
	if err != nil {
		var pe session.PersistenceError
		if errors.As(err, &pe) {
			m.setWarn("Save failed: " + pe.Err.Error())
		} else {
			m.setWarn("Save failed: " + err.Error())
		}
		return
	}
	if err := m.store.RecordSave(context.Background(), c, m.pendingPruned); err != nil {
		m.log.WithError(err).Warn("record save events")
	}
	m.pendingPruned = nil
	m.dirty = false
	m.setStatus(fmt.Sprintf("Saved %d item(s)", len(c.OrderedItemIDs)))
}

func (m *editorModel) setColumns(n int) {
	got, err := m.sess.SetColumns(n)
	if err != nil {
		m.setWarn(err.Error())
		return
	}
	m.dirty = true
	m.setStatus(fmt.Sprintf("Columns: %d", got))
}

func (m *editorModel) moveCursor(delta int) {
	if m.focus == paneSidebar {
		m.sideCur += delta
	} else {
		m.stageCur += delta
	}
	m.clampCursors()
}

func (m *editorModel) clampCursors() {
	m.sideCur = clampIndex(m.sideCur, len(m.sess.Sidebar()))
	m.stageCur = clampIndex(m.stageCur, len(m.sess.Staged()))
}

func clampIndex(i, n int) int {
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (m *editorModel) setStatus(s string) {
	m.status = s
	m.statusWarn = false
}

func (m *editorModel) setWarn(s string) {
	m.status = s
	m.statusWarn = true
}
