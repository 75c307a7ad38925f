package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	minPaneWidth  = 20
	sidebarShare  = 3 // sidebar gets 1/sidebarShare of the width
	placeholderCh = "·"
)

func (m editorModel) View() string {
	w := m.width
	if w <= 0 {
		w = 100
	}
	h := m.height
	if h <= 0 {
		h = 30
	}

	header := m.headerView(w)
	footer := m.footerView(w)
	bodyH := h - lipgloss.Height(header) - lipgloss.Height(footer) - 2
	if bodyH < 3 {
		bodyH = 3
	}

	sideW := w / sidebarShare
	if sideW < minPaneWidth {
		sideW = minPaneWidth
	}
	stageW := w - sideW - 4
	if stageW < minPaneWidth {
		stageW = minPaneWidth
	}

	side := m.sidebarView(sideW-4, bodyH)
	stage := m.stagingView(stageW-4, bodyH)

	sideStyle, stageStyle := stylePane, stylePane
	if m.focus == paneSidebar {
		sideStyle = stylePaneOn
	} else {
		stageStyle = stylePaneOn
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		sideStyle.Width(sideW-2).Height(bodyH).Render(side),
		stageStyle.Width(stageW-2).Height(bodyH).Render(stage),
	)
	return lipgloss.JoinVertical(lipgloss.Left, header, body, footer)
}

func (m editorModel) headerView(w int) string {
	d := m.sess.Draft()
	name := d.Name
	if name == "" {
		name = d.ID
	}
	meta := fmt.Sprintf("  %d staged · %d columns", len(m.sess.Staged()), d.Layout.Columns)
	if m.dirty {
		meta += " · modified"
	}
	if m.sess.Seeding() {
		meta += " · waiting for pool"
	} else if m.inFlight > 0 {
		meta += " · refreshing"
	}
	line := styleTitle.Render(name) + styleMuted.Render(meta)
	return xansi.Truncate(line, w, "…")
}

func (m editorModel) footerView(w int) string {
	status := m.status
	if status == "" && !m.sess.HasStagedContent() {
		status = "Nothing staged yet"
	}
	st := styleMuted
	if m.statusWarn {
		st = styleWarn
	}
	lines := []string{xansi.Truncate(st.Render(status), w, "…"), m.help.View(m.keys)}
	return strings.Join(lines, "\n")
}

func (m editorModel) sidebarView(w, h int) string {
	list := m.sess.SidebarList()
	if len(list) == 0 {
		return styleMuted.Render("No items in pool")
	}
	start := scrollStart(m.sideCur, len(list), h)
	var b strings.Builder
	for i := start; i < len(list) && i < start+h; i++ {
		e := list[i]
		mark := "[ ]"
		if e.IsSelected {
			mark = "[x]"
		}
		label := e.Item.Name
		if label == "" {
			label = e.ID
		}
		line := xansi.Truncate(mark+" "+label, w, "…")
		if m.focus == paneSidebar && i == m.sideCur {
			line = styleCursor.Render(line)
		}
		if i > start {
			b.WriteByte('\n')
		}
		b.WriteString(line)
	}
	return b.String()
}

// stagingView lays the staged entries out as a grid with the session's
// column count; empty cells are drawn as dots.
func (m editorModel) stagingView(w, h int) string {
	staged := m.sess.Staged()
	if len(staged) == 0 {
		return styleMuted.Render("Stage items from the pool (space)")
	}
	cols := m.sess.Layout().Columns
	if cols < 1 {
		cols = 1
	}
	cellW := w / cols
	if cellW < 4 {
		cellW = 4
	}
	dragIdx, dragging := m.sess.Dragging()

	rows := (len(staged) + cols - 1) / cols
	curRow := m.stageCur / cols
	start := scrollStart(curRow, rows, h)

	var b strings.Builder
	for r := start; r < rows && r < start+h; r++ {
		if r > start {
			b.WriteByte('\n')
		}
		for c := 0; c < cols; c++ {
			i := r*cols + c
			if i >= len(staged) {
				break
			}
			label := staged[i].Label()
			if staged[i].IsPlaceholder() {
				label = strings.Repeat(placeholderCh, 3)
			}
			cell := xansi.Truncate(label, cellW-1, "…")
			cell += strings.Repeat(" ", max(0, cellW-1-xansi.StringWidth(cell)))
			switch {
			case dragging && i == dragIdx:
				cell = styleDragging.Render(cell)
			case m.focus == paneStaging && i == m.stageCur:
				cell = styleCursor.Render(cell)
			case staged[i].IsPlaceholder():
				cell = styleMuted.Render(cell)
			}
			b.WriteString(cell)
			b.WriteByte(' ')
		}
	}
	return b.String()
}

func scrollStart(cur, n, h int) int {
	if h <= 0 || n <= h {
		return 0
	}
	start := cur - h/2
	if start < 0 {
		start = 0
	}
	if start > n-h {
		start = n - h
	}
	return start
}
