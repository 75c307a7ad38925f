package staging

// Move describes a single positional move in the staged sequence: the entry at
// From was removed and reinserted at To.
type Move struct {
	From int
	To   int
}

// Inverse returns the move that undoes m.
func (m Move) Inverse() Move { return Move{From: m.To, To: m.From} }

// Move relocates the entry at from to index to, shifting the entries in
// between by one. Entries outside [min(from,to), max(from,to)] keep their
// positions. Returns ok=false (and changes nothing) when either index is out
// of range or from == to.
func (s *Store) Move(from, to int) (Move, bool) {
	n := len(s.entries)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		return Move{}, false
	}
	e := s.entries[from]
	if from < to {
		copy(s.entries[from:to], s.entries[from+1:to+1])
	} else {
		copy(s.entries[to+1:from+1], s.entries[to:from])
	}
	s.entries[to] = e
	return Move{From: from, To: to}, true
}

// Undo applies the inverse of m.
func (s *Store) Undo(m Move) bool {
	_, ok := s.Move(m.To, m.From)
	return ok
}

// Gesture is an in-progress drag. Moves are applied to the store as the
// gesture travels so the working area always shows the prospective result;
// Cancel puts the entry back where it started.
type Gesture struct {
	store *Store
	start int
	cur   int
	done  bool
}

// BeginDrag starts a gesture on the entry at index. Returns nil when index is
// out of range.
func (s *Store) BeginDrag(index int) *Gesture {
	if index < 0 || index >= len(s.entries) {
		return nil
	}
	return &Gesture{store: s, start: index, cur: index}
}

// Index is the dragged entry's current position.
func (g *Gesture) Index() int { return g.cur }

func (g *Gesture) Active() bool { return g != nil && !g.done }

// Over moves the dragged entry to index. Out-of-range targets are ignored.
func (g *Gesture) Over(index int) bool {
	if !g.Active() {
		return false
	}
	m, ok := g.store.Move(g.cur, index)
	if !ok {
		return false
	}
	g.cur = m.To
	return true
}

// Drop ends the gesture, keeping the current position. It returns the net
// move (From == To when the entry ended where it started).
func (g *Gesture) Drop() Move {
	if !g.Active() {
		return Move{}
	}
	g.done = true
	return Move{From: g.start, To: g.cur}
}

// Cancel ends the gesture and restores the starting position.
func (g *Gesture) Cancel() {
	if !g.Active() {
		return
	}
	g.done = true
	if g.cur != g.start {
		g.store.Undo(Move{From: g.start, To: g.cur})
	}
	g.cur = g.start
}
