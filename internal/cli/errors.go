package cli

import (
	"errors"
	"fmt"
)

var errNoPool = errors.New("no item pool cached yet; run `gallery pool import <items.json>` first")

type indexError struct {
	what  string
	index int
	len   int
}

func (e indexError) Error() string {
	return fmt.Sprintf("%s: index %d out of range (staged entries: %d)", e.what, e.index, e.len)
}

type alreadyExistsError struct {
	kind string
	id   string
}

func (e alreadyExistsError) Error() string {
	return fmt.Sprintf("%s already exists: %s", e.kind, e.id)
}
