package session

import (
	"errors"
	"fmt"
)

var ErrClosed = errors.New("editing session closed")

// ErrNotSeeded is returned by Save while the persisted arrangement is still
// waiting for its first pool snapshot.
var ErrNotSeeded = errors.New("collection not yet reconciled with the pool")

// PersistenceError wraps a failed save. The session's staged state is left
// exactly as it was, so the caller can retry.
type PersistenceError struct {
	CollectionID string
	Err          error
}

func (e PersistenceError) Error() string {
	return fmt.Sprintf("save collection %s: %v", e.CollectionID, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }
