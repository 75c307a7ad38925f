// Package pool provides the item pool sources an editing session refreshes
// from, plus a file watcher that triggers background resyncs.
package pool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gallery-cli/internal/model"
)

// Source fetches the current owned item pool.
type Source interface {
	Fetch(ctx context.Context) ([]model.Item, error)
}

// FileSource reads a JSON document of items: either a bare array or an
// object with an "items" array.
type FileSource struct {
	Path string
}

func (f FileSource) Fetch(ctx context.Context) ([]model.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, err
	}
	items, err := DecodeItems(b)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", f.Path, err)
	}
	return items, nil
}

// DecodeItems parses an items document. Entries with a blank id are dropped.
func DecodeItems(b []byte) ([]model.Item, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 {
		return []model.Item{}, nil
	}
	var items []model.Item
	if b[0] == '{' {
		var doc struct {
			Items []model.Item `json:"items"`
		}
		if err := json.Unmarshal(b, &doc); err != nil {
			return nil, err
		}
		items = doc.Items
	} else if err := json.Unmarshal(b, &items); err != nil {
		return nil, err
	}

	out := make([]model.Item, 0, len(items))
	for _, it := range items {
		it.ID = strings.TrimSpace(it.ID)
		if it.ID == "" {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// PoolStore is the cached-pool half of store.Store.
type PoolStore interface {
	LoadPool(ctx context.Context) ([]model.Item, error)
	SavePool(ctx context.Context, items []model.Item) error
}

// StoreSource serves the pool snapshot cached in the local database.
type StoreSource struct {
	Store PoolStore
}

func (s StoreSource) Fetch(ctx context.Context) ([]model.Item, error) {
	return s.Store.LoadPool(ctx)
}

// SyncSource fetches from Upstream and caches the result in Store, so the
// non-interactive commands see what the editor last saw.
type SyncSource struct {
	Upstream Source
	Store    PoolStore
}

func (s SyncSource) Fetch(ctx context.Context) ([]model.Item, error) {
	items, err := s.Upstream.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.Store.SavePool(ctx, items); err != nil {
		return nil, fmt.Errorf("cache pool: %w", err)
	}
	return items, nil
}
