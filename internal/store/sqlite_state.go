package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"gallery-cli/internal/model"
	"gallery-cli/internal/whitespace"
)

// NotFoundError reports a missing collection.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// SavePool replaces the cached pool snapshot.
func (s Store) SavePool(ctx context.Context, items []model.Item) error {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM pool_items`); err != nil {
		return err
	}
	nowMs := time.Now().UTC().UnixMilli()
	for _, it := range items {
		id := strings.TrimSpace(it.ID)
		if id == "" {
			continue
		}
		it.ID = id
		raw, err := json.Marshal(it)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO pool_items(id, owner_revision, name, json, updated_at_unixms) VALUES(?, ?, ?, ?, ?)`,
			id, it.OwnerRevision, it.Name, string(raw), nowMs); err != nil {
			return err
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO meta(k, v) VALUES('pool_imported_at', ?)`, strconv.FormatInt(nowMs, 10)); err != nil {
		return err
	}
	return tx.Commit()
}

// PoolImportedAt reports when the pool snapshot was last replaced. ok is
// false when no snapshot was ever imported.
func (s Store) PoolImportedAt(ctx context.Context) (t time.Time, ok bool, err error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return time.Time{}, false, err
	}
	defer db.Close()

	var v string
	err = db.QueryRowContext(ctx, `SELECT v FROM meta WHERE k = 'pool_imported_at'`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	ms, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("pool_imported_at: %w", err)
	}
	return time.UnixMilli(ms).UTC(), true, nil
}

// LoadPool returns the cached pool snapshot ordered by id.
func (s Store) LoadPool(ctx context.Context) ([]model.Item, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	out, err := readJSONRows[model.Item](ctx, db, `SELECT json FROM pool_items ORDER BY id`)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Item{}
	}
	return out, nil
}

// SaveCollection writes c in one transaction, replacing its previous
// arrangement. A failed write leaves the stored collection unchanged.
func (s Store) SaveCollection(ctx context.Context, c model.Collection) error {
	c.ID = strings.TrimSpace(c.ID)
	if c.ID == "" {
		return errors.New("missing collection id")
	}
	if !model.IsValidColumns(c.Layout.Columns) {
		return model.InvalidColumnsError{Value: c.Layout.Columns}
	}
	db, err := s.openSQLite(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	if c.UpdatedAt.IsZero() {
		c.UpdatedAt = now
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO collections(id, name, columns, created_at_unixms, updated_at_unixms)
		VALUES(?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, columns = excluded.columns, updated_at_unixms = excluded.updated_at_unixms`,
		c.ID, strings.TrimSpace(c.Name), c.Layout.Columns, c.CreatedAt.UnixMilli(), c.UpdatedAt.UnixMilli()); err != nil {
		return err
	}
	for _, t := range []string{"collection_items", "collection_whitespace"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+t+` WHERE collection_id = ?`, c.ID); err != nil {
			return err
		}
	}
	for i, id := range c.OrderedItemIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO collection_items(collection_id, position, item_id) VALUES(?, ?, ?)`, c.ID, i, id); err != nil {
			return err
		}
	}
	for _, r := range whitespace.Normalize(len(c.OrderedItemIDs), c.Whitespace) {
		if _, err := tx.ExecContext(ctx, `INSERT INTO collection_whitespace(collection_id, preceding_index, length) VALUES(?, ?, ?)`, c.ID, r.PrecedingIndex, r.Length); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadCollection reads one collection. Missing ids return NotFoundError.
func (s Store) LoadCollection(ctx context.Context, id string) (model.Collection, error) {
	id = strings.TrimSpace(id)
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Collection{}, err
	}
	defer db.Close()

	c, err := loadCollection(ctx, db, id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Collection{}, NotFoundError{Kind: "collection", ID: id}
	}
	return c, err
}

// ListCollections returns every collection ordered by id.
func (s Store) ListCollections(ctx context.Context) ([]model.Collection, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx, `SELECT id FROM collections ORDER BY id`)
	if err != nil {
		return nil, err
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	out := make([]model.Collection, 0, len(ids))
	for _, id := range ids {
		c, err := loadCollection(ctx, db, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func loadCollection(ctx context.Context, db *sql.DB, id string) (model.Collection, error) {
	var c model.Collection
	var createdMs, updatedMs int64
	err := db.QueryRowContext(ctx, `SELECT id, name, columns, created_at_unixms, updated_at_unixms FROM collections WHERE id = ?`, id).
		Scan(&c.ID, &c.Name, &c.Layout.Columns, &createdMs, &updatedMs)
	if err != nil {
		return model.Collection{}, err
	}
	c.CreatedAt = time.UnixMilli(createdMs).UTC()
	c.UpdatedAt = time.UnixMilli(updatedMs).UTC()

	rows, err := db.QueryContext(ctx, `SELECT item_id FROM collection_items WHERE collection_id = ? ORDER BY position`, id)
	if err != nil {
		return model.Collection{}, err
	}
	c.OrderedItemIDs = []string{}
	for rows.Next() {
		var itemID string
		if err := rows.Scan(&itemID); err != nil {
			rows.Close()
			return model.Collection{}, err
		}
		c.OrderedItemIDs = append(c.OrderedItemIDs, itemID)
	}
	rows.Close()

	wrows, err := db.QueryContext(ctx, `SELECT preceding_index, length FROM collection_whitespace WHERE collection_id = ? ORDER BY preceding_index`, id)
	if err != nil {
		return model.Collection{}, err
	}
	c.Whitespace = []model.WhitespaceRun{}
	for wrows.Next() {
		var r model.WhitespaceRun
		if err := wrows.Scan(&r.PrecedingIndex, &r.Length); err != nil {
			wrows.Close()
			return model.Collection{}, err
		}
		c.Whitespace = append(c.Whitespace, r)
	}
	wrows.Close()
	sort.Slice(c.Whitespace, func(i, j int) bool { return c.Whitespace[i].PrecedingIndex < c.Whitespace[j].PrecedingIndex })
	return c, nil
}

func readJSONRows[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []T
	for rows.Next() {
		var js string
		if err := rows.Scan(&js); err != nil {
			return nil, err
		}
		var v T
		if err := json.Unmarshal([]byte(js), &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
