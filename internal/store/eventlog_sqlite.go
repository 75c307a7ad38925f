package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"gallery-cli/internal/model"

	"github.com/google/uuid"
)

const (
	EventCollectionSaved  = "collection.saved"
	EventCollectionPruned = "collection.pruned"
)

// AppendEvent records an audit event for entityID. payload is marshalled to
// JSON; nil becomes {}.
func (s Store) AppendEvent(ctx context.Context, typ, entityID string, payload any) (model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return model.Event{}, err
	}
	defer db.Close()

	if payload == nil {
		payload = map[string]any{}
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return model.Event{}, err
	}
	ev := model.Event{
		ID:       uuid.NewString(),
		TS:       time.Now().UTC(),
		Type:     strings.TrimSpace(typ),
		EntityID: strings.TrimSpace(entityID),
		Payload:  payload,
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO events(id, ts_unixms, type, entity_id, payload_json) VALUES(?, ?, ?, ?, ?)`,
		ev.ID, ev.TS.UnixMilli(), ev.Type, ev.EntityID, string(raw)); err != nil {
		return model.Event{}, err
	}
	return ev, nil
}

// RecordSave appends the audit trail for a successful save: one
// collection.pruned event when pruned is non-empty, then collection.saved.
func (s Store) RecordSave(ctx context.Context, c model.Collection, pruned []string) error {
	if len(pruned) > 0 {
		if _, err := s.AppendEvent(ctx, EventCollectionPruned, c.ID, map[string]any{"ids": pruned}); err != nil {
			return err
		}
	}
	_, err := s.AppendEvent(ctx, EventCollectionSaved, c.ID, map[string]any{
		"items":   len(c.OrderedItemIDs),
		"runs":    len(c.Whitespace),
		"columns": c.Layout.Columns,
	})
	return err
}

// ReadEvents returns events oldest first. An empty entityID reads all events;
// limit <= 0 means no limit (the newest limit events are kept).
func (s Store) ReadEvents(ctx context.Context, entityID string, limit int) ([]model.Event, error) {
	db, err := s.openSQLite(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	q := `SELECT id, ts_unixms, type, entity_id, payload_json FROM events`
	var args []any
	if id := strings.TrimSpace(entityID); id != "" {
		q += ` WHERE entity_id = ?`
		args = append(args, id)
	}
	q += ` ORDER BY ts_unixms DESC, rowid DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Event
	for rows.Next() {
		var ev model.Event
		var tsMs int64
		var payload string
		if err := rows.Scan(&ev.ID, &tsMs, &ev.Type, &ev.EntityID, &payload); err != nil {
			return nil, err
		}
		ev.TS = time.UnixMilli(tsMs).UTC()
		var v any
		if err := json.Unmarshal([]byte(payload), &v); err != nil {
			return nil, err
		}
		ev.Payload = v
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// Reverse into chronological order.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}
