package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const (
	dirName        = ".gallery"
	sqliteFileName = "gallery.sqlite"
	schemaVersion  = "1"
)

type Store struct {
	Dir string
}

// DiscoverDir walks up from start looking for a .gallery directory.
func DiscoverDir(start string) (string, bool) {
	dir := start
	for {
		candidate := filepath.Join(dir, dirName)
		if st, err := os.Stat(candidate); err == nil && st.IsDir() {
			return candidate, true
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", false
		}
		dir = parent
	}
}

func DefaultDir() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if found, ok := DiscoverDir(cwd); ok {
		return found, nil
	}
	return filepath.Join(cwd, dirName), nil
}

func (s Store) Ensure() error {
	return os.MkdirAll(s.Dir, 0o755)
}

func (s Store) sqlitePath() string {
	return filepath.Join(s.Dir, sqliteFileName)
}

func (s Store) openSQLite(ctx context.Context) (*sql.DB, error) {
	if err := s.Ensure(); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", s.sqlitePath())
	if err != nil {
		return nil, err
	}
	// WAL lets a CLI command read while an editor session writes.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrateSQLite(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", s.sqlitePath(), err)
	}
	return db, nil
}

func migrateSQLite(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS pool_items (
			id TEXT PRIMARY KEY,
			owner_revision TEXT NOT NULL,
			name TEXT NOT NULL,
			json TEXT NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS collections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			columns INTEGER NOT NULL,
			created_at_unixms INTEGER NOT NULL,
			updated_at_unixms INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS collection_items (
			collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			item_id TEXT NOT NULL,
			PRIMARY KEY (collection_id, position)
		);`,
		`CREATE TABLE IF NOT EXISTS collection_whitespace (
			collection_id TEXT NOT NULL REFERENCES collections(id) ON DELETE CASCADE,
			preceding_index INTEGER NOT NULL,
			length INTEGER NOT NULL,
			PRIMARY KEY (collection_id, preceding_index)
		);`,
		`CREATE TABLE IF NOT EXISTS events (
			id TEXT PRIMARY KEY,
			ts_unixms INTEGER NOT NULL,
			type TEXT NOT NULL,
			entity_id TEXT NOT NULL,
			payload_json TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_events_entity ON events(entity_id, ts_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	_, err := db.ExecContext(ctx, `INSERT OR IGNORE INTO meta(k, v) VALUES('schema_version', ?)`, schemaVersion)
	return err
}
