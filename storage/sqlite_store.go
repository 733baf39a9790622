package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Snapshot is one stored cache entry. Payload is opaque to the store.
type Snapshot struct {
	Key        string
	CapturedAt time.Time
	RangeKey   string
	Payload    []byte
	// Size is the payload length in bytes; set by ListSnapshots.
	Size int
}

type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create cache directory %q: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One connection: snapshot writes are sequential per refresh cycle.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.ensureSchema(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ensureSchema() error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key TEXT PRIMARY KEY,
	captured_at TEXT NOT NULL,
	range_key TEXT NOT NULL DEFAULT '',
	payload BLOB NOT NULL
);
`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// PutSnapshot stores the snapshot, replacing any prior entry under the same key.
func (s *SQLiteStore) PutSnapshot(snapshot Snapshot) error {
	if strings.TrimSpace(snapshot.Key) == "" {
		return errors.New("snapshot key is required")
	}

	const upsertStmt = `
INSERT INTO cache_entries (key, captured_at, range_key, payload)
VALUES (?, ?, ?, ?)
ON CONFLICT(key) DO UPDATE SET
	captured_at = excluded.captured_at,
	range_key = excluded.range_key,
	payload = excluded.payload;`

	if _, err := s.db.Exec(
		upsertStmt,
		snapshot.Key,
		snapshot.CapturedAt.UTC().Format(time.RFC3339Nano),
		snapshot.RangeKey,
		snapshot.Payload,
	); err != nil {
		return fmt.Errorf("store snapshot %q: %w", snapshot.Key, err)
	}
	return nil
}

// GetSnapshot returns the snapshot stored under key. The second return value
// is false when no snapshot exists.
func (s *SQLiteStore) GetSnapshot(key string) (Snapshot, bool, error) {
	const query = `
SELECT key, captured_at, range_key, payload
FROM cache_entries
WHERE key = ?;
`

	var (
		snapshot    Snapshot
		capturedRaw string
	)
	err := s.db.QueryRow(query, key).Scan(&snapshot.Key, &capturedRaw, &snapshot.RangeKey, &snapshot.Payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Snapshot{}, false, nil
		}
		return Snapshot{}, false, fmt.Errorf("query snapshot %q: %w", key, err)
	}

	snapshot.CapturedAt, err = time.Parse(time.RFC3339Nano, capturedRaw)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("parse captured_at %q: %w", capturedRaw, err)
	}
	return snapshot, true, nil
}

// ListSnapshots returns all stored snapshots without payloads, ordered by key.
func (s *SQLiteStore) ListSnapshots() ([]Snapshot, error) {
	rows, err := s.db.Query(`SELECT key, captured_at, range_key, length(payload) FROM cache_entries ORDER BY key;`)
	if err != nil {
		return nil, fmt.Errorf("query snapshots: %w", err)
	}
	defer rows.Close()

	out := make([]Snapshot, 0, 4)
	for rows.Next() {
		var (
			snapshot    Snapshot
			capturedRaw string
		)
		if err := rows.Scan(&snapshot.Key, &capturedRaw, &snapshot.RangeKey, &snapshot.Size); err != nil {
			return nil, fmt.Errorf("scan snapshot: %w", err)
		}
		// Unparseable timestamps are listed with a zero capture time.
		snapshot.CapturedAt, _ = time.Parse(time.RFC3339Nano, capturedRaw)
		out = append(out, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return out, nil
}

// DeleteSnapshot removes the snapshot stored under key.
func (s *SQLiteStore) DeleteSnapshot(key string) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM cache_entries WHERE key = ?;`, key)
	if err != nil {
		return false, fmt.Errorf("delete snapshot %q: %w", key, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read deleted row count: %w", err)
	}
	return rowsAffected > 0, nil
}

func (s *SQLiteStore) DeleteAllSnapshots() (int64, error) {
	res, err := s.db.Exec(`DELETE FROM cache_entries;`)
	if err != nil {
		return 0, fmt.Errorf("delete snapshots: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted row count: %w", err)
	}
	return rows, nil
}
