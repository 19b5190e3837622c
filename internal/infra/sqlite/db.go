// Package sqlite provides the local SQLite store for the planner.
// Uses WAL mode for concurrent reads and crash-safe writes.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver (no CGO required)

	"github.com/taskplanner/planner/internal/domain"
)

// Keys in the kv table.
const (
	KeySnapshot = "taskPool"
	KeyLastSync = "lastSync"
)

// DB wraps a SQLite connection with WAL mode and migrations.
type DB struct {
	db *sql.DB
}

// Open creates or opens the SQLite database at dir/state.db.
// Enables WAL mode, foreign keys, and 5-second busy timeout.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "state.db")
	dsn := dbPath + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	d := &DB{db: db}
	if err := d.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return d, nil
}

// Close cleanly shuts down the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Ping checks database connectivity.
func (d *DB) Ping() error {
	return d.db.Ping()
}

// migrate runs idempotent schema migrations.
func (d *DB) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS kv (
			key        TEXT PRIMARY KEY,
			value      TEXT NOT NULL,
			updated_at INTEGER NOT NULL
		)`,

		// Remote deletes that have not been confirmed yet
		`CREATE TABLE IF NOT EXISTS pending_deletes (
			task_id   TEXT PRIMARY KEY,
			queued_at INTEGER NOT NULL
		)`,
	}

	for _, m := range migrations {
		if _, err := d.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w\nSQL: %s", err, m)
		}
	}
	return nil
}

// ─── Key-Value ──────────────────────────────────────────────────────────────

// Put stores a value under key, replacing any previous one.
func (d *DB) Put(ctx context.Context, key, value string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	return err
}

// Get returns the value stored under key. ok is false when the key is absent.
func (d *DB) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	err = d.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// ─── Snapshot Store ─────────────────────────────────────────────────────────

// LoadSnapshot reads the persisted task pool. ok is false on first run.
func (d *DB) LoadSnapshot(ctx context.Context) (domain.Snapshot, bool, error) {
	raw, ok, err := d.Get(ctx, KeySnapshot)
	if err != nil || !ok {
		return domain.Snapshot{}, false, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return domain.Snapshot{}, false, fmt.Errorf("decode %s: %w", KeySnapshot, err)
	}
	return snap, true, nil
}

// SaveSnapshot persists the whole task pool as one JSON document.
func (d *DB) SaveSnapshot(ctx context.Context, snap domain.Snapshot) error {
	raw, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode %s: %w", KeySnapshot, err)
	}
	return d.Put(ctx, KeySnapshot, string(raw))
}

// ─── Sync Bookkeeping ───────────────────────────────────────────────────────

// SetLastSync records when the last successful cloud sync finished.
func (d *DB) SetLastSync(ctx context.Context, t time.Time) error {
	return d.Put(ctx, KeyLastSync, t.UTC().Format(time.RFC3339))
}

// LastSync returns the time of the last successful cloud sync, or zero.
func (d *DB) LastSync(ctx context.Context) (time.Time, error) {
	raw, ok, err := d.Get(ctx, KeyLastSync)
	if err != nil || !ok {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339, raw)
}

// QueueDelete remembers a task id whose remote row must still be removed.
func (d *DB) QueueDelete(ctx context.Context, taskID string) error {
	_, err := d.db.ExecContext(ctx,
		`INSERT INTO pending_deletes (task_id, queued_at) VALUES (?, ?)
		 ON CONFLICT(task_id) DO NOTHING`,
		taskID, time.Now().Unix(),
	)
	return err
}

// PendingDeletes lists queued task ids, oldest first.
func (d *DB) PendingDeletes(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx,
		`SELECT task_id FROM pending_deletes ORDER BY queued_at, task_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AckDelete drops a task id from the queue once the remote delete succeeded.
func (d *DB) AckDelete(ctx context.Context, taskID string) error {
	_, err := d.db.ExecContext(ctx, `DELETE FROM pending_deletes WHERE task_id = ?`, taskID)
	return err
}
