// Package cloud syncs the task pool with a hosted Postgres database.
// Tasks live in one row each, keyed by id and scoped by user; the anchors
// of a user live in user_settings.
package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskplanner/planner/internal/domain"
)

// PgStore is a PostgreSQL-backed domain.CloudStore.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore creates a PgStore on an existing pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

// Connect opens a pool for dsn and checks that the server answers.
func Connect(ctx context.Context, dsn string) (*PgStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return NewPgStore(pool), nil
}

// Close releases the pool.
func (s *PgStore) Close() {
	s.pool.Close()
}

// Ping checks connectivity.
func (s *PgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// EnsureTable creates the tasks and user_settings tables if they don't exist.
func (s *PgStore) EnsureTable(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id                   TEXT PRIMARY KEY,
			user_id              TEXT NOT NULL,
			position             INTEGER NOT NULL DEFAULT 0,
			date                 TEXT NOT NULL,
			name                 TEXT NOT NULL,
			estimated_duration   INTEGER NOT NULL,
			priority             TEXT NOT NULL,
			is_fixed             BOOLEAN NOT NULL DEFAULT false,
			start_time           TIMESTAMPTZ,
			end_time             TIMESTAMPTZ,
			actual_start_time    TIMESTAMPTZ,
			actual_end_time      TIMESTAMPTZ,
			actual_duration      INTEGER NOT NULL DEFAULT 0,
			status               TEXT NOT NULL,
			preserved_start_time TIMESTAMPTZ,
			preserved_end_time   TIMESTAMPTZ,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, position)`)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS user_settings (
			user_id      TEXT PRIMARY KEY,
			anchor_times JSONB NOT NULL DEFAULT '{}',
			updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	return err
}

// Fetch returns every task and anchor stored for userID.
func (s *PgStore) Fetch(ctx context.Context, userID string) (domain.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+columnList()+` FROM tasks WHERE user_id = $1 ORDER BY position, created_at, id`, userID)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch tasks: %w", err)
	}
	defer rows.Close()

	var snap domain.Snapshot
	for rows.Next() {
		var r Row
		if err := rows.Scan(r.targets()...); err != nil {
			return domain.Snapshot{}, fmt.Errorf("scan task: %w", err)
		}
		snap.Tasks = append(snap.Tasks, FromRow(r))
	}
	if err := rows.Err(); err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch tasks: %w", err)
	}

	var raw []byte
	err = s.pool.QueryRow(ctx, `SELECT anchor_times FROM user_settings WHERE user_id = $1`, userID).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return snap, nil
	case err != nil:
		return domain.Snapshot{}, fmt.Errorf("fetch settings: %w", err)
	}
	if err := json.Unmarshal(raw, &snap.AnchorTimes); err != nil {
		return domain.Snapshot{}, fmt.Errorf("decode anchor_times: %w", err)
	}
	if len(snap.AnchorTimes) == 0 {
		snap.AnchorTimes = nil
	}
	return snap, nil
}

// Push upserts every task of snap and replaces the user's anchors in one
// transaction. Remote tasks missing from snap are left alone; removals go
// through Delete.
func (s *PgStore) Push(ctx context.Context, userID string, snap domain.Snapshot) error {
	anchors := snap.AnchorTimes
	if anchors == nil {
		anchors = map[string]time.Time{}
	}
	anchorJSON, err := json.Marshal(anchors)
	if err != nil {
		return fmt.Errorf("marshal anchors: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	now := time.Now()
	for i, t := range snap.Tasks {
		r := ToRow(t)
		args := append(r.values(), userID, i, now)
		batch.Queue(upsertTaskSQL, args...)
	}
	batch.Queue(`
		INSERT INTO user_settings (user_id, anchor_times, updated_at)
		VALUES ($1, $2::jsonb, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			anchor_times = EXCLUDED.anchor_times,
			updated_at = EXCLUDED.updated_at`,
		userID, string(anchorJSON), now)

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("push row %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("push: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit push: %w", err)
	}
	return nil
}

// Delete removes one task row. Deleting a missing row is not an error.
func (s *PgStore) Delete(ctx context.Context, taskID string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID); err != nil {
		return fmt.Errorf("delete task %s: %w", taskID, err)
	}
	return nil
}

var upsertTaskSQL = buildUpsert()

func columnList() string {
	cols := make([]string, len(taskColumns))
	for i, c := range taskColumns {
		cols[i] = c.column
	}
	return strings.Join(cols, ", ")
}

// buildUpsert renders the task upsert: the Task columns, then user_id,
// position and updated_at.
func buildUpsert() string {
	n := len(taskColumns)
	params := make([]string, n+3)
	for i := range params {
		params[i] = fmt.Sprintf("$%d", i+1)
	}
	sets := make([]string, 0, n+2)
	for _, c := range taskColumns[1:] {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c.column, c.column))
	}
	sets = append(sets, "user_id = EXCLUDED.user_id", "position = EXCLUDED.position", "updated_at = EXCLUDED.updated_at")

	return fmt.Sprintf(`INSERT INTO tasks (%s, user_id, position, updated_at) VALUES (%s) ON CONFLICT (id) DO UPDATE SET %s`,
		columnList(), strings.Join(params, ", "), strings.Join(sets, ", "))
}

var _ domain.CloudStore = (*PgStore)(nil)
