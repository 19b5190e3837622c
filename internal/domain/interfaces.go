package domain

import "context"

// ─── Collaborator Interfaces ────────────────────────────────────────────────
// Infrastructure implements these; the planner core never depends on them
// directly, the daemon wires them to store change notifications.

// SnapshotStore is the local persistence collaborator. The whole store is
// saved as one blob on every change and loaded once at startup.
type SnapshotStore interface {
	// LoadSnapshot returns false when nothing was saved yet.
	LoadSnapshot(ctx context.Context) (Snapshot, bool, error)
	SaveSnapshot(ctx context.Context, snap Snapshot) error
}

// CloudStore is the hosted sync collaborator.
type CloudStore interface {
	Fetch(ctx context.Context, userID string) (Snapshot, error)
	Push(ctx context.Context, userID string, snap Snapshot) error
	Delete(ctx context.Context, taskID string) error
}
