// Package syncer pushes the task pool to the cloud store after a quiet
// period. Every local change re-arms one timer; when it fires the latest
// snapshot is pushed, after any queued remote deletes. A failed timed push
// is retried with exponential backoff.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/infra/metrics"
)

// DefaultDelay is the quiet period before a push.
const DefaultDelay = time.Second

// ErrStopped is returned by Flush after Stop.
var ErrStopped = errors.New("syncer stopped")

// DeleteQueue holds task ids whose remote rows still have to be removed.
// The sqlite store implements it so deletes survive a restart.
type DeleteQueue interface {
	QueueDelete(ctx context.Context, taskID string) error
	PendingDeletes(ctx context.Context) ([]string, error)
	AckDelete(ctx context.Context, taskID string) error
}

// Options configures a Syncer.
type Options struct {
	Delay      time.Duration   // quiet period; DefaultDelay when zero
	Timeout    time.Duration   // per flush when fired by the timer; 30s when zero
	MaxRetries int             // timed retries after a failed flush; 5 when zero, none when negative
	MaxDelay   time.Duration   // cap on the retry backoff; 60s when zero
	Queue      DeleteQueue     // in-memory when nil
	OnSync     func(time.Time) // called after every successful flush
}

// Syncer debounces pushes of a snapshot source to a domain.CloudStore.
type Syncer struct {
	cloud    domain.CloudStore
	userID   string
	snapshot func() domain.Snapshot
	opts     Options

	mu      sync.Mutex
	timer   *time.Timer
	dirty   bool
	stopped bool
	attempt int // consecutive failed timed flushes

	flushMu sync.Mutex // one flush at a time
}

// New creates a Syncer pushing snapshot() for userID.
func New(cloud domain.CloudStore, userID string, snapshot func() domain.Snapshot, opts Options) *Syncer {
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxRetries == 0 {
		opts.MaxRetries = 5
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = 60 * time.Second
	}
	if opts.Queue == nil {
		opts.Queue = newMemQueue()
	}
	return &Syncer{cloud: cloud, userID: userID, snapshot: snapshot, opts: opts}
}

// Schedule arms the push timer, replacing a pending one.
func (s *Syncer) Schedule() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	s.dirty = true
	s.attempt = 0
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Delay, s.fire)
}

// QueueDelete records a remote delete for the next flush.
func (s *Syncer) QueueDelete(ctx context.Context, taskID string) error {
	if err := s.opts.Queue.QueueDelete(ctx, taskID); err != nil {
		return fmt.Errorf("queue delete %s: %w", taskID, err)
	}
	s.refreshPendingGauge(ctx)
	return nil
}

// Pending reports whether a push is waiting for its timer.
func (s *Syncer) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Syncer) fire() {
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()
	err := s.Flush(ctx)
	if err == nil || errors.Is(err, ErrStopped) {
		return
	}
	log.Printf("[sync] flush failed: %v", err)
	s.retry()
}

// retry re-arms the timer with backoff unless a newer change already did.
// Once retries run out the snapshot stays dirty for Stop or the next change.
func (s *Syncer) retry() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.dirty {
		return
	}
	s.dirty = true
	if s.opts.MaxRetries < 0 || s.attempt >= s.opts.MaxRetries {
		log.Printf("[sync] giving up after %d retries; waiting for the next change", s.attempt)
		return
	}
	delay := backoff(s.opts.Delay, s.attempt, s.opts.MaxDelay)
	s.attempt++
	s.timer = time.AfterFunc(delay, s.fire)
}

// backoff doubles base for each attempt, capped at limit.
func backoff(base time.Duration, attempt int, limit time.Duration) time.Duration {
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if d >= limit {
			return limit
		}
	}
	return min(d, limit)
}

// Flush runs the queued deletes, then pushes the current snapshot.
// Deletes that fail stay queued. A failed push is retried on the next
// Schedule; local state is never rolled back.
func (s *Syncer) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return ErrStopped
	}
	s.dirty = false
	s.mu.Unlock()

	return s.flush(ctx)
}

func (s *Syncer) flush(ctx context.Context) error {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	start := time.Now()
	defer func() { metrics.SyncLatency.Observe(time.Since(start).Seconds()) }()

	var errs []error
	ids, err := s.opts.Queue.PendingDeletes(ctx)
	if err != nil {
		errs = append(errs, fmt.Errorf("read delete queue: %w", err))
	}
	for _, id := range ids {
		if err := s.cloud.Delete(ctx, id); err != nil {
			metrics.SyncOps.WithLabelValues("delete", "error").Inc()
			errs = append(errs, err)
			continue
		}
		metrics.SyncOps.WithLabelValues("delete", "ok").Inc()
		if err := s.opts.Queue.AckDelete(ctx, id); err != nil {
			errs = append(errs, fmt.Errorf("ack delete %s: %w", id, err))
		}
	}
	s.refreshPendingGauge(ctx)

	snap := s.snapshot()
	if err := s.cloud.Push(ctx, s.userID, snap); err != nil {
		metrics.SyncOps.WithLabelValues("push", "error").Inc()
		errs = append(errs, fmt.Errorf("push: %w", err))
	} else {
		metrics.SyncOps.WithLabelValues("push", "ok").Inc()
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	log.Printf("[sync] pushed %d task(s), %d delete(s)", len(snap.Tasks), len(ids))
	if s.opts.OnSync != nil {
		s.opts.OnSync(time.Now())
	}
	return nil
}

// Pull fetches the remote snapshot for the configured user.
func (s *Syncer) Pull(ctx context.Context) (domain.Snapshot, error) {
	snap, err := s.cloud.Fetch(ctx, s.userID)
	if err != nil {
		metrics.SyncOps.WithLabelValues("fetch", "error").Inc()
		return domain.Snapshot{}, fmt.Errorf("fetch: %w", err)
	}
	metrics.SyncOps.WithLabelValues("fetch", "ok").Inc()
	return snap, nil
}

// Stop cancels the timer and flushes once more if a push was pending
// or deletes are still queued. Later calls to Schedule are ignored.
func (s *Syncer) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
	}
	dirty := s.dirty
	s.dirty = false
	s.mu.Unlock()

	ids, _ := s.opts.Queue.PendingDeletes(ctx)
	if !dirty && len(ids) == 0 {
		return nil
	}
	return s.flush(ctx)
}

func (s *Syncer) refreshPendingGauge(ctx context.Context) {
	if ids, err := s.opts.Queue.PendingDeletes(ctx); err == nil {
		metrics.PendingDeletes.Set(float64(len(ids)))
	}
}

// memQueue is the DeleteQueue used without a local database.
type memQueue struct {
	mu  sync.Mutex
	ids []string
}

func newMemQueue() *memQueue { return &memQueue{} }

func (q *memQueue) QueueDelete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, x := range q.ids {
		if x == id {
			return nil
		}
	}
	q.ids = append(q.ids, id)
	return nil
}

func (q *memQueue) PendingDeletes(context.Context) ([]string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]string(nil), q.ids...), nil
}

func (q *memQueue) AckDelete(_ context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i, x := range q.ids {
		if x == id {
			q.ids = append(q.ids[:i], q.ids[i+1:]...)
			break
		}
	}
	return nil
}
