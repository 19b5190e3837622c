// Package metrics provides Prometheus metrics for the planner.
// Counters and gauges cover task lifecycle, scheduling runs, the status
// sweep and cloud sync. All are registered with the default registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCreated tracks tasks added to the store.
var TasksCreated = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "tasks_created_total",
	Help:      "Total tasks created.",
})

// TasksStarted tracks start actions.
var TasksStarted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "tasks_started_total",
	Help:      "Total task timers started.",
})

// TasksCompleted tracks completed tasks by priority.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "tasks_completed_total",
	Help:      "Total completed tasks.",
}, []string{"priority"})

// TasksDeleted tracks deleted tasks.
var TasksDeleted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "tasks_deleted_total",
	Help:      "Total deleted tasks.",
})

// ValidationErrors tracks rejected task mutations.
var ValidationErrors = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "validation_errors_total",
	Help:      "Task mutations rejected by validation.",
})

// ─── Scheduling ─────────────────────────────────────────────────────────────

// Reschedules tracks full scheduling runs by trigger (anchor, reset, load).
var Reschedules = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "reschedules_total",
	Help:      "Full scheduling runs by trigger.",
}, []string{"trigger"})

// Reconciles tracks incremental schedule patches.
var Reconciles = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "reconciles_total",
	Help:      "Incremental schedule patches.",
})

// OverdueTransitions tracks tasks that moved to overdue.
var OverdueTransitions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "overdue_transitions_total",
	Help:      "Tasks moved to overdue by the status resolver.",
})

// OverdueTasks is the number of overdue tasks seen by the last sweep.
var OverdueTasks = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "planner",
	Name:      "overdue_tasks",
	Help:      "Overdue tasks at the last status sweep.",
})

// ─── Persistence & Sync ─────────────────────────────────────────────────────

// SnapshotSaves tracks local snapshot writes by result (ok, error).
var SnapshotSaves = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "snapshot_saves_total",
	Help:      "Local snapshot writes by result.",
}, []string{"result"})

// SyncOps tracks cloud operations by op (push, delete, fetch) and result.
var SyncOps = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "planner",
	Name:      "sync_operations_total",
	Help:      "Cloud sync operations by op and result.",
}, []string{"op", "result"})

// SyncLatency tracks a full debounced flush (deletes + push).
var SyncLatency = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "planner",
	Name:      "sync_flush_seconds",
	Help:      "Duration of a debounced cloud flush.",
	Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
})

// PendingDeletes is the number of task deletions waiting for the next flush.
var PendingDeletes = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "planner",
	Name:      "sync_pending_deletes",
	Help:      "Task deletions queued for the cloud.",
})
