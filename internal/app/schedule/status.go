package schedule

import (
	"time"

	"github.com/taskplanner/planner/internal/domain"
)

// ResolveStatus derives the status to display for a scheduled task at now.
// Pending and in-progress tasks whose slot has ended become overdue.
// Completed is terminal and overdue is never reverted here.
func ResolveStatus(t domain.ScheduledTask, now time.Time) domain.Status {
	switch t.Status {
	case domain.StatusPending, domain.StatusInProgress:
		if !t.CalculatedEndTime.IsZero() && now.After(t.CalculatedEndTime) {
			return domain.StatusOverdue
		}
	}
	return t.Status
}

// ResolveAll returns a copy of tasks with every status resolved at now.
func ResolveAll(tasks []domain.ScheduledTask, now time.Time) []domain.ScheduledTask {
	if tasks == nil {
		return nil
	}
	out := make([]domain.ScheduledTask, len(tasks))
	for i, t := range tasks {
		t.Status = ResolveStatus(t, now)
		out[i] = t
	}
	return out
}
