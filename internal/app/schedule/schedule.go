// Package schedule places one date's tasks on a timeline.
//
// Three pure functions cover the whole engine:
//   - Schedule: full plan from an anchor, routing flexible tasks around fixed windows
//   - ResolveStatus: derives overdue from a slot and the current time
//   - Reconcile: patches a previous plan after edits without re-planning
package schedule

import (
	"sort"
	"time"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// Schedule lays out tasks starting at anchor. Fixed tasks keep their
// declared window. Flexible tasks are taken by priority (stable for ties)
// and packed back to back from the anchor, each skipping past any fixed
// window it would overlap. The result is sorted by calculated start.
//
// Completed tasks must be filtered out by the caller. Fixed windows are
// assumed not to overlap each other.
func Schedule(tasks []domain.Task, anchor time.Time) []domain.ScheduledTask {
	if anchor.IsZero() || len(tasks) == 0 {
		return nil
	}

	var fixed, flexible []domain.Task
	for _, t := range tasks {
		if t.HasWindow() {
			fixed = append(fixed, t)
		} else {
			flexible = append(flexible, t)
		}
	}

	sort.SliceStable(fixed, func(i, j int) bool {
		return fixed[i].StartTime.Before(fixed[j].StartTime)
	})
	sort.SliceStable(flexible, func(i, j int) bool {
		return flexible[i].Priority.Weight() > flexible[j].Priority.Weight()
	})

	out := make([]domain.ScheduledTask, 0, len(tasks))
	cursor := anchor
	for _, t := range flexible {
		start, end := place(cursor, t.EstimatedDuration, fixed)
		out = append(out, domain.ScheduledTask{
			Task:                t,
			CalculatedStartTime: start,
			CalculatedEndTime:   end,
		})
		cursor = end
	}
	for _, t := range fixed {
		out = append(out, domain.ScheduledTask{
			Task:                t,
			CalculatedStartTime: t.StartTime,
			CalculatedEndTime:   t.EndTime,
		})
	}

	sortByStart(out)
	return out
}

// place finds the first slot at or after cursor that clears every fixed
// window. Each conflict moves the start strictly forward to a fixed end,
// so the loop visits each fixed window at most once.
func place(cursor time.Time, minutes int, fixed []domain.Task) (time.Time, time.Time) {
	start := cursor
	end := timeutil.AddMinutes(start, minutes)
	for {
		blocker, ok := firstConflict(start, end, fixed)
		if !ok {
			return start, end
		}
		start = blocker.EndTime
		end = timeutil.AddMinutes(start, minutes)
	}
}

func firstConflict(start, end time.Time, fixed []domain.Task) (domain.Task, bool) {
	for _, f := range fixed {
		if timeutil.Overlaps(start, end, f.StartTime, f.EndTime) {
			return f, true
		}
	}
	return domain.Task{}, false
}

// sortByStart orders by calculated start; unscheduled entries go last.
func sortByStart(tasks []domain.ScheduledTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].CalculatedStartTime, tasks[j].CalculatedStartTime
		if a.IsZero() || b.IsZero() {
			return !a.IsZero() && b.IsZero()
		}
		return a.Before(b)
	})
}
