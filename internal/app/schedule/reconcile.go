package schedule

import (
	"time"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// Reconcile patches prev to match current without re-planning.
//
//   - Uncompleted fixed tasks always sit at their declared window.
//   - Other tasks in both keep their previous slot; every other field
//     comes from current.
//   - New flexible tasks are appended after the latest end seen so far
//     (the anchor when prev is empty), in the order they appear in current.
//   - New completed tasks (e.g. from a sync merge) take CompletedInterval.
//   - Tasks missing from current are dropped.
//
// Flexible appends do not avoid fixed windows; that happens on the next
// Schedule.
// The output follows the order of current so manual reordering survives.
func Reconcile(prev []domain.ScheduledTask, current []domain.Task, anchor time.Time) []domain.ScheduledTask {
	if len(current) == 0 {
		return nil
	}

	slots := make(map[string]domain.ScheduledTask, len(prev))
	tail := anchor
	for _, p := range prev {
		slots[p.ID] = p
		if p.CalculatedEndTime.After(tail) {
			tail = p.CalculatedEndTime
		}
	}

	out := make([]domain.ScheduledTask, 0, len(current))
	for _, t := range current {
		if t.HasWindow() && !t.IsCompleted() {
			out = append(out, domain.ScheduledTask{Task: t, CalculatedStartTime: t.StartTime, CalculatedEndTime: t.EndTime})
			if _, ok := slots[t.ID]; !ok && !tail.IsZero() && t.EndTime.After(tail) {
				tail = t.EndTime
			}
			continue
		}
		if p, ok := slots[t.ID]; ok {
			out = append(out, domain.ScheduledTask{
				Task:                t,
				CalculatedStartTime: p.CalculatedStartTime,
				CalculatedEndTime:   p.CalculatedEndTime,
			})
			continue
		}

		if t.IsCompleted() {
			start, end := CompletedInterval(t)
			out = append(out, domain.ScheduledTask{Task: t, CalculatedStartTime: start, CalculatedEndTime: end})
			continue
		}

		if tail.IsZero() {
			out = append(out, domain.ScheduledTask{Task: t})
			continue
		}
		end := timeutil.AddMinutes(tail, t.EstimatedDuration)
		out = append(out, domain.ScheduledTask{Task: t, CalculatedStartTime: tail, CalculatedEndTime: end})
		tail = end
	}
	return out
}

// CompletedInterval returns the slot shown for a completed task: the
// preserved slot, else the observed execution, else the fixed window.
// Each end is chosen independently; zero means none was available.
func CompletedInterval(t domain.Task) (time.Time, time.Time) {
	return firstSet(t.PreservedStartTime, t.ActualStartTime, t.StartTime),
		firstSet(t.PreservedEndTime, t.ActualEndTime, t.EndTime)
}

func firstSet(candidates ...time.Time) time.Time {
	for _, c := range candidates {
		if !c.IsZero() {
			return c
		}
	}
	return time.Time{}
}

// Rebuild runs a full plan for one date: uncompleted tasks are scheduled
// from anchor and resolved at now, starting from pending for tasks a
// previous plan had marked overdue; completed tasks keep their
// CompletedInterval, and the union is sorted by start.
func Rebuild(tasks []domain.Task, anchor, now time.Time) []domain.ScheduledTask {
	if anchor.IsZero() || len(tasks) == 0 {
		return nil
	}

	var open, done []domain.Task
	for _, t := range tasks {
		switch {
		case t.IsCompleted():
			done = append(done, t)
		case t.Status == domain.StatusOverdue:
			// re-derived below against the new slot
			t.Status = domain.StatusPending
			open = append(open, t)
		default:
			open = append(open, t)
		}
	}

	out := ResolveAll(Schedule(open, anchor), now)
	for _, t := range done {
		start, end := CompletedInterval(t)
		out = append(out, domain.ScheduledTask{Task: t, CalculatedStartTime: start, CalculatedEndTime: end})
	}
	sortByStart(out)
	return out
}

// Unscheduled is the view of a date without an anchor: fixed tasks show
// their declared window, flexible tasks have no slot.
func Unscheduled(tasks []domain.Task) []domain.ScheduledTask {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]domain.ScheduledTask, len(tasks))
	for i, t := range tasks {
		out[i] = domain.ScheduledTask{Task: t}
		if t.HasWindow() {
			out[i].CalculatedStartTime = t.StartTime
			out[i].CalculatedEndTime = t.EndTime
		}
	}
	return out
}
