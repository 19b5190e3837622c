package planner

import (
	"fmt"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/infra/metrics"
)

// Add validates a draft and stores it as a new pending task. If its date
// is anchored, the task is appended after the current plan.
func (p *Planner) Add(d domain.TaskDraft) (domain.Task, error) {
	p.mu.Lock()
	t := d.Task(p.newID())
	if err := t.Validate(); err != nil {
		p.mu.Unlock()
		metrics.ValidationErrors.Inc()
		return domain.Task{}, fmt.Errorf("add task: %w", err)
	}
	if err := p.checkFixedOverlap(t); err != nil {
		p.mu.Unlock()
		metrics.ValidationErrors.Inc()
		return domain.Task{}, fmt.Errorf("add task: %w", err)
	}

	p.tasks[t.ID] = t
	p.index(t.Date, t.ID)
	p.reconcile(t.Date)
	p.mu.Unlock()

	metrics.TasksCreated.Inc()
	p.emit(Change{Kind: ChangeTask, Date: t.Date, TaskID: t.ID})
	return t, nil
}

// Update applies a partial edit. Status may only be moved between pending
// and overdue here; starting and completing have their own operations.
// Moving a task to another date appends it to that date's list.
func (p *Planner) Update(id string, patch domain.TaskPatch) (domain.Task, error) {
	p.mu.Lock()
	old, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if patch.Status != nil && *patch.Status != old.Status {
		if err := checkManualStatus(old.Status, *patch.Status); err != nil {
			p.mu.Unlock()
			return domain.Task{}, fmt.Errorf("update task %s: %w", id, err)
		}
	}

	t := patch.Apply(old)
	if err := t.Validate(); err != nil {
		p.mu.Unlock()
		metrics.ValidationErrors.Inc()
		return domain.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}
	if err := p.checkFixedOverlap(t); err != nil {
		p.mu.Unlock()
		metrics.ValidationErrors.Inc()
		return domain.Task{}, fmt.Errorf("update task %s: %w", id, err)
	}

	p.tasks[id] = t
	changes := []Change{{Kind: ChangeTask, Date: t.Date, TaskID: id}}
	if t.Date != old.Date {
		p.unindex(old.Date, id)
		p.index(t.Date, id)
		p.reconcile(old.Date)
		changes = append(changes, Change{Kind: ChangeTask, Date: old.Date, TaskID: id})
	}
	p.reconcile(t.Date)
	p.mu.Unlock()

	p.emit(changes...)
	return t, nil
}

func checkManualStatus(from, to domain.Status) error {
	if from == domain.StatusCompleted {
		return domain.ErrTaskCompleted
	}
	if !to.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrInvalidStatus, to)
	}
	switch to {
	case domain.StatusPending, domain.StatusOverdue:
		if from == domain.StatusInProgress {
			return domain.ErrInvalidTransition
		}
		return nil
	default:
		return domain.ErrInvalidTransition
	}
}

// Delete removes a task. Listeners receive ChangeDeleted so the sync
// target can drop it too.
func (p *Planner) Delete(id string) error {
	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return domain.ErrTaskNotFound
	}
	delete(p.tasks, id)
	p.unindex(t.Date, id)
	if p.active != nil && p.active.TaskID == id {
		p.active = nil
	}
	p.reconcile(t.Date)
	if len(p.byDate[t.Date]) == 0 {
		delete(p.schedules, t.Date)
	}
	p.mu.Unlock()

	metrics.TasksDeleted.Inc()
	p.emit(Change{Kind: ChangeDeleted, Date: t.Date, TaskID: id})
	return nil
}

// Reorder sets the order of the uncompleted tasks of a date. ids must list
// each of them exactly once. Completed tasks keep their positions and
// other dates are untouched. Calculated slots are kept as they are; the
// new order decides ties on the next full plan.
func (p *Planner) Reorder(date string, ids []string) error {
	p.mu.Lock()
	current := p.byDate[date]

	open := make(map[string]bool)
	for _, id := range current {
		if !p.tasks[id].IsCompleted() {
			open[id] = true
		}
	}
	if len(ids) != len(open) {
		p.mu.Unlock()
		return fmt.Errorf("%w: got %d ids, date has %d", domain.ErrInvalidReorder, len(ids), len(open))
	}
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if !open[id] || seen[id] {
			p.mu.Unlock()
			return fmt.Errorf("%w: %q", domain.ErrInvalidReorder, id)
		}
		seen[id] = true
	}

	next := make([]string, 0, len(current))
	k := 0
	for _, id := range current {
		if open[id] {
			next = append(next, ids[k])
			k++
		} else {
			next = append(next, id)
		}
	}
	p.byDate[date] = next
	p.reconcile(date)
	p.mu.Unlock()

	p.emit(Change{Kind: ChangeTask, Date: date})
	return nil
}
