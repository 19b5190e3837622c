package planner

import (
	"fmt"
	"time"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/infra/metrics"
	"github.com/taskplanner/planner/internal/timeutil"
)

// Start begins the timer of a task and makes it the active task.
// At most one task runs at a time: a different active task is paused
// first, recording its elapsed time.
func (p *Planner) Start(id string) (domain.Task, error) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if t.IsCompleted() {
		p.mu.Unlock()
		return domain.Task{}, fmt.Errorf("start task %s: %w", id, domain.ErrTaskCompleted)
	}
	if p.active != nil && p.active.TaskID == id {
		p.mu.Unlock()
		return t, nil
	}

	now := p.now()
	var changes []Change
	if p.active != nil {
		if prev, ok := p.pauseLocked(p.active.TaskID, now); ok {
			logf("auto-paused %s (%d min) to start %s", prev.ID, prev.ActualDuration, id)
			changes = append(changes, Change{Kind: ChangeTask, Date: prev.Date, TaskID: prev.ID})
		}
	}

	t.Status = domain.StatusInProgress
	t.ActualStartTime = now
	p.tasks[id] = t
	p.active = &Active{TaskID: id, StartedAt: now}
	p.reconcile(t.Date)
	p.mu.Unlock()

	metrics.TasksStarted.Inc()
	p.emit(append(changes, Change{Kind: ChangeTask, Date: t.Date, TaskID: id})...)
	return t, nil
}

// Pause stops the timer of an in-progress task and returns it to pending,
// recording the actual end and elapsed minutes.
func (p *Planner) Pause(id string) (domain.Task, error) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return domain.Task{}, domain.ErrTaskNotFound
	}
	isActive := p.active != nil && p.active.TaskID == id
	if t.Status != domain.StatusInProgress && !isActive {
		p.mu.Unlock()
		return domain.Task{}, fmt.Errorf("pause task %s: %w", id, domain.ErrTaskNotInProgress)
	}

	t, _ = p.pauseLocked(id, p.now())
	p.mu.Unlock()

	p.emit(Change{Kind: ChangeTask, Date: t.Date, TaskID: id})
	return t, nil
}

func (p *Planner) pauseLocked(id string, now time.Time) (domain.Task, bool) {
	t, ok := p.tasks[id]
	if !ok {
		p.active = nil
		return domain.Task{}, false
	}
	started := t.ActualStartTime
	if p.active != nil && p.active.TaskID == id {
		started = p.active.StartedAt
		p.active = nil
	}
	if !started.IsZero() {
		t.ActualDuration = timeutil.ElapsedMinutes(started, now)
	}
	t.ActualEndTime = now
	if !t.IsCompleted() {
		t.Status = domain.StatusPending
	}
	p.tasks[id] = t
	p.reconcile(t.Date)
	return t, true
}

// Complete finishes a task. The actual duration is the running timer when
// this task is active, else a previously recorded duration, else the
// estimate. The current calculated slot is preserved for display.
func (p *Planner) Complete(id string) (domain.Task, error) {
	p.mu.Lock()
	t, ok := p.tasks[id]
	if !ok {
		p.mu.Unlock()
		return domain.Task{}, domain.ErrTaskNotFound
	}
	if t.IsCompleted() {
		p.mu.Unlock()
		return domain.Task{}, fmt.Errorf("complete task %s: %w", id, domain.ErrTaskCompleted)
	}

	now := p.now()
	switch {
	case p.active != nil && p.active.TaskID == id:
		t.ActualDuration = timeutil.ElapsedMinutes(p.active.StartedAt, now)
		p.active = nil
	case t.ActualDuration == 0:
		t.ActualDuration = t.EstimatedDuration
	}
	t.ActualEndTime = now
	if slot, ok := p.slotOf(id, t.Date); ok && slot.Scheduled() {
		t.PreservedStartTime = slot.CalculatedStartTime
		t.PreservedEndTime = slot.CalculatedEndTime
	}
	t.Status = domain.StatusCompleted
	p.tasks[id] = t
	p.reconcile(t.Date)
	p.mu.Unlock()

	metrics.TasksCompleted.WithLabelValues(string(t.Priority)).Inc()
	p.emit(Change{Kind: ChangeTask, Date: t.Date, TaskID: id})
	return t, nil
}

// Reset abandons running timers on date, moves the anchor to now and
// re-plans every uncompleted task from there. Completed tasks keep their
// preserved slot.
func (p *Planner) Reset(date string) (DayView, error) {
	if date == "" {
		date = p.Today()
	}
	date, err := timeutil.ParseDate(date)
	if err != nil {
		return DayView{}, err
	}

	p.mu.Lock()
	for _, id := range p.byDate[date] {
		t := p.tasks[id]
		if t.Status == domain.StatusInProgress {
			t.Status = domain.StatusPending
			p.tasks[id] = t
		}
	}
	p.active = nil
	p.anchors[date] = p.now()
	p.rebuild(date, "reset")
	p.mu.Unlock()

	logf("reset %s: anchor moved to now", date)
	p.emit(Change{Kind: ChangeAnchor, Date: date})
	return p.View(date), nil
}
