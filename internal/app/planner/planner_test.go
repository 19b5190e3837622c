package planner

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

const today = "2026-10-19"

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time          { return c.now }
func (c *fakeClock) set(clock string)        { c.now = at(clock) }
func (c *fakeClock) advance(d time.Duration) { c.now = c.now.Add(d) }

func at(clock string) time.Time {
	t, err := timeutil.ParseClock(today, clock, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestPlanner(t *testing.T) (*Planner, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: at("08:00")}
	n := 0
	p := New(Options{
		Now: clock.Now,
		NewID: func() string {
			n++
			return fmt.Sprintf("t%d", n)
		},
	})
	return p, clock
}

func mustAdd(t *testing.T, p *Planner, d domain.TaskDraft) domain.Task {
	t.Helper()
	if d.Date == "" {
		d.Date = today
	}
	task, err := p.Add(d)
	if err != nil {
		t.Fatalf("Add(%s) error: %v", d.Name, err)
	}
	return task
}

func flex(name string, prio domain.Priority, minutes int) domain.TaskDraft {
	return domain.TaskDraft{Name: name, Priority: prio, EstimatedDuration: minutes}
}

func fixedDraft(name, start, end string) domain.TaskDraft {
	return domain.TaskDraft{Name: name, IsFixed: true, StartTime: at(start), EndTime: at(end)}
}

func slotOf(t *testing.T, p *Planner, id string) domain.ScheduledTask {
	t.Helper()
	for _, st := range p.Schedule(today) {
		if st.ID == id {
			return st
		}
	}
	t.Fatalf("task %s not in schedule", id)
	return domain.ScheduledTask{}
}

func assertSlot(t *testing.T, st domain.ScheduledTask, start, end string) {
	t.Helper()
	if !st.CalculatedStartTime.Equal(at(start)) || !st.CalculatedEndTime.Equal(at(end)) {
		t.Errorf("%s slot = %s, want %s - %s", st.Name,
			timeutil.FormatRange(st.CalculatedStartTime, st.CalculatedEndTime), start, end)
	}
}

// ─── Add / Validation ───────────────────────────────────────────────────────

func TestAdd_AssignsIDAndPending(t *testing.T) {
	p, _ := newTestPlanner(t)
	task := mustAdd(t, p, flex("Read", domain.PriorityLow, 30))
	if task.ID != "t1" || task.Status != domain.StatusPending {
		t.Errorf("Add() = %+v", task)
	}
	if got := p.Dates()[today]; got != 1 {
		t.Errorf("Dates()[today] = %d, want 1", got)
	}
}

func TestAdd_RejectsInvalidWithoutMutation(t *testing.T) {
	p, _ := newTestPlanner(t)
	mustAdd(t, p, fixedDraft("Standup", "09:30", "10:00"))

	tests := []struct {
		name  string
		draft domain.TaskDraft
		want  error
	}{
		{"empty name", domain.TaskDraft{Date: today, EstimatedDuration: 10}, domain.ErrEmptyName},
		{"no duration", domain.TaskDraft{Date: today, Name: "x"}, domain.ErrInvalidDuration},
		{"fixed missing end", domain.TaskDraft{Date: today, Name: "x", IsFixed: true, StartTime: at("11:00")}, domain.ErrFixedWindowRequired},
		{"fixed inverted", domain.TaskDraft{Date: today, Name: "x", IsFixed: true, StartTime: at("11:00"), EndTime: at("10:00")}, domain.ErrInvalidWindow},
		{"fixed overlap", domain.TaskDraft{Date: today, Name: "x", IsFixed: true, StartTime: at("09:45"), EndTime: at("10:15")}, domain.ErrFixedOverlap},
		{"bad date", domain.TaskDraft{Date: "today", Name: "x", EstimatedDuration: 5}, domain.ErrInvalidDate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := p.Add(tt.draft); !errors.Is(err, tt.want) {
				t.Errorf("Add() error = %v, want %v", err, tt.want)
			}
		})
	}
	if n := len(p.Tasks(today)); n != 1 {
		t.Errorf("store has %d tasks, want 1", n)
	}
}

func TestAdd_FixedTouchingIsAllowed(t *testing.T) {
	p, _ := newTestPlanner(t)
	mustAdd(t, p, fixedDraft("A", "09:00", "10:00"))
	mustAdd(t, p, fixedDraft("B", "10:00", "11:00"))
}

func TestAdd_AppendsToExistingSchedule(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityLow, 30))
	if _, err := p.SetAnchor(today, at("09:00")); err != nil {
		t.Fatalf("SetAnchor() error: %v", err)
	}
	b := mustAdd(t, p, flex("B", domain.PriorityHigh, 15))

	// No re-plan: the high-priority newcomer goes after the existing plan.
	assertSlot(t, slotOf(t, p, a.ID), "09:00", "09:30")
	assertSlot(t, slotOf(t, p, b.ID), "09:30", "09:45")
}

func TestAdd_FixedOnPlannedDateKeepsWindow(t *testing.T) {
	p, _ := newTestPlanner(t)
	mustAdd(t, p, flex("Write", domain.PriorityHigh, 30))
	p.SetAnchor(today, at("09:00"))

	meeting := mustAdd(t, p, fixedDraft("Meeting", "14:00", "15:00"))
	assertSlot(t, slotOf(t, p, meeting.ID), "14:00", "15:00")
}

func TestUpdate_FixedWindowMovesSlot(t *testing.T) {
	p, _ := newTestPlanner(t)
	meeting := mustAdd(t, p, fixedDraft("Meeting", "11:00", "12:00"))
	p.SetAnchor(today, at("09:00"))

	start, end := at("13:00"), at("13:30")
	if _, err := p.Update(meeting.ID, domain.TaskPatch{StartTime: &start, EndTime: &end}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	assertSlot(t, slotOf(t, p, meeting.ID), "13:00", "13:30")
}

func TestView_WithoutAnchor(t *testing.T) {
	p, _ := newTestPlanner(t)
	mustAdd(t, p, flex("A", domain.PriorityLow, 30))
	mustAdd(t, p, fixedDraft("F", "12:00", "13:00"))

	v := p.View(today)
	if v.Scheduled {
		t.Error("View() without anchor should not be scheduled")
	}
	if len(v.Tasks) != 2 || v.Tasks[0].Scheduled() || !v.Tasks[1].Scheduled() {
		t.Errorf("View().Tasks = %+v", v.Tasks)
	}
	if p.Schedule(today) != nil {
		t.Error("Schedule() without anchor should be nil")
	}
}

// ─── Update / Delete / Reorder ──────────────────────────────────────────────

func TestUpdate_KeepsSlotOnRename(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityHigh, 30))
	b := mustAdd(t, p, flex("B", domain.PriorityLow, 20))
	p.SetAnchor(today, at("09:00"))

	name := "B renamed"
	prio := domain.PriorityHigh
	if _, err := p.Update(b.ID, domain.TaskPatch{Name: &name, Priority: &prio}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	st := slotOf(t, p, b.ID)
	assertSlot(t, st, "09:30", "09:50")
	if st.Name != name {
		t.Errorf("Name = %q, want %q", st.Name, name)
	}
	assertSlot(t, slotOf(t, p, a.ID), "09:00", "09:30")
}

func TestUpdate_StatusRules(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityHigh, 30))

	done := domain.StatusCompleted
	if _, err := p.Update(a.ID, domain.TaskPatch{Status: &done}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("Update(status=completed) error = %v, want ErrInvalidTransition", err)
	}

	p.Complete(a.ID)
	pending := domain.StatusPending
	if _, err := p.Update(a.ID, domain.TaskPatch{Status: &pending}); !errors.Is(err, domain.ErrTaskCompleted) {
		t.Errorf("Update(completed→pending) error = %v, want ErrTaskCompleted", err)
	}
}

func TestUpdate_MoveDate(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityHigh, 30))
	tomorrow := "2026-10-20"
	if _, err := p.Update(a.ID, domain.TaskPatch{Date: &tomorrow}); err != nil {
		t.Fatalf("Update() error: %v", err)
	}
	if len(p.Tasks(today)) != 0 || len(p.Tasks(tomorrow)) != 1 {
		t.Error("task should move to the new date")
	}
	if _, ok := p.Dates()[today]; ok {
		t.Error("empty date should disappear from Dates()")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	p, _ := newTestPlanner(t)
	if _, err := p.Update("nope", domain.TaskPatch{}); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("Update() error = %v, want ErrTaskNotFound", err)
	}
}

func TestDelete_NotifiesAndClearsActive(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityHigh, 30))
	p.Start(a.ID)

	var got []Change
	p.OnChange(func(c Change) { got = append(got, c) })

	if err := p.Delete(a.ID); err != nil {
		t.Fatalf("Delete() error: %v", err)
	}
	if _, ok := p.Active(); ok {
		t.Error("deleting the active task should clear the timer")
	}
	if len(got) != 1 || got[0].Kind != ChangeDeleted || got[0].TaskID != a.ID {
		t.Errorf("changes = %+v", got)
	}
	if err := p.Delete(a.ID); !errors.Is(err, domain.ErrTaskNotFound) {
		t.Errorf("second Delete() error = %v", err)
	}
}

func TestReorder(t *testing.T) {
	p, _ := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityLow, 10))
	b := mustAdd(t, p, flex("B", domain.PriorityLow, 10))
	c := mustAdd(t, p, flex("C", domain.PriorityLow, 10))
	other := mustAdd(t, p, domain.TaskDraft{Date: "2026-10-20", Name: "X", EstimatedDuration: 5})
	p.Complete(b.ID)

	if err := p.Reorder(today, []string{c.ID, a.ID}); err != nil {
		t.Fatalf("Reorder() error: %v", err)
	}
	tasks := p.Tasks(today)
	got := []string{tasks[0].ID, tasks[1].ID, tasks[2].ID}
	want := []string{c.ID, b.ID, a.ID}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v (completed keeps its position)", got, want)
		}
	}
	if p.Tasks("2026-10-20")[0].ID != other.ID {
		t.Error("other date touched")
	}

	for _, bad := range [][]string{{a.ID}, {a.ID, a.ID}, {a.ID, b.ID}, {a.ID, other.ID}} {
		if err := p.Reorder(today, bad); !errors.Is(err, domain.ErrInvalidReorder) {
			t.Errorf("Reorder(%v) error = %v, want ErrInvalidReorder", bad, err)
		}
	}
}

func TestReorder_DecidesTiesOnNextPlan(t *testing.T) {
	p, clock := newTestPlanner(t)
	a := mustAdd(t, p, flex("A", domain.PriorityMedium, 10))
	b := mustAdd(t, p, flex("B", domain.PriorityMedium, 10))
	p.SetAnchor(today, at("09:00"))

	p.Reorder(today, []string{b.ID, a.ID})
	assertSlot(t, slotOf(t, p, a.ID), "09:00", "09:10")

	clock.set("10:00")
	p.Reset(today)
	assertSlot(t, slotOf(t, p, b.ID), "10:00", "10:10")
	assertSlot(t, slotOf(t, p, a.ID), "10:10", "10:20")
}
