package schedule

import (
	"testing"

	"github.com/taskplanner/planner/internal/domain"
)

func TestResolveStatus(t *testing.T) {
	slot := func(status domain.Status) domain.ScheduledTask {
		task := flexible("a", domain.PriorityLow, 30)
		task.Status = status
		return domain.ScheduledTask{Task: task, CalculatedStartTime: at("09:00"), CalculatedEndTime: at("09:30")}
	}

	tests := []struct {
		name   string
		status domain.Status
		now    string
		want   domain.Status
	}{
		{"pending before end", domain.StatusPending, "09:15", domain.StatusPending},
		{"pending at end", domain.StatusPending, "09:30", domain.StatusPending},
		{"pending after end", domain.StatusPending, "09:31", domain.StatusOverdue},
		{"in-progress before end", domain.StatusInProgress, "09:29", domain.StatusInProgress},
		{"in-progress after end", domain.StatusInProgress, "10:00", domain.StatusOverdue},
		{"completed stays", domain.StatusCompleted, "23:00", domain.StatusCompleted},
		{"overdue stays", domain.StatusOverdue, "09:00", domain.StatusOverdue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveStatus(slot(tt.status), at(tt.now)); got != tt.want {
				t.Errorf("ResolveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolveStatus_Unscheduled(t *testing.T) {
	task := domain.ScheduledTask{Task: flexible("a", domain.PriorityLow, 30)}
	if got := ResolveStatus(task, at("23:59")); got != domain.StatusPending {
		t.Errorf("ResolveStatus(unscheduled) = %q, want pending", got)
	}
}

func TestResolveAll_CopiesInput(t *testing.T) {
	in := Schedule([]domain.Task{flexible("a", domain.PriorityLow, 30)}, at("09:00"))
	out := ResolveAll(in, at("12:00"))
	if out[0].Status != domain.StatusOverdue {
		t.Errorf("Status = %q, want overdue", out[0].Status)
	}
	if in[0].Status != domain.StatusPending {
		t.Error("ResolveAll() mutated its input")
	}
}
