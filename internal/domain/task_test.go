package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

var day = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

func clock(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

// ─── Priority ───────────────────────────────────────────────────────────────

func TestPriority_Weight(t *testing.T) {
	if !(PriorityHigh.Weight() > PriorityMedium.Weight() && PriorityMedium.Weight() > PriorityLow.Weight()) {
		t.Error("priority weights must order high > medium > low")
	}
	if Priority("urgent").Valid() {
		t.Error("unknown priority should not be valid")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{"", PriorityMedium, false},
		{"HIGH", PriorityHigh, false},
		{" low ", PriorityLow, false},
		{"urgent", "", true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// ─── Validation ─────────────────────────────────────────────────────────────

func TestTask_Validate(t *testing.T) {
	base := Task{Date: "2026-10-19", Name: "Read", EstimatedDuration: 30, Priority: PriorityLow, Status: StatusPending}

	tests := []struct {
		name   string
		mutate func(*Task)
		want   error
	}{
		{"ok", func(*Task) {}, nil},
		{"empty name", func(t *Task) { t.Name = "   " }, ErrEmptyName},
		{"bad date", func(t *Task) { t.Date = "19.10.2026" }, ErrInvalidDate},
		{"zero duration", func(t *Task) { t.EstimatedDuration = 0 }, ErrInvalidDuration},
		{"bad priority", func(t *Task) { t.Priority = "urgent" }, ErrInvalidPriority},
		{"bad status", func(t *Task) { t.Status = "done" }, ErrInvalidStatus},
		{"fixed without window", func(t *Task) { t.IsFixed = true }, ErrFixedWindowRequired},
		{"fixed inverted window", func(t *Task) {
			t.IsFixed, t.StartTime, t.EndTime = true, clock(10, 0), clock(9, 0)
		}, ErrInvalidWindow},
		{"fixed empty window", func(t *Task) {
			t.IsFixed, t.StartTime, t.EndTime = true, clock(10, 0), clock(10, 0)
		}, ErrInvalidWindow},
		{"fixed ok ignores duration", func(t *Task) {
			t.IsFixed, t.StartTime, t.EndTime, t.EstimatedDuration = true, clock(9, 30), clock(10, 0), 0
		}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := base
			tt.mutate(&task)
			err := task.Validate()
			if tt.want == nil {
				if err != nil {
					t.Fatalf("Validate() error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("Validate() error = %v, want %v", err, tt.want)
			}
			if !IsValidation(err) {
				t.Errorf("IsValidation(%v) = false", err)
			}
		})
	}
}

func TestTaskDraft_Task_DerivesFixedDuration(t *testing.T) {
	d := TaskDraft{
		Date: "2026-10-19", Name: " Standup ", IsFixed: true,
		StartTime: clock(9, 30), EndTime: clock(10, 15),
	}
	task := d.Task("id-1")
	if task.EstimatedDuration != 45 {
		t.Errorf("EstimatedDuration = %d, want 45", task.EstimatedDuration)
	}
	if task.Status != StatusPending {
		t.Errorf("Status = %q, want pending", task.Status)
	}
	if task.Priority != PriorityMedium {
		t.Errorf("Priority = %q, want medium default", task.Priority)
	}
	if task.Name != "Standup" {
		t.Errorf("Name = %q, want trimmed", task.Name)
	}
}

func TestTaskDraft_Task_FlexibleDropsWindow(t *testing.T) {
	d := TaskDraft{Date: "2026-10-19", Name: "Read", EstimatedDuration: 20, StartTime: clock(9, 0), EndTime: clock(9, 30)}
	task := d.Task("id-1")
	if !task.StartTime.IsZero() || !task.EndTime.IsZero() {
		t.Error("flexible task should not keep a window")
	}
}

func TestTaskPatch_Apply(t *testing.T) {
	task := Task{ID: "a", Date: "2026-10-19", Name: "Read", EstimatedDuration: 30, Priority: PriorityLow, Status: StatusPending}

	name := "Read book"
	prio := PriorityHigh
	got := TaskPatch{Name: &name, Priority: &prio}.Apply(task)
	if got.Name != "Read book" || got.Priority != PriorityHigh {
		t.Errorf("Apply() = %+v", got)
	}
	if got.ID != "a" || got.EstimatedDuration != 30 {
		t.Error("Apply() changed untouched fields")
	}

	fixed := true
	start, end := clock(13, 0), clock(14, 0)
	got = TaskPatch{IsFixed: &fixed, StartTime: &start, EndTime: &end}.Apply(task)
	if got.EstimatedDuration != 60 {
		t.Errorf("EstimatedDuration = %d, want 60 from window", got.EstimatedDuration)
	}
}

// ─── JSON shape ─────────────────────────────────────────────────────────────

func TestScheduledTask_JSON(t *testing.T) {
	st := ScheduledTask{
		Task:                Task{ID: "a", Date: "2026-10-19", Name: "Read", EstimatedDuration: 30, Priority: PriorityHigh, Status: StatusPending},
		CalculatedStartTime: clock(9, 0),
		CalculatedEndTime:   clock(9, 30),
	}
	data, err := json.Marshal(st)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"estimatedDuration":30`, `"calculatedStartTime":"2026-10-19T09:00:00Z"`, `"isFixed":false`} {
		if !strings.Contains(s, want) {
			t.Errorf("JSON %s missing %s", s, want)
		}
	}
	for _, absent := range []string{"actualStartTime", "preservedEndTime", "startTime\":"} {
		if strings.Contains(s, `"`+absent) {
			t.Errorf("JSON %s should omit unset %s", s, absent)
		}
	}
}

func TestSnapshot_Empty(t *testing.T) {
	if !(Snapshot{}).Empty() {
		t.Error("zero snapshot should be empty")
	}
	if (Snapshot{AnchorTimes: map[string]time.Time{"2026-10-19": clock(7, 0)}}).Empty() {
		t.Error("snapshot with an anchor is not empty")
	}
}
