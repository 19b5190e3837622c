// Package domain holds the planner's core types.
// A Task moves through pending → in-progress → completed, with overdue
// entered automatically once its calculated slot has passed.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/taskplanner/planner/internal/timeutil"
)

// Priority orders flexible tasks. Fixed tasks ignore it.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Weight returns the sort weight: high=3, medium=2, low=1.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the three known priorities.
func (p Priority) Valid() bool { return p.Weight() > 0 }

// ParsePriority parses a priority label. Empty means medium.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityMedium, nil
	}
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
	return p, nil
}

// Status tracks the task lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusOverdue    Status = "overdue"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusOverdue:
		return true
	}
	return false
}

// IsTerminal returns true for completed; nothing leaves that state.
func (s Status) IsTerminal() bool { return s == StatusCompleted }

// Task is a unit of work on one calendar date.
// Zero times mean "unset" and are omitted from JSON.
type Task struct {
	ID                 string    `json:"id"`
	Date               string    `json:"date"`
	Name               string    `json:"name"`
	EstimatedDuration  int       `json:"estimatedDuration"`
	Priority           Priority  `json:"priority"`
	IsFixed            bool      `json:"isFixed"`
	StartTime          time.Time `json:"startTime,omitzero"`
	EndTime            time.Time `json:"endTime,omitzero"`
	ActualStartTime    time.Time `json:"actualStartTime,omitzero"`
	ActualEndTime      time.Time `json:"actualEndTime,omitzero"`
	ActualDuration     int       `json:"actualDuration,omitempty"`
	Status             Status    `json:"status"`
	PreservedStartTime time.Time `json:"preservedStartTime,omitzero"`
	PreservedEndTime   time.Time `json:"preservedEndTime,omitzero"`
}

// HasWindow returns true for a fixed task with both ends of its window set.
func (t Task) HasWindow() bool {
	return t.IsFixed && !t.StartTime.IsZero() && !t.EndTime.IsZero()
}

// IsCompleted returns true once the task reached its terminal state.
func (t Task) IsCompleted() bool { return t.Status.IsTerminal() }

// Normalize fills derived fields: the duration of a fixed task comes
// from its window, and an empty priority defaults to medium.
func (t *Task) Normalize() {
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.HasWindow() {
		t.EstimatedDuration = timeutil.MinutesBetween(t.StartTime, t.EndTime)
	}
	t.Name = strings.TrimSpace(t.Name)
}

// Validate checks the invariants a stored task must satisfy.
func (t Task) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return ErrEmptyName
	}
	if _, err := timeutil.ParseDate(t.Date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, t.Date)
	}
	if !t.Priority.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPriority, t.Priority)
	}
	if t.Status != "" && !t.Status.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidStatus, t.Status)
	}
	if t.IsFixed {
		if t.StartTime.IsZero() || t.EndTime.IsZero() {
			return ErrFixedWindowRequired
		}
		if !t.EndTime.After(t.StartTime) {
			return fmt.Errorf("%w: %s", ErrInvalidWindow, timeutil.FormatRange(t.StartTime, t.EndTime))
		}
		return nil
	}
	if t.EstimatedDuration <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDuration, t.EstimatedDuration)
	}
	return nil
}

// TaskDraft is the user input for a new task. ID and status are assigned
// by the store.
type TaskDraft struct {
	Date              string    `json:"date"`
	Name              string    `json:"name"`
	EstimatedDuration int       `json:"estimatedDuration"`
	Priority          Priority  `json:"priority"`
	IsFixed           bool      `json:"isFixed"`
	StartTime         time.Time `json:"startTime,omitzero"`
	EndTime           time.Time `json:"endTime,omitzero"`
}

// Task builds a pending task from the draft.
func (d TaskDraft) Task(id string) Task {
	t := Task{
		ID:                id,
		Date:              d.Date,
		Name:              d.Name,
		EstimatedDuration: d.EstimatedDuration,
		Priority:          d.Priority,
		IsFixed:           d.IsFixed,
		Status:            StatusPending,
	}
	if d.IsFixed {
		t.StartTime = d.StartTime
		t.EndTime = d.EndTime
	}
	t.Normalize()
	return t
}

// TaskPatch carries a partial update; nil fields are left unchanged.
type TaskPatch struct {
	Date              *string    `json:"date,omitempty"`
	Name              *string    `json:"name,omitempty"`
	EstimatedDuration *int       `json:"estimatedDuration,omitempty"`
	Priority          *Priority  `json:"priority,omitempty"`
	IsFixed           *bool      `json:"isFixed,omitempty"`
	StartTime         *time.Time `json:"startTime,omitempty"`
	EndTime           *time.Time `json:"endTime,omitempty"`
	Status            *Status    `json:"status,omitempty"`
}

// Apply returns t with the patch applied and derived fields refreshed.
func (p TaskPatch) Apply(t Task) Task {
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Name != nil {
		t.Name = *p.Name
	}
	if p.EstimatedDuration != nil {
		t.EstimatedDuration = *p.EstimatedDuration
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.IsFixed != nil {
		t.IsFixed = *p.IsFixed
	}
	if p.StartTime != nil {
		t.StartTime = *p.StartTime
	}
	if p.EndTime != nil {
		t.EndTime = *p.EndTime
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if !t.IsFixed {
		t.StartTime, t.EndTime = time.Time{}, time.Time{}
	}
	t.Normalize()
	return t
}

// ScheduledTask is a Task with the slot the scheduler or the reconciler
// assigned to it. It is derived and never persisted on its own.
type ScheduledTask struct {
	Task
	CalculatedStartTime time.Time `json:"calculatedStartTime,omitzero"`
	CalculatedEndTime   time.Time `json:"calculatedEndTime,omitzero"`
}

// Scheduled returns true when both calculated instants are set.
func (s ScheduledTask) Scheduled() bool {
	return !s.CalculatedStartTime.IsZero() && !s.CalculatedEndTime.IsZero()
}
