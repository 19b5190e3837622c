package cloud

import (
	"time"

	"github.com/taskplanner/planner/internal/domain"
)

// column pairs a Task JSON field with its snake_case column.
type column struct {
	field  string
	column string
}

// taskColumns lists every Task field in table order. Row.values and
// Row.targets follow the same order.
var taskColumns = []column{
	{"id", "id"},
	{"date", "date"},
	{"name", "name"},
	{"estimatedDuration", "estimated_duration"},
	{"priority", "priority"},
	{"isFixed", "is_fixed"},
	{"startTime", "start_time"},
	{"endTime", "end_time"},
	{"actualStartTime", "actual_start_time"},
	{"actualEndTime", "actual_end_time"},
	{"actualDuration", "actual_duration"},
	{"status", "status"},
	{"preservedStartTime", "preserved_start_time"},
	{"preservedEndTime", "preserved_end_time"},
}

// Column returns the column that stores a Task field.
func Column(field string) (string, bool) {
	for _, c := range taskColumns {
		if c.field == field {
			return c.column, true
		}
	}
	return "", false
}

// Field returns the Task field stored in a column.
func Field(col string) (string, bool) {
	for _, c := range taskColumns {
		if c.column == col {
			return c.field, true
		}
	}
	return "", false
}

// Row is one task as stored remotely. Unset instants are NULL.
type Row struct {
	ID                 string
	Date               string
	Name               string
	EstimatedDuration  int
	Priority           string
	IsFixed            bool
	StartTime          *time.Time
	EndTime            *time.Time
	ActualStartTime    *time.Time
	ActualEndTime      *time.Time
	ActualDuration     int
	Status             string
	PreservedStartTime *time.Time
	PreservedEndTime   *time.Time
}

// ToRow converts a task to its remote row.
func ToRow(t domain.Task) Row {
	return Row{
		ID:                 t.ID,
		Date:               t.Date,
		Name:               t.Name,
		EstimatedDuration:  t.EstimatedDuration,
		Priority:           string(t.Priority),
		IsFixed:            t.IsFixed,
		StartTime:          nullable(t.StartTime),
		EndTime:            nullable(t.EndTime),
		ActualStartTime:    nullable(t.ActualStartTime),
		ActualEndTime:      nullable(t.ActualEndTime),
		ActualDuration:     t.ActualDuration,
		Status:             string(t.Status),
		PreservedStartTime: nullable(t.PreservedStartTime),
		PreservedEndTime:   nullable(t.PreservedEndTime),
	}
}

// FromRow converts a remote row back to a task.
func FromRow(r Row) domain.Task {
	return domain.Task{
		ID:                 r.ID,
		Date:               r.Date,
		Name:               r.Name,
		EstimatedDuration:  r.EstimatedDuration,
		Priority:           domain.Priority(r.Priority),
		IsFixed:            r.IsFixed,
		StartTime:          deref(r.StartTime),
		EndTime:            deref(r.EndTime),
		ActualStartTime:    deref(r.ActualStartTime),
		ActualEndTime:      deref(r.ActualEndTime),
		ActualDuration:     r.ActualDuration,
		Status:             domain.Status(r.Status),
		PreservedStartTime: deref(r.PreservedStartTime),
		PreservedEndTime:   deref(r.PreservedEndTime),
	}
}

func (r *Row) values() []any {
	return []any{
		r.ID, r.Date, r.Name, r.EstimatedDuration, r.Priority, r.IsFixed,
		r.StartTime, r.EndTime, r.ActualStartTime, r.ActualEndTime,
		r.ActualDuration, r.Status, r.PreservedStartTime, r.PreservedEndTime,
	}
}

func (r *Row) targets() []any {
	return []any{
		&r.ID, &r.Date, &r.Name, &r.EstimatedDuration, &r.Priority, &r.IsFixed,
		&r.StartTime, &r.EndTime, &r.ActualStartTime, &r.ActualEndTime,
		&r.ActualDuration, &r.Status, &r.PreservedStartTime, &r.PreservedEndTime,
	}
}

func nullable(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func deref(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
