package domain

import (
	"errors"

	"github.com/taskplanner/planner/internal/timeutil"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────

var (
	// Validation errors: the mutation is rejected and the store is untouched.
	ErrEmptyName           = errors.New("task name must not be empty")
	ErrInvalidDuration     = errors.New("estimated duration must be a positive number of minutes")
	ErrInvalidPriority     = errors.New("priority must be low, medium or high")
	ErrInvalidStatus       = errors.New("unknown task status")
	ErrFixedWindowRequired = errors.New("fixed task requires both start and end time")
	ErrInvalidWindow       = errors.New("end time must be after start time")
	ErrFixedOverlap        = errors.New("fixed task overlaps another fixed task on the same date")
	ErrInvalidDate         = timeutil.ErrInvalidDate
	ErrInvalidClock        = timeutil.ErrInvalidClock

	// Lookup and lifecycle errors
	ErrTaskNotFound      = errors.New("task not found")
	ErrTaskCompleted     = errors.New("task is already completed")
	ErrTaskNotInProgress = errors.New("task is not in progress")
	ErrInvalidTransition = errors.New("status change must go through start, pause or complete")
	ErrInvalidReorder    = errors.New("reorder must list every uncompleted task of the date exactly once")
)

// IsValidation reports whether err is a user-input error that should be
// returned to the caller for correction.
func IsValidation(err error) bool {
	for _, target := range []error{
		ErrEmptyName, ErrInvalidDuration, ErrInvalidPriority, ErrInvalidStatus,
		ErrFixedWindowRequired, ErrInvalidWindow, ErrFixedOverlap,
		ErrInvalidDate, ErrInvalidClock, ErrInvalidReorder,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
