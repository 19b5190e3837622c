package planner

import (
	"fmt"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// OverlapError names the fixed task a new window collides with.
type OverlapError struct {
	Task  domain.Task
	Other domain.Task
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("%v: %q %s collides with %q %s", domain.ErrFixedOverlap,
		e.Task.Name, timeutil.FormatRange(e.Task.StartTime, e.Task.EndTime),
		e.Other.Name, timeutil.FormatRange(e.Other.StartTime, e.Other.EndTime))
}

// Unwrap lets errors.Is match domain.ErrFixedOverlap.
func (e *OverlapError) Unwrap() error { return domain.ErrFixedOverlap }
