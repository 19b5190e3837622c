package planner

import (
	"time"

	"github.com/taskplanner/planner/internal/timeutil"
)

// SetAnchor sets the instant flexible tasks of date are scheduled from.
// A new value triggers a full re-plan of the date; setting the same value
// again changes nothing.
func (p *Planner) SetAnchor(date string, at time.Time) (DayView, error) {
	date, err := timeutil.ParseDate(date)
	if err != nil {
		return DayView{}, err
	}
	if at.IsZero() {
		at = p.now()
	}

	p.mu.Lock()
	if prev, ok := p.anchors[date]; ok && prev.Equal(at) {
		p.mu.Unlock()
		return p.View(date), nil
	}
	p.anchors[date] = at
	p.rebuild(date, "anchor")
	p.mu.Unlock()

	p.emit(Change{Kind: ChangeAnchor, Date: date})
	return p.View(date), nil
}

// ClearAnchor removes the anchor of date; its tasks become unscheduled.
func (p *Planner) ClearAnchor(date string) error {
	date, err := timeutil.ParseDate(date)
	if err != nil {
		return err
	}

	p.mu.Lock()
	if _, ok := p.anchors[date]; !ok {
		p.mu.Unlock()
		return nil
	}
	delete(p.anchors, date)
	delete(p.schedules, date)
	p.mu.Unlock()

	p.emit(Change{Kind: ChangeAnchor, Date: date})
	return nil
}
