// Package ics converts between planner schedules and iCalendar data.
// Export publishes the slots of one date; Import reads timed events as
// fixed tasks.
package ics

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// ProductID identifies the calendars this package writes.
const ProductID = "-//taskplanner//planner//EN"

const propStatus = ical.ComponentProperty("X-PLANNER-STATUS")

// Export renders the scheduled tasks of a date as a calendar. Tasks
// without a calculated slot are left out.
func Export(date string, tasks []domain.ScheduledTask, now time.Time) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(ProductID)
	cal.SetXWRCalName("Plan " + date)

	for _, st := range tasks {
		if !st.Scheduled() {
			continue
		}
		ev := cal.AddEvent(st.ID + "@planner")
		ev.SetDtStampTime(now)
		ev.SetStartAt(st.CalculatedStartTime)
		ev.SetEndAt(st.CalculatedEndTime)
		ev.SetSummary(st.Name)
		ev.SetProperty(ical.ComponentPropertyPriority, strconv.Itoa(icalPriority(st.Priority)))
		ev.SetProperty(propStatus, string(st.Status))
		if st.IsFixed {
			ev.SetProperty(ical.ComponentPropertyCategories, "FIXED")
		}
		ev.SetDescription(fmt.Sprintf("%s priority, %d min estimated", st.Priority, st.EstimatedDuration))
	}
	return cal.Serialize()
}

// Result is the outcome of an import.
type Result struct {
	Drafts  []domain.TaskDraft
	Skipped int // all-day, untimed or unnamed events
}

// Import reads timed events from r as fixed task drafts. Each draft is
// dated by the event start in loc.
func Import(r io.Reader, loc *time.Location) (Result, error) {
	cal, err := ical.ParseCalendar(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse calendar: %w", err)
	}

	var res Result
	for _, ev := range cal.Events() {
		d, err := draftFrom(ev, loc)
		if err != nil {
			res.Skipped++
			continue
		}
		res.Drafts = append(res.Drafts, d)
	}
	return res, nil
}

var errSkip = errors.New("event not importable")

func draftFrom(ev *ical.VEvent, loc *time.Location) (domain.TaskDraft, error) {
	p := ev.GetProperty(ical.ComponentPropertySummary)
	if p == nil || strings.TrimSpace(p.Value) == "" {
		return domain.TaskDraft{}, errSkip
	}
	dt := ev.GetProperty(ical.ComponentPropertyDtStart)
	if dt == nil || !strings.Contains(dt.Value, "T") {
		return domain.TaskDraft{}, errSkip
	}
	start, err := ev.GetStartAt()
	if err != nil {
		return domain.TaskDraft{}, errSkip
	}
	end, err := ev.GetEndAt()
	if err != nil || !end.After(start) {
		return domain.TaskDraft{}, errSkip
	}

	start, end = start.In(loc), end.In(loc)
	d := domain.TaskDraft{
		Date:      timeutil.DateOf(start),
		Name:      strings.TrimSpace(p.Value),
		Priority:  domain.PriorityMedium,
		IsFixed:   true,
		StartTime: start,
		EndTime:   end,
	}
	if pp := ev.GetProperty(ical.ComponentPropertyPriority); pp != nil {
		if n, err := strconv.Atoi(strings.TrimSpace(pp.Value)); err == nil {
			d.Priority = fromICalPriority(n)
		}
	}
	return d, nil
}

// icalPriority maps to RFC 5545 PRIORITY: 1 highest, 9 lowest.
func icalPriority(p domain.Priority) int {
	switch p {
	case domain.PriorityHigh:
		return 1
	case domain.PriorityLow:
		return 9
	default:
		return 5
	}
}

func fromICalPriority(n int) domain.Priority {
	switch {
	case n >= 1 && n <= 4:
		return domain.PriorityHigh
	case n >= 6 && n <= 9:
		return domain.PriorityLow
	default:
		return domain.PriorityMedium
	}
}
