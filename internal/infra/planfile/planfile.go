// Package planfile reads and writes day plans as YAML, for bulk entry
// from the command line.
//
//	date: "2026-10-19"
//	anchor: "09:00"
//	tasks:
//	  - name: Write report
//	    duration: 90
//	    priority: high
//	  - name: Standup
//	    fixed: true
//	    start: "09:30"
//	    end: "09:45"
package planfile

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// File is the YAML document.
type File struct {
	Date   string  `yaml:"date"`
	Anchor string  `yaml:"anchor,omitempty"`
	Tasks  []Entry `yaml:"tasks"`
}

// Entry is one task line. Times are HH:MM on the entry's date, or RFC 3339.
type Entry struct {
	Name     string `yaml:"name"`
	Date     string `yaml:"date,omitempty"` // overrides File.Date
	Duration int    `yaml:"duration,omitempty"`
	Priority string `yaml:"priority,omitempty"`
	Fixed    bool   `yaml:"fixed,omitempty"`
	Start    string `yaml:"start,omitempty"`
	End      string `yaml:"end,omitempty"`
}

// Plan is a decoded file ready for the planner.
type Plan struct {
	Date   string
	Anchor time.Time // zero when the file sets none
	Drafts []domain.TaskDraft
}

// Read decodes and validates a plan. Clock times are read in loc.
// Nothing is returned unless every entry is valid.
func Read(r io.Reader, loc *time.Location) (Plan, error) {
	var f File
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return Plan{}, fmt.Errorf("decode plan: %w", err)
	}
	return f.Plan(loc)
}

// Plan converts the file to drafts.
func (f File) Plan(loc *time.Location) (Plan, error) {
	date, err := timeutil.ParseDate(f.Date)
	if err != nil {
		return Plan{}, fmt.Errorf("plan date: %w", err)
	}
	p := Plan{Date: date}
	if f.Anchor != "" {
		if p.Anchor, err = timeutil.ParseInstant(date, f.Anchor, loc); err != nil {
			return Plan{}, fmt.Errorf("plan anchor: %w", err)
		}
	}

	for i, e := range f.Tasks {
		d, err := e.draft(date, loc)
		if err != nil {
			return Plan{}, fmt.Errorf("task %d (%s): %w", i+1, e.Name, err)
		}
		if err := d.Task("").Validate(); err != nil {
			return Plan{}, fmt.Errorf("task %d (%s): %w", i+1, e.Name, err)
		}
		p.Drafts = append(p.Drafts, d)
	}
	return p, nil
}

func (e Entry) draft(date string, loc *time.Location) (domain.TaskDraft, error) {
	if e.Date != "" {
		var err error
		if date, err = timeutil.ParseDate(e.Date); err != nil {
			return domain.TaskDraft{}, err
		}
	}
	prio, err := domain.ParsePriority(e.Priority)
	if err != nil {
		return domain.TaskDraft{}, err
	}
	d := domain.TaskDraft{
		Date:              date,
		Name:              e.Name,
		EstimatedDuration: e.Duration,
		Priority:          prio,
		IsFixed:           e.Fixed,
	}
	if e.Fixed {
		if e.Start != "" {
			if d.StartTime, err = timeutil.ParseInstant(date, e.Start, loc); err != nil {
				return domain.TaskDraft{}, err
			}
		}
		if e.End != "" {
			if d.EndTime, err = timeutil.ParseInstant(date, e.End, loc); err != nil {
				return domain.TaskDraft{}, err
			}
		}
	}
	return d, nil
}

// Write encodes the tasks of one date, with the anchor if set.
// Completed tasks are left out; a plan file describes work still to do.
func Write(w io.Writer, date string, anchor time.Time, tasks []domain.Task) error {
	f := File{Date: date, Tasks: []Entry{}}
	if !anchor.IsZero() {
		f.Anchor = timeutil.FormatClock(anchor)
	}
	for _, t := range tasks {
		if t.IsCompleted() {
			continue
		}
		e := Entry{Name: t.Name, Duration: t.EstimatedDuration, Priority: string(t.Priority)}
		if t.HasWindow() {
			e.Duration = 0
			e.Fixed = true
			e.Start = timeutil.FormatClock(t.StartTime)
			e.End = timeutil.FormatClock(t.EndTime)
		}
		if t.Date != date {
			e.Date = t.Date
		}
		f.Tasks = append(f.Tasks, e)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(f); err != nil {
		return fmt.Errorf("encode plan: %w", err)
	}
	return enc.Close()
}
