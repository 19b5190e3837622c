package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/taskplanner/planner/internal/app/planner"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

// resolveDate turns an optional DATE argument into a date key.
// Missing or "today" means the planner's current date.
func resolveDate(p *planner.Planner, arg string) (string, error) {
	if arg == "" || arg == "today" {
		return p.Today(), nil
	}
	if arg == "tomorrow" {
		return timeutil.DateOf(p.Now().AddDate(0, 0, 1)), nil
	}
	return timeutil.ParseDate(arg)
}

// resolveID accepts a full task id or a unique prefix of one.
func resolveID(p *planner.Planner, ref string) (string, error) {
	if _, err := p.Task(ref); err == nil {
		return ref, nil
	}
	var match string
	for _, t := range p.Snapshot().Tasks {
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("%w: %s", domain.ErrTaskNotFound, ref)
	}
	return match, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// printView writes a day as a table.
func printView(w io.Writer, v planner.DayView, now time.Time) error {
	if v.Scheduled {
		fmt.Fprintf(w, "%s  anchor %s\n", v.Date, timeutil.FormatClock(v.Anchor))
	} else {
		fmt.Fprintf(w, "%s  (no anchor; run 'planner anchor' to schedule)\n", v.Date)
	}
	if len(v.Tasks) == 0 {
		fmt.Fprintln(w, "No tasks. Run 'planner add NAME' to create one.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SLOT\tID\tNAME\tPRIORITY\tMIN\tSTATUS")
	for _, st := range v.Tasks {
		slot := timeutil.FormatRange(st.CalculatedStartTime, st.CalculatedEndTime)
		if slot == "" {
			slot = "-"
		}
		name := st.Name
		if st.IsFixed {
			name += " (fixed)"
		}
		minutes := fmt.Sprint(st.EstimatedDuration)
		if st.ActualDuration > 0 {
			minutes = fmt.Sprintf("%d/%d", st.ActualDuration, st.EstimatedDuration)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			slot, shortID(st.ID), name, st.Priority, minutes, st.Status)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if v.Active != nil {
		fmt.Fprintf(w, "\nRunning: %s for %s\n", shortID(v.Active.TaskID),
			timeutil.FormatElapsed(v.Active.StartedAt, now))
	}
	return nil
}
