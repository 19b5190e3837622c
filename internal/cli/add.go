package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/timeutil"
)

func init() {
	addCmd.Flags().StringVar(&addDate, "date", "", "Date (YYYY-MM-DD, today, tomorrow)")
	addCmd.Flags().IntVarP(&addDuration, "duration", "d", 30, "Estimated duration in minutes")
	addCmd.Flags().StringVarP(&addPriority, "priority", "p", "medium", "Priority: low, medium, high")
	addCmd.Flags().StringVar(&addStart, "start", "", "Fixed start time (HH:MM); makes the task fixed")
	addCmd.Flags().StringVar(&addEnd, "end", "", "Fixed end time (HH:MM)")
	rootCmd.AddCommand(addCmd)
}

var (
	addDate     string
	addDuration int
	addPriority string
	addStart    string
	addEnd      string
)

var addCmd = &cobra.Command{
	Use:   "add NAME...",
	Short: "Add a task",
	Long: `Add a flexible task, or a fixed one when --start/--end are given.

Examples:
  planner add Write report -d 90 -p high
  planner add Standup --start 09:30 --end 09:45`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAdd,
}

func runAdd(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	date, err := resolveDate(d.Planner, addDate)
	if err != nil {
		return err
	}
	prio, err := domain.ParsePriority(addPriority)
	if err != nil {
		return err
	}

	draft := domain.TaskDraft{
		Date:              date,
		Name:              strings.Join(args, " "),
		EstimatedDuration: addDuration,
		Priority:          prio,
		IsFixed:           addStart != "" || addEnd != "",
	}
	if draft.IsFixed {
		if draft.StartTime, err = clockOrZero(date, addStart, d); err != nil {
			return err
		}
		if draft.EndTime, err = clockOrZero(date, addEnd, d); err != nil {
			return err
		}
	}

	t, err := d.Planner.Add(draft)
	if err != nil {
		return err
	}
	fmt.Printf("Added %s %q on %s\n", shortID(t.ID), t.Name, t.Date)
	return nil
}

func clockOrZero(date, s string, d *daemon.Daemon) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return timeutil.ParseInstant(date, s, d.Location)
}
