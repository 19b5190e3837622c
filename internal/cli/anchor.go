package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
	"github.com/taskplanner/planner/internal/timeutil"
)

func init() {
	anchorCmd.Flags().BoolVar(&anchorClear, "clear", false, "Remove the anchor and unschedule the day")
	rootCmd.AddCommand(anchorCmd, resetCmd)
}

var anchorClear bool

var anchorCmd = &cobra.Command{
	Use:   "anchor [DATE] [HH:MM]",
	Short: "Set the time a day's flexible tasks start from",
	Long: `Set the anchor of a day and rebuild its schedule. Without a time the
anchor is now.

Examples:
  planner anchor
  planner anchor 08:30
  planner anchor 2026-10-20 09:00
  planner anchor tomorrow --clear`,
	Args: cobra.MaximumNArgs(2),
	RunE: runAnchor,
}

var resetCmd = &cobra.Command{
	Use:   "reset [DATE]",
	Short: "Reopen completed tasks and reschedule the day from now",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := daemon.New()
		if err != nil {
			return err
		}
		defer d.Close()

		date, err := resolveDate(d.Planner, firstArg(args))
		if err != nil {
			return err
		}
		v, err := d.Planner.Reset(date)
		if err != nil {
			return err
		}
		return printView(os.Stdout, v, d.Planner.Now())
	},
}

func runAnchor(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	var dateArg, clockArg string
	switch len(args) {
	case 2:
		dateArg, clockArg = args[0], args[1]
	case 1:
		if _, perr := timeutil.ParseClock(d.Planner.Today(), args[0], d.Location); perr == nil {
			clockArg = args[0]
		} else {
			dateArg = args[0]
		}
	}
	date, err := resolveDate(d.Planner, dateArg)
	if err != nil {
		return err
	}

	if anchorClear {
		if err := d.Planner.ClearAnchor(date); err != nil {
			return err
		}
		fmt.Printf("Cleared anchor for %s\n", date)
		return nil
	}

	at := d.Planner.Now()
	if clockArg != "" {
		if at, err = timeutil.ParseInstant(date, clockArg, d.Location); err != nil {
			return err
		}
	}
	v, err := d.Planner.SetAnchor(date, at)
	if err != nil {
		return err
	}
	return printView(os.Stdout, v, d.Planner.Now())
}
