package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
	"github.com/taskplanner/planner/internal/timeutil"
)

func init() {
	rootCmd.AddCommand(startCmd, pauseCmd, doneCmd)
}

var startCmd = &cobra.Command{
	Use:   "start ID",
	Short: "Start the timer on a task (pauses any other running task)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(args[0], func(d *daemon.Daemon, id string) error {
			t, err := d.Planner.Start(id)
			if err != nil {
				return err
			}
			fmt.Printf("Started %q at %s\n", t.Name, timeutil.FormatClock(d.Planner.Now()))
			return nil
		})
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause ID",
	Short: "Pause a running task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(args[0], func(d *daemon.Daemon, id string) error {
			t, err := d.Planner.Pause(id)
			if err != nil {
				return err
			}
			fmt.Printf("Paused %q (%d min logged)\n", t.Name, t.ActualDuration)
			return nil
		})
	},
}

var doneCmd = &cobra.Command{
	Use:     "done ID",
	Aliases: []string{"complete"},
	Short:   "Mark a task completed",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withTask(args[0], func(d *daemon.Daemon, id string) error {
			t, err := d.Planner.Complete(id)
			if err != nil {
				return err
			}
			fmt.Printf("Completed %q in %d min\n", t.Name, t.ActualDuration)
			return nil
		})
	},
}

// withTask opens the planner, resolves ref and runs fn on the task id.
func withTask(ref string, fn func(d *daemon.Daemon, id string) error) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	id, err := resolveID(d.Planner, ref)
	if err != nil {
		return err
	}
	return fn(d, id)
}
