package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
)

func init() {
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list [DATE]",
	Aliases: []string{"ls"},
	Short:   "Show the tasks and schedule of a day",
	Args:    cobra.MaximumNArgs(1),
	RunE:    runList,
}

func runList(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	date, err := resolveDate(d.Planner, firstArg(args))
	if err != nil {
		return err
	}
	d.Planner.Sweep()
	return printView(os.Stdout, d.Planner.View(date), d.Planner.Now())
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
