package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
)

func init() {
	rootCmd.AddCommand(reorderCmd)
}

var reorderCmd = &cobra.Command{
	Use:   "reorder DATE ID...",
	Short: "Set the order tasks keep among equal priorities",
	Long: `Reorder the uncompleted tasks of a day. Every uncompleted task must be
listed exactly once. The order decides between tasks of the same priority
the next time the day is planned.`,
	Args: cobra.MinimumNArgs(2),
	RunE: runReorder,
}

func runReorder(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	date, err := resolveDate(d.Planner, args[0])
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(args)-1)
	for _, ref := range args[1:] {
		id, err := resolveID(d.Planner, ref)
		if err != nil {
			return err
		}
		ids = append(ids, id)
	}
	if err := d.Planner.Reorder(date, ids); err != nil {
		return err
	}
	fmt.Printf("Reordered %d task(s) on %s\n", len(ids), date)
	return nil
}
