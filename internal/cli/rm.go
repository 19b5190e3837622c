package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
)

func init() {
	rootCmd.AddCommand(rmCmd)
}

var rmCmd = &cobra.Command{
	Use:     "rm ID [ID...]",
	Aliases: []string{"remove", "delete"},
	Short:   "Delete one or more tasks",
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRm,
}

func runRm(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	for _, ref := range args {
		id, err := resolveID(d.Planner, ref)
		if err != nil {
			return err
		}
		if err := d.Planner.Delete(id); err != nil {
			return fmt.Errorf("delete %s: %w", ref, err)
		}
		fmt.Printf("Deleted %s\n", shortID(id))
	}
	return nil
}
