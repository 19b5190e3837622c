package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
)

func init() {
	syncCmd.Flags().DurationVar(&syncTimeout, "timeout", 30*time.Second, "Give up after this long")
	rootCmd.AddCommand(syncCmd)
}

var syncTimeout time.Duration

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Pull the cloud task pool, merge it and push local changes",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func runSync(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	if d.Sync == nil {
		return daemon.ErrSyncDisabled
	}

	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	if err := d.SyncNow(ctx); err != nil {
		return err
	}
	fmt.Printf("Synced %d task(s)\n", len(d.Planner.Snapshot().Tasks))
	if at, err := d.LastSync(ctx); err == nil && !at.IsZero() {
		fmt.Printf("Last sync: %s\n", at.In(d.Location).Format(time.RFC3339))
	}
	if d.Sync.Pending() {
		fmt.Println("Some changes are still pending; they will be pushed on the next sync.")
	}
	return nil
}
