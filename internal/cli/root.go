// Package cli implements the planner command-line interface using Cobra.
// Every command except serve works directly on the local task pool; the
// change is persisted (and pushed when sync is on) before it exits.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "planner",
	Short: "planner: plan your day around fixed commitments",
	Long: `planner keeps a list of tasks per day. Fixed tasks stay where you put
them; flexible tasks are packed by priority into the gaps, starting at the
day's anchor time.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
