package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
	"github.com/taskplanner/planner/internal/domain"
	"github.com/taskplanner/planner/internal/infra/ics"
	"github.com/taskplanner/planner/internal/infra/planfile"
)

func init() {
	rootCmd.AddCommand(importCmd, importICSCmd)
}

var importCmd = &cobra.Command{
	Use:   "import FILE",
	Short: "Add the tasks of a YAML plan file",
	Long: `Add every task of a plan file and, when the file sets one, the anchor
of its date. The whole file is validated before anything is added.

Example plan file:
  date: 2026-10-20
  anchor: "08:30"
  tasks:
    - name: Standup
      fixed: true
      start: "09:30"
      end: "09:45"
    - name: Write report
      duration: 90
      priority: high`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var importICSCmd = &cobra.Command{
	Use:   "import-ics FILE",
	Short: "Add the timed events of an iCalendar file as fixed tasks",
	Args:  cobra.ExactArgs(1),
	RunE:  runImportICS,
}

func runImport(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	plan, err := planfile.Read(f, d.Location)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	added, err := addDrafts(d, plan.Drafts, false)
	if err != nil {
		return fmt.Errorf("after %d task(s): %w", added, err)
	}
	if !plan.Anchor.IsZero() {
		if _, err := d.Planner.SetAnchor(plan.Date, plan.Anchor); err != nil {
			return err
		}
	}
	fmt.Printf("Imported %d task(s) for %s\n", added, plan.Date)
	return nil
}

func runImportICS(cmd *cobra.Command, args []string) error {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := ics.Import(f, d.Location)
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}

	added, err := addDrafts(d, res.Drafts, true)
	if err != nil {
		return err
	}
	fmt.Printf("Imported %d event(s), skipped %d\n", added, res.Skipped+len(res.Drafts)-added)
	return nil
}

// addDrafts adds each draft in turn. With skipConflicts set, drafts whose
// fixed window overlaps an existing task are reported and skipped.
func addDrafts(d *daemon.Daemon, drafts []domain.TaskDraft, skipConflicts bool) (int, error) {
	added := 0
	for _, draft := range drafts {
		if _, err := d.Planner.Add(draft); err != nil {
			if skipConflicts && errors.Is(err, domain.ErrFixedOverlap) {
				fmt.Fprintf(os.Stderr, "skip %q: %v\n", draft.Name, err)
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}
