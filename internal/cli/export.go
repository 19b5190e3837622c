package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskplanner/planner/internal/daemon"
	"github.com/taskplanner/planner/internal/infra/ics"
	"github.com/taskplanner/planner/internal/infra/planfile"
)

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "ics", "Output format: ics or yaml")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to a file instead of stdout")
	rootCmd.AddCommand(exportCmd)
}

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [DATE]",
	Short: "Export a day as an iCalendar feed or a YAML plan file",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) (err error) {
	d, err := daemon.New()
	if err != nil {
		return err
	}
	defer d.Close()

	date, err := resolveDate(d.Planner, firstArg(args))
	if err != nil {
		return err
	}

	var w io.Writer = os.Stdout
	if exportOutput != "" {
		f, cerr := os.Create(exportOutput)
		if cerr != nil {
			return fmt.Errorf("create %s: %w", exportOutput, cerr)
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	switch exportFormat {
	case "ics", "ical":
		v := d.Planner.View(date)
		_, err = io.WriteString(w, ics.Export(date, v.Tasks, d.Planner.Now()))
		return err
	case "yaml", "yml":
		anchor, _ := d.Planner.Anchor(date)
		return planfile.Write(w, date, anchor, d.Planner.Tasks(date))
	default:
		return fmt.Errorf("unknown format %q (want ics or yaml)", exportFormat)
	}
}
