package cmd

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// Export command flags.
var (
	exportFlagCSV     bool
	exportFlagHistory bool
	exportFlagOutput  string
)

// exportVersion is bumped when the export document changes shape.
const exportVersion = "1"

// timersExport is the document written by export and read by import.
type timersExport struct {
	Version    string             `json:"version"`
	ExportedAt string             `json:"exported_at"`
	Timers     []model.TimerEntry `json:"timers"`
	Count      int                `json:"count"`
}

type historyExport struct {
	Version    string               `json:"version"`
	ExportedAt string               `json:"exported_at"`
	Records    []*model.FiredRecord `json:"records"`
	Count      int                  `json:"count"`
}

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:     "export",
	Aliases: []string{"dump", "backup"},
	Short:   "Export timers or history",
	Long: `Export all timers, or the expiry history, as JSON or CSV.

A JSON timers export can be loaded again with 'tickwatch import'.

Examples:
  tickwatch export -o timers.json
  tickwatch export --csv
  tickwatch export --history --csv -o fired.csv`,
	Args:        cobra.NoArgs,
	Annotations: reads(),
	RunE:        runExport,
}

func init() {
	exportCmd.Flags().BoolVar(&exportFlagCSV, "csv", false, "Write CSV instead of JSON")
	exportCmd.Flags().BoolVar(&exportFlagHistory, "history", false, "Export expiry history instead of timers")
	exportCmd.Flags().StringVarP(&exportFlagOutput, "output", "o", "", "Output file (stdout if omitted)")
	exportCmd.MarkFlagFilename("output")

	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, args []string) error {
	var writer io.Writer = ctx.Formatter.Writer
	if exportFlagOutput != "" {
		f, err := os.Create(exportFlagOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		writer = f
	}

	now := ctx.Clock.Now()
	var (
		count int
		err   error
	)
	if exportFlagHistory {
		count, err = exportHistory(writer, now)
	} else {
		timers := ctx.Store.List()
		count = len(timers)
		if exportFlagCSV {
			err = exportTimersCSV(writer, timers)
		} else {
			err = writeJSON(writer, timersExport{
				Version:    exportVersion,
				ExportedAt: now.Format(time.RFC3339),
				Timers:     timers,
				Count:      count,
			})
		}
	}
	if err != nil {
		return err
	}

	if exportFlagOutput != "" && !ctx.IsJSON() {
		what := "timer(s)"
		if exportFlagHistory {
			what = "record(s)"
		}
		ctx.CLIFormatter().Success("Exported " + strconv.Itoa(count) + " " + what + " to " + exportFlagOutput)
	}
	return nil
}

func exportHistory(w io.Writer, now time.Time) (int, error) {
	repo, err := ctx.History()
	if err != nil {
		return 0, err
	}
	var records []*model.FiredRecord
	if repo != nil {
		if records, err = repo.List(0); err != nil {
			return 0, err
		}
	}

	if exportFlagCSV {
		return len(records), exportHistoryCSV(w, records)
	}
	return len(records), writeJSON(w, historyExport{
		Version:    exportVersion,
		ExportedAt: now.Format(time.RFC3339),
		Records:    records,
		Count:      len(records),
	})
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func exportTimersCSV(w io.Writer, timers []model.TimerEntry) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"id", "name", "kind", "duration_seconds", "remaining_seconds", "trigger_at",
		"active", "dismissed", "action_path",
	}); err != nil {
		return err
	}

	for _, e := range timers {
		var duration, remaining, triggerAt string
		if e.IsAlarm() {
			triggerAt = e.TriggerAt.Format(time.RFC3339)
		} else {
			duration = formatInt(e.Duration)
			remaining = formatInt(e.Remaining)
		}
		if err := writer.Write([]string{
			e.ID,
			e.Name,
			string(e.Kind),
			duration,
			remaining,
			triggerAt,
			strconv.FormatBool(e.Active),
			strconv.FormatBool(e.Dismissed),
			e.ActionPath,
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func exportHistoryCSV(w io.Writer, records []*model.FiredRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{
		"fired_at", "timer_id", "name", "kind", "action_path", "dispatch_error",
	}); err != nil {
		return err
	}
	for _, r := range records {
		if err := writer.Write([]string{
			r.FiredAt.Format(time.RFC3339),
			r.TimerID,
			r.Name,
			string(r.Kind),
			r.ActionPath,
			r.DispatchError,
		}); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}
