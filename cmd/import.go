package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// Import command flags.
var (
	importFlagDryRun bool
	importFlagForce  bool
)

// importCmd represents the import command.
var importCmd = &cobra.Command{
	Use:     "import FILE",
	Aliases: []string{"restore"},
	Short:   "Import timers from an export file",
	Long: `Import timers from a file written by 'tickwatch export'.

Imported timers get new ids. A timer whose name is already taken is skipped
unless --force is given, in which case the existing timer takes the imported
schedule and action. Alarms whose time has passed are skipped. Running
countdowns start again from their full length.

Examples:
  tickwatch import timers.json
  tickwatch import timers.json --dry-run
  tickwatch import timers.json --force`,
	Args:        cobra.ExactArgs(1),
	Annotations: writes(),
	RunE:        runImport,
}

func init() {
	importCmd.Flags().BoolVar(&importFlagDryRun, "dry-run", false, "Preview import without making changes")
	importCmd.Flags().BoolVar(&importFlagForce, "force", false, "Overwrite timers with the same name")
	importCmd.MarkFlagFilename("", "json")

	rootCmd.AddCommand(importCmd)
}

// importStats counts what an import did.
type importStats struct {
	Added    int      `json:"added"`
	Updated  int      `json:"updated"`
	Skipped  int      `json:"skipped"`
	Problems []string `json:"problems,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	filename := args[0]

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}

	var doc timersExport
	if err := json.Unmarshal(data, &doc); err != nil {
		return errors.NewValidationError(errors.ErrInvalidInput, "file", filename,
			fmt.Sprintf("not a tickwatch export: %v", err))
	}
	if doc.Version != exportVersion {
		return errors.NewValidationError(errors.ErrInvalidInput, "file", filename,
			fmt.Sprintf("unsupported export version %q", doc.Version))
	}

	stats := importStats{}
	for _, e := range doc.Timers {
		if err := importTimer(e, &stats); err != nil {
			stats.Skipped++
			stats.Problems = append(stats.Problems, fmt.Sprintf("%s: %s", e.Name, err))
		}
	}

	status := "imported"
	if importFlagDryRun {
		status = "dry_run"
	}
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": status,
			"stats":  stats,
		})
	}

	cli := ctx.CLIFormatter()
	if importFlagDryRun {
		cli.Title("Dry Run - Import Preview")
		cli.Printf("Would import:\n")
	} else {
		cli.Success("Import complete")
	}
	cli.Printf("  Added: %d\n", stats.Added)
	cli.Printf("  Updated: %d\n", stats.Updated)
	if stats.Skipped > 0 {
		cli.Printf("  Skipped: %d\n", stats.Skipped)
		for _, p := range stats.Problems {
			cli.Muted("    " + p)
		}
	}
	return nil
}

func importTimer(e model.TimerEntry, stats *importStats) error {
	existing, err := ctx.Store.Resolve(e.Name)
	exists := err == nil && existing.Name == e.Name
	if exists && !importFlagForce {
		return fmt.Errorf("name already taken")
	}

	if importFlagDryRun {
		if exists {
			stats.Updated++
		} else {
			stats.Added++
		}
		return nil
	}

	id := existing.ID
	if exists {
		if err := ctx.Store.Edit(id, e.Name, e.Target(), e.ActionPath); err != nil {
			return err
		}
		stats.Updated++
	} else {
		if id, err = ctx.Store.Add(e.Name, e.Target(), e.ActionPath); err != nil {
			return err
		}
		stats.Added++
	}

	if e.IsCountdown() && e.Active {
		return ctx.Store.SetActive(id, true)
	}
	return nil
}
