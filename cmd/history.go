package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/errors"
)

// History command flags.
var (
	historyFlagLimit int
	historyFlagClear bool
)

// historyCmd represents the history command.
var historyCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"log", "fired"},
	Short:   "Show timers that went off",
	Long: `Show the most recent expiries recorded by the scheduler, newest first,
including whether their action could be launched.

History lives in its own database next to the timers file and can be
turned off with storage.history_enabled in the config file.

Examples:
  tickwatch history
  tickwatch history --limit 50
  tickwatch history --clear`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyFlagLimit, "limit", "n", 20, "Number of records to show (0 for all)")
	historyCmd.Flags().BoolVar(&historyFlagClear, "clear", false, "Delete all history")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	repo, err := ctx.History()
	if err != nil {
		return errors.Wrap(err, "open history (a running scheduler keeps it open)")
	}
	if repo == nil {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "disabled"})
		}
		ctx.CLIFormatter().Muted("History is disabled (storage.history_enabled: false).")
		return nil
	}

	if historyFlagClear {
		n, err := repo.Clear()
		if err != nil {
			return err
		}
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "cleared", "deleted": n})
		}
		ctx.CLIFormatter().Success(fmt.Sprintf("Deleted %d record(s)", n))
		return nil
	}

	records, err := repo.List(historyFlagLimit)
	if err != nil {
		return err
	}
	total, err := repo.Count()
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintHistory(records, total)
	}
	ctx.CLIFormatter().PrintHistory(records)
	if total > len(records) {
		ctx.CLIFormatter().Muted(fmt.Sprintf("Showing %d of %d. Use --limit 0 for all.", len(records), total))
	}
	return nil
}
