package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/model"
)

// rmCmd represents the rm command.
var rmCmd = &cobra.Command{
	Use:     "rm REF...",
	Aliases: []string{"remove", "delete", "del"},
	Short:   "Remove timers",
	Long: `Remove one or more timers, named by id, id prefix or name.

Examples:
  tickwatch rm tea
  tickwatch rm 3f2a pasta`,
	Args:              cobra.MinimumNArgs(1),
	Annotations:       writes(),
	ValidArgsFunction: completeTimerRefs,
	RunE:              runRm,
}

func init() {
	rootCmd.AddCommand(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	entries, err := resolveRefs(args)
	if err != nil {
		return err
	}

	removed := make([]model.TimerEntry, 0, len(entries))
	for _, e := range entries {
		if err := ctx.Store.Remove(e.ID); err != nil {
			return err
		}
		removed = append(removed, e)
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintBatch("removed", removed, len(removed), ctx.Clock.Now())
	}
	cli := ctx.CLIFormatter()
	for _, e := range removed {
		cli.Success(fmt.Sprintf("Removed %s %s", e.Kind, cli.Name(e.Name)))
	}
	return nil
}
