package cmd

import (
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// List command flags.
var (
	listFlagActive bool
	listFlagKind   string
	listFlagSort   string
)

// listCmd represents the list command.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List timers",
	Long: `List countdowns and alarms with their schedule and time left.

The list is read without taking the timers lock, so it works while
'tickwatch run' or the dashboard is going. Remaining time for running
countdowns is as of the scheduler's last checkpoint.

Examples:
  tickwatch list
  tickwatch list --active
  tickwatch list --kind alarm --sort remaining
  tickwatch list --format json`,
	Args:        cobra.NoArgs,
	Annotations: reads(),
	RunE:        runList,
}

func init() {
	listCmd.Flags().BoolVarP(&listFlagActive, "active", "a", false, "Only running timers")
	listCmd.Flags().StringVarP(&listFlagKind, "kind", "k", "", "Only countdowns or alarms (countdown, alarm)")
	listCmd.Flags().StringVar(&listFlagSort, "sort", "created", "Order: created, name, remaining")
	listCmd.RegisterFlagCompletionFunc("kind", cobra.FixedCompletions(
		[]string{string(model.KindCountdown), string(model.KindAlarm)}, cobra.ShellCompDirectiveNoFileComp))
	listCmd.RegisterFlagCompletionFunc("sort", cobra.FixedCompletions(
		[]string{"created", "name", "remaining"}, cobra.ShellCompDirectiveNoFileComp))

	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	var kind model.Kind
	if listFlagKind != "" {
		k, err := model.ParseKind(listFlagKind)
		if err != nil {
			return errors.NewValidationError(errors.ErrInvalidKind, "kind", listFlagKind, err.Error())
		}
		kind = k
	}

	now := ctx.Clock.Now()
	entries := filterTimers(ctx.Store.List(), listFlagActive, kind)
	sortTimers(entries, listFlagSort, now)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTimers(entries, now)
	}
	ctx.CLIFormatter().PrintTimers(entries, now)
	return nil
}

func filterTimers(entries []model.TimerEntry, activeOnly bool, kind model.Kind) []model.TimerEntry {
	out := entries[:0]
	for _, e := range entries {
		if activeOnly && !e.Active {
			continue
		}
		if kind != "" && e.Kind != kind {
			continue
		}
		out = append(out, e)
	}
	return out
}

func sortTimers(entries []model.TimerEntry, by string, now time.Time) {
	switch by {
	case "name":
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	case "remaining":
		sort.SliceStable(entries, func(i, j int) bool {
			return entries[i].RemainingAt(now) < entries[j].RemainingAt(now)
		})
	}
}
