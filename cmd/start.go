package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// Start/stop command flags.
var (
	startFlagAll bool
	stopFlagAll  bool
)

// startCmd represents the start command.
var startCmd = &cobra.Command{
	Use:     "start [REF...]",
	Aliases: []string{"resume", "on"},
	Short:   "Start countdowns or re-arm alarms",
	Long: `Start one or more timers, named by id, id prefix or name.

A countdown continues from where it was paused, or from its full length if it
has already run out. An alarm can only be re-armed while its time is still
ahead; use 'tickwatch edit --at' to move it.

Examples:
  tickwatch start tea
  tickwatch start tea pasta
  tickwatch start --all`,
	Annotations:       writes(),
	ValidArgsFunction: completeTimerRefs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetActive(args, true, startFlagAll)
	},
}

// stopCmd represents the stop command.
var stopCmd = &cobra.Command{
	Use:     "stop [REF...]",
	Aliases: []string{"pause", "off", "dismiss"},
	Short:   "Pause countdowns or dismiss alarms",
	Long: `Stop one or more timers, named by id, id prefix or name.

A stopped countdown keeps its remaining time. A stopped alarm is dismissed and
stays in the list until it is removed or given a new time.

Examples:
  tickwatch stop tea
  tickwatch stop --all`,
	Annotations:       writes(),
	ValidArgsFunction: completeTimerRefs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runSetActive(args, false, stopFlagAll)
	},
}

func init() {
	startCmd.Flags().BoolVarP(&startFlagAll, "all", "a", false, "Start every timer that can run")
	stopCmd.Flags().BoolVarP(&stopFlagAll, "all", "a", false, "Stop every timer")

	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
}

func runSetActive(refs []string, active, all bool) error {
	status := "stopped"
	if active {
		status = "started"
	}

	if all {
		if len(refs) > 0 {
			return errors.NewValidationError(errors.ErrInvalidInput, "all", "",
				"--all does not take timer references")
		}
		var changed int
		if active {
			changed = ctx.Store.StartAll()
		} else {
			changed = ctx.Store.StopAll()
		}
		return printBatch(status, ctx.Store.List(), changed)
	}

	entries, err := resolveRefs(refs)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := ctx.Store.SetActive(e.ID, active); err != nil {
			return err
		}
	}
	return printBatch(status, refresh(entries), len(entries))
}

// resolveRefs resolves every reference before anything is changed, so a
// typo in the last one leaves the others untouched.
func resolveRefs(refs []string) ([]model.TimerEntry, error) {
	if len(refs) == 0 {
		return nil, errors.NewValidationError(errors.ErrInvalidInput, "ref", "",
			"at least one timer is required").
			WithSuggestion("Name timers by id or name, or see 'tickwatch list'.")
	}
	seen := make(map[string]bool, len(refs))
	entries := make([]model.TimerEntry, 0, len(refs))
	for _, ref := range refs {
		e, err := ctx.Store.Resolve(ref)
		if err != nil {
			return nil, err
		}
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		entries = append(entries, e)
	}
	return entries, nil
}

// refresh re-reads entries after a change.
func refresh(entries []model.TimerEntry) []model.TimerEntry {
	out := make([]model.TimerEntry, 0, len(entries))
	for _, e := range entries {
		if cur, err := ctx.Store.Get(e.ID); err == nil {
			out = append(out, cur)
		}
	}
	return out
}

func printBatch(status string, entries []model.TimerEntry, changed int) error {
	now := ctx.Clock.Now()
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintBatch(status, entries, changed, now)
	}

	cli := ctx.CLIFormatter()
	if changed == 0 {
		cli.Muted(fmt.Sprintf("Nothing to do: no timers %s.", status))
		return nil
	}
	cli.Success(fmt.Sprintf("%d timer(s) %s", changed, status))
	cli.PrintTimers(entries, now)
	return nil
}
