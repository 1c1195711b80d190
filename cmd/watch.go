package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/timer"
)

var watchFlagStart bool

// watchCmd represents the watch command.
var watchCmd = &cobra.Command{
	Use:     "watch REF",
	Aliases: []string{"w", "follow"},
	Short:   "Show one timer full screen until it goes off",
	Long: `Follow a single timer with a large countdown, running the scheduler in
this terminal until the timer goes off, is removed, or you quit.

Keyboard Controls:
  space   Start or stop the timer
  q       Quit (the timer keeps its state)

Examples:
  tickwatch watch tea
  tickwatch add tea 4m && tickwatch watch tea --start`,
	Args:              cobra.ExactArgs(1),
	Annotations:       writes(),
	ValidArgsFunction: completeTimerRefs,
	RunE:              runWatch,
}

func init() {
	watchCmd.Flags().BoolVarP(&watchFlagStart, "start", "s", false, "Start the timer before watching")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	e, err := ctx.Store.Resolve(args[0])
	if err != nil {
		return err
	}
	if watchFlagStart {
		if err := ctx.Store.SetActive(e.ID, true); err != nil {
			return err
		}
	}

	if !flagDebug {
		logging.Discard()
	}

	var outcome timer.Outcome
	err = withScheduler(func() error {
		w := timer.NewWatch(ctx.Store, e.ID)
		w.SetClock(ctx.Clock)
		var runErr error
		outcome, runErr = w.Run(context.Background())
		return runErr
	})
	if err != nil && outcome != timer.OutcomeRemoved {
		return err
	}

	return printWatchOutcome(e, outcome)
}

func printWatchOutcome(e model.TimerEntry, outcome timer.Outcome) error {
	status := map[timer.Outcome]string{
		timer.OutcomeQuit:    "quit",
		timer.OutcomeExpired: "expired",
		timer.OutcomeRemoved: "removed",
	}[outcome]

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": status,
			"id":     e.ID,
			"name":   e.Name,
		})
	}
	cli := ctx.CLIFormatter()
	switch outcome {
	case timer.OutcomeExpired:
		cli.Success(fmt.Sprintf("%s went off", cli.Name(e.Name)))
	case timer.OutcomeRemoved:
		cli.Warning(fmt.Sprintf("%s was removed", e.Name))
	}
	return nil
}
