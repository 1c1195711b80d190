package cmd

import (
	stderrors "errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/parser"
)

// Add command flags.
var (
	addFlagIn     string
	addFlagAt     string
	addFlagAction string
	addFlagStart  bool
)

// addCmd represents the add command.
var addCmd = &cobra.Command{
	Use:     "add NAME [DURATION | TIME]",
	Aliases: []string{"a", "new"},
	Short:   "Add a countdown or an alarm",
	Long: `Add a named countdown or alarm.

A countdown runs for a duration while it is started. An alarm goes off at a
clock time and is armed as soon as it is added.

The schedule can be given with --in / --at, or as a second argument: anything
that reads as a duration is a countdown, "at TIME" or anything else is an alarm.

Examples:
  tickwatch add tea 4m --start
  tickwatch add pasta --in "11 minutes"
  tickwatch add standup --at "tomorrow 9:30am"
  tickwatch add backup "at 23:00" --action ~/bin/backup.sh`,
	Args:        cobra.RangeArgs(1, 2),
	Annotations: writes(),
	RunE:        runAdd,
}

func init() {
	addCmd.Flags().StringVarP(&addFlagIn, "in", "i", "", "Countdown length (5m, 1h30m, 25:00, 90 minutes)")
	addCmd.Flags().StringVar(&addFlagAt, "at", "", "Alarm time (18:30, tomorrow 7am, in 20 minutes)")
	addCmd.Flags().StringVarP(&addFlagAction, "action", "x", "", "Program to launch when the timer goes off")
	addCmd.Flags().BoolVarP(&addFlagStart, "start", "s", false, "Start the countdown right away")
	addCmd.MarkFlagsMutuallyExclusive("in", "at")
	addCmd.MarkFlagFilename("action")

	rootCmd.AddCommand(addCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	now := ctx.Clock.Now()

	var positional string
	if len(args) > 1 {
		positional = args[1]
	}
	target, ok, err := parseTargetFlags(addFlagIn, addFlagAt, positional, now)
	if err != nil {
		return err
	}
	if !ok {
		return errors.NewValidationError(errors.ErrInvalidDuration, "in", "",
			"a countdown length or an alarm time is required").
			WithSuggestion("Use --in 5m for a countdown or --at 18:30 for an alarm.")
	}

	id, err := ctx.Store.Add(args[0], target, addFlagAction)
	if err != nil {
		return err
	}
	if addFlagStart && target.Kind == model.KindCountdown {
		if err := ctx.Store.SetActive(id, true); err != nil {
			return err
		}
	}

	e, err := ctx.Store.Get(id)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTimer("added", e, now)
	}
	ctx.CLIFormatter().PrintTimerAdded(e, now)
	return nil
}

// parseTargetFlags turns --in, --at or a free-text schedule into a target.
// ok is false when none of them was given.
func parseTargetFlags(in, at, free string, now time.Time) (target model.Target, ok bool, err error) {
	switch {
	case in != "":
		secs, err := parser.ParseSeconds(in)
		if err != nil {
			return model.Target{}, false, asValidation(err)
		}
		return model.CountdownTarget(secs), true, nil
	case at != "":
		r := parser.ParseAlarmTime(at, now)
		if r.Error != nil {
			return model.Target{}, false, asValidation(r.Error)
		}
		return model.AlarmTarget(r.Time), true, nil
	case free != "":
		target, err := parser.ParseTarget(free, now)
		if err != nil {
			return model.Target{}, false, asValidation(err)
		}
		return target, true, nil
	}
	return model.Target{}, false, nil
}

// asValidation presents parser errors with their examples.
func asValidation(err error) error {
	var perr *parser.TimeParseError
	if stderrors.As(err, &perr) {
		return perr.ToValidationError()
	}
	return err
}
