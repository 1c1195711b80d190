package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/errors"
)

// Edit command flags.
var (
	editFlagName        string
	editFlagIn          string
	editFlagAt          string
	editFlagAction      string
	editFlagClearAction bool
)

// editCmd represents the edit command.
var editCmd = &cobra.Command{
	Use:     "edit REF",
	Aliases: []string{"e", "set"},
	Short:   "Rename or reschedule a timer",
	Long: `Change a timer's name, schedule or action.

REF is a timer id, an id prefix of at least four characters, or a name.
A new schedule resets the timer as if it had just been added; a rename or a
new action keeps it running.

Examples:
  tickwatch edit tea --in 5m
  tickwatch edit standup --at "tomorrow 10am"
  tickwatch edit 3f9a --name lunch
  tickwatch edit backup --clear-action`,
	Args:              cobra.ExactArgs(1),
	Annotations:       writes(),
	ValidArgsFunction: completeTimerRefs,
	RunE:              runEdit,
}

func init() {
	editCmd.Flags().StringVarP(&editFlagName, "name", "n", "", "New name")
	editCmd.Flags().StringVarP(&editFlagIn, "in", "i", "", "New countdown length")
	editCmd.Flags().StringVar(&editFlagAt, "at", "", "New alarm time")
	editCmd.Flags().StringVarP(&editFlagAction, "action", "x", "", "New action program")
	editCmd.Flags().BoolVar(&editFlagClearAction, "clear-action", false, "Remove the action")
	editCmd.MarkFlagsMutuallyExclusive("in", "at")
	editCmd.MarkFlagsMutuallyExclusive("action", "clear-action")
	editCmd.MarkFlagFilename("action")

	rootCmd.AddCommand(editCmd)
}

func runEdit(cmd *cobra.Command, args []string) error {
	now := ctx.Clock.Now()
	e, err := ctx.Store.Resolve(args[0])
	if err != nil {
		return err
	}

	name := e.Name
	if editFlagName != "" {
		name = editFlagName
	}
	action := e.ActionPath
	switch {
	case editFlagClearAction:
		action = ""
	case editFlagAction != "":
		action = editFlagAction
	}
	target, ok, err := parseTargetFlags(editFlagIn, editFlagAt, "", now)
	if err != nil {
		return err
	}
	if !ok {
		target = e.Target()
	}

	if !ok && editFlagName == "" && editFlagAction == "" && !editFlagClearAction {
		return errors.NewValidationError(errors.ErrInvalidInput, "edit", "",
			"nothing to change").
			WithSuggestion("Pass --name, --in, --at, --action or --clear-action.")
	}

	if err := ctx.Store.Edit(e.ID, name, target, action); err != nil {
		return err
	}
	updated, err := ctx.Store.Get(e.ID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintTimer("updated", updated, now)
	}
	cli := ctx.CLIFormatter()
	cli.Success("Updated " + cli.Name(updated.Name))
	cli.PrintTimer(updated, now)
	return nil
}
