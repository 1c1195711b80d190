package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/tui"
)

// dashboardCmd represents the dashboard command.
var dashboardCmd = &cobra.Command{
	Use:     "dashboard",
	Aliases: []string{"dash", "d", "tui"},
	Short:   "Open the interactive dashboard",
	Long: `Open an interactive terminal dashboard that runs the scheduler and shows
every timer counting down live.

Keyboard Controls:
  up/down, j/k  Select a timer
  space         Start or stop the selected timer
  a             Add a timer ("name, schedule", e.g. "tea, 4m" or "standup, at 9:30")
  d             Delete the selected timer
  s / x         Start all / stop all
  q             Quit

Timers keep their state when the dashboard closes; running countdowns pause
until a scheduler is started again.

Examples:
  tickwatch dashboard
  tickwatch tui`,
	Args:        cobra.NoArgs,
	Annotations: writes(),
	RunE:        runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)
}

func runDashboard(cmd *cobra.Command, args []string) error {
	// Log lines would tear the alternate screen.
	if !flagDebug {
		logging.Discard()
	}

	return withScheduler(func() error {
		return tui.Run(tui.DashboardConfig{
			Store: ctx.Store,
			Clock: ctx.Clock,
		})
	})
}

// withScheduler runs fn while the tick scheduler runs in this process.
func withScheduler(fn func() error) error {
	sched, err := ctx.Scheduler()
	if err != nil {
		return err
	}
	if err := sched.Start(); err != nil {
		return err
	}

	runErr := fn()
	if err := sched.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}
