package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/daemon"
	"github.com/manav03panchal/tickwatch/internal/output"
)

var runFlagQuiet bool

// runCmd represents the run command.
var runCmd = &cobra.Command{
	Use:     "run",
	Aliases: []string{"serve", "scheduler"},
	Short:   "Run the scheduler in the foreground",
	Long: `Run the tick scheduler until interrupted.

Running countdowns count down once a second, alarms go off at their time and
each timer's action is launched when it expires. Progress is checkpointed to
the timers file so another tickwatch command can read it.

Only one process may change the timers at a time, and 'run' holds them until
it exits. While it runs, 'list', 'status' and 'export' still work, but
commands that change timers (add, edit, rm, start, stop, import) and the
'dashboard' and 'watch' views exit with code 4. To manage timers while they
tick, run 'tickwatch dashboard' in place of 'run'; it ticks the same way.
Stop 'run' (or 'tickwatch service uninstall') before changing timers from
the command line. 'tickwatch service install' keeps it running in the
background.

Examples:
  tickwatch run
  tickwatch run --quiet`,
	Args:        cobra.NoArgs,
	Annotations: writes(),
	RunE:        runRun,
}

func init() {
	runCmd.Flags().BoolVarP(&runFlagQuiet, "quiet", "q", false, "Do not print timers as they go off")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	sched, err := ctx.Scheduler()
	if err != nil {
		return err
	}

	if !runFlagQuiet {
		unsubscribe := ctx.Bus.OnExpired(func(id, name, actionPath string) {
			now := ctx.Clock.Now()
			if ctx.IsJSON() {
				ctx.Formatter.JSONLine(map[string]any{
					"status":      "expired",
					"id":          id,
					"name":        name,
					"action_path": actionPath,
					"at":          now.Format(time.RFC3339),
				})
				return
			}
			ctx.CLIFormatter().Success(fmt.Sprintf("%s  %s went off", output.FormatTimeOnly(now), name))
		})
		defer unsubscribe()
	}

	if !ctx.IsJSON() {
		cli := ctx.CLIFormatter()
		cli.Title("tickwatch scheduler")
		cli.Muted(fmt.Sprintf("%d timer(s), %d running. Press Ctrl+C to stop.",
			ctx.Store.Len(), countActive()))
		if !ctx.Notifier().HasWebhooks() {
			cli.Muted("No webhooks configured; see 'tickwatch webhook add'.")
		}
		ctx.Formatter.Println("")
	}

	runner := daemon.NewRunner(sched, daemon.Options{
		Clock:           ctx.Clock,
		ShutdownTimeout: ctx.Config.Daemon.ShutdownTimeout,
	})
	return runner.Run(context.Background())
}

func countActive() int {
	n := 0
	for _, e := range ctx.Store.List() {
		if e.Active {
			n++
		}
	}
	return n
}
