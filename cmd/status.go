package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/daemon"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/parser"
	"github.com/manav03panchal/tickwatch/internal/storage"
)

// statusCmd represents the status command.
var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"st"},
	Short:   "Show the scheduler and the next timer to go off",
	Long: `Show whether a scheduler is running, its counters, and which running
timer goes off next.

Running 'tickwatch' with no command shows the same thing.`,
	Args:        cobra.NoArgs,
	Annotations: reads(),
	RunE:        runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusJSON struct {
	*output.StatusResponse
	Scheduler *daemon.Status `json:"scheduler"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	now := ctx.Clock.Now()
	proc := daemon.GetStatus(daemon.NewPIDFile(), afero.NewOsFs(), daemon.GetStatePath(), now)

	entries := ctx.Store.List()
	resp := &output.StatusResponse{Status: "stopped", TotalCount: len(entries)}
	if proc.Running {
		resp.Status = "running"
		resp.PID = proc.PID
	}
	for _, e := range entries {
		if e.Active {
			resp.ActiveCount++
		}
	}
	next, hasNext := nextToFire(entries, now)
	if hasNext {
		resp.Next = output.NewTimerOutput(next, now)
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(statusJSON{StatusResponse: resp, Scheduler: proc})
	}

	cli := ctx.CLIFormatter()
	cli.Title("tickwatch")
	if proc.Running {
		ctx.Formatter.Printf("  Scheduler: running (pid %d", proc.PID)
		if proc.Uptime != "" {
			ctx.Formatter.Printf(", up %s", proc.Uptime)
		}
		ctx.Formatter.Println(")")
		if s := proc.Stats; s != nil {
			ctx.Formatter.Printf("  Expired:   %d", s.Expiries)
			if s.DispatchFailures > 0 {
				ctx.Formatter.Printf(" (%d action(s) failed)", s.DispatchFailures)
			}
			ctx.Formatter.Println("")
			if s.LastError != "" {
				cli.Warning(fmt.Sprintf("  Last error: %s", s.LastError))
			}
		}
	} else {
		ctx.Formatter.Println("  Scheduler: stopped")
	}
	ctx.Formatter.Printf("  Timers:    %d (%d running)\n", resp.TotalCount, resp.ActiveCount)

	if hasNext {
		ctx.Formatter.Printf("  Next:      %s %s\n", cli.Name(next.Name), describeNext(next, now))
	}

	if warn := storage.CheckDiskSpaceWarning(filepath.Dir(ctx.Timers.Path())); warn != "" {
		ctx.Formatter.Println("")
		cli.Warning(warn)
	}

	if !proc.Running {
		ctx.Formatter.Println("")
		switch {
		case resp.ActiveCount > 0:
			cli.Muted("Running timers only advance while a scheduler is up: 'tickwatch run' or 'tickwatch dashboard'.")
		case resp.TotalCount == 0:
			cli.Muted("Add a timer with 'tickwatch add tea --in 4m --start'.")
		}
	}
	return nil
}

// nextToFire returns the running timer with the least time left.
func nextToFire(entries []model.TimerEntry, now time.Time) (model.TimerEntry, bool) {
	var next model.TimerEntry
	found := false
	for _, e := range entries {
		if !e.Active {
			continue
		}
		if !found || e.RemainingAt(now) < next.RemainingAt(now) {
			next = e
			found = true
		}
	}
	return next, found
}

func describeNext(e model.TimerEntry, now time.Time) string {
	if e.IsAlarm() {
		return fmt.Sprintf("at %s (%s)", parser.FormatAlarmTime(e.TriggerAt, now), parser.FormatTimeUntil(e.TriggerAt, now))
	}
	return "in " + output.FormatRemaining(e.RemainingAt(now))
}
