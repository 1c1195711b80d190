package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/parser"
	"github.com/manav03panchal/tickwatch/internal/storage"
)

var statsFlagSince string

// statsCmd represents the stats command.
var statsCmd = &cobra.Command{
	Use:     "stats",
	Aliases: []string{"stat"},
	Short:   "Show how often each timer went off",
	Long: `Summarize the expiry history by timer name: how many times each one went
off, how many of its actions failed to launch, and when it last fired.

Examples:
  tickwatch stats
  tickwatch stats --since 24h
  tickwatch stats --since "7 days"`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	statsCmd.Flags().StringVar(&statsFlagSince, "since", "", "Only count the last DURATION (24h, 90 minutes)")
	rootCmd.AddCommand(statsCmd)
}

// statsOutput is one row of the JSON stats response.
type statsOutput struct {
	Name      string  `json:"name"`
	Kind      string  `json:"kind"`
	Fired     int     `json:"fired"`
	Failed    int     `json:"failed"`
	LastFired string  `json:"last_fired"`
	Share     float64 `json:"share_percent"`
}

func runStats(cmd *cobra.Command, args []string) error {
	now := ctx.Clock.Now()
	var since time.Time
	if statsFlagSince != "" {
		secs, err := parser.ParseSeconds(statsFlagSince)
		if err != nil {
			return asValidation(err)
		}
		since = now.Add(-time.Duration(secs) * time.Second)
	}

	repo, err := ctx.History()
	if err != nil {
		return err
	}
	var aggs []storage.TimerAggregate
	if repo != nil {
		records, err := repo.List(0)
		if err != nil {
			return err
		}
		aggs = storage.AggregateByName(records, since)
	}

	total := 0
	for _, a := range aggs {
		total += a.Fired
	}

	if ctx.IsJSON() {
		rows := make([]statsOutput, len(aggs))
		for i, a := range aggs {
			rows[i] = statsOutput{
				Name:      a.Name,
				Kind:      string(a.Kind),
				Fired:     a.Fired,
				Failed:    a.Failed,
				LastFired: a.LastFired.Format(time.RFC3339),
				Share:     share(a.Fired, total),
			}
		}
		resp := map[string]interface{}{"timers": rows, "total_fired": total}
		if !since.IsZero() {
			resp["since"] = since.Format(time.RFC3339)
		}
		return ctx.Formatter.JSON(resp)
	}

	cli := ctx.CLIFormatter()
	title := "Expiries"
	if !since.IsZero() {
		title += " since " + output.FormatTime(since)
	}
	cli.Title(title)
	cli.Println("")

	if len(aggs) == 0 {
		cli.Muted("Nothing went off in this period.")
		return nil
	}

	maxName := 12
	for _, a := range aggs {
		if len(a.Name) > maxName {
			maxName = len(a.Name)
		}
	}
	for _, a := range aggs {
		pct := share(a.Fired, total)
		line := fmt.Sprintf("  %s%s  %4d  %s  %5.1f%%",
			cli.Name(a.Name),
			strings.Repeat(" ", maxName-len(a.Name)),
			a.Fired,
			output.ProgressBar(pct, 20),
			pct)
		if a.Failed > 0 {
			line += "  " + fmt.Sprintf("(%d failed)", a.Failed)
		}
		cli.Println(line)
	}
	cli.Println("")
	cli.Printf("  %-*s  %4d\n", maxName, "Total:", total)
	return nil
}

func share(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}
