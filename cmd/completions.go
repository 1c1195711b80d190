package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/config"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/runtime"
)

// completeTimerRefs completes timer names, with the id as description.
// Shell completion bypasses the root setup, so a read-only context is built
// here when there is none.
func completeTimerRefs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	c := ctx
	if c == nil {
		cfg, err := config.Load(configPath())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		logging.Discard()
		opts := runtime.DefaultOptions()
		opts.Config = cfg
		c = runtime.New(opts)
		defer c.Close()
		if err := c.Open(false); err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
	}

	taken := make(map[string]bool, len(args))
	for _, a := range args {
		taken[a] = true
	}

	var completions []string
	for _, e := range c.Store.List() {
		if taken[e.Name] || taken[e.ID] {
			continue
		}
		if strings.HasPrefix(e.Name, toComplete) {
			completions = append(completions, e.Name+"\t"+string(e.Kind)+" "+shortRef(e.ID))
		}
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
