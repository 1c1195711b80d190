package cmd

import (
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/tickwatch/internal/config"
)

var (
	configFlagReveal bool
	configFlagForce  bool
)

// configCmd represents the config command.
var configCmd = &cobra.Command{
	Use:     "config",
	Aliases: []string{"cfg", "settings"},
	Short:   "Show the effective configuration",
	Long: `Show the configuration tickwatch runs with: built-in defaults, then the
config file, then TICKWATCH_* environment variables.

Webhook URLs and header values are masked unless --reveal is given.

Examples:
  tickwatch config
  tickwatch config --reveal
  tickwatch config path
  tickwatch config init`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := configPath()
		if ctx.IsJSON() {
			_, err := os.Stat(path)
			return ctx.Formatter.PrintJSON(map[string]interface{}{
				"path":   path,
				"exists": err == nil,
			})
		}
		ctx.Formatter.Println(path)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current configuration to the config file",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

func init() {
	configCmd.Flags().BoolVar(&configFlagReveal, "reveal", false, "Show webhook URLs and headers unmasked")
	configInitCmd.Flags().BoolVar(&configFlagForce, "force", false, "Overwrite an existing config file")

	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	data, err := ctx.Config.YAML(configFlagReveal)
	if err != nil {
		return err
	}
	if ctx.IsJSON() {
		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return err
		}
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"path":   configPath(),
			"config": doc,
		})
	}
	ctx.CLIFormatter().Muted("# " + configPath())
	ctx.Formatter.Print(string(data))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath()
	fs := afero.NewOsFs()
	if exists, _ := afero.Exists(fs, path); exists && !configFlagForce {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "exists", "path": path})
		}
		ctx.Formatter.Printf("Config file already exists: %s\n", path)
		ctx.Formatter.Println("Use --force to overwrite it.")
		return nil
	}

	if err := config.Save(fs, path, ctx.Config); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "written", "path": path})
	}
	ctx.CLIFormatter().Success("Wrote " + path)
	return nil
}
