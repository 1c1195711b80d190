// Package cmd provides the CLI commands for tickwatch.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/config"
	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
	flagConfig string
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// openAnnotation tells the root command how much of the timers state a
// subcommand needs before it runs.
const openAnnotation = "tickwatch/open"

const (
	openRead  = "read"  // load a snapshot of the timers file
	openWrite = "write" // hold the timers lock, then load
)

func reads() map[string]string  { return map[string]string{openAnnotation: openRead} }
func writes() map[string]string { return map[string]string{openAnnotation: openWrite} }

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tickwatch",
	Short: "Countdowns and alarms for the terminal",
	Long: `tickwatch keeps named countdowns and alarms, ticks them once a second and
runs an optional program when one goes off.

Examples:
  tickwatch add tea 4m --start
  tickwatch add standup --at "tomorrow 9:30am" --action ~/bin/chime
  tickwatch list
  tickwatch run
  tickwatch dashboard`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	Annotations:       reads(),
	PersistentPreRunE: setup,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show current status
		return runStatus(cmd, args)
	},
}

// setup loads the configuration and builds the runtime context.
func setup(cmd *cobra.Command, args []string) error {
	// Skip initialization for completion and help commands
	switch cmd.Name() {
	case "completion", "help", "version":
		return nil
	}

	cfg, err := config.Load(configPath())
	if err != nil {
		return err
	}
	config.Global = cfg

	if flagDebug {
		logging.InitDebug()
	} else {
		logging.Init(cfg.LoggingConfig())
	}

	opts := runtime.DefaultOptions()
	opts.Config = cfg
	opts.Format = parseFormat(flagFormat)
	opts.ColorMode = parseColor(flagColor)
	opts.Debug = flagDebug
	ctx = runtime.New(opts)

	switch cmd.Annotations[openAnnotation] {
	case openWrite:
		ctx.Lock.WithOwner(cmd.Name())
		return ctx.Open(true)
	case openRead:
		return ctx.Open(false)
	}
	return nil
}

func configPath() string {
	if flagConfig != "" {
		return flagConfig
	}
	if env := os.Getenv("TICKWATCH_CONFIG"); env != "" {
		return env
	}
	return config.DefaultPath()
}

func parseFormat(s string) output.Format {
	switch s {
	case "json":
		return output.FormatJSON
	case "plain":
		return output.FormatPlain
	default:
		return output.FormatCLI
	}
}

func parseColor(s string) output.ColorMode {
	switch s {
	case "always":
		return output.ColorAlways
	case "never":
		return output.ColorNever
	default:
		return output.ColorAuto
	}
}

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	err := rootCmd.Execute()
	if ctx != nil {
		if cerr := ctx.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err == nil {
		return runtime.ExitOK
	}

	if ctx != nil {
		ctx.ReportError(err, os.Stderr)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", errors.FormatError(err))
	}
	return runtime.ExitCode(err)
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "",
		"Config file (default $XDG_CONFIG_HOME/tickwatch/config.yaml)")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("tickwatch %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Based on Zeit (https://github.com/mrusme/zeit)")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}
