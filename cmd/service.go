package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/tickwatch/internal/daemon"
)

// Service command flags.
var (
	serviceLogsFlagTail   int
	serviceLogsFlagFollow bool
	serviceInstallForce   bool
)

// serviceCmd represents the service command.
var serviceCmd = &cobra.Command{
	Use:   "service [command]",
	Short: "Run the scheduler as a user service",
	Long: `Install 'tickwatch run' as a per-user service so timers keep going
after the terminal closes.

On macOS, this creates a launchd agent in ~/Library/LaunchAgents.
On Linux, this creates a systemd user service in ~/.config/systemd/user.

Examples:
  tickwatch service install
  tickwatch service logs --tail 50
  tickwatch service uninstall`,
}

var serviceInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install and start the user service",
	Args:  cobra.NoArgs,
	RunE:  runServiceInstall,
}

var serviceUninstallCmd = &cobra.Command{
	Use:     "uninstall",
	Aliases: []string{"remove"},
	Short:   "Stop and remove the user service",
	Args:    cobra.NoArgs,
	RunE:    runServiceUninstall,
}

var serviceLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the scheduler log",
	Long: `Show the log written by the installed service.

Examples:
  tickwatch service logs
  tickwatch service logs --tail 50
  tickwatch service logs --follow`,
	Args: cobra.NoArgs,
	RunE: runServiceLogs,
}

func init() {
	serviceInstallCmd.Flags().BoolVar(&serviceInstallForce, "force", false, "Reinstall if already installed")
	serviceLogsCmd.Flags().IntVarP(&serviceLogsFlagTail, "tail", "n", 20, "Number of lines to show")
	serviceLogsCmd.Flags().BoolVar(&serviceLogsFlagFollow, "follow", false, "Keep printing new lines")

	serviceCmd.AddCommand(serviceInstallCmd)
	serviceCmd.AddCommand(serviceUninstallCmd)
	serviceCmd.AddCommand(serviceLogsCmd)
	rootCmd.AddCommand(serviceCmd)
}

func runServiceInstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if mgr.IsInstalled() {
		if !serviceInstallForce {
			if ctx.IsJSON() {
				return ctx.Formatter.PrintJSON(map[string]interface{}{
					"status": "already_installed",
					"path":   mgr.UnitPath(),
				})
			}
			ctx.Formatter.Println("Service is already installed.")
			ctx.Formatter.Println("Use --force to reinstall.")
			return nil
		}
		if err := mgr.Uninstall(); err != nil {
			return fmt.Errorf("failed to remove existing service: %w", err)
		}
	}

	if err := mgr.Install(); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{
			"status": "installed",
			"path":   mgr.UnitPath(),
		})
	}
	cli := ctx.CLIFormatter()
	cli.Success("Service installed")
	ctx.Formatter.Printf("  Unit: %s\n", mgr.UnitPath())
	ctx.Formatter.Printf("  Log:  %s\n", daemon.GetLogPath())
	ctx.Formatter.Println("")
	cli.Muted("The scheduler now starts when you log in. Check it with 'tickwatch status'.")
	return nil
}

func runServiceUninstall(cmd *cobra.Command, args []string) error {
	mgr, err := daemon.NewServiceManager()
	if err != nil {
		return err
	}

	if !mgr.IsInstalled() {
		if ctx.IsJSON() {
			return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "not_installed"})
		}
		ctx.Formatter.Println("Service is not installed.")
		return nil
	}

	if err := mgr.Uninstall(); err != nil {
		return err
	}
	if ctx.IsJSON() {
		return ctx.Formatter.PrintJSON(map[string]interface{}{"status": "uninstalled"})
	}
	ctx.CLIFormatter().Success("Service removed")
	return nil
}

func runServiceLogs(cmd *cobra.Command, args []string) error {
	logPath := daemon.GetLogPath()
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		ctx.Formatter.Println("No log file found.")
		ctx.Formatter.Printf("Log path: %s\n", logPath)
		return nil
	}

	lines, err := tailFile(logPath, serviceLogsFlagTail)
	if err != nil {
		return err
	}
	for _, line := range lines {
		ctx.Formatter.Println(line)
	}

	if serviceLogsFlagFollow {
		sigCtx, stop := signal.NotifyContext(context.Background(), daemon.ShutdownSignals...)
		defer stop()
		return followFile(sigCtx, logPath, ctx.Formatter.Writer)
	}
	return nil
}

// tailFile reads the last n lines from a file.
func tailFile(path string, n int) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if len(lines) > n {
			lines = lines[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// followFile copies lines appended to path until sigCtx is done.
func followFile(sigCtx context.Context, path string, w io.Writer) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	for {
		for {
			line, err := reader.ReadString('\n')
			if line != "" {
				fmt.Fprint(w, line)
			}
			if err == io.EOF {
				break
			}
			if err != nil {
				return err
			}
		}
		select {
		case <-sigCtx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
