package daemon

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"text/template"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/tickwatch/internal/logging"
)

const (
	launchdLabel = "com.tickwatch.scheduler"
	systemdUnit  = "tickwatch.service"
)

// ServiceManager installs `tickwatch run` as a per-user service so the
// scheduler survives logout and reboot.
type ServiceManager struct {
	executablePath string
	goos           string
	// run executes service manager commands; tests replace it.
	run func(name string, args ...string) ([]byte, error)
}

// NewServiceManager creates a service manager for the running executable.
func NewServiceManager() (*ServiceManager, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %w", err)
	}
	return &ServiceManager{
		executablePath: execPath,
		goos:           runtime.GOOS,
		run: func(name string, args ...string) ([]byte, error) {
			return exec.Command(name, args...).CombinedOutput()
		},
	}, nil
}

// serviceData feeds the unit templates.
type serviceData struct {
	ExecutablePath string
	LogPath        string
	HomeDirectory  string
	DataHome       string
	StateHome      string
	ConfigHome     string
}

func (m *ServiceManager) data() serviceData {
	return serviceData{
		ExecutablePath: m.executablePath,
		LogPath:        GetLogPath(),
		HomeDirectory:  os.Getenv("HOME"),
		DataHome:       xdg.DataHome,
		StateHome:      xdg.StateHome,
		ConfigHome:     xdg.ConfigHome,
	}
}

// Install writes the unit for this OS and starts it.
func (m *ServiceManager) Install() error {
	switch m.goos {
	case "darwin":
		return m.installLaunchd()
	case "linux":
		return m.installSystemd()
	default:
		return fmt.Errorf("service installation is not supported on %s", m.goos)
	}
}

// Uninstall stops the service and removes its unit.
func (m *ServiceManager) Uninstall() error {
	switch m.goos {
	case "darwin":
		return m.uninstallLaunchd()
	case "linux":
		return m.uninstallSystemd()
	default:
		return fmt.Errorf("service installation is not supported on %s", m.goos)
	}
}

// UnitPath returns where the unit lives for this OS, or "" if unsupported.
func (m *ServiceManager) UnitPath() string {
	switch m.goos {
	case "darwin":
		return filepath.Join(os.Getenv("HOME"), "Library", "LaunchAgents", launchdLabel+".plist")
	case "linux":
		return filepath.Join(xdg.ConfigHome, "systemd", "user", systemdUnit)
	default:
		return ""
	}
}

// IsInstalled checks if the unit file exists.
func (m *ServiceManager) IsInstalled() bool {
	path := m.UnitPath()
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

// macOS launchd support

const launchdPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
    <key>Label</key>
    <string>` + launchdLabel + `</string>
    <key>ProgramArguments</key>
    <array>
        <string>{{.ExecutablePath}}</string>
        <string>run</string>
    </array>
    <key>RunAtLoad</key>
    <true/>
    <key>KeepAlive</key>
    <true/>
    <key>StandardOutPath</key>
    <string>{{.LogPath}}</string>
    <key>StandardErrorPath</key>
    <string>{{.LogPath}}</string>
</dict>
</plist>
`

// Linux systemd support

const systemdTemplate = `[Unit]
Description=tickwatch timer scheduler

[Service]
Type=simple
ExecStart={{.ExecutablePath}} run
Restart=on-failure
RestartSec=5
StandardOutput=append:{{.LogPath}}
StandardError=append:{{.LogPath}}
Environment="HOME={{.HomeDirectory}}"
Environment="XDG_DATA_HOME={{.DataHome}}"
Environment="XDG_STATE_HOME={{.StateHome}}"
Environment="XDG_CONFIG_HOME={{.ConfigHome}}"

[Install]
WantedBy=default.target
`

func render(name, text string, data serviceData) ([]byte, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (m *ServiceManager) writeUnit(name, text string) (string, error) {
	path := m.UnitPath()
	content, err := render(name, text, m.data())
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create %s directory: %w", name, err)
	}
	if err := os.MkdirAll(StateDir(), 0755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", name, err)
	}
	return path, nil
}

func (m *ServiceManager) installLaunchd() error {
	path, err := m.writeUnit("plist", launchdPlist)
	if err != nil {
		return err
	}
	if out, err := m.run("launchctl", "load", path); err != nil {
		return fmt.Errorf("failed to load service: %w: %s", err, out)
	}
	logging.DebugLog("installed launchd service", logging.KeyPath, path)
	return nil
}

func (m *ServiceManager) uninstallLaunchd() error {
	path := m.UnitPath()
	m.run("launchctl", "unload", path) // not loaded is fine

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove plist file: %w", err)
	}
	logging.DebugLog("uninstalled launchd service", logging.KeyPath, path)
	return nil
}

func (m *ServiceManager) installSystemd() error {
	path, err := m.writeUnit("unit", systemdTemplate)
	if err != nil {
		return err
	}
	for _, args := range [][]string{
		{"--user", "daemon-reload"},
		{"--user", "enable", "--now", systemdUnit},
	} {
		if out, err := m.run("systemctl", args...); err != nil {
			return fmt.Errorf("systemctl %s: %w: %s", args[1], err, out)
		}
	}
	logging.DebugLog("installed systemd user service", logging.KeyPath, path)
	return nil
}

func (m *ServiceManager) uninstallSystemd() error {
	path := m.UnitPath()
	m.run("systemctl", "--user", "disable", "--now", systemdUnit) // not enabled is fine

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove unit file: %w", err)
	}
	m.run("systemctl", "--user", "daemon-reload")
	logging.DebugLog("uninstalled systemd user service", logging.KeyPath, path)
	return nil
}
