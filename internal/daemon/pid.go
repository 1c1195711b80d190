// Package daemon runs the tickwatch scheduler as a long-lived foreground
// process and reports on it from other processes.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/adrg/xdg"

	"github.com/manav03panchal/tickwatch/internal/storage"
)

// PIDFileName is the PID file name.
const PIDFileName = "tickwatch.pid"

// PIDFile manages the scheduler PID file.
type PIDFile struct {
	path string
}

// NewPIDFile creates a PID file manager at the default location.
func NewPIDFile() *PIDFile {
	return NewPIDFileAt(GetPIDFilePath())
}

// NewPIDFileAt creates a PID file manager at path.
func NewPIDFileAt(path string) *PIDFile {
	return &PIDFile{path: path}
}

// StateDir returns $XDG_STATE_HOME/tickwatch.
func StateDir() string {
	return filepath.Join(xdg.StateHome, storage.AppName)
}

// GetPIDFilePath returns the path to the PID file. The state directory is
// used because the runtime dir may not exist on macOS.
func GetPIDFilePath() string {
	return filepath.Join(StateDir(), PIDFileName)
}

// Write writes the current process PID to the file.
func (p *PIDFile) Write() error {
	return p.WritePID(os.Getpid())
}

// WritePID writes a specific PID to the file.
func (p *PIDFile) WritePID(pid int) error {
	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(strconv.Itoa(pid)), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Read reads the PID from the file.
func (p *PIDFile) Read() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, ErrNotRunning
		}
		return 0, fmt.Errorf("failed to read PID file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID in file: %w", err)
	}
	return pid, nil
}

// Remove removes the PID file.
func (p *PIDFile) Remove() error {
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// IsRunning reports whether the recorded process is alive.
func (p *PIDFile) IsRunning() bool {
	return p.RunningPID() > 0
}

// RunningPID returns the PID if the recorded process is alive, or 0.
func (p *PIDFile) RunningPID() int {
	pid, err := p.Read()
	if err != nil || !IsProcessRunning(pid) {
		return 0
	}
	return pid
}

// Path returns the PID file path.
func (p *PIDFile) Path() string {
	return p.path
}

// IsProcessRunning checks if a process with the given PID is running.
func IsProcessRunning(pid int) bool {
	if pid <= 0 {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// On Unix FindProcess always succeeds; signal 0 probes for the process.
	return process.Signal(syscall.Signal(0)) == nil
}

// Errors
var (
	ErrNotRunning      = fmt.Errorf("scheduler is not running")
	ErrAlreadyRunning  = fmt.Errorf("scheduler is already running")
	ErrShutdownTimeout = fmt.Errorf("scheduler did not stop in time")
)
