package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/scheduler"
	"github.com/manav03panchal/tickwatch/internal/storage"
)

// Defaults used when Options leaves a field zero.
const (
	DefaultShutdownTimeout = 5 * time.Second
	DefaultStateInterval   = 10 * time.Second
)

// Scheduler is the part of *scheduler.Scheduler the runner drives.
type Scheduler interface {
	Start() error
	Stop() error
	Stats() *scheduler.Stats
}

// Options configures a Runner.
type Options struct {
	PIDFile         *PIDFile
	Fs              afero.Fs // state file filesystem, defaults to the OS
	StatePath       string
	Clock           clock.Clock
	ShutdownTimeout time.Duration
	StateInterval   time.Duration
}

// Runner keeps a scheduler alive until a shutdown signal.
type Runner struct {
	sched           Scheduler
	pidFile         *PIDFile
	fs              afero.Fs
	statePath       string
	clock           clock.Clock
	shutdownTimeout time.Duration
	stateInterval   time.Duration
	startedAt       time.Time
	signals         *SignalHandler
}

// NewRunner creates a runner for sched.
func NewRunner(sched Scheduler, opts Options) *Runner {
	if opts.PIDFile == nil {
		opts.PIDFile = NewPIDFile()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.StatePath == "" {
		opts.StatePath = GetStatePath()
	}
	if opts.Clock == nil {
		opts.Clock = clock.System
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.StateInterval <= 0 {
		opts.StateInterval = DefaultStateInterval
	}
	return &Runner{
		sched:           sched,
		pidFile:         opts.PIDFile,
		fs:              opts.Fs,
		statePath:       opts.StatePath,
		clock:           opts.Clock,
		shutdownTimeout: opts.ShutdownTimeout,
		stateInterval:   opts.StateInterval,
		signals:         NewSignalHandler(),
	}
}

// Run starts the scheduler and blocks until ctx is cancelled or a shutdown
// signal arrives, then stops it within the shutdown timeout.
func (r *Runner) Run(ctx context.Context) error {
	if pid := r.pidFile.RunningPID(); pid > 0 && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	if err := r.pidFile.Write(); err != nil {
		return err
	}
	defer r.pidFile.Remove()

	if err := r.sched.Start(); err != nil {
		return err
	}
	r.startedAt = r.clock.Now()
	r.saveState()
	defer r.removeState()

	r.signals.Setup()
	defer r.signals.Cleanup()

	logging.Info("scheduler running", "pid", os.Getpid(), logging.KeyPath, r.pidFile.Path())

	ticker := time.NewTicker(r.stateInterval)
	defer ticker.Stop()

loop:
	for {
		select {
		case sig := <-r.signals.C():
			logging.Info("received signal", "signal", sig.String())
			break loop
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			r.saveState()
		}
	}

	return r.shutdown()
}

func (r *Runner) shutdown() error {
	done := make(chan error, 1)
	go func() { done <- r.sched.Stop() }()

	select {
	case err := <-done:
		return err
	case <-time.After(r.shutdownTimeout):
		logging.Warn("shutdown timed out", logging.KeyDuration, r.shutdownTimeout)
		return ErrShutdownTimeout
	}
}

// State is what a running scheduler publishes for `tickwatch status`.
type State struct {
	PID       int                     `json:"pid"`
	StartedAt time.Time               `json:"started_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Stats     scheduler.StatsSnapshot `json:"stats"`
}

// GetStatePath returns the path to the state file.
func GetStatePath() string {
	return filepath.Join(StateDir(), "scheduler.json")
}

// GetLogPath returns the log file used when running as a service.
func GetLogPath() string {
	return filepath.Join(StateDir(), "scheduler.log")
}

func (r *Runner) saveState() {
	state := State{
		PID:       os.Getpid(),
		StartedAt: r.startedAt,
		UpdatedAt: r.clock.Now(),
		Stats:     r.sched.Stats().Snapshot(),
	}
	if err := WriteState(r.fs, r.statePath, &state); err != nil {
		logging.Warn("failed to write scheduler state", logging.KeyPath, r.statePath, logging.KeyError, err)
	}
}

func (r *Runner) removeState() {
	if err := r.fs.Remove(r.statePath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove scheduler state", logging.KeyPath, r.statePath, logging.KeyError, err)
	}
}

// WriteState atomically replaces the state file.
func WriteState(fs afero.Fs, path string, state *State) error {
	if err := storage.EnsureDirectory(fs, filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return storage.SafeWrite(fs, path, data, 0644)
}

// ReadState reads the state file.
func ReadState(fs afero.Fs, path string) (*State, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// Status describes the scheduler process as seen from another process.
type Status struct {
	Running   bool                     `json:"running"`
	PID       int                      `json:"pid,omitempty"`
	StartedAt *time.Time               `json:"started_at,omitempty"`
	Uptime    string                   `json:"uptime,omitempty"`
	Stats     *scheduler.StatsSnapshot `json:"stats,omitempty"`
}

// GetStatus inspects the PID file and the last published state.
func GetStatus(pidFile *PIDFile, fs afero.Fs, statePath string, now time.Time) *Status {
	status := &Status{}
	pid := pidFile.RunningPID()
	if pid == 0 {
		return status
	}
	status.Running = true
	status.PID = pid

	if state, err := ReadState(fs, statePath); err == nil && state.PID == pid {
		started := state.StartedAt
		status.StartedAt = &started
		status.Uptime = formatUptime(now.Sub(started))
		status.Stats = &state.Stats
	}
	return status
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
