// Package action launches a timer's expiry action.
//
// An executable file is started directly; anything else is handed to the
// platform opener. Launches never block the caller and are never retried.
package action

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// Process is a launched action that can be reaped.
type Process interface {
	Wait() error
}

// Starter starts the action at path and returns once it is running.
type Starter func(path string) (Process, error)

// Dispatcher runs expiry actions on background goroutines.
type Dispatcher struct {
	start    Starter
	bus      *events.Bus
	wg       sync.WaitGroup
	launched atomic.Int64
	failed   atomic.Int64
}

// New creates a dispatcher that starts real processes and reports failures
// on bus, which may be nil.
func New(bus *events.Bus) *Dispatcher {
	return &Dispatcher{start: StartProcess, bus: bus}
}

// WithStarter replaces how actions are started.
func (d *Dispatcher) WithStarter(s Starter) *Dispatcher {
	d.start = s
	return d
}

// Run launches entry's action and returns immediately. done, if not nil, is
// called from the launch goroutine with nil once the action is running or
// with a *errors.DispatchError if it could not be started. Entries without
// an action are ignored.
func (d *Dispatcher) Run(entry model.TimerEntry, done func(error)) {
	if entry.ActionPath == "" {
		return
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		err := d.launch(entry)
		if done != nil {
			done(err)
		}
	}()
}

func (d *Dispatcher) launch(entry model.TimerEntry) error {
	start := time.Now()
	proc, err := d.start(entry.ActionPath)
	if err != nil {
		d.failed.Add(1)
		derr := errors.NewDispatchError(entry.ID, entry.ActionPath, err)
		logging.Error("failed to launch action",
			logging.KeyTimerID, entry.ID,
			logging.KeyTimerName, entry.Name,
			logging.KeyActionPath, entry.ActionPath,
			logging.KeyError, err)
		d.bus.Publish(events.Failure(derr))
		return derr
	}

	d.launched.Add(1)
	logging.Info("action launched",
		logging.KeyTimerID, entry.ID,
		logging.KeyActionPath, entry.ActionPath,
		logging.KeyDuration, time.Since(start).Milliseconds())

	// The child may outlive the scheduler; reaping is not tracked by Wait.
	go func() {
		if err := proc.Wait(); err != nil {
			logging.DebugLog("action exited with error",
				logging.KeyActionPath, entry.ActionPath,
				logging.KeyError, err)
		}
	}()
	return nil
}

// Wait blocks until every pending launch has either started or failed.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Launched returns how many actions were started.
func (d *Dispatcher) Launched() int64 {
	return d.launched.Load()
}

// Failed returns how many actions could not be started.
func (d *Dispatcher) Failed() int64 {
	return d.failed.Load()
}

// StartProcess starts path directly when it is an executable file and via the
// platform opener otherwise.
func StartProcess(path string) (Process, error) {
	name, args := Command(path)
	cmd := exec.Command(name, args...)
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return cmd, nil
}

// Command returns the program and arguments used to launch path.
func Command(path string) (string, []string) {
	if isExecutable(path) {
		return path, nil
	}
	switch runtime.GOOS {
	case "darwin":
		return "open", []string{path}
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", path}
	default:
		return "xdg-open", []string{path}
	}
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".exe", ".bat", ".cmd", ".com":
			return true
		}
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
