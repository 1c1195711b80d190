package daemon

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/scheduler"
	"github.com/manav03panchal/tickwatch/internal/store"
)

const statePath = "/state/scheduler.json"

// =============================================================================
// PIDFile Tests
// =============================================================================

func TestPIDFileWriteReadRemove(t *testing.T) {
	p := NewPIDFileAt(filepath.Join(t.TempDir(), "nested", PIDFileName))

	_, err := p.Read()
	assert.ErrorIs(t, err, ErrNotRunning)
	assert.False(t, p.IsRunning())

	require.NoError(t, p.Write())
	pid, err := p.Read()
	require.NoError(t, err)
	assert.Equal(t, os.Getpid(), pid)
	assert.True(t, p.IsRunning())
	assert.Equal(t, os.Getpid(), p.RunningPID())

	require.NoError(t, p.Remove())
	require.NoError(t, p.Remove(), "removing twice is fine")
	assert.Equal(t, 0, p.RunningPID())
}

func TestPIDFileInvalidContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), PIDFileName)
	require.NoError(t, os.WriteFile(path, []byte("not-a-pid"), 0644))

	p := NewPIDFileAt(path)
	_, err := p.Read()
	assert.Error(t, err)
	assert.False(t, p.IsRunning())
}

func TestIsProcessRunning(t *testing.T) {
	assert.True(t, IsProcessRunning(os.Getpid()))
	assert.False(t, IsProcessRunning(0))
	assert.False(t, IsProcessRunning(-1))
}

func TestDefaultPaths(t *testing.T) {
	assert.True(t, strings.HasSuffix(GetPIDFilePath(), filepath.Join("tickwatch", PIDFileName)))
	assert.Equal(t, StateDir(), filepath.Dir(GetStatePath()))
	assert.Equal(t, StateDir(), filepath.Dir(GetLogPath()))
}

// =============================================================================
// Runner Tests
// =============================================================================

type fakeScheduler struct {
	startErr error
	block    chan struct{}
	stats    *scheduler.Stats
}

func (f *fakeScheduler) Start() error { return f.startErr }

func (f *fakeScheduler) Stop() error {
	if f.block != nil {
		<-f.block
	}
	return nil
}

func (f *fakeScheduler) Stats() *scheduler.Stats { return f.stats }

func newTestRunner(t *testing.T, sched Scheduler) (*Runner, *PIDFile, afero.Fs) {
	t.Helper()
	pidFile := NewPIDFileAt(filepath.Join(t.TempDir(), PIDFileName))
	fs := afero.NewMemMapFs()
	r := NewRunner(sched, Options{
		PIDFile:         pidFile,
		Fs:              fs,
		StatePath:       statePath,
		ShutdownTimeout: 50 * time.Millisecond,
		StateInterval:   10 * time.Millisecond,
	})
	return r, pidFile, fs
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(&fakeScheduler{stats: scheduler.NewStats()}, Options{})
	assert.Equal(t, DefaultShutdownTimeout, r.shutdownTimeout)
	assert.Equal(t, DefaultStateInterval, r.stateInterval)
	assert.Equal(t, GetStatePath(), r.statePath)
	assert.Equal(t, GetPIDFilePath(), r.pidFile.Path())
}

func TestRunnerRunsUntilCancelled(t *testing.T) {
	sched := scheduler.New(scheduler.Options{Store: store.New(store.Options{})})
	r, pidFile, fs := newTestRunner(t, sched)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- r.Run(ctx) }()

	require.Eventually(t, func() bool {
		ok, _ := afero.Exists(fs, statePath)
		return ok
	}, time.Second, 5*time.Millisecond)

	status := GetStatus(pidFile, fs, statePath, time.Now())
	assert.True(t, status.Running)
	assert.Equal(t, os.Getpid(), status.PID)
	require.NotNil(t, status.StartedAt)
	assert.NotNil(t, status.Stats)
	assert.NotEmpty(t, status.Uptime)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}

	assert.False(t, pidFile.IsRunning())
	ok, _ := afero.Exists(fs, statePath)
	assert.False(t, ok, "state file removed on exit")
	assert.False(t, GetStatus(pidFile, fs, statePath, time.Now()).Running)
}

func TestRunnerRefusesSecondInstance(t *testing.T) {
	r, pidFile, _ := newTestRunner(t, &fakeScheduler{stats: scheduler.NewStats()})
	require.NoError(t, pidFile.WritePID(os.Getppid()))

	err := r.Run(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Contains(t, err.Error(), strconv.Itoa(os.Getppid()))
}

func TestRunnerStartFailure(t *testing.T) {
	sched := &fakeScheduler{startErr: stderrors.New("bad tick spec"), stats: scheduler.NewStats()}
	r, pidFile, _ := newTestRunner(t, sched)

	err := r.Run(context.Background())
	assert.EqualError(t, err, "bad tick spec")
	_, readErr := pidFile.Read()
	assert.ErrorIs(t, readErr, ErrNotRunning, "pid file cleaned up")
}

func TestRunnerShutdownTimeout(t *testing.T) {
	sched := &fakeScheduler{block: make(chan struct{}), stats: scheduler.NewStats()}
	defer close(sched.block)
	r, _, _ := newTestRunner(t, sched)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Run(ctx), ErrShutdownTimeout)
}

// =============================================================================
// State Tests
// =============================================================================

func TestWriteReadState(t *testing.T) {
	fs := afero.NewMemMapFs()
	started := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	in := &State{PID: 42, StartedAt: started, UpdatedAt: started.Add(time.Minute)}
	in.Stats.Ticks = 60

	require.NoError(t, WriteState(fs, statePath, in))
	out, err := ReadState(fs, statePath)
	require.NoError(t, err)
	assert.Equal(t, 42, out.PID)
	assert.True(t, started.Equal(out.StartedAt))
	assert.Equal(t, int64(60), out.Stats.Ticks)

	_, err = ReadState(fs, "/missing.json")
	assert.Error(t, err)
}

func TestGetStatusIgnoresStaleState(t *testing.T) {
	fs := afero.NewMemMapFs()
	pidFile := NewPIDFileAt(filepath.Join(t.TempDir(), PIDFileName))
	require.NoError(t, pidFile.Write())
	require.NoError(t, WriteState(fs, statePath, &State{PID: os.Getpid() + 1}))

	status := GetStatus(pidFile, fs, statePath, time.Now())
	assert.True(t, status.Running)
	assert.Nil(t, status.Stats, "state from another process is not reported")
	assert.Nil(t, status.StartedAt)
}

func TestFormatUptime(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{30 * time.Second, "30s"},
		{5 * time.Minute, "5m"},
		{2 * time.Hour, "2h"},
		{2*time.Hour + 15*time.Minute, "2h 15m"},
		{48 * time.Hour, "2d"},
		{50 * time.Hour, "2d 2h"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatUptime(tt.d), tt.d.String())
	}
}

// =============================================================================
// Signal / Service Tests
// =============================================================================

func TestSignalHandlerWaitCancelled(t *testing.T) {
	h := NewSignalHandler()
	assert.Equal(t, ShutdownSignals, h.watched)
	h.Setup()
	defer h.Cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Nil(t, h.Wait(ctx))
}

func TestRenderUnits(t *testing.T) {
	data := serviceData{
		ExecutablePath: "/usr/local/bin/tickwatch",
		LogPath:        "/home/u/.local/state/tickwatch/scheduler.log",
		HomeDirectory:  "/home/u",
		DataHome:       "/home/u/.local/share",
		StateHome:      "/home/u/.local/state",
		ConfigHome:     "/home/u/.config",
	}

	unit, err := render("unit", systemdTemplate, data)
	require.NoError(t, err)
	assert.Contains(t, string(unit), "ExecStart=/usr/local/bin/tickwatch run\n")
	assert.Contains(t, string(unit), `Environment="XDG_CONFIG_HOME=/home/u/.config"`)

	plist, err := render("plist", launchdPlist, data)
	require.NoError(t, err)
	assert.Contains(t, string(plist), "<string>"+launchdLabel+"</string>")
	assert.Contains(t, string(plist), "<string>run</string>")
	assert.Contains(t, string(plist), data.LogPath)
}

func TestServiceManagerUnsupportedOS(t *testing.T) {
	var calls int
	m := &ServiceManager{
		executablePath: "/bin/tickwatch",
		goos:           "plan9",
		run: func(string, ...string) ([]byte, error) {
			calls++
			return nil, nil
		},
	}
	assert.Empty(t, m.UnitPath())
	assert.False(t, m.IsInstalled())
	assert.Error(t, m.Install())
	assert.Error(t, m.Uninstall())
	assert.Zero(t, calls)
}

func TestServiceManagerUnitPaths(t *testing.T) {
	linux := &ServiceManager{goos: "linux"}
	assert.True(t, strings.HasSuffix(linux.UnitPath(), filepath.Join("systemd", "user", systemdUnit)))

	darwin := &ServiceManager{goos: "darwin"}
	assert.True(t, strings.HasSuffix(darwin.UnitPath(), launchdLabel+".plist"))
}
