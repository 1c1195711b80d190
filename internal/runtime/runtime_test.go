package runtime

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/config"
	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/storage"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testConfig(t *testing.T) *config.RuntimeConfig {
	t.Helper()
	cfg := config.DefaultRuntimeConfig()
	cfg.Storage.TimersFile = filepath.Join(t.TempDir(), "timers.json")
	cfg.Storage.HistoryDir = MemoryPath
	return cfg
}

func newTestContext(t *testing.T, cfg *config.RuntimeConfig) *Context {
	t.Helper()
	c := New(Options{Config: cfg, Fs: afero.NewMemMapFs(), Clock: clock.NewFake(t0)})
	t.Cleanup(func() { c.Close() })
	return c
}

// =============================================================================
// Context Tests
// =============================================================================

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.Same(t, config.Global, opts.Config)
	assert.NotNil(t, opts.Fs)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
	assert.False(t, opts.Debug)
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	c := newTestContext(t, cfg)

	assert.NotNil(t, c.Store)
	assert.NotNil(t, c.Bus)
	assert.Same(t, c.Bus, c.Store.Bus())
	assert.Equal(t, cfg.Storage.TimersFile, c.Timers.Path())
	assert.Equal(t, filepath.Join(filepath.Dir(cfg.Storage.TimersFile), storage.LockFileName), c.Lock.Path())
	assert.Equal(t, output.FormatCLI, c.Formatter.Format)
	assert.False(t, c.IsJSON())
}

func TestNewWithOptions(t *testing.T) {
	c := New(Options{
		Config:    testConfig(t),
		Format:    output.FormatJSON,
		ColorMode: output.ColorNever,
		Debug:     true,
	})
	defer c.Close()

	assert.Equal(t, output.FormatJSON, c.Formatter.Format)
	assert.Equal(t, output.ColorNever, c.Formatter.ColorMode)
	assert.True(t, c.IsJSON())
	assert.True(t, c.Debug)
}

func TestOpenLoadsTimers(t *testing.T) {
	cfg := testConfig(t)
	fs := afero.NewMemMapFs()

	writer := New(Options{Config: cfg, Fs: fs, Clock: clock.NewFake(t0)})
	require.NoError(t, writer.Open(true))
	_, err := writer.Store.Add("tea", model.CountdownTarget(300), "")
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	reader := New(Options{Config: cfg, Fs: fs, Clock: clock.NewFake(t0)})
	defer reader.Close()
	require.NoError(t, reader.Open(false))
	assert.False(t, reader.Lock.Held())
	require.Equal(t, 1, reader.Store.Len())
	assert.Equal(t, "tea", reader.Store.List()[0].Name)
}

func TestOpenExclusiveIsSingleWriter(t *testing.T) {
	cfg := testConfig(t)
	first := newTestContext(t, cfg)
	second := newTestContext(t, cfg)

	require.NoError(t, first.Open(true))
	assert.True(t, first.Lock.Held())

	err := second.Open(true)
	require.Error(t, err)
	assert.Equal(t, ExitLocked, ExitCode(err))

	require.NoError(t, first.Close())
	assert.NoError(t, second.Open(true))
}

func TestOpenSurvivesMalformedFile(t *testing.T) {
	cfg := testConfig(t)
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, cfg.Storage.TimersFile, []byte("{not json"), 0644))

	c := New(Options{Config: cfg, Fs: fs, Clock: clock.NewFake(t0)})
	defer c.Close()
	require.NoError(t, c.Open(false))
	assert.Equal(t, 0, c.Store.Len())
}

func TestHistory(t *testing.T) {
	t.Run("in_memory", func(t *testing.T) {
		c := newTestContext(t, testConfig(t))
		repo, err := c.History()
		require.NoError(t, err)
		require.NotNil(t, repo)

		again, err := c.History()
		require.NoError(t, err)
		assert.Same(t, repo, again)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.HistoryEnabled = false
		c := newTestContext(t, cfg)
		repo, err := c.History()
		require.NoError(t, err)
		assert.Nil(t, repo)
	})
}

func TestSchedulerWiring(t *testing.T) {
	cfg := testConfig(t)
	cfg.Scheduler.CheckpointInterval = time.Minute
	c := newTestContext(t, cfg)
	fake := c.Clock.(*clock.Fake)

	sched, err := c.Scheduler()
	require.NoError(t, err)
	again, err := c.Scheduler()
	require.NoError(t, err)
	assert.Same(t, sched, again)

	id, err := c.Store.Add("tea", model.CountdownTarget(1), "")
	require.NoError(t, err)
	require.NoError(t, c.Store.SetActive(id, true))

	res := sched.Tick(fake.Advance(time.Second))
	require.Len(t, res.Expired, 1)
	sched.Wait()

	repo, err := c.History()
	require.NoError(t, err)
	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNotifierFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Notify.Webhooks = []model.Webhook{{Name: "ops", Type: "generic", URL: "https://hooks.example.com/x"}}
	c := newTestContext(t, cfg)

	n := c.Notifier()
	assert.Same(t, n, c.Notifier())
	assert.True(t, n.HasWebhooks())
}

func TestDebugf(t *testing.T) {
	var buf bytes.Buffer
	c := newTestContext(t, testConfig(t))
	c.Formatter.Writer = &buf

	c.Debugf("quiet %d", 1)
	assert.Empty(t, buf.String())

	c.Debug = true
	c.Debugf("loud %d", 2)
	assert.Equal(t, "[DEBUG] loud 2\n", buf.String())
}

// =============================================================================
// Error Tests
// =============================================================================

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"plain", stderrors.New("boom"), ExitError},
		{"validation", errors.NewValidationError(errors.ErrEmptyName, "name", "", "timer name is empty"), ExitInvalid},
		{"not_found", fmt.Errorf("rm: %w", errors.NewNotFoundError("x")), ExitNotFound},
		{"webhook_not_found", fmt.Errorf("%w: ops", errors.ErrWebhookNotFound), ExitNotFound},
		{"locked", &storage.LockError{Err: storage.ErrLockAlreadyHeld, Holder: storage.Holder{PID: 7}}, ExitLocked},
		{"persistence", errors.NewPersistenceError("save", "", stderrors.New("eio")), ExitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}

func TestErrorStatus(t *testing.T) {
	assert.Equal(t, "not_found", ErrorStatus(errors.NewNotFoundError("x")))
	assert.Equal(t, "invalid", ErrorStatus(errors.NewValidationError(errors.ErrInvalidDuration, "in", "0", "bad")))
	assert.Equal(t, "error", ErrorStatus(stderrors.New("boom")))
}

func TestReportError(t *testing.T) {
	t.Run("cli", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		c := newTestContext(t, testConfig(t))
		c.Formatter.Writer = &stdout

		c.ReportError(errors.NewNotFoundError("tea"), &stderr)
		assert.Empty(t, stdout.String())
		assert.Contains(t, stderr.String(), "Error: timer not found: tea")
		assert.Contains(t, stderr.String(), "tickwatch list")
	})

	t.Run("debug", func(t *testing.T) {
		var stderr bytes.Buffer
		c := newTestContext(t, testConfig(t))
		c.Debug = true

		c.ReportError(errors.Wrap(errors.NewNotFoundError("tea"), "rm"), &stderr)
		assert.Contains(t, stderr.String(), "Error chain:")
	})

	t.Run("json", func(t *testing.T) {
		var stdout, stderr bytes.Buffer
		c := New(Options{Config: testConfig(t), Format: output.FormatJSON})
		defer c.Close()
		c.Formatter.Writer = &stdout

		c.ReportError(errors.NewNotFoundError("tea"), &stderr)
		assert.Empty(t, stderr.String())
		assert.Contains(t, stdout.String(), `"status": "not_found"`)
		assert.Contains(t, stdout.String(), `"error": "timer not found: tea"`)
	})

	t.Run("nil", func(t *testing.T) {
		var stderr bytes.Buffer
		c := newTestContext(t, testConfig(t))
		c.ReportError(nil, &stderr)
		assert.Empty(t, stderr.String())
	})
}
