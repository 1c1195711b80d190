package cmd

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/config"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/runtime"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// useTestContext points the package-level ctx at an in-memory runtime.
func useTestContext(t *testing.T) {
	t.Helper()
	cfg := config.DefaultRuntimeConfig()
	cfg.Storage.TimersFile = filepath.Join(t.TempDir(), "timers.json")
	cfg.Storage.HistoryDir = runtime.MemoryPath

	ctx = runtime.New(runtime.Options{Config: cfg, Fs: afero.NewMemMapFs(), Clock: clock.NewFake(t0)})
	t.Cleanup(func() {
		ctx.Close()
		ctx = nil
		importFlagDryRun, importFlagForce = false, false
	})
}

func TestExportTimersCSV(t *testing.T) {
	timers := []model.TimerEntry{
		{ID: "a1", Name: "tea", Kind: model.KindCountdown, Duration: 240, Remaining: 100, Active: true},
		{ID: "b2", Name: "standup", Kind: model.KindAlarm, TriggerAt: t0.Add(time.Hour), Dismissed: true, ActionPath: "/bin/chime"},
	}

	var buf bytes.Buffer
	require.NoError(t, exportTimersCSV(&buf, timers))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "id", rows[0][0])
	assert.Equal(t, []string{"a1", "tea", "countdown", "240", "100", "", "true", "false", ""}, rows[1])
	assert.Equal(t, []string{"b2", "standup", "alarm", "", "", "2026-03-01T13:00:00Z", "false", "true", "/bin/chime"}, rows[2])
}

func TestExportHistoryCSV(t *testing.T) {
	rec := model.NewFiredRecord(model.TimerEntry{ID: "a1", Name: "tea", Kind: model.KindCountdown}, t0)
	rec.DispatchError = "exec format error"

	var buf bytes.Buffer
	require.NoError(t, exportHistoryCSV(&buf, []*model.FiredRecord{rec}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2026-03-01T12:00:00Z", "a1", "tea", "countdown", "", "exec format error"}, rows[1])
}

func TestImportTimer(t *testing.T) {
	t.Run("new_countdown_restarts", func(t *testing.T) {
		useTestContext(t)
		var stats importStats

		e := model.TimerEntry{ID: "old", Name: "tea", Kind: model.KindCountdown, Duration: 240, Remaining: 3, Active: true}
		require.NoError(t, importTimer(e, &stats))
		assert.Equal(t, 1, stats.Added)

		got, err := ctx.Store.Resolve("tea")
		require.NoError(t, err)
		assert.NotEqual(t, "old", got.ID)
		assert.True(t, got.Active)
		assert.Equal(t, int64(240), got.Remaining)
	})

	t.Run("name_taken", func(t *testing.T) {
		useTestContext(t)
		_, err := ctx.Store.Add("tea", model.CountdownTarget(60), "")
		require.NoError(t, err)

		var stats importStats
		e := model.TimerEntry{Name: "tea", Kind: model.KindCountdown, Duration: 240}
		assert.EqualError(t, importTimer(e, &stats), "name already taken")

		importFlagForce = true
		require.NoError(t, importTimer(e, &stats))
		assert.Equal(t, 1, stats.Updated)
		got, err := ctx.Store.Resolve("tea")
		require.NoError(t, err)
		assert.Equal(t, int64(240), got.Duration)
		assert.Equal(t, 1, ctx.Store.Len())
	})

	t.Run("past_alarm", func(t *testing.T) {
		useTestContext(t)
		var stats importStats
		e := model.TimerEntry{Name: "gone", Kind: model.KindAlarm, TriggerAt: t0.Add(-time.Hour)}
		assert.Error(t, importTimer(e, &stats))
		assert.Zero(t, stats.Added)
		assert.Zero(t, ctx.Store.Len())
	})

	t.Run("dry_run", func(t *testing.T) {
		useTestContext(t)
		importFlagDryRun = true
		var stats importStats
		require.NoError(t, importTimer(model.TimerEntry{Name: "tea", Kind: model.KindCountdown, Duration: 60}, &stats))
		assert.Equal(t, 1, stats.Added)
		assert.Zero(t, ctx.Store.Len())
	})
}
