// Package config provides centralized configuration for tickwatch runtime values.
//
// Values are resolved in three layers: built-in defaults, the YAML config
// file, then TICKWATCH_* environment variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/storage"
)

// RuntimeConfig holds every tunable value.
type RuntimeConfig struct {
	Scheduler SchedulerConfig
	Storage   StorageConfig
	HTTP      HTTPConfig
	Notify    NotifyConfig
	Log       LogConfig
	Daemon    DaemonConfig
}

// SchedulerConfig holds tick-loop configuration.
type SchedulerConfig struct {
	// TickSpec is the cron expression, with a seconds field, that drives ticks.
	// Default: "* * * * * *"
	TickSpec string

	// SleepThreshold is the gap between ticks that is logged as a suspend.
	// Default: 5s
	SleepThreshold time.Duration

	// CheckpointInterval is how often countdown progress is saved while
	// timers run. Zero disables checkpoints.
	// Default: 30s
	CheckpointInterval time.Duration

	// AlarmTolerance is how far in the past a new alarm time may be.
	// Default: 5s
	AlarmTolerance time.Duration
}

// StorageConfig holds file locations.
type StorageConfig struct {
	// TimersFile is the timers JSON file.
	// Default: $XDG_DATA_HOME/tickwatch/timers.json
	TimersFile string

	// HistoryDir is the badger directory for the expiry history.
	// Default: $XDG_DATA_HOME/tickwatch/history
	HistoryDir string

	// HistoryEnabled turns history recording on.
	// Default: true
	HistoryEnabled bool

	// HistoryRetention is how long fired records are kept. Zero keeps them
	// until `tickwatch history --clear`.
	// Default: 0
	HistoryRetention time.Duration
}

// HTTPConfig holds webhook client configuration.
type HTTPConfig struct {
	// Timeout is the per-request timeout.
	// Default: 30s
	Timeout time.Duration

	// RetryDelays is the wait before each attempt.
	// Default: [0s, 5s, 30s]
	RetryDelays []time.Duration
}

// NotifyConfig holds webhook targets.
type NotifyConfig struct {
	Webhooks []model.Webhook
}

// LogConfig holds logger configuration.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string

	// Format is text or json.
	// Default: text
	Format string
}

// DaemonConfig holds foreground scheduler process configuration.
type DaemonConfig struct {
	// ShutdownTimeout bounds how long shutdown waits for pending launches
	// and webhook sends.
	// Default: 5s
	ShutdownTimeout time.Duration
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	return &RuntimeConfig{
		Scheduler: SchedulerConfig{
			TickSpec:           "* * * * * *",
			SleepThreshold:     5 * time.Second,
			CheckpointInterval: 30 * time.Second,
			AlarmTolerance:     5 * time.Second,
		},
		Storage: StorageConfig{
			TimersFile:     storage.DefaultTimersPath(),
			HistoryDir:     storage.DefaultPath(),
			HistoryEnabled: true,
		},
		HTTP: HTTPConfig{
			Timeout: 30 * time.Second,
			RetryDelays: []time.Duration{
				0,                // Immediate first attempt
				5 * time.Second,  // Retry after 5s
				30 * time.Second, // Retry after 30s
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Daemon: DaemonConfig{
			ShutdownTimeout: 5 * time.Second,
		},
	}
}

// Global holds the process-wide configuration. It starts as defaults plus
// environment overrides; the CLI replaces it with the result of Load.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

// loadFromEnv applies TICKWATCH_* overrides. Unparseable values are ignored.
func (c *RuntimeConfig) loadFromEnv() {
	envDuration("TICKWATCH_SLEEP_THRESHOLD", &c.Scheduler.SleepThreshold)
	envDuration("TICKWATCH_CHECKPOINT_INTERVAL", &c.Scheduler.CheckpointInterval)
	envDuration("TICKWATCH_ALARM_TOLERANCE", &c.Scheduler.AlarmTolerance)
	envDuration("TICKWATCH_HTTP_TIMEOUT", &c.HTTP.Timeout)
	envDuration("TICKWATCH_SHUTDOWN_TIMEOUT", &c.Daemon.ShutdownTimeout)
	envDuration("TICKWATCH_HISTORY_RETENTION", &c.Storage.HistoryRetention)

	if v := os.Getenv("TICKWATCH_TICK_SPEC"); v != "" {
		c.Scheduler.TickSpec = v
	}
	if v := os.Getenv("TICKWATCH_TIMERS_FILE"); v != "" {
		c.Storage.TimersFile = v
	}
	if v := os.Getenv("TICKWATCH_HISTORY_DIR"); v != "" {
		c.Storage.HistoryDir = v
	}
	if v := os.Getenv("TICKWATCH_HISTORY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Storage.HistoryEnabled = b
		}
	}
	if v := os.Getenv("TICKWATCH_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	if v := os.Getenv("TICKWATCH_LOG_FORMAT"); v != "" {
		c.Log.Format = strings.ToLower(v)
	}
}

func envDuration(key string, dst *time.Duration) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			*dst = d
		}
	}
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	*c = *DefaultRuntimeConfig()
}
