package config

import (
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
	"github.com/manav03panchal/tickwatch/internal/storage"
	"github.com/manav03panchal/tickwatch/internal/validate"
)

// FileName is the config file name inside the config directory.
const FileName = "config.yaml"

// DefaultPath returns $XDG_CONFIG_HOME/tickwatch/config.yaml.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, storage.AppName, FileName)
}

// fileConfig is the on-disk shape. Durations are Go duration strings.
type fileConfig struct {
	Scheduler struct {
		TickSpec           string `yaml:"tick_spec,omitempty"`
		SleepThreshold     string `yaml:"sleep_threshold,omitempty"`
		CheckpointInterval string `yaml:"checkpoint_interval,omitempty"`
		AlarmTolerance     string `yaml:"alarm_tolerance,omitempty"`
	} `yaml:"scheduler"`
	Storage struct {
		TimersFile string `yaml:"timers_file,omitempty"`
		HistoryDir string `yaml:"history_dir,omitempty"`
		History    *bool  `yaml:"history,omitempty"`
		Retention  string `yaml:"history_retention,omitempty"`
	} `yaml:"storage"`
	HTTP struct {
		Timeout     string   `yaml:"timeout,omitempty"`
		RetryDelays []string `yaml:"retry_delays,omitempty"`
	} `yaml:"http"`
	Notify struct {
		Webhooks []model.Webhook `yaml:"webhooks,omitempty"`
	} `yaml:"notify"`
	Log struct {
		Level  string `yaml:"level,omitempty"`
		Format string `yaml:"format,omitempty"`
	} `yaml:"log"`
	Daemon struct {
		ShutdownTimeout string `yaml:"shutdown_timeout,omitempty"`
	} `yaml:"daemon"`
}

// Load resolves the configuration from defaults, the file at path and the
// environment. A missing file is not an error.
func Load(path string) (*RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var fc fileConfig
		if err := yaml.Unmarshal(data, &fc); err != nil {
			return nil, fmt.Errorf("parse config yaml %s: %w", path, err)
		}
		if err := cfg.apply(fc); err != nil {
			return nil, fmt.Errorf("config %s: %w", path, err)
		}
	case stderrors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg.loadFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RuntimeConfig) apply(fc fileConfig) error {
	var errs []error
	parse := func(field, v string, dst *time.Duration) {
		if v == "" {
			return
		}
		d, err := time.ParseDuration(v)
		if err != nil || d < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", field, v))
			return
		}
		*dst = d
	}

	if fc.Scheduler.TickSpec != "" {
		c.Scheduler.TickSpec = fc.Scheduler.TickSpec
	}
	parse("scheduler.sleep_threshold", fc.Scheduler.SleepThreshold, &c.Scheduler.SleepThreshold)
	parse("scheduler.checkpoint_interval", fc.Scheduler.CheckpointInterval, &c.Scheduler.CheckpointInterval)
	parse("scheduler.alarm_tolerance", fc.Scheduler.AlarmTolerance, &c.Scheduler.AlarmTolerance)

	if fc.Storage.TimersFile != "" {
		c.Storage.TimersFile = expand(fc.Storage.TimersFile)
	}
	if fc.Storage.HistoryDir != "" {
		c.Storage.HistoryDir = expand(fc.Storage.HistoryDir)
	}
	if fc.Storage.History != nil {
		c.Storage.HistoryEnabled = *fc.Storage.History
	}
	parse("storage.history_retention", fc.Storage.Retention, &c.Storage.HistoryRetention)

	parse("http.timeout", fc.HTTP.Timeout, &c.HTTP.Timeout)
	if len(fc.HTTP.RetryDelays) > 0 {
		delays := make([]time.Duration, len(fc.HTTP.RetryDelays))
		for i, v := range fc.HTTP.RetryDelays {
			parse(fmt.Sprintf("http.retry_delays[%d]", i), v, &delays[i])
		}
		c.HTTP.RetryDelays = delays
	}

	c.Notify.Webhooks = fc.Notify.Webhooks

	if fc.Log.Level != "" {
		c.Log.Level = fc.Log.Level
	}
	if fc.Log.Format != "" {
		c.Log.Format = fc.Log.Format
	}
	parse("daemon.shutdown_timeout", fc.Daemon.ShutdownTimeout, &c.Daemon.ShutdownTimeout)

	return stderrors.Join(errs...)
}

func expand(path string) string {
	if p, err := validate.ExpandPath(path); err == nil {
		return p
	}
	return path
}

// Validate checks values the scheduler cannot run with.
func (c *RuntimeConfig) Validate() error {
	var errs []error
	if c.Scheduler.TickSpec == "" {
		errs = append(errs, fmt.Errorf("scheduler.tick_spec is empty"))
	}
	if r := c.Storage.HistoryRetention; r > 0 && r < time.Hour {
		errs = append(errs, fmt.Errorf("storage.history_retention %s: want at least 1h", r))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level %q: want debug, info, warn or error", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q: want text or json", c.Log.Format))
	}

	seen := make(map[string]bool)
	for i, wh := range c.Notify.Webhooks {
		if wh.Name == "" {
			errs = append(errs, fmt.Errorf("notify.webhooks[%d]: name is required", i))
		} else if seen[wh.Name] {
			errs = append(errs, fmt.Errorf("notify.webhooks[%d]: duplicate name %q", i, wh.Name))
		}
		seen[wh.Name] = true
		if wh.Type != "" && !model.IsValidWebhookType(wh.Type) {
			errs = append(errs, fmt.Errorf("notify.webhooks[%d]: unknown type %q", i, wh.Type))
		}
		if err := validate.URL(wh.URL); err != nil {
			errs = append(errs, fmt.Errorf("notify.webhooks[%d]: %w", i, err))
		}
	}
	return stderrors.Join(errs...)
}

func (c *RuntimeConfig) toFile() fileConfig {
	var fc fileConfig
	fc.Scheduler.TickSpec = c.Scheduler.TickSpec
	fc.Scheduler.SleepThreshold = c.Scheduler.SleepThreshold.String()
	fc.Scheduler.CheckpointInterval = c.Scheduler.CheckpointInterval.String()
	fc.Scheduler.AlarmTolerance = c.Scheduler.AlarmTolerance.String()
	fc.Storage.TimersFile = c.Storage.TimersFile
	fc.Storage.HistoryDir = c.Storage.HistoryDir
	history := c.Storage.HistoryEnabled
	fc.Storage.History = &history
	if c.Storage.HistoryRetention > 0 {
		fc.Storage.Retention = c.Storage.HistoryRetention.String()
	}
	fc.HTTP.Timeout = c.HTTP.Timeout.String()
	for _, d := range c.HTTP.RetryDelays {
		fc.HTTP.RetryDelays = append(fc.HTTP.RetryDelays, d.String())
	}
	fc.Notify.Webhooks = c.Notify.Webhooks
	fc.Log.Level = c.Log.Level
	fc.Log.Format = c.Log.Format
	fc.Daemon.ShutdownTimeout = c.Daemon.ShutdownTimeout.String()
	return fc
}

// YAML renders the configuration in config file form. Webhook URLs are
// masked unless reveal is set.
func (c *RuntimeConfig) YAML(reveal bool) ([]byte, error) {
	fc := c.toFile()
	if !reveal {
		masked := make([]model.Webhook, len(fc.Notify.Webhooks))
		for i, wh := range fc.Notify.Webhooks {
			wh.URL = logging.MaskURL(wh.URL)
			wh.Headers = logging.MaskHeaders(wh.Headers)
			masked[i] = wh
		}
		fc.Notify.Webhooks = masked
	}
	return yaml.Marshal(fc)
}

// Save writes the configuration to path atomically.
func Save(fs afero.Fs, path string, c *RuntimeConfig) error {
	data, err := c.YAML(true)
	if err != nil {
		return fmt.Errorf("marshal config yaml: %w", err)
	}
	if err := storage.EnsureDirectory(fs, filepath.Dir(path)); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	return storage.SafeWrite(fs, path, data, 0o600)
}

// LoggingConfig converts the log section for logging.Init.
func (c *RuntimeConfig) LoggingConfig() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.JSON = c.Log.Format == "json"
	return cfg
}
