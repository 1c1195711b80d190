package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/manav03panchal/tickwatch/internal/model"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not fail: %v", err)
	}
	if cfg.Scheduler.TickSpec != DefaultRuntimeConfig().Scheduler.TickSpec {
		t.Errorf("expected default tick spec, got %q", cfg.Scheduler.TickSpec)
	}
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
scheduler:
  tick_spec: "*/1 * * * * *"
  sleep_threshold: 10s
  checkpoint_interval: 0s
storage:
  timers_file: /var/tmp/tw/timers.json
  history: false
  history_retention: 720h
http:
  timeout: 10s
  retry_delays: [0s, 1s]
notify:
  webhooks:
    - name: team
      type: slack
      url: https://hooks.slack.com/services/T000/B000/XXXX
    - name: local
      url: http://localhost:9000/hook
      disabled: true
      headers:
        Authorization: Bearer abc
log:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scheduler.TickSpec != "*/1 * * * * *" {
		t.Errorf("tick spec = %q", cfg.Scheduler.TickSpec)
	}
	if cfg.Scheduler.SleepThreshold != 10*time.Second {
		t.Errorf("sleep threshold = %v", cfg.Scheduler.SleepThreshold)
	}
	if cfg.Scheduler.CheckpointInterval != 0 {
		t.Errorf("checkpoint interval = %v, want 0", cfg.Scheduler.CheckpointInterval)
	}
	if cfg.Scheduler.AlarmTolerance != 5*time.Second {
		t.Errorf("unset alarm tolerance should keep default, got %v", cfg.Scheduler.AlarmTolerance)
	}
	if cfg.Storage.TimersFile != "/var/tmp/tw/timers.json" || cfg.Storage.HistoryEnabled {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Storage.HistoryRetention != 30*24*time.Hour {
		t.Errorf("history retention = %v", cfg.Storage.HistoryRetention)
	}
	if cfg.HTTP.Timeout != 10*time.Second || len(cfg.HTTP.RetryDelays) != 2 || cfg.HTTP.RetryDelays[1] != time.Second {
		t.Errorf("http = %+v", cfg.HTTP)
	}
	if len(cfg.Notify.Webhooks) != 2 {
		t.Fatalf("expected 2 webhooks, got %d", len(cfg.Notify.Webhooks))
	}
	if cfg.Notify.Webhooks[1].IsEnabled() || cfg.Notify.Webhooks[1].Headers["Authorization"] != "Bearer abc" {
		t.Errorf("second webhook = %+v", cfg.Notify.Webhooks[1])
	}

	lc := cfg.LoggingConfig()
	if lc.Level != slog.LevelDebug || !lc.JSON {
		t.Errorf("logging config = %+v", lc)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "http:\n  timeout: 10s\n")
	t.Setenv("TICKWATCH_HTTP_TIMEOUT", "3s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTP.Timeout != 3*time.Second {
		t.Errorf("env should win over file, got %v", cfg.HTTP.Timeout)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"malformed", "scheduler: [", "parse config yaml"},
		{"bad duration", "scheduler:\n  sleep_threshold: soon\n", "scheduler.sleep_threshold"},
		{"short retention", "storage:\n  history_retention: 10m\n", "storage.history_retention"},
		{"bad log level", "log:\n  level: loud\n", "log.level"},
		{"bad format", "log:\n  format: xml\n", "log.format"},
		{"webhook without name", "notify:\n  webhooks:\n    - url: https://example.com/h\n", "name is required"},
		{"duplicate webhook", "notify:\n  webhooks:\n    - {name: a, url: https://example.com/1}\n    - {name: a, url: https://example.com/2}\n", "duplicate name"},
		{"bad webhook type", "notify:\n  webhooks:\n    - {name: a, type: pager, url: https://example.com/1}\n", "unknown type"},
		{"http webhook", "notify:\n  webhooks:\n    - {name: a, url: http://example.com/1}\n", "HTTP not allowed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestSaveRoundTrip(t *testing.T) {
	fs := afero.NewOsFs()
	path := filepath.Join(t.TempDir(), "nested", FileName)

	cfg := DefaultRuntimeConfig()
	cfg.Scheduler.SleepThreshold = 42 * time.Second
	cfg.Notify.Webhooks = nil
	if err := Save(fs, path, cfg); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded.Scheduler.SleepThreshold != 42*time.Second {
		t.Errorf("sleep threshold = %v", loaded.Scheduler.SleepThreshold)
	}
	if loaded.Storage.TimersFile != cfg.Storage.TimersFile {
		t.Errorf("timers file = %q", loaded.Storage.TimersFile)
	}
}

func TestYAMLMasksWebhooks(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	secret := "https://hooks.slack.com/services/T000/B000/SECRETSECRETSECRET"
	cfg.Notify.Webhooks = nil
	cfg.Notify.Webhooks = append(cfg.Notify.Webhooks, webhook("team", secret))

	masked, err := cfg.YAML(false)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(masked), "SECRETSECRETSECRET") {
		t.Error("masked output leaks the webhook URL")
	}

	revealed, err := cfg.YAML(true)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(revealed), secret) {
		t.Error("revealed output should contain the URL")
	}
}

func webhook(name, url string) model.Webhook {
	return model.Webhook{Name: name, URL: url}
}
