// Package logging is the slog setup shared by the CLI, the scheduler and the
// dashboard.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	defaultLogger *slog.Logger
	loggerMu      sync.RWMutex

	// Debug is true while the logger is at debug level.
	Debug bool
)

func init() {
	defaultLogger = slog.New(newHandler(DefaultConfig()))
}

// Config holds logger configuration.
type Config struct {
	Level     slog.Level
	JSON      bool
	Output    io.Writer // default: stderr
	AddSource bool
}

// DefaultConfig returns the default logger configuration.
func DefaultConfig() Config {
	return Config{Level: slog.LevelInfo, Output: os.Stderr}
}

// DebugConfig is what --debug selects: JSON lines with source positions.
func DebugConfig() Config {
	return Config{Level: slog.LevelDebug, JSON: true, Output: os.Stderr, AddSource: true}
}

// ParseLevel maps a config string to a slog level. Unknown values map to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// redact keeps webhook secrets out of every log line, whatever attribute
// they arrive under. Errors are included since HTTP errors quote the URL.
func redact(_ []string, a slog.Attr) slog.Attr {
	var s string
	switch a.Value.Kind() {
	case slog.KindString:
		s = a.Value.String()
	case slog.KindAny:
		err, ok := a.Value.Any().(error)
		if !ok {
			break
		}
		s = err.Error()
	case slog.KindGroup:
		return a
	}
	if IsSensitiveField(a.Key) {
		if s == "" {
			return slog.String(a.Key, strings.Repeat(maskChar, 8))
		}
		return slog.String(a.Key, MaskValue(s))
	}
	if strings.Contains(s, "://") {
		return slog.String(a.Key, MaskString(s))
	}
	return a
}

func newHandler(cfg Config) slog.Handler {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{
		Level:       cfg.Level,
		AddSource:   cfg.AddSource,
		ReplaceAttr: redact,
	}
	if cfg.JSON {
		return slog.NewJSONHandler(out, opts)
	}
	return slog.NewTextHandler(out, opts)
}

// Init replaces the global logger.
func Init(cfg Config) {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	defaultLogger = slog.New(newHandler(cfg))
	Debug = cfg.Level <= slog.LevelDebug
}

// InitDebug initializes the logger in debug mode.
func InitDebug() {
	Init(DebugConfig())
}

// Discard routes all log output to io.Discard. The dashboard uses it so log
// lines do not tear the alternate screen.
func Discard() {
	Init(Config{Level: slog.LevelError, Output: io.Discard})
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return defaultLogger
}

func Info(msg string, args ...any)     { Logger().Info(msg, args...) }
func DebugLog(msg string, args ...any) { Logger().Debug(msg, args...) }
func Warn(msg string, args ...any)     { Logger().Warn(msg, args...) }
func Error(msg string, args ...any)    { Logger().Error(msg, args...) }

// Attribute keys used across packages.
const (
	KeyOperation  = "op"
	KeyDuration   = "duration_ms"
	KeyError      = "error"
	KeyTimerID    = "timer_id"
	KeyTimerName  = "timer_name"
	KeyKind       = "kind"
	KeyActionPath = "action"
	KeyPath       = "path"
	KeyWebhook    = "webhook"
	KeyStatus     = "status"
	KeyCount      = "count"
	KeyGap        = "gap"
	KeyComponent  = "component"
)

// LogOperation logs an operation marker at debug level.
func LogOperation(op string, args ...any) {
	Logger().Debug("operation", append([]any{KeyOperation, op}, args...)...)
}

// Printf adapts the global logger to libraries that log through
// Errorf/Warningf/Infof/Debugf, such as badger. Every line carries the
// component name.
type Printf struct {
	Component string
}

func (p Printf) log(level slog.Level, format string, args ...any) {
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	Logger().Log(context.Background(), level, msg, KeyComponent, p.Component)
}

func (p Printf) Errorf(format string, args ...any)   { p.log(slog.LevelError, format, args...) }
func (p Printf) Warningf(format string, args ...any) { p.log(slog.LevelWarn, format, args...) }
func (p Printf) Infof(format string, args ...any)    { p.log(slog.LevelInfo, format, args...) }
func (p Printf) Debugf(format string, args ...any)   { p.log(slog.LevelDebug, format, args...) }
