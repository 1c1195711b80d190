// Package runtime wires the tickwatch components together for one CLI
// invocation.
package runtime

import (
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/manav03panchal/tickwatch/internal/action"
	"github.com/manav03panchal/tickwatch/internal/clock"
	"github.com/manav03panchal/tickwatch/internal/config"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/notify"
	"github.com/manav03panchal/tickwatch/internal/output"
	"github.com/manav03panchal/tickwatch/internal/scheduler"
	"github.com/manav03panchal/tickwatch/internal/storage"
	"github.com/manav03panchal/tickwatch/internal/store"
)

// MemoryPath selects an in-memory history database.
const MemoryPath = ":memory:"

// Context holds the application runtime context.
type Context struct {
	Config    *config.RuntimeConfig
	Formatter *output.Formatter
	Clock     clock.Clock
	Bus       *events.Bus

	Lock   *storage.FileLock
	Timers *storage.TimersFile
	Store  *store.Store

	historyDB *storage.DB
	history   *storage.HistoryRepo
	notifier  *notify.Notifier
	sched     *scheduler.Scheduler

	// Debug mode
	Debug bool
}

// Options configures the runtime context.
type Options struct {
	Config    *config.RuntimeConfig
	Fs        afero.Fs
	Clock     clock.Clock
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Config:    config.Global,
		Fs:        afero.NewOsFs(),
		Clock:     clock.System,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New creates a runtime context. Nothing is read from disk until Open.
func New(opts Options) *Context {
	def := DefaultOptions()
	if opts.Config == nil {
		opts.Config = def.Config
	}
	if opts.Fs == nil {
		opts.Fs = def.Fs
	}
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	if opts.Format == "" {
		opts.Format = def.Format
	}
	if opts.ColorMode == "" {
		opts.ColorMode = def.ColorMode
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	cfg := opts.Config
	bus := events.NewBus()
	timers := storage.NewTimersFile(opts.Fs, cfg.Storage.TimersFile).WithClock(opts.Clock)

	return &Context{
		Config:    cfg,
		Formatter: formatter,
		Clock:     opts.Clock,
		Bus:       bus,
		Lock:      storage.NewFileLock(filepath.Dir(cfg.Storage.TimersFile)),
		Timers:    timers,
		Store: store.New(store.Options{
			Clock:          opts.Clock,
			Bus:            bus,
			Gateway:        timers,
			AlarmTolerance: cfg.Scheduler.AlarmTolerance,
		}),
		Debug: opts.Debug,
	}
}

// Open loads the timers file. Writers pass exclusive to hold the timers lock
// until Close; readers load a snapshot without it.
func (c *Context) Open(exclusive bool) error {
	if exclusive {
		if err := c.Lock.Acquire(); err != nil {
			return err
		}
	}
	// A load failure leaves whatever could be read; the store stays usable.
	if err := c.Store.Load(); err != nil {
		logging.Warn("continuing with partially loaded timers", logging.KeyPath, c.Timers.Path(), logging.KeyError, err)
	}
	return nil
}

// History opens the history database on first use. It returns nil when
// history is disabled.
func (c *Context) History() (*storage.HistoryRepo, error) {
	if !c.Config.Storage.HistoryEnabled {
		return nil, nil
	}
	if c.history != nil {
		return c.history, nil
	}

	opts := storage.Options{Path: c.Config.Storage.HistoryDir}
	if opts.Path == MemoryPath {
		opts = storage.Options{InMemory: true}
	}
	db, err := storage.OpenHistory(opts, c.Clock.Now())
	if err != nil {
		return nil, err
	}
	c.historyDB = db
	c.history = storage.NewHistoryRepo(db).WithRetention(c.Config.Storage.HistoryRetention)
	return c.history, nil
}

// Notifier returns the webhook notifier built from the config.
func (c *Context) Notifier() *notify.Notifier {
	if c.notifier == nil {
		client := notify.NewHTTPClient().
			WithTimeout(c.Config.HTTP.Timeout).
			WithRetryDelays(c.Config.HTTP.RetryDelays...)
		c.notifier = notify.NewNotifier(c.Config.Notify.Webhooks).WithClient(client)
	}
	return c.notifier
}

// Scheduler builds the tick scheduler with every side effect attached.
func (c *Context) Scheduler() (*scheduler.Scheduler, error) {
	if c.sched != nil {
		return c.sched, nil
	}

	opts := scheduler.Options{
		Store:              c.Store,
		Clock:              c.Clock,
		Dispatcher:         action.New(c.Bus),
		TickSpec:           c.Config.Scheduler.TickSpec,
		SleepThreshold:     c.Config.Scheduler.SleepThreshold,
		CheckpointInterval: c.Config.Scheduler.CheckpointInterval,
	}

	history, err := c.History()
	if err != nil {
		return nil, err
	}
	if history != nil {
		opts.History = history
	}

	notifier := c.Notifier()
	if notifier.HasWebhooks() {
		opts.Notifier = notifier
	}

	c.sched = scheduler.New(opts)
	stats := c.sched.Stats()
	notifier.OnResult(func(r notify.Result) {
		if r.Success {
			stats.RecordNotification(nil)
			return
		}
		stats.RecordNotification(r.Error)
	})
	return c.sched, nil
}

// Close releases the timers lock and the history database.
func (c *Context) Close() error {
	var firstErr error
	if c.Lock.Held() {
		if err := c.Lock.Release(); err != nil {
			firstErr = err
		}
	}
	if c.historyDB != nil {
		if err := c.historyDB.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		c.historyDB = nil
		c.history = nil
	}
	return firstErr
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}

// Debugf prints debug output if debug mode is enabled.
func (c *Context) Debugf(format string, args ...interface{}) {
	if c.Debug {
		c.Formatter.Printf("[DEBUG] "+format+"\n", args...)
	}
}
