// Package storage persists tickwatch state: the timers file that backs the
// in-memory store, and a badger database holding the history of fired timers.
package storage

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	badger "github.com/dgraph-io/badger/v4"

	"github.com/manav03panchal/tickwatch/internal/logging"
)

const (
	// AppName names the XDG subdirectories.
	AppName = "tickwatch"
	// TimersFileName is the name of the timers file in the data directory.
	TimersFileName = "timers.json"
)

// DataDir returns $XDG_DATA_HOME/tickwatch.
func DataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// DefaultTimersPath returns the default location of the timers file.
func DefaultTimersPath() string {
	return filepath.Join(DataDir(), TimersFileName)
}

// DefaultPath returns the default history database directory.
func DefaultPath() string {
	return filepath.Join(DataDir(), "history")
}

// DB is the history database.
type DB struct {
	db   *badger.DB
	path string
}

// Options configures Open.
type Options struct {
	// Path is the database directory. Empty means in-memory.
	Path string
	// InMemory forces in-memory mode regardless of Path.
	InMemory bool
}

func (o Options) badger() badger.Options {
	var opts badger.Options
	if o.InMemory || o.Path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(o.Path)
	}
	// History is a few records a day; the default memtable and value log
	// sizes would allocate hundreds of MB for it.
	return opts.
		WithLogger(badgerLogger{logging.Printf{Component: "history"}}).
		WithMemTableSize(8 << 20).
		WithValueLogFileSize(16 << 20).
		WithNumVersionsToKeep(1)
}

// badgerLogger demotes badger's startup chatter to debug.
type badgerLogger struct {
	logging.Printf
}

func (l badgerLogger) Infof(format string, args ...any) { l.Debugf(format, args...) }

// Open opens or creates the database.
func Open(opts Options) (*DB, error) {
	bopts := opts.badger()
	if !bopts.InMemory {
		if err := os.MkdirAll(bopts.Dir, 0700); err != nil {
			return nil, err
		}
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, err
	}
	return &DB{db: db, path: bopts.Dir}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	return d.db.Close()
}

// Path returns the on-disk location, or "" for an in-memory database.
func (d *DB) Path() string {
	return d.path
}
