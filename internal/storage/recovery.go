package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/spf13/afero"

	"github.com/manav03panchal/tickwatch/internal/logging"
	"github.com/manav03panchal/tickwatch/internal/model"
)

// integritySample is how many history records a health check decodes.
const integritySample = 100

// RecoveryStatus is the result of a history database health check.
type RecoveryStatus struct {
	Healthy    bool      `json:"healthy"`
	Checked    int       `json:"checked"`
	LastCheck  time.Time `json:"last_check"`
	ErrorCount int       `json:"error_count"`
	Errors     []string  `json:"errors,omitempty"`
}

func (s *RecoveryStatus) fail(format string, args ...any) {
	s.Healthy = false
	s.ErrorCount++
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// CheckDatabaseIntegrity decodes the newest history records and reports
// any that cannot be read back.
func CheckDatabaseIntegrity(db *DB) *RecoveryStatus {
	status := &RecoveryStatus{LastCheck: time.Now(), Healthy: true}
	if db == nil || db.db == nil {
		status.fail("database not open")
		return status
	}

	err := db.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(firedPrefix)
		opts.PrefetchSize = 10
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(append([]byte(firedPrefix), 0xFF)); it.Valid() && status.Checked < integritySample; it.Next() {
			item := it.Item()
			status.Checked++
			err := item.Value(func(val []byte) error {
				var rec model.FiredRecord
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				status.fail("%s: %v", item.Key(), err)
			}
		}
		return nil
	})
	if err != nil {
		status.fail("iterate: %v", err)
	}
	return status
}

// OpenHistory opens the history database. A directory badger reports as
// damaged is renamed aside and a fresh one created, so a bad history never
// stops timers from running.
func OpenHistory(opts Options, now time.Time) (*DB, error) {
	db, err := Open(opts)
	if err != nil {
		if opts.InMemory || opts.Path == "" || !IsDatabaseCorrupted(err) {
			return nil, err
		}
		aside := fmt.Sprintf("%s.corrupt-%s", opts.Path, now.Format("20060102-150405"))
		if rerr := os.Rename(opts.Path, aside); rerr != nil {
			return nil, fmt.Errorf("%w (moving it aside failed: %v)", err, rerr)
		}
		logging.Warn("history database was damaged, starting a new one",
			logging.KeyError, err, logging.KeyPath, aside)
		if db, err = Open(opts); err != nil {
			return nil, err
		}
	}

	if status := CheckDatabaseIntegrity(db); !status.Healthy {
		logging.Warn("history has unreadable records",
			logging.KeyCount, status.ErrorCount, logging.KeyPath, opts.Path)
	}
	return db, nil
}

// QuarantineFile copies an unreadable file aside as <path>.corrupt-<timestamp>
// so the next save does not destroy what the user may want to recover.
func QuarantineFile(fs afero.Fs, path string, now time.Time) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path is empty")
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	backupPath := fmt.Sprintf("%s.corrupt-%s", path, now.Format("20060102-150405"))
	if err := afero.WriteFile(fs, backupPath, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	logging.Warn("unreadable file preserved", logging.KeyOperation, "quarantine", logging.KeyPath, backupPath)
	return backupPath, nil
}

// IsDatabaseCorrupted reports whether a badger error means its files are
// damaged rather than, say, locked by another process.
func IsDatabaseCorrupted(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, pattern := range []string{"checksum mismatch", "corrupt", "unexpected eof", "bad magic", "truncated"} {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}
