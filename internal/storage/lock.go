package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/manav03panchal/tickwatch/internal/errors"
)

// LockFileName sits next to the timers file.
const LockFileName = "tickwatch.lock"

var (
	// ErrLockAcquireFailed means the lock file itself could not be used.
	ErrLockAcquireFailed = errors.New("failed to acquire timers lock")
	// ErrLockAlreadyHeld means another live process is the writer.
	ErrLockAlreadyHeld = apperrors.ErrLockHeld
)

// Holder identifies the process that owns the timers lock.
type Holder struct {
	PID int
	// Owner is the tickwatch command holding the lock, e.g. "run".
	Owner string
}

// FileLock makes one process at a time the writer of the timers file. The
// lock file holds "<pid> <command>" so a refused writer can say who to stop.
type FileLock struct {
	path  string
	owner string
	file  *os.File
}

// NewFileLock creates a lock in dir.
func NewFileLock(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, LockFileName)}
}

// WithOwner records which command takes the lock.
func (l *FileLock) WithOwner(owner string) *FileLock {
	l.owner = owner
	return l
}

// Path returns the lock file location.
func (l *FileLock) Path() string {
	return l.path
}

// Acquire takes the lock without blocking. It fails with a *LockError when
// another live process holds it.
func (l *FileLock) Acquire() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0700); err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if h := l.holder(); h.PID > 0 && !isProcessRunning(h.PID) {
		if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("%w: remove stale lock: %v", ErrLockAcquireFailed, err)
		}
	}

	file, err := os.OpenFile(l.path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if err := flockAcquire(file); err != nil {
		file.Close()
		if errors.Is(err, ErrLockAlreadyHeld) {
			return &LockError{Err: err, Holder: l.holder()}
		}
		return err
	}

	if err := l.stamp(file); err != nil {
		flockRelease(file)
		file.Close()
		return fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	l.file = file
	return nil
}

func (l *FileLock) stamp(file *os.File) error {
	if err := file.Truncate(0); err != nil {
		return err
	}
	line := strconv.Itoa(os.Getpid())
	if l.owner != "" {
		line += " " + l.owner
	}
	if _, err := file.WriteAt([]byte(line+"\n"), 0); err != nil {
		return err
	}
	return file.Sync()
}

// Release drops the lock and removes the file. Calling it again is a no-op.
func (l *FileLock) Release() error {
	if l.file == nil {
		return nil
	}
	file := l.file
	l.file = nil

	if err := flockRelease(file); err != nil {
		file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}
	if err := os.Remove(l.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Held reports whether this FileLock currently owns the lock.
func (l *FileLock) Held() bool {
	return l.file != nil
}

// holder parses the lock file. A missing or unreadable file gives a zero
// Holder.
func (l *FileLock) holder() Holder {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return Holder{}
	}
	fields := strings.Fields(string(data))
	if len(fields) == 0 {
		return Holder{}
	}
	pid, err := strconv.Atoi(fields[0])
	if err != nil {
		return Holder{}
	}
	h := Holder{PID: pid}
	if len(fields) > 1 {
		h.Owner = fields[1]
	}
	return h
}

// LockError is returned when another process is the timers writer.
type LockError struct {
	Err error
	Holder
}

func (e *LockError) Error() string {
	switch {
	case e.PID > 0 && e.Owner != "":
		return fmt.Sprintf("timers are in use by 'tickwatch %s' (PID %d)", e.Owner, e.PID)
	case e.PID > 0:
		return fmt.Sprintf("timers are in use by another tickwatch process (PID %d)", e.PID)
	default:
		return fmt.Sprintf("cannot lock timers: %v", e.Err)
	}
}

func (e *LockError) Unwrap() error {
	return e.Err
}
