package storage

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/manav03panchal/tickwatch/internal/errors"
)

func TestFileLock_AcquireRelease(t *testing.T) {
	t.Run("acquires and releases lock successfully", func(t *testing.T) {
		dir := t.TempDir()
		lock := NewFileLock(dir)

		require.NoError(t, lock.Acquire())
		assert.True(t, lock.Held())

		data, err := os.ReadFile(filepath.Join(dir, LockFileName))
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(os.Getpid())+"\n", string(data))

		require.NoError(t, lock.Release())
		assert.False(t, lock.Held())

		_, err = os.Stat(lock.Path())
		assert.True(t, os.IsNotExist(err), "lock file should be removed after release")
	})

	t.Run("creates missing data directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "tickwatch")
		lock := NewFileLock(dir)
		require.NoError(t, lock.Acquire())
		defer lock.Release()
	})

	t.Run("second lock fails when first is held", func(t *testing.T) {
		dir := t.TempDir()
		lock1 := NewFileLock(dir).WithOwner("run")
		lock2 := NewFileLock(dir)

		require.NoError(t, lock1.Acquire())
		defer lock1.Release()

		err := lock2.Acquire()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrLockAlreadyHeld)
		assert.ErrorIs(t, err, apperrors.ErrLockHeld)

		var lockErr *LockError
		require.ErrorAs(t, err, &lockErr)
		assert.Equal(t, os.Getpid(), lockErr.PID)
		assert.Equal(t, "run", lockErr.Owner)
		assert.Contains(t, lockErr.Error(), "'tickwatch run'")
	})

	t.Run("can acquire lock after previous lock is released", func(t *testing.T) {
		dir := t.TempDir()
		lock1 := NewFileLock(dir)
		lock2 := NewFileLock(dir)

		require.NoError(t, lock1.Acquire())
		require.NoError(t, lock1.Release())

		require.NoError(t, lock2.Acquire())
		defer lock2.Release()
	})

	t.Run("release is idempotent", func(t *testing.T) {
		lock := NewFileLock(t.TempDir())
		require.NoError(t, lock.Acquire())
		require.NoError(t, lock.Release())
		assert.NoError(t, lock.Release())
	})
}

func TestFileLock_StaleLockCleanup(t *testing.T) {
	dir := t.TempDir()
	stalePID := 99999999
	require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte(strconv.Itoa(stalePID)), 0644))

	lock := NewFileLock(dir)
	err := lock.Acquire()
	if err != nil {
		if isProcessRunning(stalePID) {
			t.Skip("PID 99999999 is unexpectedly running")
		}
		t.Fatalf("expected to acquire lock after stale cleanup: %v", err)
	}
	defer lock.Release()
}

func TestFileLock_Holder(t *testing.T) {
	tests := []struct {
		name    string
		content string
		write   bool
		want    Holder
	}{
		{"pid_only", "12345", true, Holder{PID: 12345}},
		{"pid_and_owner", "42 dashboard\n", true, Holder{PID: 42, Owner: "dashboard"}},
		{"invalid", "not-a-number", true, Holder{}},
		{"empty", "", true, Holder{}},
		{"missing", "", false, Holder{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			if tt.write {
				require.NoError(t, os.WriteFile(filepath.Join(dir, LockFileName), []byte(tt.content), 0644))
			}
			assert.Equal(t, tt.want, NewFileLock(dir).holder())
		})
	}
}

func TestLockErrorWithoutPID(t *testing.T) {
	err := &LockError{Err: ErrLockAlreadyHeld}
	assert.Contains(t, err.Error(), "cannot lock timers")
	assert.ErrorIs(t, err, ErrLockAlreadyHeld)

	err = &LockError{Err: ErrLockAlreadyHeld, Holder: Holder{PID: 7}}
	assert.Contains(t, err.Error(), "another tickwatch process (PID 7)")
}
