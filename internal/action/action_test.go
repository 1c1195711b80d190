package action

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/tickwatch/internal/errors"
	"github.com/manav03panchal/tickwatch/internal/events"
	"github.com/manav03panchal/tickwatch/internal/model"
)

type fakeProcess struct{ err error }

func (p fakeProcess) Wait() error { return p.err }

// fakeLauncher records started paths and fails for paths in fail.
type fakeLauncher struct {
	mu      sync.Mutex
	started []string
	fail    map[string]error
}

func (l *fakeLauncher) start(path string) (Process, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.fail[path]; err != nil {
		return nil, err
	}
	l.started = append(l.started, path)
	return fakeProcess{}, nil
}

func (l *fakeLauncher) paths() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.started...)
}

func entry(id, action string) model.TimerEntry {
	return model.TimerEntry{ID: id, Name: "timer " + id, Kind: model.KindCountdown, ActionPath: action}
}

func TestRunLaunchesAction(t *testing.T) {
	l := &fakeLauncher{}
	d := New(nil).WithStarter(l.start)

	var got error = stderrors.New("not called")
	d.Run(entry("1", "/opt/ring.sh"), func(err error) { got = err })
	d.Wait()

	assert.NoError(t, got)
	assert.Equal(t, []string{"/opt/ring.sh"}, l.paths())
	assert.Equal(t, int64(1), d.Launched())
	assert.Zero(t, d.Failed())
}

func TestRunIgnoresEmptyAction(t *testing.T) {
	l := &fakeLauncher{}
	d := New(nil).WithStarter(l.start)

	called := false
	d.Run(entry("1", ""), func(error) { called = true })
	d.Wait()

	assert.False(t, called)
	assert.Empty(t, l.paths())
}

func TestRunReportsFailure(t *testing.T) {
	cause := stderrors.New("permission denied")
	l := &fakeLauncher{fail: map[string]error{"/bad": cause}}
	bus := events.NewBus()
	defer bus.Close()

	var mu sync.Mutex
	var published []error
	bus.OnError(func(err error) {
		mu.Lock()
		defer mu.Unlock()
		published = append(published, err)
	})

	d := New(bus).WithStarter(l.start)
	var got error
	d.Run(entry("7", "/bad"), func(err error) { got = err })
	d.Wait()

	require.Error(t, got)
	assert.True(t, errors.IsDispatchError(got))
	assert.ErrorIs(t, got, cause)

	var de *errors.DispatchError
	require.True(t, errors.As(got, &de))
	assert.Equal(t, "7", de.TimerID)
	assert.Equal(t, "/bad", de.Path)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, published, 1)
	assert.True(t, errors.IsDispatchError(published[0]))
	assert.Equal(t, int64(1), d.Failed())
}

func TestRunDoesNotBlock(t *testing.T) {
	release := make(chan struct{})
	d := New(nil).WithStarter(func(string) (Process, error) {
		<-release
		return fakeProcess{}, nil
	})

	d.Run(entry("1", "/slow"), nil)
	d.Run(entry("2", "/slow"), nil)
	close(release)
	d.Wait()
	assert.Equal(t, int64(2), d.Launched())
}

func TestCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permission bits")
	}
	dir := t.TempDir()

	script := filepath.Join(dir, "ring.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))
	name, args := Command(script)
	assert.Equal(t, script, name)
	assert.Empty(t, args)

	doc := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(doc, []byte("x"), 0o644))
	name, args = Command(doc)
	assert.NotEqual(t, doc, name)
	assert.Equal(t, []string{doc}, args)

	name, _ = Command(dir)
	assert.NotEqual(t, dir, name, "directories are opened, not executed")
}

func TestStartProcess(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses a shell script")
	}
	script := filepath.Join(t.TempDir(), "ok.sh")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\nexit 0\n"), 0o755))

	proc, err := StartProcess(script)
	require.NoError(t, err)
	assert.NoError(t, proc.Wait())
}
