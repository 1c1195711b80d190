package daemon

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownSignals end a foreground run.
var ShutdownSignals = []os.Signal{
	syscall.SIGINT,  // Ctrl+C
	syscall.SIGTERM, // service manager stop
	syscall.SIGHUP,  // terminal hangup
}

// SignalHandler turns OS signals into a shutdown request.
type SignalHandler struct {
	signals chan os.Signal
	watched []os.Signal
}

// NewSignalHandler creates a handler for sigs, or ShutdownSignals when none
// are given.
func NewSignalHandler(sigs ...os.Signal) *SignalHandler {
	if len(sigs) == 0 {
		sigs = ShutdownSignals
	}
	return &SignalHandler{
		signals: make(chan os.Signal, 1),
		watched: sigs,
	}
}

// Setup registers the handler with the runtime.
func (h *SignalHandler) Setup() {
	signal.Notify(h.signals, h.watched...)
}

// C delivers received signals.
func (h *SignalHandler) C() <-chan os.Signal {
	return h.signals
}

// Wait blocks until a signal arrives or ctx is cancelled. It returns nil on
// cancellation.
func (h *SignalHandler) Wait(ctx context.Context) os.Signal {
	select {
	case sig := <-h.signals:
		return sig
	case <-ctx.Done():
		return nil
	}
}

// Cleanup unregisters the handler.
func (h *SignalHandler) Cleanup() {
	signal.Stop(h.signals)
}
