// Package heartbeat logs elapsed time for a long-running model call,
// mirroring a spinner's goroutine-plus-done-channel shape but emitting
// structured log lines instead of redrawing a terminal frame.
package heartbeat

import (
	"time"

	"github.com/inkwell-labs/doctran/internal/logging"
)

// Run starts a background goroutine that logs elapsed time every interval
// until done is closed, then returns a stop function the caller must call
// (typically via defer) once the watched call returns.
func Run(log *logging.Logger, label string, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	done := make(chan struct{})
	start := time.Now()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				log.Info("model call in progress", "label", label, "elapsed", time.Since(start).Round(time.Second).String())
			}
		}
	}()
	var closed bool
	return func() {
		if !closed {
			closed = true
			close(done)
		}
	}
}

// WithHeartbeat runs fn while logging elapsed-time heartbeats at interval,
// matching the teacher's defer-based spinner lifecycle.
func WithHeartbeat(log *logging.Logger, label string, interval time.Duration, fn func() error) error {
	stop := Run(log, label, interval)
	defer stop()
	return fn()
}
