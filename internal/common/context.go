package common

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithInterrupt returns a context cancelled on SIGINT or SIGTERM. Handshakes
// and the monitor loop both block on it, so Ctrl+C aborts a pending
// biometric check cleanly. Call the returned cleanup when done.
func WithInterrupt(parent context.Context) (context.Context, func()) {
	ctx, cancel := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return ctx, cancel
}
