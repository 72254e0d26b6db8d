package shutdown

import (
	"context"
	"os/signal"
	"syscall"
)

// NotifyContext cancels the returned context on SIGINT or SIGTERM.
func NotifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
