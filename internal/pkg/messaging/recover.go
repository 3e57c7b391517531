package messaging

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"github.com/shandysiswandi/freightbite/internal/pkg/stacktrace"
)

// settleOnce makes Ack/Nack idempotent and lets dispatch see whether the
// handler already settled the message.
type settleOnce struct {
	done atomic.Bool
}

func (s *settleOnce) claim() bool { return s.done.CompareAndSwap(false, true) }
func (s *settleOnce) settled() bool { return s.done.Load() }

type settleable interface {
	Message
	settled() bool
}

func dispatch(ctx context.Context, kind string, handler Handler, msg settleable, autoAck bool) error {
	herr := callHandlerWithRecover(ctx, kind, func() error { return handler(ctx, msg) })
	if !autoAck || msg.settled() {
		return herr
	}
	if herr != nil {
		slog.WarnContext(ctx, "messaging handler failed", "kind", kind, "message_id", msg.ID(), "error", herr)
		return msg.Nack(ctx)
	}
	return msg.Ack(ctx)
}

func callHandlerWithRecover(ctx context.Context, kind string, fn func() error) (err error) {
	defer func() {
		if rvr := recover(); rvr != nil {
			stack := debug.Stack()
			if paths := stacktrace.InternalPaths(stack); len(paths) > 0 {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", paths)
			} else {
				slog.ErrorContext(ctx, "panic in messaging handler", "kind", kind, "panic", rvr, "stack", string(stack))
			}
			err = fmt.Errorf("messaging: panic in %s handler: %v", kind, rvr)
		}
	}()

	return fn()
}
