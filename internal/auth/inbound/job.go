package inbound

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/freightbite/internal/pkg/idempotency"
)

type sweeper interface {
	SweepExpiredSessions(ctx context.Context) (int64, error)
}

// SessionSweeper removes expired sessions on a fixed interval. When an
// Idempotency is set, only one replica sweeps per interval window.
type SessionSweeper struct {
	uc       sweeper
	idem     idempotency.Idempotency
	clock    clock.Clocker
	interval time.Duration
}

func NewSessionSweeper(uc sweeper, idem idempotency.Idempotency, clk clock.Clocker, interval time.Duration) *SessionSweeper {
	return &SessionSweeper{uc: uc, idem: idem, clock: clk, interval: interval}
}

// Start schedules the sweep loop on gm. The loop ends with ctx.
func (s *SessionSweeper) Start(ctx context.Context, gm *goroutine.Manager) bool {
	if s.interval <= 0 {
		slog.InfoContext(ctx, "session sweeper disabled")
		return false
	}

	return gm.Go(ctx, func(ctx context.Context) error {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if err := s.RunOnce(ctx); err != nil {
					slog.WarnContext(ctx, "session sweep failed", "error", err)
				}
			}
		}
	})
}

// RunOnce performs a single sweep, skipping silently if another replica
// already owns the current window.
func (s *SessionSweeper) RunOnce(ctx context.Context) error {
	if s.idem == nil {
		_, err := s.uc.SweepExpiredSessions(ctx)
		return err
	}

	window := s.clock.Now().Truncate(s.interval).Unix()
	key := fmt.Sprintf("auth:session-sweep:%d", window)

	err := s.idem.Exec(ctx, key, func(ctx context.Context) error {
		_, err := s.uc.SweepExpiredSessions(ctx)
		return err
	}, idempotency.WithLockDuration(s.interval), idempotency.WithStateTTL(2*s.interval))
	if idempotency.Skipped(err) {
		return nil
	}

	return err
}
