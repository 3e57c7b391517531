package inbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/freightbite/internal/pkg/clock"
	"github.com/shandysiswandi/freightbite/internal/pkg/goroutine"
	"github.com/shandysiswandi/freightbite/internal/pkg/idempotency"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingSweeper) SweepExpiredSessions(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return 1, c.err
}

func (c *countingSweeper) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// memIdempotency claims each key once.
type memIdempotency struct {
	mu   sync.Mutex
	seen map[string]bool
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	m.mu.Lock()
	if m.seen == nil {
		m.seen = map[string]bool{}
	}
	if m.seen[key] {
		m.mu.Unlock()
		return idempotency.ErrAlreadyCompleted
	}
	m.seen[key] = true
	m.mu.Unlock()

	return fn(ctx)
}

func TestSessionSweeperRunOnce(t *testing.T) {
	clk := clock.NewFake(time.Date(2025, 3, 1, 10, 0, 30, 0, time.UTC))
	uc := &countingSweeper{}
	s := NewSessionSweeper(uc, &memIdempotency{}, clk, time.Minute)

	for range 3 {
		if err := s.RunOnce(context.Background()); err != nil {
			t.Fatalf("RunOnce() error = %v", err)
		}
	}
	if uc.count() != 1 {
		t.Fatalf("sweeps in one window = %d, want 1", uc.count())
	}

	clk.Advance(time.Minute)
	if err := s.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce() error = %v", err)
	}
	if uc.count() != 2 {
		t.Fatalf("sweeps after next window = %d, want 2", uc.count())
	}
}

func TestSessionSweeperWithoutLock(t *testing.T) {
	uc := &countingSweeper{err: errors.New("db down")}
	s := NewSessionSweeper(uc, nil, clock.New(), time.Minute)

	if err := s.RunOnce(context.Background()); err == nil {
		t.Fatal("RunOnce() error = nil, want sweep error")
	}
	if uc.count() != 1 {
		t.Fatalf("calls = %d, want 1", uc.count())
	}
}

func TestSessionSweeperStart(t *testing.T) {
	gm := goroutine.NewManager(4)

	if NewSessionSweeper(&countingSweeper{}, nil, clock.New(), 0).Start(context.Background(), gm) {
		t.Fatal("Start() with zero interval = true, want disabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	uc := &countingSweeper{}
	if !NewSessionSweeper(uc, nil, clock.New(), 10*time.Millisecond).Start(ctx, gm) {
		t.Fatal("Start() = false")
	}

	deadline := time.Now().Add(2 * time.Second)
	for uc.count() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	if err := gm.Wait(); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if uc.count() == 0 {
		t.Fatal("sweeper never ran")
	}
}
