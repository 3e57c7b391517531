//go:build integration

package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	ctr, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Fatalf("start redis: %v", err)
	}
	t.Cleanup(func() { _ = ctr.Terminate(context.Background()) })

	uri, err := ctr.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis uri: %v", err)
	}
	opt, err := redis.ParseURL(uri)
	if err != nil {
		t.Fatalf("parse redis uri: %v", err)
	}

	client := redis.NewClient(opt)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestStateTrackerExecOnce(t *testing.T) {
	tracker := New(newRedis(t))
	ctx := context.Background()

	calls := 0
	run := func(context.Context) error { calls++; return nil }

	if err := tracker.Exec(ctx, "sweep:1", run, WithStateTTL(time.Minute)); err != nil {
		t.Fatalf("first Exec() = %v", err)
	}
	err := tracker.Exec(ctx, "sweep:1", run)
	if !errors.Is(err, ErrAlreadyCompleted) || !Skipped(err) {
		t.Fatalf("second Exec() = %v, want ErrAlreadyCompleted", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestStateTrackerExecFailure(t *testing.T) {
	tracker := New(newRedis(t))
	ctx := context.Background()
	errBoom := errors.New("boom")

	if err := tracker.Exec(ctx, "sweep:2", func(context.Context) error { return errBoom }); !errors.Is(err, errBoom) {
		t.Fatalf("Exec() = %v, want errBoom", err)
	}
	if err := tracker.Exec(ctx, "sweep:2", func(context.Context) error { return nil }); !errors.Is(err, ErrAlreadyFailed) {
		t.Fatalf("Exec() = %v, want ErrAlreadyFailed", err)
	}
}
