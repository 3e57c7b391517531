package goroutine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestManagerCollectsErrors(t *testing.T) {
	m := NewManager(4)
	errBoom := errors.New("boom")

	var ran atomic.Int32
	for i := 0; i < 3; i++ {
		m.Go(context.Background(), func(context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	m.Go(context.Background(), func(context.Context) error { return errBoom })

	err := m.Wait()
	if !errors.Is(err, errBoom) {
		t.Fatalf("Wait() = %v, want errBoom", err)
	}
	if ran.Load() != 3 {
		t.Fatalf("ran = %d, want 3", ran.Load())
	}
}

func TestManagerRecoversPanic(t *testing.T) {
	m := NewManager(1)
	m.Go(context.Background(), func(context.Context) error { panic("kaboom") })

	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() = %v, want nil", err)
	}
}

func TestManagerRejectsAfterWait(t *testing.T) {
	m := NewManager(1)
	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}

	if m.Go(context.Background(), func(context.Context) error { return nil }) {
		t.Fatal("Go() after Wait should be rejected")
	}
}

func TestManagerLimit(t *testing.T) {
	m := NewManager(1)
	release := make(chan struct{})

	if !m.Go(context.Background(), func(context.Context) error { <-release; return nil }) {
		t.Fatal("first Go() rejected")
	}
	if m.Go(context.Background(), func(context.Context) error { return nil }) {
		t.Fatal("second Go() should be rejected while the slot is taken")
	}

	close(release)
	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
}

func TestManagerSkipsCanceledContext(t *testing.T) {
	m := NewManager(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Bool
	m.Go(ctx, func(context.Context) error { ran.Store(true); return nil })

	if err := m.Wait(); err != nil {
		t.Fatalf("Wait() = %v", err)
	}
	if ran.Load() {
		t.Fatal("task ran with a canceled context")
	}
}
