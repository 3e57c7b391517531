// Package migration brings the database schema up to date exactly once per
// process, no matter how many callers ask for it concurrently.
package migration

import (
	"context"
	"time"

	"go.uber.org/atomic"
	"golang.org/x/sync/singleflight"
)

// State is the lifecycle of an Initializer.
type State int32

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	default:
		return "uninitialized"
	}
}

// Migrator applies a dialect's schema. It must be idempotent.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// MigratorFunc adapts a function to Migrator.
type MigratorFunc func(ctx context.Context) error

func (f MigratorFunc) Migrate(ctx context.Context) error {
	return f(ctx)
}

// Initializer runs a Migrator once. Concurrent callers share the in-flight
// run; a failed run leaves the state Uninitialized so the next call retries.
type Initializer struct {
	migrator Migrator
	timeout  time.Duration
	state    *atomic.Int32
	group    singleflight.Group
}

// NewInitializer bounds each initialization attempt by timeout (0 means none).
func NewInitializer(m Migrator, timeout time.Duration) *Initializer {
	return &Initializer{
		migrator: m,
		timeout:  timeout,
		state:    atomic.NewInt32(int32(StateUninitialized)),
	}
}

// State reports the current lifecycle state.
func (i *Initializer) State() State {
	return State(i.state.Load())
}

// EnsureReady returns nil once the schema has been applied. After the first
// success it only performs an atomic load.
//
// The shared run is detached from ctx so one impatient caller cannot abort
// initialization for everybody; ctx only bounds how long this caller waits.
func (i *Initializer) EnsureReady(ctx context.Context) error {
	if i.State() == StateReady {
		return nil
	}

	ch := i.group.DoChan("init", func() (any, error) {
		if i.State() == StateReady {
			return nil, nil
		}
		i.state.Store(int32(StateInitializing))

		runCtx := context.WithoutCancel(ctx)
		if i.timeout > 0 {
			var cancel context.CancelFunc
			runCtx, cancel = context.WithTimeout(runCtx, i.timeout)
			defer cancel()
		}

		if err := i.migrator.Migrate(runCtx); err != nil {
			i.state.Store(int32(StateUninitialized))
			return nil, err
		}

		i.state.Store(int32(StateReady))
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}
