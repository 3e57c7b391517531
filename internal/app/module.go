package app

import (
	"context"
	"log/slog"
	"os"

	"github.com/shandysiswandi/freightbite/internal/auth"
	"github.com/shandysiswandi/freightbite/internal/freight"
	"github.com/shandysiswandi/freightbite/internal/notification"
	"github.com/shandysiswandi/freightbite/internal/pkg/messaging"
)

func (a *App) authDependency() auth.Dependency {
	dep := auth.Dependency{
		DBConn:     a.dbConn,
		GormDB:     a.gormDB,
		Goroutine:  a.goroutine,
		Enforcer:   a.enforcer,
		Router:     a.router,
		SMS:        a.sms,
		Config:     a.config,
		Instrument: a.ins,
		UID:        a.uid,
		Token:      a.token,
		HMAC:       a.hmac,
		Clock:      a.clock,
		Validator:  a.validator,
	}
	if a.messaging != nil {
		dep.Messaging = a.messaging
	}
	if a.idemp != nil {
		dep.Idempotency = a.idemp
	}
	return dep
}

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if err := auth.New(a.ctx, a.authDependency()); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.freight.enabled") {
		dep := freight.Dependency{
			GormDB:     a.gormDB,
			Enforcer:   a.enforcer,
			Router:     a.router,
			Config:     a.config,
			Instrument: a.ins,
			UID:        a.uid,
			UUID:       a.uuid,
			Clock:      a.clock,
			Validator:  a.validator,
		}
		if a.messaging != nil {
			dep.Messaging = a.messaging
		}
		if a.storage != nil {
			dep.Storage = a.storage
		}
		if err := freight.New(dep); err != nil {
			slog.Error("failed to init module freight", "error", err)
			os.Exit(1)
		}
	}

	if a.config.GetBool("modules.notification.enabled") {
		var consumer messaging.Consumer
		if a.messaging != nil {
			consumer = a.messaging
		}
		if err := notification.New(a.ctx, notification.Dependency{
			Messaging:  consumer,
			SMS:        a.sms,
			Config:     a.config,
			Instrument: a.ins,
			UUID:       a.uuid,
			Goroutine:  a.goroutine,
			Validator:  a.validator,
		}); err != nil {
			slog.Error("failed to init module notification", "error", err)
			os.Exit(1)
		}
	}
}

// Sweep removes expired sessions once.
func (a *App) Sweep(ctx context.Context) (int64, error) {
	if err := a.readiness.EnsureReady(ctx); err != nil {
		return 0, err
	}

	return auth.Sweep(ctx, a.authDependency())
}

// Migrate applies the schema for the configured database driver.
func (a *App) Migrate(ctx context.Context) error {
	return a.readiness.EnsureReady(ctx)
}

// Rollback reverts every migration. Only Postgres keeps a migration history.
func (a *App) Rollback() error {
	down, ok := a.migrator.(interface{ Down() error })
	if !ok {
		return errRollbackUnsupported
	}
	return down.Down()
}
