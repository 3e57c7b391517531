package migration

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed postgres/*.sql
var postgresFS embed.FS

// ErrNoChange is returned by Down when there is nothing to revert.
var ErrNoChange = migrate.ErrNoChange

// Postgres applies the embedded postgres/*.sql migrations with golang-migrate.
type Postgres struct {
	dsn string
}

func NewPostgres(dsn string) *Postgres {
	return &Postgres{dsn: dsn}
}

func (p *Postgres) open() (*migrate.Migrate, error) {
	if p.dsn == "" {
		return nil, errors.New("database.url is not set")
	}

	src, err := iofs.New(postgresFS, "postgres")
	if err != nil {
		return nil, fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, p.dsn)
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return m, nil
}

// Migrate applies every pending up migration. Cancelling ctx stops the run
// between migrations.
func (p *Postgres) Migrate(ctx context.Context) error {
	m, err := p.open()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	stop := context.AfterFunc(ctx, func() {
		select {
		case m.GracefulStop <- true:
		default:
		}
	})
	defer stop()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err == nil {
		slog.InfoContext(ctx, "postgres schema is up to date", "version", version, "dirty", dirty)
	}
	return nil
}

// Down reverts every migration. Used by the migrate command only.
func (p *Postgres) Down() error {
	m, err := p.open()
	if err != nil {
		return err
	}
	defer func() { _, _ = m.Close() }()

	return m.Down()
}
