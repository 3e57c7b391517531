// Package migrationtest opens throwaway databases with the production schema
// for tests.
package migrationtest

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shandysiswandi/freightbite/internal/pkg/migration"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite returns an in-memory SQLite database with every migration
// applied. The database lives until the test ends.
func NewSQLite(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed opening in-memory sqlite database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed getting sql.DB from gorm: %v", err)
	}
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := migration.NewSQLite(db).Migrate(context.Background()); err != nil {
		t.Fatalf("failed migrating sqlite: %v", err)
	}

	return db
}
