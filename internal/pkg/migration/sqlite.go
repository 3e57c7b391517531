package migration

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"gorm.io/gorm"
)

//go:embed sqlite/*.sql
var sqliteFS embed.FS

// SQLite executes the embedded sqlite/*.sql files in name order. The DDL is
// written with IF NOT EXISTS so re-running is harmless.
type SQLite struct {
	db *gorm.DB
}

func NewSQLite(db *gorm.DB) *SQLite {
	return &SQLite{db: db}
}

func (s *SQLite) Migrate(ctx context.Context) error {
	files, err := fs.Glob(sqliteFS, "sqlite/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, name := range files {
			raw, err := sqliteFS.ReadFile(name)
			if err != nil {
				return err
			}

			for _, stmt := range strings.Split(string(raw), ";") {
				if strings.TrimSpace(stmt) == "" {
					continue
				}
				if err := tx.Exec(stmt).Error; err != nil {
					return fmt.Errorf("%s: %w", name, err)
				}
			}
			slog.InfoContext(ctx, "sqlite schema applied", "file", name)
		}
		return nil
	})
}
