package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/shandysiswandi/freightbite/internal/app"
	"github.com/shandysiswandi/freightbite/internal/pkg/migration"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply every pending migration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application := app.NewTask()
		defer application.Stop(context.Background())

		if err := application.Migrate(cmd.Context()); err != nil {
			return fmt.Errorf("migrate up: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Revert every migration (postgres only)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application := app.NewTask()
		defer application.Stop(context.Background())

		err := application.Rollback()
		if errors.Is(err, migration.ErrNoChange) {
			fmt.Fprintln(cmd.OutOrStdout(), "nothing to revert")
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate down: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "schema reverted")
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
