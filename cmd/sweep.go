package cmd

import (
	"context"
	"fmt"

	"github.com/shandysiswandi/freightbite/internal/app"
	"github.com/spf13/cobra"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Delete expired sessions once",
	Long: `sweep removes every session whose expiry has passed. The server runs
the same cleanup periodically when modules.auth.session.sweep_interval_seconds
is set; this command is meant for cron-style scheduling instead.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		application := app.NewTask()
		defer application.Stop(context.Background())

		n, err := application.Sweep(cmd.Context())
		if err != nil {
			return fmt.Errorf("sweep: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d expired sessions\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}
