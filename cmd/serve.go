package cmd

import (
	"context"
	"time"

	"github.com/shandysiswandi/freightbite/internal/app"
	"github.com/spf13/cobra"
)

var shutdownTimeout time.Duration

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background consumers",
	RunE: func(*cobra.Command, []string) error {
		application := app.New()
		wait := application.Start()
		<-wait

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		application.Stop(ctx)
		return nil
	},
}

func init() {
	serveCmd.Flags().DurationVar(&shutdownTimeout, "shutdown-timeout", 10*time.Second, "Grace period for in-flight requests on shutdown")
	rootCmd.AddCommand(serveCmd)
}
