// Package cmd is the freightbite command line.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "freightbite",
	Short: "Phone-OTP sign-in and freight request service",
	Long: `freightbite serves the HTTP API and runs its maintenance tasks.

Configuration is read from CONFIG_PATH (default /config/config.yaml,
./config/config.yaml when LOCAL=true). Running without a subcommand is
the same as "freightbite serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}
