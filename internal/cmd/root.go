package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Client portal session service",
	Long: `portal serves the client portal login flows: email and password or
project code sign-in, signed session cookies and the gate in front of the
authenticated /client section.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// ExecuteContext runs the root command with ctx, which serve uses for shutdown.
func ExecuteContext(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	defaultPath := os.Getenv("APP_CONFIG")
	if defaultPath == "" {
		defaultPath = "configs/config.yaml"
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultPath, "config file (missing files fall back to defaults)")
}
