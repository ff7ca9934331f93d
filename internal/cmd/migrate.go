package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	pgxadapter "github.com/lborres/clientportal/adapters/pgx"
	"github.com/lborres/clientportal/internal/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded Postgres schema",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.DSN == "" {
		return errors.New("POSTGRES_DSN is required")
	}

	pool, err := pgxadapter.NewPool(cmd.Context(), cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer pool.Close()

	applied, err := pgxadapter.New(pool).Migrate(cmd.Context())
	if err != nil {
		return err
	}

	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "applied %s\n", name)
	}
	return nil
}
