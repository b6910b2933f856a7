package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vitrine-group/insight-cli/internal/repo"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the classification result tables",
	Long: `Creates the result tables for the configured backend. For the
sqlite driver the local snapshot schema is created as well.`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer s.Close()
	if err := s.Migrate(ctx); err != nil {
		return err
	}

	if cfg.Store.Driver == "sqlite" {
		r, err := repo.NewSQLite(cfg.Store.DatabaseURL, cfg.Taxonomy)
		if err != nil {
			return err
		}
		defer r.Close()
		if err := r.Migrate(ctx); err != nil {
			return err
		}
	}

	fmt.Println("migration complete")
	return nil
}
