package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitrine-group/insight-cli/internal/model"
	"github.com/vitrine-group/insight-cli/internal/repo"
)

// snapshotDump is the JSON shape produced by the ERP export job.
type snapshotDump struct {
	Customers    []model.Customer           `json:"customers"`
	Movements    []model.RawEvent           `json:"movements"`
	Installments []model.PaymentInstallment `json:"installments"`
}

var importCmd = &cobra.Command{
	Use:   "import <dump.json>",
	Short: "Import an ERP export into the local SQLite snapshot",
	Long: `Loads a JSON export of customers, movements and installments into
the local SQLite snapshot so the engine can run offline.

Example:
  insight import export-2024-07.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Store.Driver != "sqlite" {
		return eris.Errorf("import requires the sqlite driver, store.driver is %q", cfg.Store.Driver)
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return eris.Wrapf(err, "read dump %s", args[0])
	}
	var dump snapshotDump
	if err := json.Unmarshal(raw, &dump); err != nil {
		return eris.Wrapf(err, "decode dump %s", args[0])
	}

	r, err := repo.NewSQLite(cfg.Store.DatabaseURL, cfg.Taxonomy)
	if err != nil {
		return err
	}
	defer r.Close()
	if err := r.Migrate(ctx); err != nil {
		return err
	}

	for _, c := range dump.Customers {
		if err := r.SaveCustomer(ctx, c); err != nil {
			return err
		}
	}
	if err := r.SaveEvents(ctx, dump.Movements); err != nil {
		return err
	}
	if err := r.SaveInstallments(ctx, dump.Installments); err != nil {
		return err
	}

	zap.L().Info("snapshot imported",
		zap.Int("customers", len(dump.Customers)),
		zap.Int("movements", len(dump.Movements)),
		zap.Int("installments", len(dump.Installments)))
	fmt.Printf("imported %d customers, %d movements, %d installments\n",
		len(dump.Customers), len(dump.Movements), len(dump.Installments))
	return nil
}
