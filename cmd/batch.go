package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vitrine-group/insight-cli/internal/insight"
	"github.com/vitrine-group/insight-cli/internal/store"
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Classify all active customers",
	Long: `Classifies every customer with at least one qualifying sale event.

Profiles are written as one JSON file per customer under the output
directory, in a subdirectory named after the run ID. Individual customer
failures are logged and counted without aborting the run.

Examples:
  insight batch
  insight batch --as-of 2024-07-15 --concurrency 8 --rps 50
  insight batch --limit 100 --save`,
	RunE: runBatch,
}

func init() {
	f := batchCmd.Flags()
	f.String("as-of", "", "evaluation date YYYY-MM-DD (default: today)")
	f.Int("concurrency", 0, "concurrent customer builds (0=use config default)")
	f.Float64("rps", 0, "repository requests per second, 0 disables the limit (overrides config)")
	f.Int("limit", 0, "process only the first N customers (0=all)")
	f.String("output-dir", "", "directory for profile files (overrides config)")
	f.Bool("save", false, "persist results to the classification store")
	f.Bool("no-progress", false, "disable the progress bar")

	rootCmd.AddCommand(batchCmd)
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	asOfFlag, _ := cmd.Flags().GetString("as-of")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	rps, _ := cmd.Flags().GetFloat64("rps")
	limit, _ := cmd.Flags().GetInt("limit")
	outputDir, _ := cmd.Flags().GetString("output-dir")
	save, _ := cmd.Flags().GetBool("save")
	noProgress, _ := cmd.Flags().GetBool("no-progress")

	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}
	if concurrency == 0 {
		concurrency = cfg.Batch.MaxConcurrentCustomers
	}
	if !cmd.Flags().Changed("rps") {
		rps = cfg.Batch.RepositoryRPS
	}
	if outputDir == "" {
		outputDir = cfg.Batch.OutputDir
	}

	r, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	builder := insight.NewBuilder(r, cfg.Scoring)
	report, err := builder.RunBatch(ctx, asOf, insight.BatchOptions{
		Concurrency: concurrency,
		RPS:         rps,
		Limit:       limit,
		Progress:    !noProgress,
	})
	if err != nil {
		return err
	}

	if err := writeReport(report, outputDir); err != nil {
		return err
	}

	if save {
		s, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Migrate(ctx); err != nil {
			return err
		}
		meta := store.RunMeta{RunID: report.RunID, AsOf: report.AsOf, ConfigHash: report.ConfigHash}
		if err := s.SaveProfiles(ctx, meta, report.Profiles); err != nil {
			return err
		}
	}

	fmt.Printf("run %s: %d built, %d skipped, %d failed of %d customers in %s\n",
		report.RunID, report.Built, report.Skipped, report.Failed, report.Total,
		report.Elapsed.Round(time.Millisecond))
	return nil
}

// writeReport writes one JSON file per profile plus a run summary.
func writeReport(report *insight.BatchReport, outputDir string) error {
	dir := filepath.Join(outputDir, report.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrapf(err, "create output dir %s", dir)
	}

	for _, p := range report.Profiles {
		out, err := json.MarshalIndent(p, "", "  ")
		if err != nil {
			return eris.Wrapf(err, "encode profile %s", p.Code)
		}
		path := filepath.Join(dir, p.Code+".json")
		if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
			return eris.Wrapf(err, "write profile %s", p.Code)
		}
	}

	summary, err := json.MarshalIndent(map[string]any{
		"run_id":      report.RunID,
		"as_of":       report.AsOf,
		"config_hash": report.ConfigHash,
		"total":       report.Total,
		"built":       report.Built,
		"skipped":     report.Skipped,
		"failed":      report.Failed,
		"elapsed":     report.Elapsed.String(),
	}, "", "  ")
	if err != nil {
		return eris.Wrap(err, "encode run summary")
	}
	if err := os.WriteFile(filepath.Join(dir, "run.json"), append(summary, '\n'), 0o644); err != nil {
		return eris.Wrap(err, "write run summary")
	}

	zap.L().Info("batch output written",
		zap.String("dir", dir),
		zap.Int("profiles", len(report.Profiles)))
	return nil
}
