package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vitrine-group/insight-cli/internal/insight"
	"github.com/vitrine-group/insight-cli/internal/model"
)

var classifyCmd = &cobra.Command{
	Use:   "classify <customer-code>",
	Short: "Classify a single customer",
	Long: `Builds the full metric profile for one customer and classifies it.

A customer with no qualifying sale event is excluded and prints null,
even when payment or brand records exist.

Examples:
  insight classify C10042
  insight classify C10042 --as-of 2024-07-15 --format yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runClassify,
}

func init() {
	f := classifyCmd.Flags()
	f.String("as-of", "", "evaluation date YYYY-MM-DD (default: today)")
	f.String("format", "json", "output format: json or yaml")
	f.String("output", "", "output file path (default: stdout)")

	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	code := args[0]
	asOfFlag, _ := cmd.Flags().GetString("as-of")
	format, _ := cmd.Flags().GetString("format")
	outputPath, _ := cmd.Flags().GetString("output")

	asOf, err := parseAsOf(asOfFlag)
	if err != nil {
		return err
	}

	r, err := openRepository(ctx)
	if err != nil {
		return err
	}
	defer r.Close()

	builder := insight.NewBuilder(r, cfg.Scoring)
	profile, err := builder.BuildProfile(ctx, code, asOf)
	if err != nil {
		return err
	}
	if profile == nil {
		zap.L().Info("customer excluded: no qualifying sale events",
			zap.String("customer", code))
	}

	return writeProfile(profile, format, outputPath)
}

// writeProfile renders one profile; a nil profile renders as null.
func writeProfile(profile *model.CustomerProfile, format, outputPath string) error {
	var (
		out []byte
		err error
	)
	switch format {
	case "json":
		out, err = json.MarshalIndent(profile, "", "  ")
		out = append(out, '\n')
	case "yaml":
		out, err = yaml.Marshal(profile)
	default:
		return eris.Errorf("unknown format %q (want json or yaml)", format)
	}
	if err != nil {
		return eris.Wrap(err, "encode profile")
	}

	if outputPath == "" {
		_, err = os.Stdout.Write(out)
		return err
	}
	return os.WriteFile(outputPath, out, 0o644)
}
