package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/geometry"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/internal/observability"
	"github.com/geodati/catasto2gpkg/internal/services"
	"github.com/geodati/catasto2gpkg/internal/tui"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

var convertCmd = &cobra.Command{
	Use:   "convert [root]",
	Short: "Convert the archives under a root directory into one GeoPackage",
	Long: `Convert groups the top-level archives of the root directory by province
code, extracts the *_ple.gml and *_map.gml files from the ZIPs nested inside
them, and writes one intermediate package per province (<root>/VE.gpkg).
The intermediates are then merged into <root>/<basename(root)>.gpkg and deleted.

Settings are read from, in order of precedence: flags, CATASTO_* environment
variables (also from .env), catasto2gpkg.yaml in the root directory.

Examples:
  # Convert, writing veneto/veneto.gpkg
  catasto2gpkg convert ./veneto

  # Keep the per-province packages and write a JSON report
  catasto2gpkg convert ./veneto --keep-intermediate --report run.json

  # Scheduled run: no prompt, no dialog, metrics for node_exporter
  CATASTO_NON_INTERACTIVE=1 catasto2gpkg convert /data/veneto --no-picker \
    --metrics-file /var/lib/node_exporter/catasto.prom`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConvert,
}

type convertFlagValues struct {
	output, scratchDir, report, metricsFile string
	keepIntermediate, noPicker              bool
}

var convertFlags convertFlagValues

func init() {
	rootCmd.AddCommand(convertCmd)
	addConvertFlags(convertCmd)
}

// addConvertFlags registers the conversion flags on cmd. The root command and
// convert share them, since running without a subcommand converts.
func addConvertFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&convertFlags.output, "output", "o", "",
		"Final package path (default: <root>/<basename(root)>.gpkg)")
	cmd.Flags().StringVar(&convertFlags.scratchDir, "scratch-dir", "",
		"Directory for per-province scratch directories (default: system temp)")
	cmd.Flags().BoolVar(&convertFlags.keepIntermediate, "keep-intermediate", false,
		"Keep the per-province packages after consolidation")
	cmd.Flags().StringVar(&convertFlags.report, "report", "",
		"Write the run report as JSON to this path")
	cmd.Flags().StringVar(&convertFlags.metricsFile, "metrics-file", "",
		"Write run metrics in the Prometheus textfile format to this path")
	cmd.Flags().BoolVar(&convertFlags.noPicker, "no-picker", false,
		"Never open the folder dialog (also CATASTO_NO_PICKER=1)")
}

func runConvert(cmd *cobra.Command, args []string) error {
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	envCfg, err := loadEnvConfig()
	if err != nil {
		return err
	}
	pickerEnabled := envCfg.PickerEnabled() && !convertFlags.noPicker

	root, err := newRootResolver(logger, pickerEnabled).Resolve(args)
	if err != nil {
		return err
	}

	projectCfg, err := loadProjectConfig(root)
	if err != nil {
		return err
	}
	cfg, outputs, err := buildConversionConfig(root, projectCfg, convertFlags, cmd.Flags().Changed, verbose)
	if err != nil {
		return err
	}

	// Setup context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Fprintln(os.Stderr, "\n[INTERRUPT] Received interrupt signal, stopping after the current archive...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return convert(ctx, cmd.OutOrStdout(), cfg, outputs, logger)
}

// convert runs the conversion and writes the summary, the report and the
// metrics file. The side files are written even when the run fails.
func convert(ctx context.Context, out io.Writer, cfg catasto.ConversionConfig, outputs conversionOutputs, logger catasto.Logger) error {
	metrics := observability.NewMetrics()
	interactive := tui.IsInteractive()

	converter := services.NewConversionService(
		filesystem.NewOSFileSystem(),
		geometry.NewRepairer(),
		logger,
		services.WithMetrics(metrics),
		services.WithObserver(tui.NewProgressDisplay(out, interactive)),
	)

	report, convErr := converter.Convert(ctx, cfg)
	if report == nil {
		return convErr
	}

	fmt.Fprintln(out, tui.RenderSummary(report))

	if outputs.ReportPath != "" {
		if err := writeReport(outputs.ReportPath, report); err != nil {
			logger.Error("%v", err)
		} else {
			logger.Verbose("Report written to %s", outputs.ReportPath)
		}
	}
	if outputs.MetricsFile != "" {
		if err := metrics.WriteTextfile(outputs.MetricsFile); err != nil {
			logger.Error("%v", err)
		} else {
			logger.Verbose("Metrics written to %s", outputs.MetricsFile)
		}
	}

	if convErr != nil {
		return fmt.Errorf("conversion failed: %w", convErr)
	}
	return nil
}

func writeReport(path string, report *catasto.Report) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}
	return nil
}
