package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/internal/postgis"
	"github.com/geodati/catasto2gpkg/internal/tui"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

var publishCmd = &cobra.Command{
	Use:   "publish <file.gpkg>",
	Short: "Load the layers of a GeoPackage into PostGIS",
	Long: `Publish creates one PostGIS table per layer of the package, in the given
schema, and copies every row. Each table is written in its own transaction.

The connection string is taken from --connection, CATASTO_POSTGIS_CONNECTION,
or postgis.connection in the catasto2gpkg.yaml next to the package.
Transient connection errors are retried with exponential backoff.

Examples:
  catasto2gpkg publish veneto/veneto.gpkg \
    --connection postgresql://gis@localhost/catasto --schema catasto_ve

  # Replace tables from an earlier run
  catasto2gpkg publish veneto/veneto.gpkg --overwrite`,
	Args: cobra.ExactArgs(1),
	RunE: runPublish,
}

type publishFlagValues struct {
	connection, schema string
	overwrite          bool
	timeout            time.Duration
	batchSize          int
}

var publishFlags publishFlagValues

func init() {
	rootCmd.AddCommand(publishCmd)

	publishCmd.Flags().StringVar(&publishFlags.connection, "connection", "",
		"PostgreSQL connection string (URI or key=value format).\n"+
			"Alternative: CATASTO_POSTGIS_CONNECTION environment variable.\n"+
			"Example: postgresql://user@localhost:5432/catasto")
	publishCmd.Flags().StringVar(&publishFlags.schema, "schema", "",
		"Target schema, created if missing (default: public)")
	publishCmd.Flags().BoolVar(&publishFlags.overwrite, "overwrite", false,
		"Drop existing tables with the same names first")
	publishCmd.Flags().DurationVar(&publishFlags.timeout, "timeout", defaultPublishTimeout,
		"Global timeout for the publish\n"+
			"Examples: 30s, 5m, 1h30m")
	publishCmd.Flags().IntVar(&publishFlags.batchSize, "batch-size", catasto.DefaultBatchSize,
		"Rows per insert round trip")
}

func runPublish(cmd *cobra.Command, args []string) error {
	pkgPath, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	verbose := getVerboseFlag(cmd)
	logger := logging.NewConsoleLogger(verbose)

	projectCfg, err := loadProjectConfig(filepath.Dir(pkgPath))
	if err != nil {
		return err
	}
	cfg, err := buildPublishConfig(pkgPath, projectCfg, publishFlags, cmd.Flags().Changed)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var publisher catasto.Publisher = postgis.NewPublisher(postgis.NewConnector(logger).Connect, logger)
	rows, err := publisher.Publish(ctx, cfg)
	if err != nil {
		return fmt.Errorf("publish of %s failed: %w", pkgPath, err)
	}

	layers := make([]string, 0, len(rows))
	for layer := range rows {
		layers = append(layers, layer)
	}
	sort.Strings(layers)
	for _, layer := range layers {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s.%s  %d rows\n",
			tui.SuccessStyle.Render(tui.SymbolCheck), cfg.Schema, layer, rows[layer])
	}
	return nil
}
