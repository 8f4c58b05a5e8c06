package cli

import (
	"context"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/geodati/catasto2gpkg/internal/gpkg"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/internal/tui"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.gpkg>",
	Short: "List the layers of a GeoPackage with row counts per province",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))

	layers, err := inspectPackage(cmd.Context(), args[0], logger)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), tui.RenderLayers(args[0], layers))
	return nil
}

// inspectPackage summarizes every feature layer of the package at path.
// Layers without a provincia column are listed without the breakdown.
func inspectPackage(ctx context.Context, path string, logger catasto.Logger) ([]tui.LayerSummary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	pkg, err := gpkg.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer pkg.Close()

	infos, err := pkg.Layers(ctx)
	if err != nil {
		return nil, err
	}

	layers := make([]tui.LayerSummary, 0, len(infos))
	for _, info := range infos {
		s := tui.LayerSummary{
			Name:         info.Name,
			GeometryType: info.GeometryType,
			SRID:         info.SRID,
			Rows:         info.Rows,
			MinX:         info.MinX,
			MinY:         info.MinY,
			MaxX:         info.MaxX,
			MaxY:         info.MaxY,
		}

		counts, err := pkg.CountBy(ctx, info.Name, catasto.ColumnRegion)
		if err != nil {
			logger.Verbose("No %s breakdown for %s: %v", catasto.ColumnRegion, info.Name, err)
		}
		for code, n := range counts {
			s.Regions = append(s.Regions, tui.RegionCount{Code: code, Rows: n})
		}
		sort.Slice(s.Regions, func(i, j int) bool { return s.Regions[i].Code < s.Regions[j].Code })

		layers = append(layers, s)
	}
	return layers, nil
}
