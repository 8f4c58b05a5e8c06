package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/gpkg"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

func table(srid int, region string, n int) *feature.Table {
	t := feature.NewTable(srid)
	for i := 0; i < n; i++ {
		x := float64(i)
		t.Append(feature.Feature{
			Geometry: orb.Polygon{{{x, 0}, {x + 1, 0}, {x + 1, 1}, {x, 0}}},
			Properties: map[string]string{
				catasto.ColumnLocality: "Venezia",
				catasto.ColumnRegion:   region,
			},
		})
	}
	return t
}

func newTestWriter() (*PackageWriter, *logging.RecordingLogger) {
	logger := logging.NewRecordingLogger()
	return NewPackageWriter(filesystem.NewOSFileSystem(), logger), logger
}

func readRows(t *testing.T, path, layer string) int {
	t.Helper()
	p, err := gpkg.Open(context.Background(), path)
	require.NoError(t, err)
	defer p.Close()
	tbl, err := p.ReadLayer(context.Background(), layer)
	require.NoError(t, err)
	return tbl.Len()
}

func TestPackageWriter_WriteRegion(t *testing.T) {
	w, _ := newTestWriter()
	path := filepath.Join(t.TempDir(), "VE.gpkg")

	layers, err := w.WriteRegion(context.Background(), path, map[catasto.Kind]*feature.Table{
		catasto.KindParcels: table(6706, "VE", 3),
	})
	require.NoError(t, err)

	assert.Equal(t, []catasto.LayerResult{
		{Layer: "ple_layer", Status: catasto.StatusSucceeded, Rows: 3},
		{Layer: "map_layer", Status: catasto.StatusSkipped, Reason: "no rows"},
	}, layers)
	assert.Equal(t, 3, readRows(t, path, "ple_layer"))
}

func TestPackageWriter_ConsolidateCommitCleanup(t *testing.T) {
	ctx := context.Background()
	w, logger := newTestWriter()
	root := t.TempDir()

	ve := filepath.Join(root, "VE.gpkg")
	pd := filepath.Join(root, "PD.gpkg")
	_, err := w.WriteRegion(ctx, ve, map[catasto.Kind]*feature.Table{
		catasto.KindParcels: table(6706, "VE", 3),
		catasto.KindMap:     table(6706, "VE", 2),
	})
	require.NoError(t, err)
	_, err = w.WriteRegion(ctx, pd, map[catasto.Kind]*feature.Table{
		catasto.KindParcels: table(6706, "PD", 4),
	})
	require.NoError(t, err)

	final := catasto.FinalPackagePath(root)
	layers, err := w.Consolidate(ctx, []string{ve, pd}, final)
	require.NoError(t, err)
	assert.Equal(t, []catasto.LayerResult{
		{Layer: "ple_layer", Status: catasto.StatusSucceeded, Rows: 7},
		{Layer: "map_layer", Status: catasto.StatusSucceeded, Rows: 2},
	}, layers)
	assert.True(t, logger.Contains(logging.LevelVerbose, "has no map_layer"))

	_, err = os.Stat(final)
	assert.True(t, os.IsNotExist(err), "final package appears only on commit")

	cleanup := w.Cleanup([]string{ve, pd})
	require.Len(t, cleanup, 2)
	for _, c := range cleanup {
		assert.Equal(t, catasto.StatusSucceeded, c.Status)
		assert.NoFileExists(t, c.Path)
	}

	require.NoError(t, w.Commit(final))
	assert.NoFileExists(t, final+".tmp")
	assert.Equal(t, 7, readRows(t, final, "ple_layer"))
	assert.Equal(t, 2, readRows(t, final, "map_layer"))
}

func TestPackageWriter_FinalNameEqualsIntermediate(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWriter()
	root := filepath.Join(t.TempDir(), "VE")

	intermediate := catasto.IntermediatePackagePath(root, "VE")
	final := catasto.FinalPackagePath(root)
	require.Equal(t, intermediate, final)

	_, err := w.WriteRegion(ctx, intermediate, map[catasto.Kind]*feature.Table{
		catasto.KindMap: table(6706, "VE", 2),
	})
	require.NoError(t, err)

	_, err = w.Consolidate(ctx, []string{intermediate}, final)
	require.NoError(t, err)
	w.Cleanup([]string{intermediate})
	require.NoError(t, w.Commit(final))

	assert.Equal(t, 2, readRows(t, final, "map_layer"))
}

func TestPackageWriter_ConsolidateNothing(t *testing.T) {
	w, _ := newTestWriter()
	final := filepath.Join(t.TempDir(), "out.gpkg")

	layers, err := w.Consolidate(context.Background(), nil, final)

	assert.ErrorIs(t, err, catasto.ErrNothingToWrite)
	require.Len(t, layers, 2)
	assert.Equal(t, catasto.StatusSkipped, layers[0].Status)
	assert.NoFileExists(t, final+".tmp")
}

func TestPackageWriter_ConsolidateSkipsForeignSRS(t *testing.T) {
	ctx := context.Background()
	w, logger := newTestWriter()
	root := t.TempDir()

	a := filepath.Join(root, "AA.gpkg")
	b := filepath.Join(root, "BB.gpkg")
	_, err := w.WriteRegion(ctx, a, map[catasto.Kind]*feature.Table{catasto.KindParcels: table(6706, "AA", 2)})
	require.NoError(t, err)
	_, err = w.WriteRegion(ctx, b, map[catasto.Kind]*feature.Table{catasto.KindParcels: table(3004, "BB", 5)})
	require.NoError(t, err)

	layers, err := w.Consolidate(ctx, []string{a, b}, filepath.Join(root, "out.gpkg"))
	require.NoError(t, err)
	assert.Equal(t, 2, layers[0].Rows)
	assert.True(t, logger.Contains(logging.LevelError, "EPSG:3004"))
}

func TestPackageWriter_CleanupFailureIsReported(t *testing.T) {
	w, logger := newTestWriter()
	missing := filepath.Join(t.TempDir(), "gone.gpkg")

	results := w.Cleanup([]string{missing})

	require.Len(t, results, 1)
	assert.Equal(t, catasto.StatusFailed, results[0].Status)
	assert.NotEmpty(t, results[0].Reason)
	assert.True(t, logger.Contains(logging.LevelError, "gone.gpkg"))
}

func TestPackageWriter_Discard(t *testing.T) {
	ctx := context.Background()
	w, _ := newTestWriter()
	root := t.TempDir()
	ve := filepath.Join(root, "VE.gpkg")
	final := filepath.Join(root, "out.gpkg")

	_, err := w.WriteRegion(ctx, ve, map[catasto.Kind]*feature.Table{catasto.KindMap: table(6706, "VE", 1)})
	require.NoError(t, err)
	_, err = w.Consolidate(ctx, []string{ve}, final)
	require.NoError(t, err)
	require.FileExists(t, final+".tmp")

	w.Discard(final)
	assert.NoFileExists(t, final+".tmp")
}
