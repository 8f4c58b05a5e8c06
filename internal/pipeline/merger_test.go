package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/geometry"
	"github.com/geodati/catasto2gpkg/internal/logging"
	"github.com/geodati/catasto2gpkg/internal/observability"
	"github.com/geodati/catasto2gpkg/internal/testing/fixtures"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// stubRepairer fails for geometries listed in errs and reports every other
// geometry as valid.
type stubRepairer struct {
	errs map[orb.Point]error
}

func (s stubRepairer) Repair(g orb.Geometry) (orb.Geometry, geometry.Outcome, error) {
	if err, ok := s.errs[g.Bound().Min]; ok {
		return nil, geometry.OutcomeValid, err
	}
	return g, geometry.OutcomeValid, nil
}

func extracted(mfs *filesystem.MemoryFileSystem, path, name, region string, content []byte) catasto.ExtractedFile {
	mfs.AddFile(path, content)
	kind, _ := catasto.KindForName(name)
	return catasto.ExtractedFile{Path: path, OriginalName: name, Region: region, Kind: kind}
}

func TestMerger_RepairsAndTags(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		extracted(mfs, "/scratch/1_F229_Venezia_ple.gml", "F229_Venezia_ple.gml", "ve", fixtures.Parcels().
			AddFeature("IT.AGE.PLA.F229_000100.1", fixtures.Square(45.40, 12.30, 0.01), "label", "1").
			AddFeature("IT.AGE.PLA.F229_000100.2", fixtures.Bowtie(45.42, 12.32, 0.01), "label", "2").
			Bytes()),
		extracted(mfs, "/scratch/2_F999_Mestre_ple.gml", "F999_Mestre_ple.gml", "ve", fixtures.Parcels().
			AddFeature("IT.AGE.PLA.F999_000100.1", fixtures.Square(45.50, 12.20, 0.01)).
			Bytes()),
	}

	metrics := observability.NewMetrics()
	m := NewMerger(mfs, geometry.NewRepairer(), logging.NewNullLogger(), metrics)
	table, results := m.Merge(context.Background(), catasto.KindParcels, files)

	require.NotNil(t, table)
	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 6706, table.SRID)
	assert.Contains(t, table.Columns, catasto.ColumnLocality)
	assert.Contains(t, table.Columns, catasto.ColumnRegion)

	want := []string{"Venezia", "Venezia", "Mestre"}
	for i, f := range table.Features {
		assert.Equal(t, want[i], f.Properties[catasto.ColumnLocality])
		assert.Equal(t, "VE", f.Properties[catasto.ColumnRegion])
		valid, err := geometry.NewRepairer().IsValid(f.Geometry)
		require.NoError(t, err)
		assert.True(t, valid, "feature %d", i)
	}

	require.Len(t, results, 2)
	assert.Equal(t, catasto.FileResult{
		Name: "F229_Venezia_ple.gml", Kind: catasto.KindParcels, Status: catasto.StatusSucceeded,
		Locality: "Venezia", Kept: 2, Repaired: 1,
	}, results[0])
	assert.Equal(t, 1, results[1].Kept)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Features.WithLabelValues("ple", "repaired")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Features.WithLabelValues("ple", "valid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.Files.WithLabelValues("ple", "succeeded")))
}

func TestMerger_DropsUnrecoverableRows(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		extracted(mfs, "/scratch/1_F229_Venezia_map.gml", "F229_Venezia_map.gml", "VE", fixtures.MapSheets().
			AddFeature("sheet.1", fixtures.Square(45.40, 12.30, 0.01)).
			AddFeature("sheet.2", fixtures.Degenerate(45.41, 12.31)).
			AddRawFeature(`<CP:CadastralZoning gml:id="sheet.3"><CP:label>no geometry</CP:label></CP:CadastralZoning>`).
			Bytes()),
	}

	logger := logging.NewRecordingLogger()
	m := NewMerger(mfs, geometry.NewRepairer(), logger, nil)
	table, results := m.Merge(context.Background(), catasto.KindMap, files)

	require.NotNil(t, table)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "sheet.1", table.Features[0].Properties[catasto.ColumnFeatureID])
	require.Len(t, results, 1)
	assert.Equal(t, 1, results[0].Kept)
	assert.Equal(t, 2, results[0].Dropped)
	assert.True(t, logger.Contains(logging.LevelVerbose, "sheet.2"))
}

func TestMerger_KeepsEmptyRepairResult(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		extracted(mfs, "/scratch/1_F229_Venezia_map.gml", "F229_Venezia_map.gml", "VE", fixtures.MapSheets().
			AddFeature("sheet.1", fixtures.Square(45.40, 12.30, 0.01)).
			AddFeature("sheet.2", fixtures.Collapsed(0, 0)).
			Bytes()),
	}

	logger := logging.NewRecordingLogger()
	m := NewMerger(mfs, geometry.NewRepairer(), logger, nil)
	table, results := m.Merge(context.Background(), catasto.KindMap, files)

	require.NotNil(t, table)
	require.Equal(t, 2, table.Len())
	collapsed := table.Features[1]
	assert.Equal(t, "sheet.2", collapsed.Properties[catasto.ColumnFeatureID])
	require.NotNil(t, collapsed.Geometry)
	assert.True(t, feature.IsEmpty(collapsed.Geometry))
	assert.Equal(t, "Venezia", collapsed.Properties[catasto.ColumnLocality])
	assert.Equal(t, "VE", collapsed.Properties[catasto.ColumnRegion])

	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].Kept)
	assert.Equal(t, 1, results[0].Repaired)
	assert.Equal(t, 0, results[0].Dropped)
	assert.True(t, logger.Contains(logging.LevelVerbose, "sheet.2 repaired to an empty geometry"))
}

func TestMerger_EngineErrorDropsRow(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		extracted(mfs, "/scratch/1_A_B_ple.gml", "A_B_ple.gml", "PD", fixtures.Parcels().
			AddFeature("p.1", fixtures.Square(45.0, 11.0, 1)).
			AddFeature("p.2", fixtures.Square(46.0, 11.0, 1)).
			Bytes()),
	}

	// Parcels are lat/lon, so the lower-left corner of p.2 reads back as (11, 46).
	repairer := stubRepairer{errs: map[orb.Point]error{
		{11, 46}: errors.New("GEOS: IllegalArgumentException"),
	}}
	m := NewMerger(mfs, repairer, logging.NewNullLogger(), nil)
	table, results := m.Merge(context.Background(), catasto.KindParcels, files)

	require.NotNil(t, table)
	assert.Equal(t, 1, table.Len())
	assert.Equal(t, "p.1", table.Features[0].Properties[catasto.ColumnFeatureID])
	assert.Equal(t, 1, results[0].Dropped)
}

func TestMerger_FileFailures(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		{Path: "/scratch/missing_ple.gml", OriginalName: "X_Missing_ple.gml", Region: "VE", Kind: catasto.KindParcels},
		extracted(mfs, "/scratch/1_X_Broken_ple.gml", "X_Broken_ple.gml", "VE", []byte("<gml:FeatureCollection")),
		extracted(mfs, "/scratch/2_X_Empty_ple.gml", "X_Empty_ple.gml", "VE", fixtures.Parcels().Bytes()),
		extracted(mfs, "/scratch/3_X_Projected_ple.gml", "X_Projected_ple.gml", "VE",
			fixtures.NewGMLBuilder("CadastralParcel", "urn:ogc:def:crs:EPSG::3004").
				AddFeature("p.1", fixtures.Square(2300000, 5000000, 10)).
				Bytes()),
		extracted(mfs, "/scratch/4_X_Good_ple.gml", "X_Good_ple.gml", "VE", fixtures.Parcels().
			AddFeature("p.1", fixtures.Square(45, 12, 0.1)).
			Bytes()),
	}

	m := NewMerger(mfs, geometry.NewRepairer(), logging.NewNullLogger(), nil)
	table, results := m.Merge(context.Background(), catasto.KindParcels, files)

	require.Len(t, results, 5)
	assert.Equal(t, catasto.StatusFailed, results[0].Status)
	assert.Equal(t, catasto.StatusFailed, results[1].Status)
	assert.Equal(t, catasto.StatusSkipped, results[2].Status)
	assert.Equal(t, "no valid rows", results[2].Reason)
	assert.Equal(t, catasto.StatusSucceeded, results[3].Status)
	assert.Equal(t, catasto.StatusFailed, results[4].Status)
	assert.Contains(t, results[4].Reason, "EPSG:6706")

	require.NotNil(t, table)
	assert.Equal(t, 3004, table.SRID)
	assert.Equal(t, 1, table.Len())
}

func TestMerger_NothingKept(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		extracted(mfs, "/scratch/1_X_Empty_map.gml", "X_Empty_map.gml", "VE", fixtures.MapSheets().Bytes()),
	}

	m := NewMerger(mfs, geometry.NewRepairer(), logging.NewNullLogger(), nil)
	table, results := m.Merge(context.Background(), catasto.KindMap, files)

	assert.Nil(t, table)
	assert.Equal(t, catasto.StatusSkipped, results[0].Status)

	table, results = m.Merge(context.Background(), catasto.KindMap, nil)
	assert.Nil(t, table)
	assert.Empty(t, results)
}

func TestMerger_Cancelled(t *testing.T) {
	mfs := filesystem.NewMemoryFileSystem("/scratch")
	files := []catasto.ExtractedFile{
		extracted(mfs, "/scratch/1_X_Good_ple.gml", "X_Good_ple.gml", "VE", fixtures.Parcels().
			AddFeature("p.1", fixtures.Square(45, 12, 0.1)).
			Bytes()),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	m := NewMerger(mfs, geometry.NewRepairer(), logging.NewNullLogger(), nil)
	table, results := m.Merge(ctx, catasto.KindParcels, files)

	assert.Nil(t, table)
	assert.Equal(t, catasto.StatusFailed, results[0].Status)
	assert.Contains(t, results[0].Reason, context.Canceled.Error())
}
