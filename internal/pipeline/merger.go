package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/paulmach/orb"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/geometry"
	"github.com/geodati/catasto2gpkg/internal/gml"
	"github.com/geodati/catasto2gpkg/internal/observability"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// Repairer validates a geometry and repairs it when invalid.
// *geometry.Repairer is the production implementation.
type Repairer interface {
	Repair(g orb.Geometry) (orb.Geometry, geometry.Outcome, error)
}

// Merger loads the extracted files of one kind, repairs their geometries,
// tags every row, and concatenates the results.
type Merger struct {
	fsProvider filesystem.FileSystemProvider
	repairer   Repairer
	logger     catasto.Logger
	metrics    *observability.Metrics
}

// NewMerger creates a Merger. metrics may be nil.
func NewMerger(fsProvider filesystem.FileSystemProvider, repairer Repairer, logger catasto.Logger, metrics *observability.Metrics) *Merger {
	return &Merger{fsProvider: fsProvider, repairer: repairer, logger: logger, metrics: metrics}
}

// Merge returns the concatenation of every file that kept at least one row,
// or nil when none did. Per-file outcomes are reported in the results, one
// per input file, in input order.
func (m *Merger) Merge(ctx context.Context, kind catasto.Kind, files []catasto.ExtractedFile) (*feature.Table, []catasto.FileResult) {
	results := make([]catasto.FileResult, 0, len(files))
	var (
		tables []*feature.Table
		srid   int
	)

	for _, f := range files {
		res := catasto.FileResult{
			Name:     f.OriginalName,
			Kind:     kind,
			Locality: catasto.LocalityFromFilename(f.OriginalName),
		}
		if err := ctx.Err(); err != nil {
			res.Status = catasto.StatusFailed
			res.Reason = err.Error()
			results = append(results, res)
			m.countFile(kind, res.Status)
			continue
		}

		t, err := m.mergeFile(kind, f, &res)
		switch {
		case err != nil:
			res.Status = catasto.StatusFailed
			res.Reason = err.Error()
			m.logger.Error("Failed to load %s: %v", f.OriginalName, err)
		case t.Len() == 0:
			res.Status = catasto.StatusSkipped
			res.Reason = "no valid rows"
			m.logger.Verbose("%s: no valid rows", f.OriginalName)
		case srid != 0 && t.SRID != 0 && t.SRID != srid:
			res.Status = catasto.StatusFailed
			res.Reason = fmt.Sprintf("%v: EPSG:%d, expected EPSG:%d", feature.ErrSRIDMismatch, t.SRID, srid)
			m.logger.Error("%s: %s", f.OriginalName, res.Reason)
		default:
			res.Status = catasto.StatusSucceeded
			if srid == 0 {
				srid = t.SRID
			}
			tables = append(tables, t)
			m.logger.Verbose("%s: %d kept, %d repaired, %d dropped (comune %s)",
				f.OriginalName, res.Kept, res.Repaired, res.Dropped, res.Locality)
		}
		results = append(results, res)
		m.countFile(kind, res.Status)
	}

	if len(tables) == 0 {
		return nil, results
	}
	merged, err := feature.Concat(tables...)
	if err != nil {
		m.logger.Error("Failed to merge %s files: %v", kind, err)
		return nil, results
	}
	return merged, results
}

// mergeFile decodes, repairs and tags one file. The counts in res are filled in.
func (m *Merger) mergeFile(kind catasto.Kind, f catasto.ExtractedFile, res *catasto.FileResult) (*feature.Table, error) {
	r, err := m.fsProvider.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open: %w", err)
	}
	defer r.Close()

	t, err := gml.Decode(r)
	if err != nil {
		return nil, err
	}

	for i := range t.Features {
		feat := &t.Features[i]
		if feat.Geometry == nil {
			res.Dropped++
			continue
		}
		repaired, outcome, err := m.repairer.Repair(feat.Geometry)
		if err != nil {
			feat.Geometry = nil
			res.Dropped++
			m.logger.Verbose("%s: feature %s dropped: %v", f.OriginalName, featureID(feat), err)
			continue
		}
		if outcome == geometry.OutcomeRepaired {
			res.Repaired++
			if feature.IsEmpty(repaired) {
				m.logger.Verbose("%s: feature %s repaired to an empty geometry", f.OriginalName, featureID(feat))
			}
		}
		feat.Geometry = repaired
	}
	t.Filter(func(feat feature.Feature) bool { return feat.Geometry != nil })
	res.Kept = t.Len()

	m.countFeatures(kind, "valid", res.Kept-res.Repaired)
	m.countFeatures(kind, "repaired", res.Repaired)
	m.countFeatures(kind, "dropped", res.Dropped)

	t.SetAll(catasto.ColumnLocality, res.Locality)
	t.SetAll(catasto.ColumnRegion, strings.ToUpper(f.Region))
	return t, nil
}

func featureID(f *feature.Feature) string {
	if id := f.Properties[catasto.ColumnFeatureID]; id != "" {
		return id
	}
	return "(no id)"
}

func (m *Merger) countFile(kind catasto.Kind, status catasto.Status) {
	if m.metrics == nil {
		return
	}
	m.metrics.Files.WithLabelValues(string(kind), string(status)).Inc()
}

func (m *Merger) countFeatures(kind catasto.Kind, outcome string, n int) {
	if m.metrics == nil || n == 0 {
		return
	}
	m.metrics.Features.WithLabelValues(string(kind), outcome).Add(float64(n))
}
