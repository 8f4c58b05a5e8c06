package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/gpkg"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// tmpSuffix marks the final package while it is being assembled.
const tmpSuffix = ".tmp"

// PackageWriter persists merged tables as GeoPackages and assembles the
// final package from the per-region ones.
type PackageWriter struct {
	fsProvider filesystem.FileSystemProvider
	logger     catasto.Logger
}

// NewPackageWriter creates a PackageWriter. fsProvider is used for renames
// and deletions; the packages themselves are always real SQLite files.
func NewPackageWriter(fsProvider filesystem.FileSystemProvider, logger catasto.Logger) *PackageWriter {
	return &PackageWriter{fsProvider: fsProvider, logger: logger}
}

// WriteRegion writes every non-nil table as the layer of its kind into a new
// package at path, replacing any existing file.
func (w *PackageWriter) WriteRegion(ctx context.Context, path string, tables map[catasto.Kind]*feature.Table) ([]catasto.LayerResult, error) {
	p, err := gpkg.Create(ctx, path)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	var layers []catasto.LayerResult
	for _, kind := range catasto.Kinds() {
		t := tables[kind]
		if t.Len() == 0 {
			layers = append(layers, catasto.LayerResult{
				Layer:  kind.Layer(),
				Status: catasto.StatusSkipped,
				Reason: "no rows",
			})
			continue
		}
		if err := p.WriteLayer(ctx, kind.Layer(), t); err != nil {
			return layers, fmt.Errorf("writing %s to %s: %w", kind.Layer(), path, err)
		}
		layers = append(layers, catasto.LayerResult{
			Layer:  kind.Layer(),
			Status: catasto.StatusSucceeded,
			Rows:   t.Len(),
		})
		w.logger.Verbose("Wrote %d rows to %s in %s", t.Len(), kind.Layer(), path)
	}

	if err := p.Close(); err != nil {
		return layers, err
	}
	return layers, nil
}

// Consolidate concatenates each layer across the intermediate packages and
// writes the result to finalPath + ".tmp". Call Commit to move it into place.
// A package lacking a layer contributes nothing to it. Returns
// catasto.ErrNothingToWrite, and writes nothing, when no layer has rows.
func (w *PackageWriter) Consolidate(ctx context.Context, packages []string, finalPath string) ([]catasto.LayerResult, error) {
	merged := make(map[catasto.Kind]*feature.Table)
	reasons := make(map[catasto.Kind]string)

	for _, kind := range catasto.Kinds() {
		tables, err := w.readLayer(ctx, packages, kind.Layer())
		if err != nil {
			return nil, err
		}
		t, err := concatSameSRS(tables, kind, w.logger)
		if err != nil {
			reasons[kind] = err.Error()
			continue
		}
		merged[kind] = t
	}

	skipReason := func(kind catasto.Kind) string {
		if r := reasons[kind]; r != "" {
			return r
		}
		return "no rows in any region"
	}

	total := 0
	for _, t := range merged {
		total += t.Len()
	}
	if total == 0 {
		layers := make([]catasto.LayerResult, 0, len(catasto.Kinds()))
		for _, kind := range catasto.Kinds() {
			layers = append(layers, catasto.LayerResult{Layer: kind.Layer(), Status: catasto.StatusSkipped, Reason: skipReason(kind)})
		}
		return layers, catasto.ErrNothingToWrite
	}

	layers, err := w.WriteRegion(ctx, finalPath+tmpSuffix, merged)
	if err != nil {
		return layers, fmt.Errorf("writing final package: %w", err)
	}
	for i, kind := range catasto.Kinds() {
		if layers[i].Status == catasto.StatusSkipped {
			layers[i].Reason = skipReason(kind)
		}
	}
	return layers, nil
}

// readLayer reads one layer from each package, in package order.
func (w *PackageWriter) readLayer(ctx context.Context, packages []string, layer string) ([]*feature.Table, error) {
	var tables []*feature.Table
	for _, path := range packages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p, err := gpkg.Open(ctx, path)
		if err != nil {
			w.logger.Error("Failed to open %s: %v", path, err)
			continue
		}
		t, err := p.ReadLayer(ctx, layer)
		p.Close() //nolint:errcheck // read-only
		if errors.Is(err, gpkg.ErrLayerNotFound) {
			w.logger.Verbose("%s has no %s", path, layer)
			continue
		}
		if err != nil {
			w.logger.Error("Failed to read %s from %s: %v", layer, path, err)
			continue
		}
		tables = append(tables, t)
	}
	return tables, nil
}

// concatSameSRS joins tables in the reference system of the first non-empty
// one. Tables in a different system are left out and logged.
func concatSameSRS(tables []*feature.Table, kind catasto.Kind, logger catasto.Logger) (*feature.Table, error) {
	var (
		srid int
		keep []*feature.Table
	)
	for _, t := range tables {
		if t.Len() == 0 {
			continue
		}
		if srid == 0 {
			srid = t.SRID
		}
		if t.SRID != 0 && t.SRID != srid {
			logger.Error("Skipping %d %s rows in EPSG:%d, final layer is EPSG:%d", t.Len(), kind, t.SRID, srid)
			continue
		}
		keep = append(keep, t)
	}
	return feature.Concat(keep...)
}

// Commit moves the consolidated package into place at finalPath.
func (w *PackageWriter) Commit(finalPath string) error {
	if err := w.fsProvider.Rename(finalPath+tmpSuffix, finalPath); err != nil {
		return fmt.Errorf("moving final package into place: %w", err)
	}
	return nil
}

// Discard removes an uncommitted final package, if any.
func (w *PackageWriter) Discard(finalPath string) {
	if err := w.fsProvider.Remove(finalPath + tmpSuffix); err != nil {
		w.logger.Verbose("No temporary package to discard: %v", err)
	}
}

// Cleanup deletes the intermediate packages. Failures are logged and
// reported, never returned.
func (w *PackageWriter) Cleanup(packages []string) []catasto.CleanupResult {
	results := make([]catasto.CleanupResult, 0, len(packages))
	for _, path := range packages {
		res := catasto.CleanupResult{Path: path, Status: catasto.StatusSucceeded}
		if err := w.fsProvider.Remove(path); err != nil {
			res.Status = catasto.StatusFailed
			res.Reason = err.Error()
			w.logger.Error("Failed to delete %s: %v", path, err)
		} else {
			w.logger.Verbose("Deleted %s", path)
		}
		results = append(results, res)
	}
	return results
}
