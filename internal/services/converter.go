package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/geodati/catasto2gpkg/internal/archive"
	"github.com/geodati/catasto2gpkg/internal/checksum"
	"github.com/geodati/catasto2gpkg/internal/feature"
	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/internal/observability"
	"github.com/geodati/catasto2gpkg/internal/pipeline"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

const scratchPattern = "catasto-%s-*"

// ConversionService implements the Converter interface.
// Thread-Safety: NOT safe for concurrent Convert() calls on the same instance.
type ConversionService struct {
	fsProvider filesystem.FileSystemProvider
	logger     catasto.Logger
	walker     *archive.Walker
	extractor  *archive.Extractor
	merger     *pipeline.Merger
	writer     *pipeline.PackageWriter

	clock    clockwork.Clock
	metrics  *observability.Metrics
	observer catasto.ProgressObserver
	newRunID func() string
}

// ServiceOption configures optional collaborators of a ConversionService.
type ServiceOption func(*ConversionService)

// WithClock replaces the wall clock used for report timings.
func WithClock(c clockwork.Clock) ServiceOption {
	return func(s *ConversionService) { s.clock = c }
}

// WithMetrics records run metrics into m.
func WithMetrics(m *observability.Metrics) ServiceOption {
	return func(s *ConversionService) { s.metrics = m }
}

// WithObserver reports region progress to o.
func WithObserver(o catasto.ProgressObserver) ServiceOption {
	return func(s *ConversionService) { s.observer = o }
}

// WithRunID replaces the generator of report run IDs.
func WithRunID(f func() string) ServiceOption {
	return func(s *ConversionService) { s.newRunID = f }
}

// NewConversionService creates a ConversionService. Panics on nil dependencies.
func NewConversionService(
	fsProvider filesystem.FileSystemProvider,
	repairer pipeline.Repairer,
	logger catasto.Logger,
	opts ...ServiceOption,
) *ConversionService {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if repairer == nil {
		panic("repairer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}

	s := &ConversionService{
		fsProvider: fsProvider,
		logger:     logger,
		clock:      clockwork.NewRealClock(),
		newRunID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.walker = archive.NewWalkerWithFS(fsProvider, logger)
	s.extractor = archive.NewExtractorWithFS(checksum.New(), fsProvider, logger)
	s.merger = pipeline.NewMerger(fsProvider, repairer, logger, s.metrics)
	s.writer = pipeline.NewPackageWriter(fsProvider, logger)
	return s
}

// Convert discovers the regions under config.RootDir, converts each into an
// intermediate package, consolidates them into the final package and deletes
// the intermediates.
//
// Only an invalid root, cancellation, or the absence of any data end the run
// with an error; everything else is recorded in the report.
func (s *ConversionService) Convert(ctx context.Context, config catasto.ConversionConfig) (*catasto.Report, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	report := &catasto.Report{
		RunID:     s.newRunID(),
		RootDir:   config.RootDir,
		StartedAt: s.clock.Now(),
	}
	defer func() {
		report.FinishedAt = s.clock.Now()
		if s.metrics != nil {
			s.metrics.RunDuration.Set(report.FinishedAt.Sub(report.StartedAt).Seconds())
		}
	}()

	regions, err := s.walker.Discover(config.RootDir)
	if err != nil {
		return report, err
	}
	s.logger.Info("Found %d region(s) in %s", len(regions), config.RootDir)

	var packages []string
	for _, region := range regions {
		if err := ctx.Err(); err != nil {
			s.abandon(config, packages, report)
			return report, fmt.Errorf("conversion interrupted before region %s: %w", region.Code, err)
		}
		if s.observer != nil {
			s.observer.RegionStarted(region.Code, len(region.Archives))
		}

		res := s.convertRegion(ctx, config, region)
		report.Regions = append(report.Regions, res)
		if res.Status == catasto.StatusSucceeded {
			packages = append(packages, res.Package)
		}
		if s.metrics != nil {
			s.metrics.Regions.WithLabelValues(string(res.Status)).Inc()
		}
		if s.observer != nil {
			s.observer.RegionFinished(res)
		}
	}
	if err := ctx.Err(); err != nil {
		s.abandon(config, packages, report)
		return report, fmt.Errorf("conversion interrupted: %w", err)
	}

	return report, s.finish(ctx, config, packages, report)
}

// abandon deletes the intermediate packages of an interrupted run unless
// they are to be kept.
func (s *ConversionService) abandon(config catasto.ConversionConfig, packages []string, report *catasto.Report) {
	if len(packages) == 0 {
		return
	}
	if config.KeepIntermediate {
		s.logger.Info("Interrupted, keeping %d intermediate package(s)", len(packages))
		return
	}
	s.logger.Info("Interrupted, removing %d intermediate package(s)", len(packages))
	report.Cleanup = s.writer.Cleanup(packages)
}

// finish consolidates the intermediate packages, removes them and moves the
// final package into place.
func (s *ConversionService) finish(ctx context.Context, config catasto.ConversionConfig, packages []string, report *catasto.Report) error {
	final := config.OutputPath()

	layers, err := s.writer.Consolidate(ctx, packages, final)
	report.Final = layers
	if err != nil {
		s.writer.Discard(final)
		if errors.Is(err, catasto.ErrNothingToWrite) {
			s.logger.Info("No region produced any rows, no package written")
		}
		return err
	}

	if config.KeepIntermediate {
		s.logger.Verbose("Keeping %d intermediate package(s)", len(packages))
	} else {
		report.Cleanup = s.writer.Cleanup(packages)
	}

	if err := s.writer.Commit(final); err != nil {
		return err
	}
	report.Output = final

	for _, l := range layers {
		if s.metrics != nil {
			s.metrics.LayerRows.WithLabelValues(l.Layer).Set(float64(l.Rows))
		}
	}
	s.logger.Info("Wrote %s", final)
	return nil
}

func (s *ConversionService) convertRegion(ctx context.Context, config catasto.ConversionConfig, region catasto.Region) (res catasto.RegionResult) {
	start := s.clock.Now()
	res.Code = region.Code
	defer func() { res.Duration = s.clock.Since(start) }()

	s.logger.Info("Processing region %s (%d archive(s))", region.Code, len(region.Archives))

	scratch, err := s.fsProvider.MkdirTemp(config.ScratchDir, fmt.Sprintf(scratchPattern, region.Code))
	if err != nil {
		return failRegion(res, fmt.Errorf("creating scratch directory: %w", err), s.logger)
	}
	defer func() {
		if err := s.fsProvider.RemoveAll(scratch); err != nil {
			s.logger.Error("Failed to remove scratch directory %s: %v", scratch, err)
		}
	}()

	var extracted []catasto.ExtractedFile
	for _, path := range region.Archives {
		files, ar := s.extractor.Extract(ctx, path, scratch, region.Code)
		res.Archives = append(res.Archives, ar)
		extracted = append(extracted, files...)
		if s.metrics != nil {
			s.metrics.Archives.WithLabelValues(string(ar.Status)).Inc()
		}
	}
	if err := ctx.Err(); err != nil {
		return failRegion(res, err, s.logger)
	}
	if len(extracted) == 0 {
		return skipRegion(res, "no _ple.gml/_map.gml entries", s.logger)
	}

	tables := make(map[catasto.Kind]*feature.Table)
	for _, kind := range catasto.Kinds() {
		t, files := s.merger.Merge(ctx, kind, filesOfKind(extracted, kind))
		res.Files = append(res.Files, files...)
		if t.Len() > 0 {
			tables[kind] = t
		}
	}
	if err := ctx.Err(); err != nil {
		return failRegion(res, err, s.logger)
	}
	if len(tables) == 0 {
		return skipRegion(res, "no valid rows", s.logger)
	}

	path := catasto.IntermediatePackagePath(config.RootDir, region.Code)
	layers, err := s.writer.WriteRegion(ctx, path, tables)
	res.Layers = layers
	if err != nil {
		if rmErr := s.fsProvider.Remove(path); rmErr != nil {
			s.logger.Verbose("No partial package to remove: %v", rmErr)
		}
		return failRegion(res, err, s.logger)
	}

	res.Status = catasto.StatusSucceeded
	res.Package = path
	s.logger.Verbose("Region %s written to %s", region.Code, path)
	return res
}

func filesOfKind(files []catasto.ExtractedFile, kind catasto.Kind) []catasto.ExtractedFile {
	var out []catasto.ExtractedFile
	for _, f := range files {
		if f.Kind == kind {
			out = append(out, f)
		}
	}
	return out
}

func skipRegion(res catasto.RegionResult, reason string, logger catasto.Logger) catasto.RegionResult {
	res.Status = catasto.StatusSkipped
	res.Reason = reason
	logger.Info("Region %s skipped: %s", res.Code, reason)
	return res
}

func failRegion(res catasto.RegionResult, err error, logger catasto.Logger) catasto.RegionResult {
	res.Status = catasto.StatusFailed
	res.Reason = err.Error()
	logger.Error("Region %s failed: %v", res.Code, err)
	return res
}
