package archive

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/geodati/catasto2gpkg/internal/checksum"
	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// maxEntrySize caps how much of a single ZIP member is read into memory.
const maxEntrySize = 2 << 30

// Extractor unpacks GML files from nested archives into a scratch directory.
type Extractor struct {
	calculator checksum.Calculator
	fsProvider filesystem.FileSystemProvider
	logger     catasto.Logger
}

// NewExtractor creates an Extractor on the OS filesystem.
// Panics if calculator or logger is nil.
func NewExtractor(calculator checksum.Calculator, logger catasto.Logger) *Extractor {
	return NewExtractorWithFS(calculator, filesystem.NewOSFileSystem(), logger)
}

// NewExtractorWithFS creates an Extractor with a custom filesystem provider.
// Panics if any argument is nil.
func NewExtractorWithFS(calculator checksum.Calculator, fsProvider filesystem.FileSystemProvider, logger catasto.Logger) *Extractor {
	if calculator == nil {
		panic("calculator cannot be nil")
	}
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Extractor{calculator: calculator, fsProvider: fsProvider, logger: logger}
}

// Extract writes every *_ple.gml and *_map.gml member of the archives nested in
// archivePath to scratchDir as "<seq>_<basename>". Failures are reported in
// the result rather than returned: a broken outer archive fails the result,
// a broken nested archive fails only its entry.
func (e *Extractor) Extract(ctx context.Context, archivePath, scratchDir, region string) ([]catasto.ExtractedFile, catasto.ArchiveResult) {
	result := catasto.ArchiveResult{Path: archivePath, Status: catasto.StatusSucceeded}
	fail := func(format string, args ...any) ([]catasto.ExtractedFile, catasto.ArchiveResult) {
		result.Status = catasto.StatusFailed
		result.Reason = fmt.Sprintf(format, args...)
		e.logger.Error("%s: %s", filepath.Base(archivePath), result.Reason)
		return nil, result
	}

	f, err := e.fsProvider.Open(archivePath)
	if err != nil {
		return fail("failed to open archive: %v", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fail("failed to stat archive: %v", err)
	}
	sum, err := e.calculator.CalculateReader(f)
	if err != nil {
		return fail("failed to checksum archive: %v", err)
	}
	result.Checksum = sum

	outer, err := zip.NewReader(f, info.Size())
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fail("not a valid ZIP archive: %v", err)
	}

	seq, err := e.nextSequence(scratchDir)
	if err != nil {
		return fail("failed to read scratch directory: %v", err)
	}

	var files []catasto.ExtractedFile
	nested := 0
	for _, member := range outer.File {
		if err := ctx.Err(); err != nil {
			result.Status = catasto.StatusFailed
			result.Reason = err.Error()
			return files, result
		}
		if member.FileInfo().IsDir() || !catasto.IsArchiveName(member.Name) {
			continue
		}
		nested++

		entry, extracted := e.extractNested(member, scratchDir, region, &seq)
		files = append(files, extracted...)
		result.Entries = append(result.Entries, entry)
		result.Extracted += entry.Extracted
	}

	switch {
	case nested == 0:
		result.Status = catasto.StatusSkipped
		result.Reason = "no nested archives"
	case allFailed(result.Entries):
		result.Status = catasto.StatusFailed
		result.Reason = "every nested archive failed"
	}
	e.logger.Verbose("%s: %d nested archive(s), %d GML file(s) extracted",
		filepath.Base(archivePath), nested, result.Extracted)
	return files, result
}

func (e *Extractor) extractNested(member *zip.File, scratchDir, region string, seq *int) (catasto.EntryResult, []catasto.ExtractedFile) {
	entry := catasto.EntryResult{Name: member.Name, Status: catasto.StatusSucceeded}
	fail := func(format string, args ...any) (catasto.EntryResult, []catasto.ExtractedFile) {
		entry.Status = catasto.StatusFailed
		entry.Reason = fmt.Sprintf(format, args...)
		e.logger.Error("%s: %s", member.Name, entry.Reason)
		return entry, nil
	}

	data, err := readMember(member)
	if err != nil {
		return fail("failed to read nested archive: %v", err)
	}
	// Member names are reduced to their base name below, so insecure paths are harmless.
	inner, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil && !errors.Is(err, zip.ErrInsecurePath) {
		return fail("not a valid ZIP archive: %v", err)
	}

	var files []catasto.ExtractedFile
	for _, gml := range inner.File {
		if gml.FileInfo().IsDir() {
			continue
		}
		base := path.Base(strings.ReplaceAll(gml.Name, `\`, "/"))
		kind, ok := catasto.KindForName(base)
		if !ok {
			continue
		}

		content, err := readMember(gml)
		if err != nil {
			entry.Status = catasto.StatusFailed
			entry.Reason = fmt.Sprintf("failed to read %s: %v", base, err)
			e.logger.Error("%s: %s", member.Name, entry.Reason)
			continue
		}

		*seq++
		dest := filepath.Join(scratchDir, fmt.Sprintf("%d_%s", *seq, base))
		if err := e.fsProvider.WriteFile(dest, content); err != nil {
			entry.Status = catasto.StatusFailed
			entry.Reason = fmt.Sprintf("failed to write %s: %v", base, err)
			e.logger.Error("%s: %s", member.Name, entry.Reason)
			continue
		}

		files = append(files, catasto.ExtractedFile{
			Path:         dest,
			OriginalName: base,
			Region:       region,
			Kind:         kind,
		})
		entry.Extracted++
		e.logger.Verbose("Extracted %s from %s", base, member.Name)
	}
	return entry, files
}

// nextSequence returns the number of entries already in dir, so names written
// by an earlier archive of the same region are never reused.
func (e *Extractor) nextSequence(dir string) (int, error) {
	entries, err := e.fsProvider.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

func readMember(f *zip.File) ([]byte, error) {
	if f.UncompressedSize64 > maxEntrySize {
		return nil, fmt.Errorf("entry %s is larger than %d bytes", f.Name, int64(maxEntrySize))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, maxEntrySize+1))
}

func allFailed(entries []catasto.EntryResult) bool {
	for _, e := range entries {
		if e.Status != catasto.StatusFailed {
			return false
		}
	}
	return len(entries) > 0
}
