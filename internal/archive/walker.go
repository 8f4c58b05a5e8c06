package archive

import (
	"fmt"
	"path/filepath"

	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
	"github.com/geodati/catasto2gpkg/pkg/catasto"
)

// Walker discovers top-level archives in a root directory.
type Walker struct {
	fsProvider filesystem.FileSystemProvider
	logger     catasto.Logger
}

// NewWalker creates a Walker on the OS filesystem.
// Panics if logger is nil.
func NewWalker(logger catasto.Logger) *Walker {
	return NewWalkerWithFS(filesystem.NewOSFileSystem(), logger)
}

// NewWalkerWithFS creates a Walker with a custom filesystem provider.
// Panics if fsProvider or logger is nil.
func NewWalkerWithFS(fsProvider filesystem.FileSystemProvider, logger catasto.Logger) *Walker {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Walker{fsProvider: fsProvider, logger: logger}
}

// Discover lists the direct entries of root in lexical order and groups the
// archives by region code. Sub-directories and other files are ignored.
// Regions are returned in the order their first archive was seen.
func (w *Walker) Discover(root string) ([]catasto.Region, error) {
	info, err := w.fsProvider.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", catasto.ErrInvalidRoot, root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", catasto.ErrInvalidRoot, root)
	}

	entries, err := w.fsProvider.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", catasto.ErrInvalidRoot, err)
	}

	var regions []catasto.Region
	index := make(map[string]int)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !catasto.IsArchiveName(name) {
			continue
		}

		code := catasto.RegionCode(name)
		if code == "" {
			w.logger.Verbose("Skipping %s: no region code in the name", name)
			continue
		}

		path := filepath.Join(root, name)
		if i, ok := index[code]; ok {
			regions[i].Archives = append(regions[i].Archives, path)
			w.logger.Verbose("Archive %s joins region %s", name, code)
			continue
		}
		index[code] = len(regions)
		regions = append(regions, catasto.Region{Code: code, Archives: []string{path}})
		w.logger.Verbose("Archive %s starts region %s", name, code)
	}
	return regions, nil
}
