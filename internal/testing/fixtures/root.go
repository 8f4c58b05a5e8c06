package fixtures

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/geodati/catasto2gpkg/internal/files/filesystem"
)

// RootBuilder provides a fluent API for building a root directory of
// top-level cadastral archives.
//
// Example usage:
//
//	fs := NewRootBuilder().
//	    AddArchive("VE_F229.zip", VeneziaArchive()).
//	    AddFile("notes.txt", []byte("ignored")).
//	    BuildMemory("/data/veneto")
type RootBuilder struct {
	files map[string][]byte // name -> content
}

// NewRootBuilder creates an empty root.
func NewRootBuilder() *RootBuilder {
	return &RootBuilder{files: make(map[string][]byte)}
}

// AddArchive adds a top-level archive.
func (b *RootBuilder) AddArchive(name string, archive *ZipBuilder) *RootBuilder {
	b.files[name] = archive.Bytes()
	return b
}

// AddFile adds an arbitrary file.
func (b *RootBuilder) AddFile(name string, content []byte) *RootBuilder {
	b.files[name] = content
	return b
}

// Names returns the file names in lexical order.
func (b *RootBuilder) Names() []string {
	names := make([]string, 0, len(b.files))
	for name := range b.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildMemory returns an in-memory filesystem holding the root at dir.
func (b *RootBuilder) BuildMemory(dir string) *filesystem.MemoryFileSystem {
	fs := filesystem.NewMemoryFileSystem(dir)
	fs.AddDir(dir)
	for name, content := range b.files {
		fs.AddFile(filepath.Join(dir, name), content)
	}
	return fs
}

// WriteDir writes the root to dir on disk and returns dir.
func (b *RootBuilder) WriteDir(t testing.TB, dir string) string {
	t.Helper()
	for _, name := range b.Names() {
		writeFile(t, filepath.Join(dir, name), b.files[name])
	}
	return dir
}

// VeneziaParcels holds three parcels, the last one self-intersecting.
func VeneziaParcels() *GMLBuilder {
	return Parcels().
		AddFeature("IT.AGE.PLA.F229_000100.1", Square(45.40, 12.30, 0.01), "label", "1").
		AddFeature("IT.AGE.PLA.F229_000100.2", Square(45.42, 12.30, 0.01), "label", "2").
		AddFeature("IT.AGE.PLA.F229_000100.3", Bowtie(45.44, 12.30, 0.01), "label", "3")
}

// VeneziaSheets holds two map sheets.
func VeneziaSheets() *GMLBuilder {
	return MapSheets().
		AddFeature("IT.AGE.MAP.F229_000100", Square(45.40, 12.30, 0.05), "label", "100").
		AddFeature("IT.AGE.MAP.F229_000200", Square(45.50, 12.30, 0.05), "label", "200")
}

// VeneziaArchive is a top-level archive with one nested archive holding
// VeneziaParcels, VeneziaSheets and an unrelated PDF.
func VeneziaArchive() *ZipBuilder {
	return NewZipBuilder().
		AddZip("F229_000100.zip", NewZipBuilder().
			Add("F229_Venezia_000100_ple.gml", VeneziaParcels().Bytes()).
			Add("F229_Venezia_000100_map.gml", VeneziaSheets().Bytes()).
			Add("F229_Venezia_000100.pdf", []byte("%PDF")))
}

// EmptyArchive is a top-level archive whose nested archive has no GML.
func EmptyArchive() *ZipBuilder {
	return NewZipBuilder().
		AddZip("inner.zip", NewZipBuilder().Add("README.txt", []byte("nothing here")))
}

// StandardVeneto is a root with one convertible region (VE) and one region
// without GML entries (TV).
func StandardVeneto() *RootBuilder {
	return NewRootBuilder().
		AddArchive("TV_L407.zip", EmptyArchive()).
		AddArchive("VE_F229.zip", VeneziaArchive()).
		AddFile("LEGGIMI.txt", []byte("readme"))
}
