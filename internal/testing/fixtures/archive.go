package fixtures

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

type zipEntry struct {
	name string
	data []byte
}

// ZipBuilder assembles a ZIP archive in memory, keeping entry order.
//
// Example usage:
//
//	NewZipBuilder().
//	    AddZip("F229.zip", NewZipBuilder().
//	        Add("F229_Venezia_ple.gml", Parcels().AddFeature(...).Bytes())).
//	    Add("LEGGIMI.txt", []byte("...")).
//	    WriteFile(t, filepath.Join(root, "VE_F229.zip"))
type ZipBuilder struct {
	entries []zipEntry
}

// NewZipBuilder creates an empty archive builder.
func NewZipBuilder() *ZipBuilder {
	return &ZipBuilder{}
}

// Add adds a file entry. Names may contain directories.
func (b *ZipBuilder) Add(name string, data []byte) *ZipBuilder {
	b.entries = append(b.entries, zipEntry{name: name, data: data})
	return b
}

// AddDir adds a directory entry.
func (b *ZipBuilder) AddDir(name string) *ZipBuilder {
	b.entries = append(b.entries, zipEntry{name: name + "/"})
	return b
}

// AddZip adds a nested archive as an entry.
func (b *ZipBuilder) AddZip(name string, inner *ZipBuilder) *ZipBuilder {
	return b.Add(name, inner.Bytes())
}

// Bytes renders the archive. It panics on write errors, which cannot
// happen with an in-memory buffer.
func (b *ZipBuilder) Bytes() []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range b.entries {
		w, err := zw.Create(e.name)
		if err != nil {
			panic(err)
		}
		if _, err := w.Write(e.data); err != nil {
			panic(err)
		}
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// WriteFile writes the archive to path, creating parent directories.
func (b *ZipBuilder) WriteFile(t testing.TB, path string) string {
	t.Helper()
	writeFile(t, path, b.Bytes())
	return path
}

func writeFile(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
