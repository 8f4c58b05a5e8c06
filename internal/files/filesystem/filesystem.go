package filesystem

import (
	"io"
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// File is an open file that supports random access.
type File interface {
	io.Reader
	io.ReaderAt
	io.Closer

	// Stat returns the file's metadata.
	Stat() (FileInfo, error)
}

// FileSystemProvider is the set of filesystem operations used by the converter.
type FileSystemProvider interface {
	// Open opens a file for reading.
	Open(path string) (File, error)

	// ReadFile reads a specific file at the given path.
	ReadFile(path string) ([]byte, error)

	// ReadDir lists the direct entries of a directory, sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path.
	Stat(path string) (FileInfo, error)

	// WriteFile creates or truncates path and writes data to it.
	WriteFile(path string, data []byte) error

	// Remove deletes a file.
	Remove(path string) error

	// Rename moves oldPath to newPath, replacing newPath if it exists.
	Rename(oldPath, newPath string) error

	// MkdirTemp creates a new uniquely named directory inside dir.
	// An empty dir means the system temporary directory.
	MkdirTemp(dir, pattern string) (string, error)

	// RemoveAll deletes path and everything below it.
	RemoveAll(path string) error
}
