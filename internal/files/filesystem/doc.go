// Package filesystem provides the filesystem abstraction used by archive
// discovery, extraction, and cleanup.
//
// Key types:
//   - FileSystemProvider: the operations the converter performs on disk
//   - File: a readable, seekable file handle (archive/zip needs ReaderAt)
//   - FileInfo: file metadata, an alias for fs.FileInfo
//
// Implementations:
//   - OSFileSystem: production implementation using the OS filesystem
//   - MemoryFileSystem: in-memory implementation for testing
package filesystem
