package filesystem

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory files
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

type memoryEntry struct {
	content []byte
	info    *memoryFileInfo
}

// memoryFile is an open handle on an in-memory file.
type memoryFile struct {
	*bytes.Reader
	info *memoryFileInfo
}

func (f *memoryFile) Stat() (FileInfo, error) { return f.info, nil }
func (f *memoryFile) Close() error            { return nil }

// MemoryFileSystem implements FileSystemProvider for in-memory testing.
// Paths are virtual and always use forward slashes.
type MemoryFileSystem struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry // absolute path -> entry
	root    string
	tempSeq int
}

// NewMemoryFileSystem creates a new in-memory filesystem.
// The root path is normalized to use forward slashes for virtual filesystem consistency.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))

	mfs := &MemoryFileSystem{
		entries: make(map[string]*memoryEntry),
		root:    root,
	}
	mfs.entries[root] = dirEntry(root)
	return mfs
}

func dirEntry(p string) *memoryEntry {
	return &memoryEntry{info: &memoryFileInfo{
		name:    path.Base(p),
		mode:    0o755 | fs.ModeDir,
		modTime: time.Now(),
		isDir:   true,
	}}
}

// AddFile adds a file to the in-memory filesystem. Relative paths are
// resolved against the root.
func (mfs *MemoryFileSystem) AddFile(filePath string, content []byte) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	mfs.put(mfs.abs(filePath), content)
}

// AddDir adds an empty directory.
func (mfs *MemoryFileSystem) AddDir(dirPath string) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	abs := mfs.abs(dirPath)
	mfs.entries[abs] = dirEntry(abs)
	mfs.ensureDirectoriesExist(abs)
}

// Paths returns every file path (not directories) in sorted order.
func (mfs *MemoryFileSystem) Paths() []string {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	var out []string
	for p, e := range mfs.entries {
		if !e.info.isDir {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}

func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mfs.root
	}
	if !path.IsAbs(p) {
		p = path.Join(mfs.root, p)
	}
	return path.Clean(p)
}

func (mfs *MemoryFileSystem) put(abs string, content []byte) {
	data := append([]byte(nil), content...)
	mfs.entries[abs] = &memoryEntry{
		content: data,
		info: &memoryFileInfo{
			name:    path.Base(abs),
			size:    int64(len(data)),
			mode:    0o644,
			modTime: time.Now(),
		},
	}
	mfs.ensureDirectoriesExist(abs)
}

// ensureDirectoriesExist creates directory entries for all parent directories
func (mfs *MemoryFileSystem) ensureDirectoriesExist(filePath string) {
	dir := path.Dir(filePath)
	if dir == "." || dir == filePath {
		return
	}
	if _, exists := mfs.entries[dir]; exists {
		return
	}
	mfs.entries[dir] = dirEntry(dir)
	mfs.ensureDirectoriesExist(dir)
}

func (mfs *MemoryFileSystem) lookup(p string) (*memoryEntry, error) {
	e, ok := mfs.entries[mfs.abs(p)]
	if !ok {
		return nil, &fs.PathError{Op: "stat", Path: p, Err: fs.ErrNotExist}
	}
	return e, nil
}

func (mfs *MemoryFileSystem) Open(filePath string) (File, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	e, err := mfs.lookup(filePath)
	if err != nil {
		return nil, err
	}
	if e.info.isDir {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return &memoryFile{Reader: bytes.NewReader(e.content), info: e.info}, nil
}

func (mfs *MemoryFileSystem) ReadFile(filePath string) ([]byte, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	e, err := mfs.lookup(filePath)
	if err != nil {
		return nil, err
	}
	if e.info.isDir {
		return nil, fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	return append([]byte(nil), e.content...), nil
}

func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	e, err := mfs.lookup(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory: %w", err)
	}
	if !e.info.isDir {
		return nil, fmt.Errorf("failed to read directory: not a directory: %s", dirPath)
	}

	abs := mfs.abs(dirPath)
	var result []FileInfo
	for p, child := range mfs.entries {
		if p != abs && path.Dir(p) == abs {
			result = append(result, child.info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	e, err := mfs.lookup(statPath)
	if err != nil {
		return nil, err
	}
	return e.info, nil
}

func (mfs *MemoryFileSystem) WriteFile(filePath string, data []byte) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	abs := mfs.abs(filePath)
	if parent, ok := mfs.entries[path.Dir(abs)]; !ok || !parent.info.isDir {
		return &fs.PathError{Op: "open", Path: filePath, Err: fs.ErrNotExist}
	}
	mfs.put(abs, data)
	return nil
}

func (mfs *MemoryFileSystem) Remove(filePath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	abs := mfs.abs(filePath)
	if _, ok := mfs.entries[abs]; !ok {
		return &fs.PathError{Op: "remove", Path: filePath, Err: fs.ErrNotExist}
	}
	for p := range mfs.entries {
		if strings.HasPrefix(p, abs+"/") {
			return fmt.Errorf("remove %s: directory not empty", filePath)
		}
	}
	delete(mfs.entries, abs)
	return nil
}

func (mfs *MemoryFileSystem) Rename(oldPath, newPath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	from, to := mfs.abs(oldPath), mfs.abs(newPath)
	e, ok := mfs.entries[from]
	if !ok {
		return &fs.PathError{Op: "rename", Path: oldPath, Err: fs.ErrNotExist}
	}
	if e.info.isDir {
		return fmt.Errorf("rename %s: directories are not supported", oldPath)
	}
	delete(mfs.entries, from)
	mfs.put(to, e.content)
	return nil
}

func (mfs *MemoryFileSystem) MkdirTemp(dir, pattern string) (string, error) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	if dir == "" {
		dir = "/tmp"
	}
	for {
		mfs.tempSeq++
		name := strings.Replace(pattern, "*", fmt.Sprint(mfs.tempSeq), 1)
		if !strings.Contains(pattern, "*") {
			name = pattern + fmt.Sprint(mfs.tempSeq)
		}
		abs := mfs.abs(path.Join(filepath.ToSlash(dir), name))
		if _, exists := mfs.entries[abs]; exists {
			continue
		}
		mfs.entries[abs] = dirEntry(abs)
		mfs.ensureDirectoriesExist(abs)
		return abs, nil
	}
}

func (mfs *MemoryFileSystem) RemoveAll(dirPath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()
	abs := mfs.abs(dirPath)
	for p := range mfs.entries {
		if p == abs || strings.HasPrefix(p, abs+"/") {
			delete(mfs.entries, p)
		}
	}
	return nil
}
