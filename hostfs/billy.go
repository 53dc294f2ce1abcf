package hostfs

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
)

// BillyFS adapts a billy.Filesystem to FS.
type BillyFS struct {
	bfs billy.Filesystem
	typ Type
}

var _ FS = (*BillyFS)(nil)

// NewLocal creates a disk-backed filesystem rooted at root.
func NewLocal(root string) *BillyFS {
	return &BillyFS{
		bfs: osfs.New(root),
		typ: TypeLocal,
	}
}

// NewMemory creates an empty in-memory filesystem.
func NewMemory() *BillyFS {
	return &BillyFS{
		bfs: memfs.New(),
		typ: TypeMemory,
	}
}

// Unwrap returns the underlying billy.Filesystem.
func (b *BillyFS) Unwrap() billy.Filesystem {
	return b.bfs
}

// Type returns the kind of storage backing the filesystem.
func (b *BillyFS) Type() Type {
	return b.typ
}

// normalize converts paths to use forward slashes consistently.
func normalize(path string) string {
	return filepath.ToSlash(filepath.Clean(path))
}

// ReadFile reads the named file and returns its contents.
func (b *BillyFS) ReadFile(name string) ([]byte, error) {
	f, err := b.bfs.Open(normalize(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(f)
}

// WriteFile writes data to the named file, creating it if necessary.
func (b *BillyFS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	f, err := b.bfs.OpenFile(normalize(name), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Stat returns file metadata for the named file.
func (b *BillyFS) Stat(name string) (fs.FileInfo, error) {
	return b.bfs.Stat(normalize(name))
}

// Remove removes the named file or empty directory.
func (b *BillyFS) Remove(name string) error {
	return b.bfs.Remove(normalize(name))
}

// Rename moves oldpath to newpath.
func (b *BillyFS) Rename(oldpath, newpath string) error {
	return b.bfs.Rename(normalize(oldpath), normalize(newpath))
}

// MkdirAll creates a directory named path, along with any necessary parents.
func (b *BillyFS) MkdirAll(path string, perm fs.FileMode) error {
	return b.bfs.MkdirAll(normalize(path), perm)
}
