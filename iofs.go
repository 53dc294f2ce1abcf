package imagefs

import (
	"bytes"
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/jmgilman/go/imagefs/errors"
)

// IOFS returns a read-only io/fs view of the image. Names follow io/fs
// conventions: unrooted, slash-separated, with "." naming the root. The
// view also implements fs.StatFS, fs.ReadDirFS and fs.ReadFileFS.
//
// Entries named "." or ".." are valid in the image but cannot be named
// through io/fs, so the view omits them and everything beneath them.
//
// Files opened through the view are snapshots taken at Open time.
func (f *FS) IOFS() fs.FS {
	return &ioFS{f: f}
}

type ioFS struct {
	f *FS
}

var (
	_ fs.StatFS     = (*ioFS)(nil)
	_ fs.ReadDirFS  = (*ioFS)(nil)
	_ fs.ReadFileFS = (*ioFS)(nil)
)

// imagePath converts an io/fs name to an absolute image path.
func imagePath(op, name string) (string, error) {
	if !fs.ValidPath(name) {
		return "", &fs.PathError{Op: op, Path: name, Err: fs.ErrInvalid}
	}
	if name == "." {
		return "/", nil
	}
	return "/" + name, nil
}

// pathError maps an image error to the io/fs error vocabulary.
func pathError(op, name string, err error) error {
	target := fs.ErrInvalid
	switch errors.GetCode(err) {
	case errors.CodeNotFound, errors.CodeNotADirectory:
		target = fs.ErrNotExist
	}
	return &fs.PathError{Op: op, Path: name, Err: wrappedError{target: target, err: err}}
}

// wrappedError matches both the io/fs sentinel and the original error.
type wrappedError struct {
	target error
	err    error
}

func (w wrappedError) Error() string   { return w.err.Error() }
func (w wrappedError) Unwrap() []error { return []error{w.target, w.err} }

func (v *ioFS) Open(name string) (fs.File, error) {
	p, err := imagePath("open", name)
	if err != nil {
		return nil, err
	}

	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	id, err := v.f.resolve(p)
	if err != nil {
		return nil, pathError("open", name, err)
	}
	info := v.f.fileInfo(id)

	if info.IsDir() {
		entries, err := v.f.dirEntries(p)
		if err != nil {
			return nil, pathError("open", name, err)
		}
		return &openDir{info: info, entries: entries}, nil
	}
	return &openFile{info: info, Reader: bytes.NewReader(v.f.readFile(id))}, nil
}

func (v *ioFS) Stat(name string) (fs.FileInfo, error) {
	p, err := imagePath("stat", name)
	if err != nil {
		return nil, err
	}

	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	id, err := v.f.resolve(p)
	if err != nil {
		return nil, pathError("stat", name, err)
	}
	return v.f.fileInfo(id), nil
}

func (v *ioFS) ReadDir(name string) ([]fs.DirEntry, error) {
	p, err := imagePath("readdir", name)
	if err != nil {
		return nil, err
	}

	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	entries, err := v.f.dirEntries(p)
	if err != nil {
		return nil, pathError("readdir", name, err)
	}
	return entries, nil
}

func (v *ioFS) ReadFile(name string) ([]byte, error) {
	p, err := imagePath("readfile", name)
	if err != nil {
		return nil, err
	}

	v.f.mu.Lock()
	defer v.f.mu.Unlock()

	id, err := v.f.resolveKind(p, KindFile)
	if err != nil {
		return nil, pathError("readfile", name, err)
	}
	return v.f.readFile(id), nil
}

// dirEntries returns the children of the directory at p sorted by name,
// skipping names io/fs cannot address.
func (f *FS) dirEntries(p string) ([]fs.DirEntry, error) {
	children, err := f.readDir(p)
	if err != nil {
		return nil, err
	}
	entries := make([]fs.DirEntry, 0, len(children))
	for _, c := range children {
		if !fs.ValidPath(c.Name) {
			continue
		}
		entries = append(entries, fs.FileInfoToDirEntry(f.fileInfo(c.Inode)))
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		return strings.Compare(a.Name(), b.Name())
	})
	return entries, nil
}

func (f *FS) fileInfo(id InodeID) *fileInfo {
	n := &f.inodes[id]
	name := n.name
	if id == RootInode {
		name = "."
	}
	return &fileInfo{name: name, size: int64(n.size), dir: n.kind == KindDirectory}
}

type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (i *fileInfo) Name() string { return i.name }
func (i *fileInfo) Size() int64  { return i.size }
func (i *fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}
func (i *fileInfo) ModTime() time.Time { return time.Time{} }
func (i *fileInfo) IsDir() bool        { return i.dir }
func (i *fileInfo) Sys() any           { return nil }

// openFile is a snapshot of a file's contents.
type openFile struct {
	*bytes.Reader
	info *fileInfo
}

func (o *openFile) Stat() (fs.FileInfo, error) { return o.info, nil }
func (o *openFile) Close() error               { return nil }

// openDir is a snapshot of a directory's entries.
type openDir struct {
	info    *fileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *openDir) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *openDir) Close() error               { return nil }

func (d *openDir) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: errIsDir}
}

func (d *openDir) ReadDir(count int) ([]fs.DirEntry, error) {
	remaining := d.entries[d.offset:]
	if count <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	count = min(count, len(remaining))
	d.offset += count
	return remaining[:count], nil
}

var errIsDir = errors.New(errors.CodeNotAFile, "is a directory")
