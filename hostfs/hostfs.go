package hostfs

import "io/fs"

// Type identifies the storage behind an FS.
type Type int

const (
	// TypeUnknown indicates the backing storage is unspecified.
	TypeUnknown Type = iota
	// TypeLocal indicates a disk-backed filesystem.
	TypeLocal
	// TypeMemory indicates an in-memory filesystem.
	TypeMemory
)

// String returns a string representation of the Type.
func (t Type) String() string {
	switch t {
	case TypeLocal:
		return "local"
	case TypeMemory:
		return "memory"
	default:
		return "unknown"
	}
}

// FS is the set of host operations the image needs.
type FS interface {
	// ReadFile reads the named file and returns its contents.
	ReadFile(name string) ([]byte, error)

	// WriteFile writes data to the named file, creating or truncating it.
	// Missing parent directories are created.
	WriteFile(name string, data []byte, perm fs.FileMode) error

	// Stat returns file metadata for the named file.
	Stat(name string) (fs.FileInfo, error)

	// Remove removes the named file or empty directory.
	Remove(name string) error

	// Rename moves oldpath to newpath, replacing any existing file.
	Rename(oldpath, newpath string) error

	// MkdirAll creates a directory along with any necessary parents.
	MkdirAll(path string, perm fs.FileMode) error

	// Type returns the kind of storage backing the filesystem.
	Type() Type
}
