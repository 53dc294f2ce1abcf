package imagefs

import (
	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/internal/pathutil"
)

// resolve walks path from the root and returns the inode it names.
func (f *FS) resolve(path string) (InodeID, error) {
	segments, err := pathutil.Split(path)
	if err != nil {
		return NoInode, err
	}

	cur := RootInode
	for i, seg := range segments {
		if f.inodes[cur].kind != KindDirectory {
			return NoInode, errors.WithContext(
				errors.New(errors.CodeNotADirectory, "path component is not a directory"),
				"component", pathutil.Join(segments[:i]),
			)
		}
		next := f.lookup(cur, seg)
		if next == NoInode {
			return NoInode, errors.WithContext(
				errors.New(errors.CodeNotFound, "no such entry"),
				"component", pathutil.Join(segments[:i+1]),
			)
		}
		cur = next
	}
	return cur, nil
}

// resolveKind resolves path and requires the result to be of kind k.
func (f *FS) resolveKind(path string, k Kind) (InodeID, error) {
	id, err := f.resolve(path)
	if err != nil {
		return NoInode, err
	}
	if got := f.inodes[id].kind; got != k {
		code := errors.CodeNotAFile
		if k == KindDirectory {
			code = errors.CodeNotADirectory
		}
		return NoInode, errors.Newf(code, "entry is a %s", got)
	}
	return id, nil
}

// lookup returns the child of dir called name, or NoInode.
func (f *FS) lookup(dir InodeID, name string) InodeID {
	for _, child := range f.inodes[dir].children {
		if child != NoInode && f.inodes[child].name == name {
			return child
		}
	}
	return NoInode
}

// freeSlot returns the index of the first empty slot of dir, or -1.
func (f *FS) freeSlot(dir InodeID) int {
	for i, child := range f.inodes[dir].children {
		if child == NoInode {
			return i
		}
	}
	return -1
}
