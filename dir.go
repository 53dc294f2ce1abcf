package imagefs

import (
	"strings"

	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/internal/pathutil"
)

// DirEntry describes one child of a directory.
type DirEntry struct {
	Name  string
	Kind  Kind
	Inode InodeID
	Size  int
}

// IsDir reports whether the entry is a directory.
func (e DirEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

// Mkdir creates an empty directory at path. The parent must exist and be a
// directory with a free slot.
func (f *FS) Mkdir(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := f.create(path, KindDirectory)
	return f.finish("mkdir", path, err)
}

// Mkfile creates an empty file at path. The parent must exist and be a
// directory with a free slot.
func (f *FS) Mkfile(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, err := f.create(path, KindFile)
	return f.finish("mkfile", path, err)
}

// create links a new inode of kind k at path. The inode claim is undone if
// the parent has no free slot.
func (f *FS) create(path string, k Kind) (InodeID, error) {
	parentPath, leaf, err := pathutil.SplitLeaf(path)
	if err != nil {
		return NoInode, err
	}
	if err := pathutil.ValidateName(leaf, f.geom.NameMax); err != nil {
		return NoInode, err
	}

	parent, err := f.resolveKind(parentPath, KindDirectory)
	if err != nil {
		return NoInode, err
	}
	if f.lookup(parent, leaf) != NoInode {
		return NoInode, errors.New(errors.CodeAlreadyExists, "entry already exists")
	}

	id, err := f.allocInode()
	if err != nil {
		return NoInode, err
	}
	slot := f.freeSlot(parent)
	if slot < 0 {
		f.releaseInode(id)
		return NoInode, errors.WithContext(
			errors.New(errors.CodeDirectoryFull, "parent directory has no free slot"),
			"slots", f.geom.SlotsPerInode,
		)
	}

	n := &f.inodes[id]
	n.kind = k
	n.name = leaf
	n.parent = parent
	n.size = 0
	if k == KindDirectory {
		n.children = newSlots(f.geom.SlotsPerInode, NoInode)
	} else {
		n.blocks = newSlots(f.geom.SlotsPerInode, NoBlock)
	}
	f.inodes[parent].children[slot] = id
	return id, nil
}

// List returns one line per child of the directory at path, in slot order.
// Directories are written as "DIR name" and files as "FIL name", each
// followed by a newline. An empty directory yields "".
func (f *FS) List(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readDir(path)
	if err != nil {
		return "", f.finish("ls", path, err)
	}

	var b strings.Builder
	for _, e := range entries {
		if e.IsDir() {
			b.WriteString("DIR ")
		} else {
			b.WriteString("FIL ")
		}
		b.WriteString(e.Name)
		b.WriteByte('\n')
	}
	return b.String(), f.finish("ls", path, nil)
}

// ReadDir returns the children of the directory at path in slot order.
func (f *FS) ReadDir(path string) ([]DirEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.readDir(path)
	if err != nil {
		return nil, f.finish("readdir", path, err)
	}
	return entries, f.finish("readdir", path, nil)
}

func (f *FS) readDir(path string) ([]DirEntry, error) {
	dir, err := f.resolveKind(path, KindDirectory)
	if err != nil {
		return nil, err
	}

	var entries []DirEntry
	for _, child := range f.inodes[dir].children {
		if child == NoInode {
			continue
		}
		n := &f.inodes[child]
		entries = append(entries, DirEntry{
			Name:  n.name,
			Kind:  n.kind,
			Inode: child,
			Size:  n.size,
		})
	}
	return entries, nil
}

// Remove deletes the file or empty directory at path. A file's blocks are
// zeroed and returned to the free list. The root cannot be removed.
func (f *FS) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.finish("rm", path, f.remove(path))
}

func (f *FS) remove(path string) error {
	id, err := f.resolve(path)
	if err != nil {
		return err
	}
	if id == RootInode {
		return errors.New(errors.CodeInvalidPath, "the root directory cannot be removed")
	}

	n := &f.inodes[id]
	if n.kind == KindDirectory {
		for _, child := range n.children {
			if child != NoInode {
				return errors.New(errors.CodeDirectoryNotEmpty, "directory is not empty")
			}
		}
	}

	parent := &f.inodes[n.parent]
	for i, child := range parent.children {
		if child == id {
			parent.children[i] = NoInode
			break
		}
	}

	if n.kind == KindFile {
		for _, b := range n.blocks {
			if b != NoBlock {
				f.releaseBlock(b)
			}
		}
	}
	f.releaseInode(id)
	return nil
}
