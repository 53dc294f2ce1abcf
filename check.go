package imagefs

import (
	"github.com/jmgilman/go/imagefs/errors"
)

// Check verifies the structural consistency of the image and returns a
// CodeCorrupted error describing the first problem found.
func (f *FS) Check() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := f.check(); err != nil {
		f.logger.Debug("consistency check failed", "error", err)
		return err
	}
	return nil
}

func corrupted(format string, args ...interface{}) error {
	return errors.Newf(errors.CodeCorrupted, format, args...)
}

func (f *FS) check() error {
	g := f.geom

	root := &f.inodes[RootInode]
	if root.kind != KindDirectory {
		return corrupted("root inode is a %s", root.kind)
	}
	if root.parent != NoInode {
		return corrupted("root inode has parent %d", root.parent)
	}

	if want := g.Inodes - int(f.inodeMap.Count()); f.sb.FreeInodes != want {
		return corrupted("superblock reports %d free inodes, inode map has %d", f.sb.FreeInodes, want)
	}
	if want := g.Blocks - int(f.blockMap.Count()); f.sb.FreeBlocks != want {
		return corrupted("superblock reports %d free blocks, block map has %d", f.sb.FreeBlocks, want)
	}

	// refs counts directory slots pointing at each inode; owner records the
	// file holding each block.
	refs := make([]int, g.Inodes)
	owner := newSlots(g.Blocks, NoInode)

	for i := range f.inodes {
		id := InodeID(i)
		n := &f.inodes[i]
		used := f.inodeMap.Test(uint(i))

		if n.kind == KindFree {
			if used {
				return corrupted("free inode %d is marked in use", id)
			}
			if n.name != "" || n.parent != NoInode || n.size != 0 || n.children != nil || n.blocks != nil {
				return corrupted("free inode %d is not cleared", id)
			}
			continue
		}
		if !used {
			return corrupted("inode %d is allocated but marked free", id)
		}

		if id != RootInode {
			if n.parent == NoInode || f.inodes[n.parent].kind != KindDirectory {
				return corrupted("inode %d has no parent directory", id)
			}
			if n.name == "" || len(n.name) > g.NameMax {
				return corrupted("inode %d has an invalid name", id)
			}
		}

		switch n.kind {
		case KindDirectory:
			if err := f.checkDirectory(id, refs); err != nil {
				return err
			}
		case KindFile:
			if err := f.checkFile(id, owner); err != nil {
				return err
			}
		}
	}

	for i := range f.inodes {
		id := InodeID(i)
		switch {
		case f.inodes[i].kind == KindFree:
		case id == RootInode && refs[i] != 0:
			return corrupted("root directory is listed as a child")
		case id != RootInode && refs[i] != 1:
			return corrupted("inode %d is listed in %d directories", id, refs[i])
		}
	}

	for i := range f.blocks {
		b := BlockID(i)
		used := f.blockMap.Test(uint(i))
		switch {
		case used && owner[i] == NoInode:
			return corrupted("block %d is marked in use but belongs to no file", b)
		case !used && owner[i] != NoInode:
			return corrupted("block %d belongs to inode %d but is marked free", b, owner[i])
		case !used && f.blocks[i].used != 0:
			return corrupted("free block %d holds data", b)
		}
	}

	return f.checkReachable()
}

func (f *FS) checkDirectory(id InodeID, refs []int) error {
	n := &f.inodes[id]
	if len(n.children) != f.geom.SlotsPerInode || n.blocks != nil {
		return corrupted("directory %d has malformed slots", id)
	}
	if n.size != 0 {
		return corrupted("directory %d has size %d", id, n.size)
	}

	names := make(map[string]struct{}, len(n.children))
	for _, child := range n.children {
		if child == NoInode {
			continue
		}
		c := &f.inodes[child]
		if c.kind == KindFree {
			return corrupted("directory %d references free inode %d", id, child)
		}
		if c.parent != id {
			return corrupted("inode %d is listed in directory %d but its parent is %d", child, id, c.parent)
		}
		if _, dup := names[c.name]; dup {
			return corrupted("directory %d has duplicate name %q", id, c.name)
		}
		names[c.name] = struct{}{}
		refs[child]++
	}
	return nil
}

func (f *FS) checkFile(id InodeID, owner []InodeID) error {
	n := &f.inodes[id]
	bs := f.geom.BlockSize
	if len(n.blocks) != f.geom.SlotsPerInode || n.children != nil {
		return corrupted("file %d has malformed slots", id)
	}

	held := n.heldBlocks()
	for _, b := range n.blocks[held:] {
		if b != NoBlock {
			return corrupted("file %d has a gap in its block slots", id)
		}
	}
	if want := (n.size + bs - 1) / bs; held != want {
		return corrupted("file %d holds %d blocks for %d bytes", id, held, n.size)
	}

	total := 0
	for i, b := range n.blocks[:held] {
		if owner[b] != NoInode {
			return corrupted("block %d is shared by inodes %d and %d", b, owner[b], id)
		}
		owner[b] = id

		used := f.blocks[b].used
		if used == 0 || (i < held-1 && used != bs) {
			return corrupted("file %d block %d has unexpected usage %d", id, b, used)
		}
		total += used
	}
	if total != n.size {
		return corrupted("file %d size %d does not match block usage %d", id, n.size, total)
	}
	return nil
}

// checkReachable verifies every allocated inode can be reached from the
// root, which rules out detached cycles.
func (f *FS) checkReachable() error {
	seen := 0
	queue := []InodeID{RootInode}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		seen++
		for _, child := range f.inodes[id].children {
			if child != NoInode {
				queue = append(queue, child)
			}
		}
	}
	if allocated := f.geom.Inodes - f.sb.FreeInodes; seen != allocated {
		return corrupted("%d of %d allocated inodes are reachable from the root", seen, allocated)
	}
	return nil
}
