package imagefs

import (
	"github.com/jmgilman/go/imagefs/errors"
)

// allocInode claims the lowest-indexed free inode. The caller must set its
// kind before releasing the lock.
func (f *FS) allocInode() (InodeID, error) {
	idx, ok := f.inodeMap.NextClear(0)
	if !ok || idx >= uint(len(f.inodes)) {
		return NoInode, errors.New(errors.CodeOutOfInodes, "no free inodes")
	}
	f.inodeMap.Set(idx)
	f.sb.FreeInodes--
	return InodeID(idx), nil
}

// releaseInode returns id to the free list and clears its record.
func (f *FS) releaseInode(id InodeID) {
	f.inodes[id].reset()
	f.inodeMap.Clear(uint(id))
	f.sb.FreeInodes++
}

// allocBlock claims the lowest-indexed free block.
func (f *FS) allocBlock() (BlockID, error) {
	idx, ok := f.blockMap.NextClear(0)
	if !ok || idx >= uint(len(f.blocks)) {
		return NoBlock, errors.New(errors.CodeOutOfSpace, "no free data blocks")
	}
	f.blockMap.Set(idx)
	f.sb.FreeBlocks--
	return BlockID(idx), nil
}

// allocBlocks claims n blocks or none at all.
func (f *FS) allocBlocks(n int) ([]BlockID, error) {
	if n > f.sb.FreeBlocks {
		return nil, errors.WithContextMap(
			errors.New(errors.CodeOutOfSpace, "not enough free data blocks"),
			map[string]interface{}{"needed": n, "free": f.sb.FreeBlocks},
		)
	}

	ids := make([]BlockID, 0, n)
	for range n {
		id, err := f.allocBlock()
		if err != nil {
			for _, got := range ids {
				f.releaseBlock(got)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// releaseBlock zeroes id and returns it to the free list.
func (f *FS) releaseBlock(id BlockID) {
	blk := &f.blocks[id]
	clear(blk.data)
	blk.used = 0
	f.blockMap.Clear(uint(id))
	f.sb.FreeBlocks++
}
