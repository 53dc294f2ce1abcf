package imagefs

import (
	"github.com/jmgilman/go/imagefs/errors"
)

// WriteFile replaces the contents of the file at path with data and returns
// the number of bytes written. The file must already exist.
//
// Blocks are only allocated for growth and surplus blocks are released when
// the file shrinks. A write that does not fit fails with CodeFileTooLarge or
// CodeOutOfSpace and leaves the previous contents intact.
func (f *FS) WriteFile(path string, data []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.resolveKind(path, KindFile)
	if err != nil {
		return 0, f.finish("writef", path, err)
	}
	n, err := f.writeFile(id, data)
	return n, f.finish("writef", path, err)
}

func (f *FS) writeFile(id InodeID, data []byte) (int, error) {
	bs := f.geom.BlockSize
	need := (len(data) + bs - 1) / bs
	if need > f.geom.SlotsPerInode {
		return 0, errors.WithContextMap(
			errors.Newf(errors.CodeFileTooLarge, "%d bytes exceed the %d byte file limit", len(data), f.geom.MaxFileSize()),
			map[string]interface{}{"size": len(data), "max": f.geom.MaxFileSize()},
		)
	}

	n := &f.inodes[id]
	held := n.heldBlocks()
	switch {
	case need > held:
		fresh, err := f.allocBlocks(need - held)
		if err != nil {
			return 0, err
		}
		copy(n.blocks[held:], fresh)
	case need < held:
		for i := need; i < held; i++ {
			f.releaseBlock(n.blocks[i])
			n.blocks[i] = NoBlock
		}
	}

	for i := range need {
		blk := &f.blocks[n.blocks[i]]
		used := copy(blk.data, data[i*bs:])
		clear(blk.data[used:])
		blk.used = used
	}
	n.size = len(data)
	return len(data), nil
}

// ReadFile returns a copy of the contents of the file at path.
func (f *FS) ReadFile(path string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	id, err := f.resolveKind(path, KindFile)
	if err != nil {
		return nil, f.finish("readf", path, err)
	}
	return f.readFile(id), f.finish("readf", path, nil)
}

func (f *FS) readFile(id InodeID) []byte {
	n := &f.inodes[id]
	out := make([]byte, n.size)
	off := 0
	for _, b := range n.blocks {
		if b == NoBlock || off >= n.size {
			break
		}
		blk := &f.blocks[b]
		off += copy(out[off:], blk.data[:blk.used])
	}
	return out
}
