package imagefs

import (
	"log/slog"
	"sync"

	"github.com/bits-and-blooms/bitset"

	"github.com/jmgilman/go/imagefs/config"
	"github.com/jmgilman/go/imagefs/errors"
)

// FS is a single-image filesystem. The zero value is not usable; create one
// with New, Decode or Load.
type FS struct {
	mu sync.Mutex

	geom config.Geometry
	sb   Superblock

	inodes []inode
	blocks []dataBlock

	// inodeMap and blockMap are the free lists. A set bit marks an entry
	// in use.
	inodeMap *bitset.BitSet
	blockMap *bitset.BitSet

	logger *slog.Logger
}

// New formats an empty image with the given geometry. All blocks are free
// and every inode except the root is free. The root is an empty directory.
func New(geom config.Geometry, opts ...Option) (*FS, error) {
	if err := config.Validate(geom); err != nil {
		return nil, errors.Wrap(err, errors.CodeInvalidConfig, "invalid geometry")
	}

	f := newEmpty(geom, newOptions(opts))

	root := &f.inodes[RootInode]
	root.kind = KindDirectory
	root.name = ""
	root.parent = NoInode
	root.children = newSlots(geom.SlotsPerInode, NoInode)
	f.inodeMap.Set(uint(RootInode))
	f.sb.FreeInodes--

	f.logger.Debug("image formatted",
		"block_size", geom.BlockSize,
		"blocks", geom.Blocks,
		"inodes", geom.Inodes,
		"slots_per_inode", geom.SlotsPerInode,
	)
	return f, nil
}

// newEmpty allocates the tables for geom with every entry free, including
// the root.
func newEmpty(geom config.Geometry, o *options) *FS {
	f := &FS{
		geom: geom,
		sb: Superblock{
			BlockSize:   geom.BlockSize,
			NumBlocks:   geom.Blocks,
			TotalInodes: geom.Inodes,
			FreeBlocks:  geom.Blocks,
			FreeInodes:  geom.Inodes,
		},
		inodes:   make([]inode, geom.Inodes),
		blocks:   make([]dataBlock, geom.Blocks),
		inodeMap: bitset.New(uint(geom.Inodes)),
		blockMap: bitset.New(uint(geom.Blocks)),
		logger:   o.logger,
	}

	for i := range f.inodes {
		f.inodes[i].reset()
	}

	// One backing array keeps the pool contiguous.
	pool := make([]byte, geom.Blocks*geom.BlockSize)
	for i := range f.blocks {
		off := i * geom.BlockSize
		f.blocks[i].data = pool[off : off+geom.BlockSize : off+geom.BlockSize]
	}
	return f
}

// Geometry returns the geometry the image was formatted with.
func (f *FS) Geometry() config.Geometry {
	return f.geom
}

// Superblock returns a copy of the current superblock counters.
func (f *FS) Superblock() Superblock {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sb
}
