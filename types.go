package imagefs

// InodeID is an index into the inode table.
type InodeID int32

// BlockID is an index into the data block pool.
type BlockID int32

const (
	// NoInode marks an empty directory slot or the root's parent.
	NoInode InodeID = -1
	// NoBlock marks an unused file slot.
	NoBlock BlockID = -1
	// RootInode is the reserved index of the root directory.
	RootInode InodeID = 0
)

// Kind is the type of an inode.
type Kind uint8

const (
	// KindFree marks an unallocated inode.
	KindFree Kind = iota
	// KindDirectory marks a directory.
	KindDirectory
	// KindFile marks a regular file.
	KindFile
)

// String returns a string representation of the Kind.
func (k Kind) String() string {
	switch k {
	case KindFree:
		return "free"
	case KindDirectory:
		return "directory"
	case KindFile:
		return "file"
	default:
		return "unknown"
	}
}

// Superblock holds the global capacity and usage counters of an image.
type Superblock struct {
	BlockSize   int
	NumBlocks   int
	TotalInodes int
	FreeBlocks  int
	FreeInodes  int
}

// inode is one entry of the inode table. Exactly one of children or blocks
// is non-nil for an allocated inode, matching its kind; both are nil for a
// free inode.
type inode struct {
	kind   Kind
	name   string
	parent InodeID
	size   int

	// children holds SlotsPerInode child references of a directory. Slots
	// may be NoInode anywhere.
	children []InodeID

	// blocks holds SlotsPerInode block references of a file. Used slots
	// are a prefix; the first NoBlock ends the file.
	blocks []BlockID
}

// reset returns the inode to the free state.
func (n *inode) reset() {
	*n = inode{parent: NoInode}
}

// heldBlocks returns the number of leading slots holding a block.
func (n *inode) heldBlocks() int {
	for i, b := range n.blocks {
		if b == NoBlock {
			return i
		}
	}
	return len(n.blocks)
}

// dataBlock is one fixed-size block of the pool. used is the number of
// leading bytes holding file content.
type dataBlock struct {
	data []byte
	used int
}

func newSlots[T InodeID | BlockID](n int, empty T) []T {
	slots := make([]T, n)
	for i := range slots {
		slots[i] = empty
	}
	return slots
}
