package imagefs

import "github.com/jmgilman/go/imagefs/config"

// Stat summarizes the capacity and usage of an image.
type Stat struct {
	Geometry config.Geometry

	UsedInodes int
	FreeInodes int
	UsedBlocks int
	FreeBlocks int

	Directories int
	Files       int

	// ContentBytes is the total size of all files.
	ContentBytes int
}

// FreeBytes returns the data capacity left in the block pool.
func (s Stat) FreeBytes() int {
	return s.FreeBlocks * s.Geometry.BlockSize
}

// Stat reports capacity and usage of the image.
func (f *FS) Stat() Stat {
	f.mu.Lock()
	defer f.mu.Unlock()

	s := Stat{
		Geometry:   f.geom,
		UsedInodes: f.sb.TotalInodes - f.sb.FreeInodes,
		FreeInodes: f.sb.FreeInodes,
		UsedBlocks: f.sb.NumBlocks - f.sb.FreeBlocks,
		FreeBlocks: f.sb.FreeBlocks,
	}
	for i := range f.inodes {
		switch f.inodes[i].kind {
		case KindDirectory:
			s.Directories++
		case KindFile:
			s.Files++
			s.ContentBytes += f.inodes[i].size
		}
	}
	return s
}
