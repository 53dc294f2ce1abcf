package imagefs

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/imagefs/errors"
)

func TestCheck(t *testing.T) {
	f := newTestFS(t)
	requireConsistent(t, f)

	populate(t, f)
	requireConsistent(t, f)

	require.NoError(t, f.Remove("/var/log/big"))
	requireConsistent(t, f)
}

func TestCheck_Corruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, f *FS)
	}{
		{
			name: "root not a directory",
			mutate: func(_ *testing.T, f *FS) {
				f.inodes[RootInode].kind = KindFile
			},
		},
		{
			name: "root has a parent",
			mutate: func(_ *testing.T, f *FS) {
				f.inodes[RootInode].parent = 1
			},
		},
		{
			name: "free inode counter",
			mutate: func(_ *testing.T, f *FS) {
				f.sb.FreeInodes++
			},
		},
		{
			name: "free block counter",
			mutate: func(_ *testing.T, f *FS) {
				f.sb.FreeBlocks--
			},
		},
		{
			name: "allocated inode marked free",
			mutate: func(t *testing.T, f *FS) {
				id, err := f.resolve("/a")
				require.NoError(t, err)
				f.inodeMap.Clear(uint(id))
				f.sb.FreeInodes++
			},
		},
		{
			name: "leaked block",
			mutate: func(_ *testing.T, f *FS) {
				f.blockMap.Set(10)
				f.sb.FreeBlocks--
			},
		},
		{
			name: "free block holds data",
			mutate: func(_ *testing.T, f *FS) {
				f.blocks[10].used = 1
			},
		},
		{
			name: "shared block",
			mutate: func(t *testing.T, f *FS) {
				a, err := f.resolve("/a")
				require.NoError(t, err)
				b, err := f.resolve("/d/b")
				require.NoError(t, err)
				f.inodes[b].blocks[0] = f.inodes[a].blocks[0]
			},
		},
		{
			name: "size mismatch",
			mutate: func(t *testing.T, f *FS) {
				id, err := f.resolve("/a")
				require.NoError(t, err)
				f.inodes[id].size++
			},
		},
		{
			name: "gap in block slots",
			mutate: func(t *testing.T, f *FS) {
				id, err := f.resolve("/a")
				require.NoError(t, err)
				f.inodes[id].blocks[2] = f.inodes[id].blocks[0]
				f.inodes[id].blocks[0] = NoBlock
			},
		},
		{
			name: "dangling child",
			mutate: func(_ *testing.T, f *FS) {
				f.inodes[RootInode].children[5] = 20
			},
		},
		{
			name: "wrong parent link",
			mutate: func(t *testing.T, f *FS) {
				id, err := f.resolve("/d/b")
				require.NoError(t, err)
				f.inodes[id].parent = RootInode
			},
		},
		{
			name: "duplicate names",
			mutate: func(t *testing.T, f *FS) {
				id, err := f.resolve("/d")
				require.NoError(t, err)
				f.inodes[id].name = "a"
			},
		},
		{
			name: "listed twice",
			mutate: func(t *testing.T, f *FS) {
				id, err := f.resolve("/d/b")
				require.NoError(t, err)
				d, err := f.resolve("/d")
				require.NoError(t, err)
				f.inodes[d].children[1] = id
			},
		},
		{
			name: "detached cycle",
			mutate: func(t *testing.T, f *FS) {
				x, err := f.resolve("/x")
				require.NoError(t, err)
				y, err := f.resolve("/x/y")
				require.NoError(t, err)
				root := &f.inodes[RootInode]
				for i, child := range root.children {
					if child == x {
						root.children[i] = NoInode
					}
				}
				f.inodes[x].parent = y
				f.inodes[y].children[0] = x
			},
		},
		{
			name: "free inode not cleared",
			mutate: func(_ *testing.T, f *FS) {
				f.inodes[100].name = "ghost"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFS(t)
			require.NoError(t, f.Mkfile("/a"))
			_, err := f.WriteFile("/a", make([]byte, 2500))
			require.NoError(t, err)
			require.NoError(t, f.Mkdir("/d"))
			require.NoError(t, f.Mkfile("/d/b"))
			_, err = f.WriteFile("/d/b", []byte("b"))
			require.NoError(t, err)
			require.NoError(t, f.Mkdir("/x"))
			require.NoError(t, f.Mkdir("/x/y"))
			requireConsistent(t, f)

			tt.mutate(t, f)

			requireCode(t, f.Check(), errors.CodeCorrupted)
		})
	}
}
