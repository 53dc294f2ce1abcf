package imagefs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/imagefs/errors"
	"github.com/jmgilman/go/imagefs/hostfs"
)

// populate builds a small tree with files of varying sizes.
func populate(t *testing.T, f *FS) map[string][]byte {
	t.Helper()

	files := map[string][]byte{
		"/etc/hosts":   []byte("127.0.0.1 localhost\n"),
		"/etc/empty":   nil,
		"/var/log/big": bytes.Repeat([]byte("log line\n"), 400),
		"/readme":      []byte("top level"),
	}
	for _, dir := range []string{"/etc", "/var", "/var/log"} {
		require.NoError(t, f.Mkdir(dir))
	}
	for p, data := range files {
		require.NoError(t, f.Mkfile(p))
		_, err := f.WriteFile(p, data)
		require.NoError(t, err)
	}
	return files
}

func encode(t *testing.T, f *FS) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, f.Encode(&buf))
	return buf.Bytes()
}

func TestEncodeDecode(t *testing.T) {
	f := newTestFS(t)
	files := populate(t, f)
	require.NoError(t, f.Remove("/etc/empty"))
	delete(files, "/etc/empty")

	data := encode(t, f)
	assert.Len(t, data, imageSize(f.Geometry()))

	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)

	assert.Equal(t, f.Geometry(), got.Geometry())
	assert.Equal(t, f.Superblock(), got.Superblock())
	assert.Equal(t, f.Stat(), got.Stat())
	for p, want := range files {
		content, err := got.ReadFile(p)
		require.NoError(t, err, p)
		assert.Equal(t, len(want), len(content), p)
		assert.True(t, bytes.Equal(want, content), p)
	}

	for _, dir := range []string{"/", "/etc", "/var", "/var/log"} {
		want, err := f.List(dir)
		require.NoError(t, err)
		listing, err := got.List(dir)
		require.NoError(t, err)
		assert.Equal(t, want, listing, dir)
	}

	assert.Equal(t, data, encode(t, got))
}

func TestDecode_Usable(t *testing.T) {
	f := newTestFS(t, smallGeometry)
	require.NoError(t, f.Mkfile("/a"))

	got, err := Decode(bytes.NewReader(encode(t, f)))
	require.NoError(t, err)

	require.NoError(t, got.Mkfile("/b"))
	_, err = got.WriteFile("/b", []byte("after decode"))
	require.NoError(t, err)
	requireConsistent(t, got)
}

func TestDecode_Invalid(t *testing.T) {
	f := newTestFS(t, smallGeometry)
	require.NoError(t, f.Mkfile("/a"))
	_, err := f.WriteFile("/a", []byte("content"))
	require.NoError(t, err)
	valid := encode(t, f)

	tests := []struct {
		name string
		data func() []byte
	}{
		{
			name: "empty",
			data: func() []byte { return nil },
		},
		{
			name: "truncated",
			data: func() []byte { return valid[:len(valid)/2] },
		},
		{
			name: "flipped byte",
			data: func() []byte {
				out := bytes.Clone(valid)
				out[headerSize+3] ^= 0x01
				return out
			},
		},
		{
			name: "flipped digest",
			data: func() []byte {
				out := bytes.Clone(valid)
				out[len(out)-1] ^= 0x01
				return out
			},
		},
		{
			name: "trailing garbage",
			data: func() []byte { return append(bytes.Clone(valid), 0) },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tt.data()))
			requireCode(t, err, errors.CodeInvalidImage)
		})
	}
}

func TestDecode_ResealedCorruption(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(f *FS)
	}{
		{
			name:   "bad magic",
			mutate: func(*FS) {},
		},
		{
			name:   "counter mismatch",
			mutate: func(f *FS) { f.sb.FreeBlocks-- },
		},
		{
			name: "dangling child",
			mutate: func(f *FS) {
				f.inodes[RootInode].children[1] = 3
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTestFS(t, smallGeometry)
			require.NoError(t, f.Mkfile("/a"))
			tt.mutate(f)

			data := f.encode()
			if tt.name == "bad magic" {
				data[0] = 'X'
			}
			data = reseal(data)

			_, err := Decode(bytes.NewReader(data))
			requireCode(t, err, errors.CodeInvalidImage)
		})
	}
}

func TestSaveLoad(t *testing.T) {
	f := newTestFS(t)
	files := populate(t, f)
	host := hostfs.NewMemory()

	require.NoError(t, f.Save(host, "images/filesystem.fs"))

	got, err := Load(host, "images/filesystem.fs")
	require.NoError(t, err)
	for p, want := range files {
		content, err := got.ReadFile(p)
		require.NoError(t, err)
		assert.True(t, bytes.Equal(want, content), p)
	}

	infos, err := host.Unwrap().ReadDir("images")
	require.NoError(t, err)
	assert.Len(t, infos, 1)
}

func TestSave_Failure(t *testing.T) {
	f := newTestFS(t)
	mem := hostfs.NewMemory()

	err := f.Save(brokenRename{mem}, "filesystem.fs")

	requireCode(t, err, errors.CodeExternalIO)
	infos, readErr := mem.Unwrap().ReadDir("/")
	require.NoError(t, readErr)
	assert.Empty(t, infos)
}

func TestLoad_Errors(t *testing.T) {
	host := hostfs.NewMemory()
	require.NoError(t, host.WriteFile("garbage.fs", []byte("not an image at all, clearly"), 0o644))

	_, err := Load(host, "missing.fs")
	requireCode(t, err, errors.CodeExternalIO)

	_, err = Load(host, "garbage.fs")
	requireCode(t, err, errors.CodeInvalidImage)
}
