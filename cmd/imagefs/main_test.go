package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/imagefs/errors"
)

type cliHarness struct {
	t     *testing.T
	dir   string
	image string
}

func newHarness(t *testing.T) *cliHarness {
	dir := t.TempDir()
	return &cliHarness{t: t, dir: dir, image: filepath.Join(dir, "filesystem.fs")}
}

// exec runs the CLI against the harness image and returns stdout, stderr and
// the exit code.
func (h *cliHarness) exec(args ...string) (string, string, int) {
	h.t.Helper()

	var stdout, stderr bytes.Buffer
	argv := append([]string{"imagefs", "--image", h.image}, args...)
	code := run(argv, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func (h *cliHarness) mustExec(args ...string) string {
	h.t.Helper()

	stdout, stderr, code := h.exec(args...)
	require.Equal(h.t, 0, code, "imagefs %v failed: %s", args, stderr)
	return stdout
}

func TestCLI_EndToEnd(t *testing.T) {
	h := newHarness(t)

	h.mustExec("format")
	h.mustExec("mkdir", "/a")
	h.mustExec("mkfile", "/a/b.txt")

	assert.Equal(t, "5 bytes written\n", h.mustExec("write", "/a/b.txt", "hello"))
	assert.Equal(t, "hello", h.mustExec("cat", "/a/b.txt"))
	assert.Equal(t, "FIL b.txt\n", h.mustExec("ls", "/a"))
	assert.Equal(t, "DIR a\n", h.mustExec("ls"))
	assert.Equal(t, "image is consistent\n", h.mustExec("check"))

	tree := h.mustExec("tree")
	assert.Contains(t, tree, "a/")
	assert.Contains(t, tree, "b.txt (5 B)")

	stat := h.mustExec("stat")
	assert.Contains(t, stat, "1 used, 511 free of 512")

	h.mustExec("rm", "/a/b.txt")
	h.mustExec("rm", "/a")
	assert.Empty(t, h.mustExec("ls", "/"))
}

func TestCLI_TreeSkipsDotNames(t *testing.T) {
	h := newHarness(t)
	h.mustExec("format")
	h.mustExec("mkdir", "/..")
	h.mustExec("mkdir", "/ok")
	h.mustExec("mkfile", "/ok/file")

	tree := h.mustExec("tree")
	assert.Contains(t, tree, "ok/")
	assert.Contains(t, tree, "file")
	assert.NotContains(t, tree, "..")

	assert.Contains(t, h.mustExec("ls"), "DIR ..")
}

func TestCLI_ImportExport(t *testing.T) {
	h := newHarness(t)
	src := filepath.Join(h.dir, "src.txt")
	dst := filepath.Join(h.dir, "out", "dst.txt")
	require.NoError(t, os.WriteFile(src, []byte("host bytes"), 0o644))

	h.mustExec("format")
	h.mustExec("mkfile", "/f")
	h.mustExec("import", "/f", src)
	h.mustExec("export", "/f", dst)

	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, []byte("host bytes"), data)
}

func TestCLI_Format(t *testing.T) {
	h := newHarness(t)
	geometry := filepath.Join(h.dir, "geometry.yaml")
	require.NoError(t, os.WriteFile(geometry, []byte("blockSize: 64\nblocks: 16\n"), 0o644))

	h.mustExec("--config", geometry, "format")

	_, _, code := h.exec("format")
	assert.Equal(t, 1, code)

	h.mustExec("format", "--force")

	var stat struct {
		Geometry struct {
			BlockSize int `json:"blockSize"`
		}
		FreeBlocks int
	}
	require.NoError(t, json.Unmarshal([]byte(h.mustExec("--json", "stat")), &stat))
	assert.Equal(t, 1024, stat.Geometry.BlockSize)
	assert.Equal(t, 512, stat.FreeBlocks)
}

func TestCLI_Config(t *testing.T) {
	h := newHarness(t)
	geometry := filepath.Join(h.dir, "geometry.cue")
	require.NoError(t, os.WriteFile(geometry, []byte("inodes: 32\n"), 0o644))

	out := h.mustExec("--config", geometry, "config")

	assert.Contains(t, out, "inodes: 32")
	assert.Contains(t, out, "blockSize: 1024")
}

func TestCLI_Errors(t *testing.T) {
	h := newHarness(t)

	_, stderr, code := h.exec("ls")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "EXTERNAL_IO_ERROR")

	h.mustExec("format")

	_, stderr, code = h.exec("--json", "cat", "/missing")
	assert.Equal(t, 1, code)
	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal([]byte(stderr), &resp))
	assert.Equal(t, "NOT_FOUND", resp.Code)
	assert.Equal(t, "readf", resp.Context["op"])

	_, stderr, code = h.exec("mkdir")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "INVALID_ARGUMENT")

	_, stderr, code = h.exec("--json", "write", "/a")
	assert.Equal(t, 1, code)
	require.NoError(t, json.Unmarshal([]byte(stderr), &resp))
	assert.Equal(t, "INVALID_ARGUMENT", resp.Code)
	assert.Equal(t, float64(1), resp.Context["got"])

	_, _, code = h.exec("--log-level", "loud", "ls")
	assert.Equal(t, 1, code)
}

func TestCLI_FailedMutationIsNotSaved(t *testing.T) {
	h := newHarness(t)
	h.mustExec("format")
	h.mustExec("mkdir", "/a")

	before, err := os.ReadFile(h.image)
	require.NoError(t, err)

	_, _, code := h.exec("mkdir", "/a")
	assert.Equal(t, 1, code)

	after, err := os.ReadFile(h.image)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}
