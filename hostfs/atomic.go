package hostfs

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path"

	"github.com/zeebo/blake3"
)

// ErrChecksumMismatch is returned when the bytes read back from a temporary
// file do not match the bytes that were written.
var ErrChecksumMismatch = errors.New("checksum mismatch")

const tempSuffix = ".imagefs-tmp"

// WriteFileAtomic writes data to name on host without ever exposing a partial
// file at name. The data is written to a temporary sibling, read back and
// compared by BLAKE3 digest, then renamed over name. The temporary file is
// removed on every failure path.
func WriteFileAtomic(host FS, name string, data []byte, perm fs.FileMode) (retErr error) {
	dir := path.Dir(normalize(name))
	if dir != "." && dir != "/" {
		if err := host.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	tmp := name + tempSuffix
	defer func() {
		if retErr != nil {
			_ = host.Remove(tmp)
		}
	}()

	if err := host.WriteFile(tmp, data, perm); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}

	written, err := host.ReadFile(tmp)
	if err != nil {
		return fmt.Errorf("failed to read back temporary file: %w", err)
	}

	want := blake3.Sum256(data)
	got := blake3.Sum256(written)
	if !bytes.Equal(want[:], got[:]) {
		return fmt.Errorf("%w: %s", ErrChecksumMismatch, tmp)
	}

	if err := host.Rename(tmp, name); err != nil {
		return fmt.Errorf("failed to move temporary file into place: %w", err)
	}
	return nil
}
