package imagefs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zeebo/blake3"

	"github.com/jmgilman/go/imagefs/config"
	"github.com/jmgilman/go/imagefs/errors"
)

// newTestFS formats a default image after applying the geometry tweaks.
func newTestFS(t *testing.T, tweaks ...func(*config.Geometry)) *FS {
	t.Helper()

	g := config.Default()
	for _, tweak := range tweaks {
		tweak(&g)
	}
	f, err := New(g)
	require.NoError(t, err)
	return f
}

// smallGeometry is a tiny image that is easy to exhaust.
func smallGeometry(g *config.Geometry) {
	g.BlockSize = 16
	g.Blocks = 4
	g.Inodes = 4
	g.SlotsPerInode = 3
	g.NameMax = 8
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, errors.GetCode(err), "unexpected error: %v", err)
}

func requireConsistent(t *testing.T, f *FS) {
	t.Helper()
	require.NoError(t, f.Check())
}

// reseal replaces the trailing digest of an encoded image so that the body
// passes the integrity check.
func reseal(data []byte) []byte {
	body := data[:len(data)-digestSize]
	sum := blake3.Sum256(body)
	return append(bytes.Clone(body), sum[:]...)
}
