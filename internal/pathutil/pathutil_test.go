package pathutil

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmgilman/go/imagefs/errors"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		want    []string
		wantErr bool
	}{
		{name: "root", path: "/", want: nil},
		{name: "single segment", path: "/a", want: []string{"a"}},
		{name: "nested", path: "/a/b/c", want: []string{"a", "b", "c"}},
		{name: "dot segments are literal", path: "/./..", want: []string{".", ".."}},
		{name: "spaces allowed", path: "/my dir/file.txt", want: []string{"my dir", "file.txt"}},
		{name: "empty", path: "", wantErr: true},
		{name: "relative", path: "a/b", wantErr: true},
		{name: "double slash", path: "//a", wantErr: true},
		{name: "inner double slash", path: "/a//b", wantErr: true},
		{name: "trailing slash", path: "/a/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Split(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.HasCode(err, errors.CodeInvalidPath))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSplitLeaf(t *testing.T) {
	tests := []struct {
		path       string
		wantParent string
		wantLeaf   string
		wantErr    bool
	}{
		{path: "/a", wantParent: "/", wantLeaf: "a"},
		{path: "/a/b", wantParent: "/a", wantLeaf: "b"},
		{path: "/a/b/c", wantParent: "/a/b", wantLeaf: "c"},
		{path: "/", wantErr: true},
		{path: "/a/", wantErr: true},
		{path: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			parent, leaf, err := SplitLeaf(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.CodeInvalidPath, errors.GetCode(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantParent, parent)
			assert.Equal(t, tt.wantLeaf, leaf)
		})
	}
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "/", Join(nil))
	assert.Equal(t, "/a/b", Join([]string{"a", "b"}))
}

func TestValidateName(t *testing.T) {
	require.NoError(t, ValidateName("file.txt", 255))
	require.NoError(t, ValidateName(strings.Repeat("x", 8), 8))

	for name, input := range map[string]string{
		"empty":     "",
		"too long":  strings.Repeat("x", 9),
		"separator": "a/b",
		"nul":       "a\x00b",
		"newline":   "a\nb",
	} {
		t.Run(name, func(t *testing.T) {
			err := ValidateName(input, 8)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, errors.CodeInvalidPath))
		})
	}
}
