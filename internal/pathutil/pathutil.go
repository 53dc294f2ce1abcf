// Package pathutil splits and validates the absolute, slash-separated paths
// used to address entries inside an image.
package pathutil

import (
	"strings"
	"unicode"

	"github.com/jmgilman/go/imagefs/errors"
)

// Separator is the only path separator recognised inside an image.
const Separator = "/"

// Split returns the segments of an absolute path. The root path "/" yields
// no segments. Empty segments, such as those produced by "//" or a trailing
// slash, are rejected.
func Split(path string) ([]string, error) {
	if path == "" {
		return nil, errors.New(errors.CodeInvalidPath, "path is empty")
	}
	if !strings.HasPrefix(path, Separator) {
		return nil, errors.WithContext(
			errors.New(errors.CodeInvalidPath, "path must be absolute"),
			"path", path,
		)
	}
	if path == Separator {
		return nil, nil
	}

	segments := strings.Split(path[1:], Separator)
	for i, seg := range segments {
		if seg == "" {
			return nil, errors.WithContextMap(
				errors.New(errors.CodeInvalidPath, "path contains an empty segment"),
				map[string]interface{}{"path": path, "segment": i},
			)
		}
	}
	return segments, nil
}

// SplitLeaf splits an absolute path into its parent path and final segment.
// The root path has no leaf and is rejected.
func SplitLeaf(path string) (parent, leaf string, err error) {
	segments, err := Split(path)
	if err != nil {
		return "", "", err
	}
	if len(segments) == 0 {
		return "", "", errors.WithContext(
			errors.New(errors.CodeInvalidPath, "path has no final component"),
			"path", path,
		)
	}

	last := len(segments) - 1
	return Join(segments[:last]), segments[last], nil
}

// Join builds an absolute path from segments.
func Join(segments []string) string {
	return Separator + strings.Join(segments, Separator)
}

// ValidateName checks that name can be stored as a directory entry: it must
// be non-empty, at most maxLen bytes long, and free of separators and
// control characters.
func ValidateName(name string, maxLen int) error {
	if name == "" {
		return errors.New(errors.CodeInvalidPath, "name is empty")
	}
	if len(name) > maxLen {
		return errors.WithContextMap(
			errors.Newf(errors.CodeInvalidPath, "name exceeds %d bytes", maxLen),
			map[string]interface{}{"name_length": len(name), "max": maxLen},
		)
	}
	for _, r := range name {
		if r == '/' {
			return errors.New(errors.CodeInvalidPath, "name contains a path separator")
		}
		if r == 0 || unicode.IsControl(r) {
			return errors.New(errors.CodeInvalidPath, "name contains a control character")
		}
	}
	return nil
}
