package imagefs

import (
	"github.com/jmgilman/go/imagefs/errors"
)

// finish logs the outcome of op on path and attaches both to a failure.
func (f *FS) finish(op, path string, err error) error {
	if err == nil {
		f.logger.Debug("operation completed", "op", op, "path", path)
		return nil
	}
	f.logger.Debug("operation failed",
		"op", op,
		"path", path,
		"code", errors.GetCode(err),
		"error", err,
	)
	return errors.WithContextMap(err, map[string]interface{}{
		"op":   op,
		"path": path,
	})
}
