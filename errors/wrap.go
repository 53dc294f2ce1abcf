package errors

import (
	"errors"
	"fmt"
)

// Wrap wraps an error with a code and message while preserving the original
// error for errors.Is and errors.As.
//
// If err is already a PlatformError its classification is kept.
// Returns nil if err is nil.
//
// Example:
//
//	if _, err := host.Stat(name); err != nil {
//	    return errors.Wrap(err, errors.CodeExternalIO, "failed to stat host file")
//	}
func Wrap(err error, code ErrorCode, message string) PlatformError {
	if err == nil {
		return nil
	}

	classification := getDefaultClassification(code)
	var platformErr PlatformError
	if errors.As(err, &platformErr) {
		classification = platformErr.Classification()
	}

	return &platformError{
		code:           code,
		classification: classification,
		message:        message,
		cause:          err,
	}
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) PlatformError {
	if err == nil {
		return nil
	}
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

// WrapWithContext wraps an error and attaches context metadata in one step.
// The context map is copied.
// Returns nil if err is nil.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]interface{}) PlatformError {
	if err == nil {
		return nil
	}

	wrapped := Wrap(err, code, message).(*platformError)
	if ctx != nil {
		wrapped.context = copyContext(ctx)
	}
	return wrapped
}
