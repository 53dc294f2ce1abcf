package errors

import "fmt"

// New creates a new PlatformError with the given code and message.
//
// Example:
//
//	err := errors.New(errors.CodeNotFound, "no such entry")
func New(code ErrorCode, message string) PlatformError {
	return &platformError{
		code:           code,
		classification: getDefaultClassification(code),
		message:        message,
	}
}

// Newf creates a new PlatformError with a formatted message.
//
// Example:
//
//	err := errors.Newf(errors.CodeInvalidPath, "name too long: %d bytes (max %d)", len(name), max)
func Newf(code ErrorCode, format string, args ...interface{}) PlatformError {
	return New(code, fmt.Sprintf(format, args...))
}
