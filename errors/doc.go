// Package errors provides the structured errors returned by imagefs.
//
// Every failure surfaced by the filesystem core, the host bridge and the
// configuration loader is a PlatformError carrying an ErrorCode. Codes map
// one-to-one onto the failure kinds of the filesystem contract (InvalidPath,
// NotFound, NotADirectory, ...), so callers branch on codes instead of
// matching message strings. The package stays compatible with the standard
// library (errors.Is, errors.As, errors.Unwrap).
//
// # Quick Start
//
// Creating errors:
//
//	err := errors.New(errors.CodeNotFound, "no such entry")
//	err := errors.Newf(errors.CodeFileTooLarge, "%d blocks needed, %d available", n, k)
//
// Wrapping host failures:
//
//	data, err := host.ReadFile(name)
//	if err != nil {
//	    return errors.Wrap(err, errors.CodeExternalIO, "failed to read host file")
//	}
//
// Attaching context:
//
//	err = errors.WithContext(err, "path", "/a/b.txt")
//
// Branching on the failure kind:
//
//	if errors.HasCode(err, errors.CodeAlreadyExists) {
//	    // entry is already there
//	}
//
// # Classification
//
// Host I/O failures are classified as retryable; every other code is
// permanent because retrying the same operation against the same image state
// yields the same result. Use IsRetryable to decide.
//
// # JSON
//
// ToJSON flattens any error into an ErrorResponse without exposing the
// wrapped chain. The CLI uses it for machine-readable error output.
package errors
