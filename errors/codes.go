package errors

// ErrorCode represents a specific error condition.
// Error codes are string-based for debuggability and natural JSON serialization.
type ErrorCode string

const (
	// Path errors.

	// CodeInvalidPath indicates an empty, non-absolute or malformed path.
	CodeInvalidPath ErrorCode = "INVALID_PATH"

	// CodeNotFound indicates a path segment has no matching directory entry.
	CodeNotFound ErrorCode = "NOT_FOUND"

	// CodeNotADirectory indicates a directory was required but a file was found.
	CodeNotADirectory ErrorCode = "NOT_A_DIRECTORY"

	// CodeNotAFile indicates a regular file was required but a directory was found.
	CodeNotAFile ErrorCode = "NOT_A_FILE"

	// Namespace errors.

	// CodeAlreadyExists indicates the parent directory already has an entry with that name.
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// CodeDirectoryFull indicates every child slot of the parent directory is occupied.
	CodeDirectoryFull ErrorCode = "DIRECTORY_FULL"

	// CodeDirectoryNotEmpty indicates removal of a directory that still has entries.
	CodeDirectoryNotEmpty ErrorCode = "DIRECTORY_NOT_EMPTY"

	// Capacity errors.

	// CodeOutOfInodes indicates the inode table has no free inode.
	CodeOutOfInodes ErrorCode = "OUT_OF_INODES"

	// CodeOutOfSpace indicates the block pool cannot satisfy an allocation.
	CodeOutOfSpace ErrorCode = "OUT_OF_SPACE"

	// CodeFileTooLarge indicates content exceeds the per-file block slot capacity.
	CodeFileTooLarge ErrorCode = "FILE_TOO_LARGE"

	// Host errors.

	// CodeExternalIO indicates a host file could not be read or written.
	CodeExternalIO ErrorCode = "EXTERNAL_IO_ERROR"

	// Image errors.

	// CodeInvalidImage indicates a serialized image is truncated, tampered or malformed.
	CodeInvalidImage ErrorCode = "INVALID_IMAGE"

	// CodeCorrupted indicates an in-memory image violates a structural invariant.
	CodeCorrupted ErrorCode = "CORRUPTED"

	// CodeInvalidConfig indicates a geometry or configuration error.
	CodeInvalidConfig ErrorCode = "INVALID_CONFIGURATION"

	// CodeInvalidArgument indicates a command was invoked with the wrong arguments.
	CodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"

	// System errors.

	// CodeInternal indicates an internal error occurred.
	CodeInternal ErrorCode = "INTERNAL_ERROR"

	// CodeUnknown indicates an unknown or unclassified error occurred.
	CodeUnknown ErrorCode = "UNKNOWN"
)
