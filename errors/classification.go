package errors

// ErrorClassification indicates whether an error should trigger a retry.
type ErrorClassification string

const (
	// ClassificationRetryable indicates temporary failures that may succeed on retry.
	ClassificationRetryable ErrorClassification = "RETRYABLE"

	// ClassificationPermanent indicates failures that will not succeed on retry
	// against the same image state.
	ClassificationPermanent ErrorClassification = "PERMANENT"
)

// IsRetryable returns true if the classification indicates retry should be attempted.
func (c ErrorClassification) IsRetryable() bool {
	return c == ClassificationRetryable
}

// defaultClassifications maps error codes to their default classification.
var defaultClassifications = map[ErrorCode]ErrorClassification{
	// Host I/O can fail transiently (busy files, full host disks).
	CodeExternalIO: ClassificationRetryable,

	CodeInvalidPath:       ClassificationPermanent,
	CodeNotFound:          ClassificationPermanent,
	CodeNotADirectory:     ClassificationPermanent,
	CodeNotAFile:          ClassificationPermanent,
	CodeAlreadyExists:     ClassificationPermanent,
	CodeDirectoryFull:     ClassificationPermanent,
	CodeDirectoryNotEmpty: ClassificationPermanent,
	CodeOutOfInodes:       ClassificationPermanent,
	CodeOutOfSpace:        ClassificationPermanent,
	CodeFileTooLarge:      ClassificationPermanent,
	CodeInvalidImage:      ClassificationPermanent,
	CodeCorrupted:         ClassificationPermanent,
	CodeInvalidConfig:     ClassificationPermanent,
	CodeInvalidArgument:   ClassificationPermanent,
	CodeInternal:          ClassificationPermanent,
	CodeUnknown:           ClassificationPermanent,
}

// getDefaultClassification returns the default classification for an error code.
// Returns ClassificationPermanent if the code is not in the map.
func getDefaultClassification(code ErrorCode) ErrorClassification {
	if class, ok := defaultClassifications[code]; ok {
		return class
	}
	return ClassificationPermanent
}
