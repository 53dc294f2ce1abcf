// Package hostfs is the bridge between an image and the host filesystem.
//
// Import, export, configuration loading and image persistence all reach the
// host through the FS interface defined here. Two go-billy backed
// implementations are provided:
//
//	host := hostfs.NewLocal("/")   // disk, rooted at "/"
//	mem := hostfs.NewMemory()      // in-memory, for tests
//
// Both expose the underlying billy.Filesystem through Unwrap.
//
// WriteFileAtomic writes through a temporary sibling file, verifies the
// written bytes against a BLAKE3 digest of the input and only then renames
// the temporary file into place. A failed write never leaves a partial
// destination behind.
package hostfs
