// Package imagefs implements a small hierarchical filesystem stored entirely
// inside a single in-memory image.
//
// An image has a fixed geometry (see package config): a pool of equally sized
// data blocks, a fixed table of inodes with inode 0 reserved as the root
// directory, and a free list for each. Every inode has the same number of
// slots; a directory uses them for child inode references and a file uses
// them for data block references. There is no indirect addressing, so the
// largest file is SlotsPerInode*BlockSize bytes.
//
// Entries are addressed by absolute, slash-separated paths. Intermediate
// segments must be directories. Segments are matched by exact,
// case-sensitive name and "." and ".." have no special meaning.
//
// Basic usage:
//
//	fsys, err := imagefs.New(config.Default())
//	if err != nil {
//	    return err
//	}
//	if err := fsys.Mkdir("/docs"); err != nil {
//	    return err
//	}
//	if err := fsys.Mkfile("/docs/readme"); err != nil {
//	    return err
//	}
//	if _, err := fsys.WriteFile("/docs/readme", []byte("hello")); err != nil {
//	    return err
//	}
//
// Every operation either succeeds completely or leaves the image unchanged.
// Failures are errors.PlatformError values whose code identifies the cause,
// for example errors.CodeNotFound or errors.CodeOutOfSpace.
//
// The whole image can be serialized with Encode and restored with Decode;
// Save and Load do the same against a hostfs.FS. Import and Export move file
// contents between the image and the host. IOFS exposes a read-only io/fs
// view for use with fs.WalkDir and friends.
//
// Operations on one FS are serialized by a single mutex held for the
// duration of each call.
package imagefs
