package data

import "errors"

// Standard engine errors. Codecs, stores and the engine wrap these with
// fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	// ErrUnsupportedContainer means the byte stream is not a container any
	// registered codec recognizes. Import and Embed abort with no effect.
	ErrUnsupportedContainer = errors.New("metasync: unsupported container format")

	// ErrCorruptMetadata means decode found malformed blocks. Harvesting
	// recovers into a partial snapshot plus diagnostics; it is never fatal.
	ErrCorruptMetadata = errors.New("metasync: corrupt metadata block")

	// ErrWriteFailure means the atomic file replace failed. The original
	// file is untouched.
	ErrWriteFailure = errors.New("metasync: file write failed")

	// ErrStoreFailure means a catalog read or write failed. The operation
	// aborts and unsaved edits stay with the caller.
	ErrStoreFailure = errors.New("metasync: catalog store failure")

	// ErrNotExist means the catalog has no record for the media identity.
	ErrNotExist = errors.New("metasync: record does not exist")

	// ErrMetadataTooLarge means the bundle does not fit the container's
	// block size limits.
	ErrMetadataTooLarge = errors.New("metasync: metadata too large for container")
)
