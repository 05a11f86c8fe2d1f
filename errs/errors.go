// Package errs defines the sentinel errors shared across gsplat packages.
//
// All errors are plain wrapped sentinels so callers can classify failures with
// errors.Is without string matching:
//
//	buf, err := gsplat.EncodeScene(data)
//	if errors.Is(err, errs.ErrMissingVertexCount) {
//	    // malformed scene header
//	}
package errs

import "errors"

// Scene file parsing errors. These are structural: when one is returned the
// whole ingestion fails and no partial buffer is produced.
var (
	// ErrHeaderNotTerminated indicates the header terminator was not found
	// within the bounded scan window.
	ErrHeaderNotTerminated = errors.New("scene header not terminated")

	// ErrMissingVertexCount indicates the header lacks an "element vertex N"
	// declaration.
	ErrMissingVertexCount = errors.New("scene header missing vertex count")

	// ErrTruncatedBody indicates the binary body is shorter than the declared
	// record count times the row size.
	ErrTruncatedBody = errors.New("scene body shorter than declared record count")

	// ErrNotSceneFile indicates the input does not start with the scene file
	// magic sequence. Callers normally treat such input as an already-canonical
	// splat buffer rather than an error.
	ErrNotSceneFile = errors.New("input is not a scene file")
)

// Canonical buffer validation errors.
var (
	// ErrInvalidBufferLength indicates a canonical splat buffer whose length is
	// not a multiple of the 32-byte record size.
	ErrInvalidBufferLength = errors.New("splat buffer length not a multiple of record size")

	// ErrRecordOutOfRange indicates a record index beyond the buffer's count.
	ErrRecordOutOfRange = errors.New("splat record index out of range")
)

// Container errors.
var (
	// ErrInvalidHeaderSize indicates a container header shorter than the fixed
	// header size.
	ErrInvalidHeaderSize = errors.New("invalid container header size")

	// ErrInvalidMagicNumber indicates the container magic number does not match.
	ErrInvalidMagicNumber = errors.New("invalid container magic number")

	// ErrChecksumMismatch indicates the payload digest does not match the digest
	// recorded in the container header.
	ErrChecksumMismatch = errors.New("container payload checksum mismatch")

	// ErrInvalidCompression indicates an unknown compression type byte in the
	// container header.
	ErrInvalidCompression = errors.New("invalid container compression type")
)

// Depth sort service state errors.
var (
	// ErrNotInitialized indicates a sort was requested before Initialize
	// completed.
	ErrNotInitialized = errors.New("depth sort service not initialized")

	// ErrAlreadyInitialized indicates Initialize was called twice.
	ErrAlreadyInitialized = errors.New("depth sort service already initialized")

	// ErrDisposed indicates an operation was issued after Close.
	ErrDisposed = errors.New("depth sort service disposed")

	// ErrInvalidSortInterval indicates a throttle interval below 1.
	ErrInvalidSortInterval = errors.New("sort interval must be at least 1")

	// ErrInvalidMotionThreshold indicates a non-positive motion threshold.
	ErrInvalidMotionThreshold = errors.New("motion threshold must be positive")
)
