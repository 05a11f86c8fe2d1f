// Package section defines the fixed-size binary sections of the packed scene
// container format.
package section

import (
	"github.com/arloliu/gsplat/endian"
	"github.com/arloliu/gsplat/errs"
	"github.com/arloliu/gsplat/format"
)

const (
	// HeaderSize is the fixed byte size of the container header.
	HeaderSize = 24

	// MagicNumber identifies a packed scene container ("GSPT", little-endian).
	MagicNumber uint32 = 0x54505347

	// Version is the current container format version.
	Version uint8 = 1
)

// engine is the container byte order. The container, like the canonical
// record layout it wraps, is defined little-endian.
var engine = endian.GetLittleEndianEngine()

// Header is the fixed 24-byte header of a packed scene container.
//
// Layout (little-endian):
//
//	offset  0, 4 bytes: magic number
//	offset  4, 1 byte:  format version
//	offset  5, 1 byte:  payload compression type
//	offset  6, 2 bytes: reserved, zero
//	offset  8, 4 bytes: record count
//	offset 12, 4 bytes: stored (compressed) payload byte length
//	offset 16, 8 bytes: xxHash64 digest of the uncompressed payload
type Header struct {
	Version     uint8
	Compression format.CompressionType
	RecordCount uint32
	PayloadSize uint32
	Digest      uint64
}

// NewHeader creates a container header for a canonical payload.
func NewHeader(compression format.CompressionType, recordCount uint32, digest uint64) *Header {
	return &Header{
		Version:     Version,
		Compression: compression,
		RecordCount: recordCount,
		Digest:      digest,
	}
}

// Parse parses the header from a byte slice.
//
// Returns ErrInvalidHeaderSize if data is shorter than HeaderSize,
// ErrInvalidMagicNumber on a magic mismatch, and ErrInvalidCompression for an
// unknown compression type byte.
func (h *Header) Parse(data []byte) error {
	if len(data) < HeaderSize {
		return errs.ErrInvalidHeaderSize
	}
	if engine.Uint32(data[0:4]) != MagicNumber {
		return errs.ErrInvalidMagicNumber
	}

	h.Version = data[4]
	h.Compression = format.CompressionType(data[5])
	h.RecordCount = engine.Uint32(data[8:12])
	h.PayloadSize = engine.Uint32(data[12:16])
	h.Digest = engine.Uint64(data[16:24])

	switch h.Compression {
	case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
	default:
		return errs.ErrInvalidCompression
	}

	return nil
}

// Bytes serializes the header into a byte slice of HeaderSize bytes.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)

	engine.PutUint32(b[0:4], MagicNumber)
	b[4] = h.Version
	b[5] = byte(h.Compression)
	engine.PutUint32(b[8:12], h.RecordCount)
	engine.PutUint32(b[12:16], h.PayloadSize)
	engine.PutUint64(b[16:24], h.Digest)

	return b
}

// IsContainer reports whether data begins with the container magic number.
func IsContainer(data []byte) bool {
	return len(data) >= 4 && engine.Uint32(data[0:4]) == MagicNumber
}
