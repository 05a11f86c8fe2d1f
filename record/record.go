// Package record defines the canonical 32-byte splat record and the buffer
// type wrapping a contiguous sequence of records.
//
// The record is the sole persisted and transferred unit of a splat scene.
// Position in the buffer is identity: consumers reference splats by index, and
// reorderings (importance at encode time, depth at render time) are always
// expressed as index permutations, never by rewriting the buffer.
package record

import (
	"math"

	"github.com/arloliu/gsplat/encoding"
	"github.com/arloliu/gsplat/endian"
	"github.com/arloliu/gsplat/errs"
	"github.com/arloliu/gsplat/format"
	"github.com/arloliu/gsplat/internal/hash"
)

// Size is the fixed byte size of one canonical record.
const Size = format.RecordSize

// engine is the byte order of the canonical layout. The format is defined
// little-endian; there is no big-endian variant.
var engine = endian.GetLittleEndianEngine()

// Record is the decoded view of one canonical splat record.
//
// Layout (little-endian, no padding):
//
//	offset  0, 12 bytes: position, 3x float32 world-space x,y,z
//	offset 12, 12 bytes: scale, 3x float32 linear (already exponentiated)
//	offset 24,  4 bytes: color, RGBA uint8, alpha encodes opacity
//	offset 28,  4 bytes: rotation, quaternion components mapped from [-1,1]
//	                     to [0,255] via byte = round(c*128+128)
type Record struct {
	Position [3]float32
	Scale    [3]float32
	Color    [4]byte
	Rotation [4]byte
}

// Parse decodes a record from data, which must be at least Size bytes.
func (r *Record) Parse(data []byte) error {
	if len(data) < Size {
		return errs.ErrInvalidBufferLength
	}

	for i := range 3 {
		r.Position[i] = math.Float32frombits(engine.Uint32(data[i*4 : i*4+4]))
		r.Scale[i] = math.Float32frombits(engine.Uint32(data[12+i*4 : 16+i*4]))
	}
	copy(r.Color[:], data[24:28])
	copy(r.Rotation[:], data[28:32])

	return nil
}

// AppendTo appends the record's canonical 32-byte encoding to buf.
func (r Record) AppendTo(buf []byte) []byte {
	for i := range 3 {
		buf = engine.AppendUint32(buf, math.Float32bits(r.Position[i]))
	}
	for i := range 3 {
		buf = engine.AppendUint32(buf, math.Float32bits(r.Scale[i]))
	}
	buf = append(buf, r.Color[:]...)
	buf = append(buf, r.Rotation[:]...)

	return buf
}

// Bytes returns the record's canonical 32-byte encoding.
func (r Record) Bytes() []byte {
	return r.AppendTo(make([]byte, 0, Size))
}

// PackedCovariance derives the packed covariance words from the record's
// scale and rotation. The result is ephemeral; it is recomputed on demand and
// never stored in the buffer.
func (r Record) PackedCovariance() encoding.PackedCovariance {
	return encoding.PackCovariance(r.Scale, r.Rotation)
}

// Buffer is a canonical splat buffer: count = len/Size records, immutable for
// the session once encoded.
type Buffer []byte

// NewBuffer validates that data is a whole number of records and wraps it
// without copying. Returns ErrInvalidBufferLength otherwise.
func NewBuffer(data []byte) (Buffer, error) {
	if len(data)%Size != 0 {
		return nil, errs.ErrInvalidBufferLength
	}

	return Buffer(data), nil
}

// Count returns the number of records in the buffer.
func (b Buffer) Count() int {
	return len(b) / Size
}

// At decodes record i. Returns ErrRecordOutOfRange if i is out of bounds.
func (b Buffer) At(i int) (Record, error) {
	if i < 0 || i >= b.Count() {
		return Record{}, errs.ErrRecordOutOfRange
	}

	var r Record
	_ = r.Parse(b[i*Size:])

	return r, nil
}

// Position returns record i's world-space position without decoding the whole
// record. It is the depth sort hot path; the caller must keep i within
// [0, Count()).
func (b Buffer) Position(i int) (x, y, z float32) {
	base := i * Size
	x = math.Float32frombits(engine.Uint32(b[base : base+4]))
	y = math.Float32frombits(engine.Uint32(b[base+4 : base+8]))
	z = math.Float32frombits(engine.Uint32(b[base+8 : base+12]))

	return x, y, z
}

// Digest returns the xxHash64 digest of the buffer contents, used as the
// integrity checksum in packed containers and as a cache key for encoded
// scenes.
func (b Buffer) Digest() uint64 {
	return hash.Digest(b)
}
