// Package encoding implements the numeric codecs of the splat pipeline: the
// binary16 half-float conversion used for GPU transfer and the covariance
// packing derived from per-splat scale and orientation.
package encoding

import "math"

// Half-float layout constants for binary16.
const (
	halfSignMask     = 0x8000
	halfExponentBits = 10
	halfInfinity     = 0x7C00

	// float32 exponents below this produce half subnormals or zero,
	// exponents at or above halfOverflowExponent saturate to infinity.
	halfSubnormalExponent = 113
	halfOverflowExponent  = 142

	// Exponent bias difference between binary32 (127) and binary16 (15).
	exponentBiasDelta = 112
)

// Float32ToHalf converts a float32 to its binary16 bit pattern.
//
// The conversion reproduces the reference converter bit-for-bit: values in the
// normal half range have their mantissa truncated, values below the smallest
// normal half are rounded to nearest with a carry into the exponent when the
// round-up overflows the subnormal mantissa, and values at or above the half
// overflow threshold (source exponent 142) saturate to the infinity pattern
// with a zero mantissa. NaN inputs also map to the infinity pattern.
func Float32ToHalf(f float32) uint16 {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & halfSignMask
	exp := int32(bits>>23) & 0xff
	frac := bits & 0x007fffff

	switch {
	case exp == 0:
		// Zero or a float32 subnormal. Both are far below the smallest half
		// subnormal, so only the sign survives.
		return sign
	case exp < halfSubnormalExponent:
		// Half subnormal range. Restore the implicit leading bit, shift the
		// mantissa into place and round to nearest.
		frac |= 0x00800000
		frac >>= uint32(halfSubnormalExponent - exp)
		if frac&0x00001000 != 0 {
			frac += 0x00002000
		}
		if frac&0x00800000 != 0 {
			// Round-up carried out of the subnormal range: the result is the
			// smallest normal half (exponent 1, mantissa 0).
			return sign | 1<<halfExponentBits
		}

		return sign | uint16(frac>>13)
	case exp < halfOverflowExponent:
		return sign | uint16(exp-exponentBiasDelta)<<halfExponentBits | uint16(frac>>13)
	default:
		return sign | halfInfinity
	}
}

// HalfToFloat32 converts a binary16 bit pattern back to float32.
//
// The conversion is exact: every binary16 value is representable in binary32.
func HalfToFloat32(h uint16) float32 {
	sign := uint32(h&halfSignMask) << 16
	exp := uint32(h>>halfExponentBits) & 0x1f
	frac := uint32(h & 0x03ff)

	switch {
	case exp == 0:
		if frac == 0 {
			return math.Float32frombits(sign)
		}
		// Normalize the subnormal: shift until the implicit bit appears,
		// lowering the exponent accordingly.
		e := uint32(halfSubnormalExponent)
		for frac&0x0400 == 0 {
			frac <<= 1
			e--
		}
		frac &= 0x03ff

		return math.Float32frombits(sign | e<<23 | frac<<13)
	case exp == 0x1f:
		return math.Float32frombits(sign | 0x7f800000 | frac<<13)
	default:
		return math.Float32frombits(sign | (exp+exponentBiasDelta)<<23 | frac<<13)
	}
}

// PackHalf2x16 packs two float32 values into one 32-bit word as a pair of
// half-floats, x in the low 16 bits and y in the high 16 bits. This matches
// the packHalf2x16 convention consumed by the shading side.
func PackHalf2x16(x, y float32) uint32 {
	return uint32(Float32ToHalf(x)) | uint32(Float32ToHalf(y))<<16
}

// UnpackHalf2x16 is the inverse of PackHalf2x16.
func UnpackHalf2x16(w uint32) (x, y float32) {
	return HalfToFloat32(uint16(w)), HalfToFloat32(uint16(w >> 16))
}
