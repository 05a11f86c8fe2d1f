package encoding

import "github.com/chewxy/math32"

// PackedCovariance holds the six independent entries of a splat's symmetric
// 3x3 covariance matrix, pre-scaled by 4 and packed as half-float pairs:
// word 0 carries sigma00,sigma01, word 1 sigma02,sigma11, word 2 sigma12,sigma22.
//
// It is derived on demand from a record's scale and rotation and never
// persisted; the canonical record stores scale and quaternion bytes instead.
type PackedCovariance [3]uint32

// covarianceScale is the fixed multiplier applied to every covariance entry
// before packing, required by the consuming shading model.
const covarianceScale = 4.0

// DecodeQuaternion decodes the four rotation bytes of a canonical record into
// normalized quaternion components (w, x, y, z). Bytes map linearly from
// [0,255] to [-1,1) via (b-128)/128. A zero-norm encoding decodes to the
// identity quaternion rather than dividing by zero.
func DecodeQuaternion(rotation [4]byte) (w, x, y, z float32) {
	w = (float32(rotation[0]) - 128) / 128
	x = (float32(rotation[1]) - 128) / 128
	y = (float32(rotation[2]) - 128) / 128
	z = (float32(rotation[3]) - 128) / 128

	norm := math32.Sqrt(w*w + x*x + y*y + z*z)
	if norm == 0 {
		return 1, 0, 0, 0
	}

	return w / norm, x / norm, y / norm, z / norm
}

// PackCovariance computes the covariance matrix of a splat from its linear
// anisotropic scale and rotation bytes and packs it for transfer.
//
// The rotation matrix is built from the normalized quaternion, each column is
// scaled by the corresponding scale component to form M, and Sigma = 4*M*Mt
// is packed pairwise via PackHalf2x16. Sigma is symmetric by construction, so
// only the upper-triangular six entries are kept.
func PackCovariance(scale [3]float32, rotation [4]byte) PackedCovariance {
	sigma := Covariance(scale, rotation)

	return PackedCovariance{
		PackHalf2x16(sigma[0], sigma[1]),
		PackHalf2x16(sigma[2], sigma[3]),
		PackHalf2x16(sigma[4], sigma[5]),
	}
}

// Covariance returns the six upper-triangular entries of 4*M*Mt in the order
// sigma00, sigma01, sigma02, sigma11, sigma12, sigma22, before half-float
// quantization. Exposed separately so tests and debug tooling can compare
// unquantized values.
func Covariance(scale [3]float32, rotation [4]byte) [6]float32 {
	w, x, y, z := DecodeQuaternion(rotation)

	m := [9]float32{
		1 - 2*(y*y+z*z), 2 * (x*y + z*w), 2 * (x*z - y*w),
		2 * (x*y - z*w), 1 - 2*(x*x+z*z), 2 * (y*z + x*w),
		2 * (x*z + y*w), 2 * (y*z - x*w), 1 - 2*(x*x+y*y),
	}
	for i := range m {
		m[i] *= scale[i/3]
	}

	return [6]float32{
		covarianceScale * (m[0]*m[0] + m[3]*m[3] + m[6]*m[6]),
		covarianceScale * (m[0]*m[1] + m[3]*m[4] + m[6]*m[7]),
		covarianceScale * (m[0]*m[2] + m[3]*m[5] + m[6]*m[8]),
		covarianceScale * (m[1]*m[1] + m[4]*m[4] + m[7]*m[7]),
		covarianceScale * (m[1]*m[2] + m[4]*m[5] + m[7]*m[8]),
		covarianceScale * (m[2]*m[2] + m[5]*m[5] + m[8]*m[8]),
	}
}

// Unpack expands the packed words back to the six covariance entries in the
// same order Covariance produces them, with half-float precision loss.
func (p PackedCovariance) Unpack() [6]float32 {
	var out [6]float32
	out[0], out[1] = UnpackHalf2x16(p[0])
	out[2], out[3] = UnpackHalf2x16(p[1])
	out[4], out[5] = UnpackHalf2x16(p[2])

	return out
}
