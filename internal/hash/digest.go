package hash

import "github.com/cespare/xxhash/v2"

// Digest computes the xxHash64 digest of a canonical splat payload.
// It is stored in the container header and verified on unpack.
func Digest(data []byte) uint64 {
	return xxhash.Sum64(data)
}
