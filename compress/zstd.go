package compress

// ZstdCompressor provides Zstandard compression for canonical splat payloads.
//
// This compressor is designed for scenarios where compression ratio is more
// important than compression speed, making it ideal for:
//   - Cached encoded scenes on disk
//   - Network transmission of large scenes where bandwidth is limited
//   - Scenarios where decompression happens once per scene load
//
// Two implementations are selected at build time: a cgo binding (valyala/gozstd)
// when cgo is available, and a pure-Go fallback (klauspost/compress/zstd)
// otherwise. Both produce standard zstd frames and interoperate freely.
type ZstdCompressor struct{}

var _ Codec = (*ZstdCompressor)(nil)

// NewZstdCompressor creates a new Zstd compressor with default settings.
func NewZstdCompressor() ZstdCompressor {
	return ZstdCompressor{}
}
