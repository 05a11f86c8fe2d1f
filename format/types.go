package format

type (
	CompressionType uint8
	PropertyKind    uint8
)

const (
	CompressionNone CompressionType = 0x1 // CompressionNone represents no compression.
	CompressionZstd CompressionType = 0x2 // CompressionZstd represents Zstandard compression.
	CompressionS2   CompressionType = 0x3 // CompressionS2 represents S2 compression.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 represents LZ4 compression.

	KindDouble PropertyKind = 0x1 // 8-byte IEEE-754 binary64
	KindInt    PropertyKind = 0x2 // 4-byte signed integer
	KindUint   PropertyKind = 0x3 // 4-byte unsigned integer
	KindFloat  PropertyKind = 0x4 // 4-byte IEEE-754 binary32
	KindShort  PropertyKind = 0x5 // 2-byte signed integer
	KindUshort PropertyKind = 0x6 // 2-byte unsigned integer
	KindUchar  PropertyKind = 0x7 // 1-byte unsigned integer
	KindOpaque PropertyKind = 0x8 // unrecognized declared type, skipped as 4 bytes
)

// RecordSize is the fixed size in bytes of one canonical splat record.
const RecordSize = 32

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

func (k PropertyKind) String() string {
	switch k {
	case KindDouble:
		return "double"
	case KindInt:
		return "int"
	case KindUint:
		return "uint"
	case KindFloat:
		return "float"
	case KindShort:
		return "short"
	case KindUshort:
		return "ushort"
	case KindUchar:
		return "uchar"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Width returns the byte width one value of this kind occupies in a scene file
// row. Unrecognized kinds occupy 4 bytes.
func (k PropertyKind) Width() int {
	switch k {
	case KindDouble:
		return 8
	case KindShort, KindUshort:
		return 2
	case KindUchar:
		return 1
	default:
		return 4
	}
}
