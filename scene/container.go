package scene

import (
	"fmt"

	"github.com/arloliu/gsplat/compress"
	"github.com/arloliu/gsplat/errs"
	"github.com/arloliu/gsplat/format"
	"github.com/arloliu/gsplat/internal/options"
	"github.com/arloliu/gsplat/record"
	"github.com/arloliu/gsplat/section"
)

// ContainerConfig holds packing configuration.
type ContainerConfig struct {
	compression format.CompressionType
}

// ContainerOption is a functional option for Pack.
type ContainerOption = options.Option[*ContainerConfig]

// WithCompression selects the payload compression for a packed container.
// The default is no compression.
func WithCompression(c format.CompressionType) ContainerOption {
	return options.New(func(cfg *ContainerConfig) error {
		switch c {
		case format.CompressionNone, format.CompressionZstd, format.CompressionS2, format.CompressionLZ4:
			cfg.compression = c
			return nil
		default:
			return fmt.Errorf("invalid container compression: %s", c)
		}
	})
}

// Pack wraps a canonical splat buffer in a container: a fixed header carrying
// the record count, compression type and an xxHash64 payload digest, followed
// by the optionally compressed payload. The container is the cache format for
// encoded scenes; the headerless canonical buffer remains valid on its own.
func Pack(buffer record.Buffer, opts ...ContainerOption) ([]byte, error) {
	cfg := ContainerConfig{compression: format.CompressionNone}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	// Revalidate: Pack also accepts buffers constructed as plain byte slices.
	buffer, err := record.NewBuffer(buffer)
	if err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}
	payload, err := codec.Compress(buffer)
	if err != nil {
		return nil, fmt.Errorf("compress container payload: %w", err)
	}

	header := section.NewHeader(cfg.compression, uint32(buffer.Count()), buffer.Digest())
	header.PayloadSize = uint32(len(payload))

	out := make([]byte, 0, section.HeaderSize+len(payload))
	out = append(out, header.Bytes()...)
	out = append(out, payload...)

	return out, nil
}

// Unpack restores the canonical splat buffer from a packed container,
// verifying the header, the payload digest and the record count.
func Unpack(data []byte) (record.Buffer, error) {
	var header section.Header
	if err := header.Parse(data); err != nil {
		return nil, err
	}

	payload := data[section.HeaderSize:]
	if int(header.PayloadSize) != len(payload) {
		return nil, errs.ErrTruncatedBody
	}

	codec, err := compress.GetCodec(header.Compression)
	if err != nil {
		return nil, err
	}
	raw, err := codec.Decompress(payload)
	if err != nil {
		return nil, fmt.Errorf("decompress container payload: %w", err)
	}

	buffer, err := record.NewBuffer(raw)
	if err != nil {
		return nil, err
	}
	if buffer.Count() != int(header.RecordCount) {
		return nil, errs.ErrTruncatedBody
	}
	if buffer.Digest() != header.Digest {
		return nil, errs.ErrChecksumMismatch
	}

	return buffer, nil
}

// IsContainer reports whether data begins with the packed container magic.
func IsContainer(data []byte) bool {
	return section.IsContainer(data)
}
