// Package gsplat provides a compact binary pipeline for Gaussian splat
// scenes: scene-file ingestion with importance-based reordering, a canonical
// fixed-layout 32-byte record format consumed by real-time renderers, and a
// concurrent depth sorting service that keeps the draw order correct as the
// viewpoint moves.
//
// # Core Features
//
//   - Scene-file parsing with per-property readers resolved once at parse time
//   - Importance ranking (volume x opacity) front-loading significant splats
//   - Canonical 32-byte little-endian splat records, position-is-identity
//   - Bit-exact half-float covariance packing for GPU transfer
//   - Packed containers with optional compression (Zstd, S2, LZ4) and
//     xxHash64 integrity digests for caching encoded scenes
//   - Background depth sorting with staleness detection and throttling
//
// # Basic Usage
//
// Encoding a scene file into a canonical buffer:
//
//	data, _ := os.ReadFile("scene.ply")
//	buf, err := gsplat.EncodeScene(data)
//	if err != nil {
//	    return err
//	}
//
// Keeping the buffer depth-sorted at render cadence:
//
//	svc, _ := depthsort.NewService()
//	_ = svc.Initialize()
//	defer svc.Close()
//	// per frame:
//	res, _ := svc.SortThrottled(viewProj, buf)
//	if res != nil {
//	    draw(buf, res.Permutation)
//	}
//
// # Package Structure
//
// This package provides convenient top-level wrappers around the ply, scene,
// record and depthsort packages, covering the common load-and-render flow.
// For fine-grained control (custom default scale, container compression,
// encode statistics) use those packages directly.
package gsplat

import (
	"log/slog"

	"github.com/arloliu/gsplat/internal/logging"
	"github.com/arloliu/gsplat/ply"
	"github.com/arloliu/gsplat/record"
	"github.com/arloliu/gsplat/scene"
)

// EncodeScene converts scene data into a canonical splat buffer.
//
// Recognized scene files are parsed, importance-ranked and encoded. Packed
// containers are unpacked and verified. Anything else is validated as an
// already-canonical buffer and returned unchanged.
func EncodeScene(data []byte, opts ...scene.EncoderOption) (record.Buffer, error) {
	switch {
	case ply.IsSceneFile(data):
		sc, err := ply.Parse(data)
		if err != nil {
			return nil, err
		}
		enc, err := scene.NewEncoder(opts...)
		if err != nil {
			return nil, err
		}
		buf, err := enc.Encode(sc, scene.Rank(sc))
		if err != nil {
			return nil, err
		}

		return record.Buffer(buf), nil
	case scene.IsContainer(data):
		return scene.Unpack(data)
	default:
		return record.NewBuffer(data)
	}
}

// Pack wraps a canonical buffer in a packed container for caching or
// transmission. See scene.Pack for compression options.
func Pack(buffer record.Buffer, opts ...scene.ContainerOption) ([]byte, error) {
	return scene.Pack(buffer, opts...)
}

// Unpack restores a canonical buffer from a packed container, verifying its
// integrity digest.
func Unpack(data []byte) (record.Buffer, error) {
	return scene.Unpack(data)
}

// SetLogger configures the logger for gsplat and all its sub-packages.
// By default gsplat produces no log output. Pass nil to restore silence.
//
// Log levels used by gsplat:
//   - [slog.LevelWarn]: per-record decode failures degraded to defaults
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger used by gsplat.
func Logger() *slog.Logger {
	return logging.Logger()
}
