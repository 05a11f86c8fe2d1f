package scene

import (
	"fmt"
	"math"

	"github.com/chewxy/math32"

	"github.com/arloliu/gsplat/internal/logging"
	"github.com/arloliu/gsplat/internal/options"
	"github.com/arloliu/gsplat/ply"
	"github.com/arloliu/gsplat/record"
)

// shC0 is the constant spherical-harmonic basis factor for the DC color term.
const shC0 = 0.28209479177387814

// defaultLinearScale is the linear per-axis scale used when a scene declares
// no scale properties. Applied directly, not exponentiated: raw scene scale
// fields are log-scale, but this constant is already linear.
const defaultLinearScale = 0.01

// identityRotationBytes is the rotation encoding used when a scene declares no
// rotation properties, matching the reference converter's default.
var identityRotationBytes = [4]byte{255, 0, 0, 0}

// EncoderConfig holds splat encoder configuration.
type EncoderConfig struct {
	defaultScale float32
}

// EncoderOption is a functional option for NewEncoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithDefaultScale overrides the linear scale assigned to records whose scene
// declares no scale properties.
func WithDefaultScale(s float32) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		if s <= 0 {
			return fmt.Errorf("default scale must be positive, got %v", s)
		}
		c.defaultScale = s

		return nil
	})
}

// EncodeStats reports what the last Encode call produced.
type EncodeStats struct {
	// Records is the number of records written.
	Records int
	// Defaulted is the number of records replaced wholesale by the default
	// record after a per-record decode failure.
	Defaulted int
}

// Encoder converts a parsed scene into a canonical splat buffer.
//
// The Encoder is not safe for concurrent use; encode one scene at a time per
// instance.
type Encoder struct {
	cfg   EncoderConfig
	stats EncodeStats
}

// NewEncoder creates a splat encoder.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := EncoderConfig{defaultScale: defaultLinearScale}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Encoder{cfg: cfg}, nil
}

// Encode walks the permutation and writes one canonical 32-byte record per
// source record, output slot j holding source record order[j]. A nil order
// means identity.
//
// Missing optional properties yield documented defaults; a failure while
// decoding a single record degrades that record to the fixed default record
// and logs a warning instead of aborting the buffer. The returned buffer
// length is always Count*32.
func (e *Encoder) Encode(sc *ply.Scene, order []uint32) ([]byte, error) {
	n := sc.Count()
	if order != nil && len(order) != n {
		return nil, fmt.Errorf("permutation length %d does not match record count %d", len(order), n)
	}

	e.stats = EncodeStats{Records: n}
	buf := make([]byte, 0, n*record.Size)

	for j := range n {
		src := j
		if order != nil {
			src = int(order[j])
		}

		rec, ok := e.encodeRecord(sc, src)
		if !ok {
			rec = e.defaultRecord()
			e.stats.Defaulted++
			logging.Logger().Warn("replacing malformed splat record with default",
				"source_index", src, "output_index", j)
		}
		buf = rec.AppendTo(buf)
	}

	return buf, nil
}

// Stats returns statistics for the most recent Encode call.
func (e *Encoder) Stats() EncodeStats {
	return e.stats
}

// encodeRecord decodes one source record. The boolean result is false when
// decoding failed; any panic from malformed per-record data is confined here
// so one bad splat cannot discard an otherwise valid scene.
func (e *Encoder) encodeRecord(sc *ply.Scene, src int) (rec record.Record, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	rec.Position = e.readPosition(sc, src)
	rec.Scale = e.readScale(sc, src)
	rec.Color = e.readColor(sc, src)
	rec.Rotation = e.readRotation(sc, src)

	return rec, true
}

func (e *Encoder) readPosition(sc *ply.Scene, src int) [3]float32 {
	var pos [3]float32
	for i, name := range [3]string{"x", "y", "z"} {
		if v, ok := sc.ReadField(src, name); ok {
			pos[i] = float32(v)
		}
	}

	return pos
}

// readScale exponentiates the log-scale scene fields into the linear scale the
// canonical record stores. Absent axes get the default linear scale directly.
func (e *Encoder) readScale(sc *ply.Scene, src int) [3]float32 {
	var scale [3]float32
	for i, name := range scaleProperties {
		if v, ok := sc.ReadField(src, name); ok {
			scale[i] = math32.Exp(float32(v))
		} else {
			scale[i] = e.cfg.defaultScale
		}
	}

	return scale
}

// readColor prefers the spherical-harmonic DC terms, falling back to direct
// red/green/blue fields, then mid-gray. Alpha is the sigmoid of the raw
// opacity logit, or fully opaque when absent.
func (e *Encoder) readColor(sc *ply.Scene, src int) [4]byte {
	var color [4]byte

	if sc.Has("f_dc_0") {
		for i, name := range [3]string{"f_dc_0", "f_dc_1", "f_dc_2"} {
			v, _ := sc.ReadField(src, name)
			color[i] = clampByte((0.5 + shC0*v) * 255)
		}
	} else {
		for i, name := range [3]string{"red", "green", "blue"} {
			if v, ok := sc.ReadField(src, name); ok {
				color[i] = clampByte(v)
			} else {
				color[i] = 128
			}
		}
	}

	if v, ok := sc.ReadField(src, "opacity"); ok {
		color[3] = clampByte(sigmoid(v) * 255)
	} else {
		color[3] = 255
	}

	return color
}

// readRotation normalizes the quaternion fields and maps each component from
// [-1,1] to a byte via round(c*128+128). A missing or zero-length quaternion
// yields the reference converter's identity-like default bytes.
func (e *Encoder) readRotation(sc *ply.Scene, src int) [4]byte {
	if !sc.Has("rot_0") {
		return identityRotationBytes
	}

	var q [4]float64
	for i, name := range [4]string{"rot_0", "rot_1", "rot_2", "rot_3"} {
		q[i], _ = sc.ReadField(src, name)
	}
	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm == 0 {
		return identityRotationBytes
	}

	var rot [4]byte
	for i := range q {
		rot[i] = clampByte(q[i]/norm*128 + 128)
	}

	return rot
}

// defaultRecord is the fixed replacement for records that failed to decode.
func (e *Encoder) defaultRecord() record.Record {
	return record.Record{
		Scale:    [3]float32{e.cfg.defaultScale, e.cfg.defaultScale, e.cfg.defaultScale},
		Color:    [4]byte{128, 128, 128, 255},
		Rotation: identityRotationBytes,
	}
}

// clampByte rounds v to the nearest integer and clamps it to [0,255].
func clampByte(v float64) byte {
	r := math.Round(v)
	switch {
	case r <= 0:
		return 0
	case r >= 255:
		return 255
	default:
		return byte(r)
	}
}
