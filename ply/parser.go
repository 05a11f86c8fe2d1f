// Package ply parses the text-header / binary-body scene files produced by
// Gaussian splatting training pipelines.
//
// Only the subset of the format that splat scenes use is supported: a single
// "element vertex N" declaration followed by scalar little-endian properties.
// Parsing builds a property table once; per-record reads go through reader
// functions resolved at parse time, so the hot ingestion loop performs no type
// dispatch and no allocation.
package ply

import (
	"bytes"
	"math"
	"strconv"
	"strings"

	"github.com/arloliu/gsplat/endian"
	"github.com/arloliu/gsplat/errs"
	"github.com/arloliu/gsplat/format"
)

const (
	// magic is the fixed four-byte sequence (including the newline) opening a
	// scene file. Input without it is treated as already-canonical splat data
	// by callers, not as an error.
	magic = "ply\n"

	// headerTerminator ends the ASCII header; the binary body begins
	// immediately after it.
	headerTerminator = "end_header\n"

	// headerScanLimit bounds the terminator search so a corrupt or truncated
	// file cannot force a scan of the whole body.
	headerScanLimit = 10 * 1024
)

// readFunc decodes one property value from a full row slice.
type readFunc func(row []byte) float64

// Property describes one declared per-vertex property.
type Property struct {
	Name   string
	Kind   format.PropertyKind
	Offset int

	read readFunc
}

// Scene is a parsed scene file: the property table plus raw access to the
// binary body. It references the input buffer without copying; the buffer
// must stay alive and unmodified while the Scene is in use.
type Scene struct {
	count   int
	rowSize int
	props   map[string]*Property
	order   []*Property
	body    []byte
}

// IsSceneFile reports whether data begins with the scene file magic sequence.
func IsSceneFile(data []byte) bool {
	return len(data) >= len(magic) && string(data[:len(magic)]) == magic
}

// Parse parses a scene file buffer.
//
// Returns ErrNotSceneFile when the magic is absent, ErrHeaderNotTerminated
// when no header terminator appears within the bounded scan window,
// ErrMissingVertexCount when the header lacks an "element vertex N"
// declaration, and ErrTruncatedBody when the binary body cannot hold the
// declared record count. All of these abort ingestion; no partial scene is
// returned.
func Parse(data []byte) (*Scene, error) {
	if !IsSceneFile(data) {
		return nil, errs.ErrNotSceneFile
	}

	window := data
	if len(window) > headerScanLimit {
		window = window[:headerScanLimit]
	}
	end := bytes.Index(window, []byte(headerTerminator))
	if end < 0 {
		return nil, errs.ErrHeaderNotTerminated
	}

	s := &Scene{
		count: -1,
		props: make(map[string]*Property),
		body:  data[end+len(headerTerminator):],
	}

	for line := range strings.Lines(string(data[:end])) {
		fields := strings.Fields(line)
		if len(fields) < 3 {
			continue
		}
		switch fields[0] {
		case "element":
			if fields[1] == "vertex" {
				n, err := strconv.Atoi(fields[2])
				if err == nil && n >= 0 {
					s.count = n
				}
			}
		case "property":
			s.addProperty(fields[1], fields[2])
		}
	}

	if s.count < 0 {
		return nil, errs.ErrMissingVertexCount
	}
	if s.rowSize > 0 && len(s.body) < s.count*s.rowSize {
		return nil, errs.ErrTruncatedBody
	}

	return s, nil
}

// addProperty appends a property declaration to the table, advancing the
// running row size by the property's width. Unrecognized type names occupy
// 4 bytes and are unreadable, a defensive fallback rather than a fatal error.
func (s *Scene) addProperty(typeName, name string) {
	kind := kindOf(typeName)
	p := &Property{
		Name:   name,
		Kind:   kind,
		Offset: s.rowSize,
		read:   resolveReader(kind, s.rowSize),
	}
	s.rowSize += kind.Width()
	s.props[name] = p
	s.order = append(s.order, p)
}

func kindOf(typeName string) format.PropertyKind {
	switch typeName {
	case "double", "float64":
		return format.KindDouble
	case "int", "int32":
		return format.KindInt
	case "uint", "uint32":
		return format.KindUint
	case "float", "float32":
		return format.KindFloat
	case "short", "int16":
		return format.KindShort
	case "ushort", "uint16":
		return format.KindUshort
	case "uchar", "uint8":
		return format.KindUchar
	default:
		return format.KindOpaque
	}
}

// resolveReader binds a decoder for the property's kind and byte offset once,
// at parse time. Opaque kinds have no reader; ReadField reports them absent.
func resolveReader(kind format.PropertyKind, offset int) readFunc {
	engine := endian.GetLittleEndianEngine()

	switch kind {
	case format.KindDouble:
		return func(row []byte) float64 {
			return math.Float64frombits(engine.Uint64(row[offset : offset+8]))
		}
	case format.KindInt:
		return func(row []byte) float64 {
			return float64(int32(engine.Uint32(row[offset : offset+4])))
		}
	case format.KindUint:
		return func(row []byte) float64 {
			return float64(engine.Uint32(row[offset : offset+4]))
		}
	case format.KindFloat:
		return func(row []byte) float64 {
			return float64(math.Float32frombits(engine.Uint32(row[offset : offset+4])))
		}
	case format.KindShort:
		return func(row []byte) float64 {
			return float64(int16(engine.Uint16(row[offset : offset+2])))
		}
	case format.KindUshort:
		return func(row []byte) float64 {
			return float64(engine.Uint16(row[offset : offset+2]))
		}
	case format.KindUchar:
		return func(row []byte) float64 {
			return float64(row[offset])
		}
	default:
		return nil
	}
}

// Count returns the declared record count.
func (s *Scene) Count() int { return s.count }

// RowSize returns the byte size of one binary body row.
func (s *Scene) RowSize() int { return s.rowSize }

// Has reports whether a readable property with the given name was declared.
func (s *Scene) Has(name string) bool {
	p, ok := s.props[name]

	return ok && p.read != nil
}

// Properties returns the declared properties in declaration order.
func (s *Scene) Properties() []*Property {
	return s.order
}

// ReadField reads one property value from one record row.
//
// The boolean result is false when the property is absent, unreadable, or the
// row index is out of range; callers treat that as "use the default value",
// never as a fatal condition.
func (s *Scene) ReadField(row int, name string) (float64, bool) {
	p, ok := s.props[name]
	if !ok || p.read == nil {
		return 0, false
	}
	if row < 0 || row >= s.count {
		return 0, false
	}

	base := row * s.rowSize
	return p.read(s.body[base : base+s.rowSize]), true
}
