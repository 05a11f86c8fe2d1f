package record

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/gsplat/errs"
)

func sampleRecord() Record {
	return Record{
		Position: [3]float32{1.5, -2.25, 3},
		Scale:    [3]float32{0.5, 1, 2},
		Color:    [4]byte{10, 20, 30, 255},
		Rotation: [4]byte{255, 128, 128, 128},
	}
}

func TestRecord_RoundTrip(t *testing.T) {
	original := sampleRecord()
	data := original.Bytes()
	require.Len(t, data, Size)

	var parsed Record
	require.NoError(t, parsed.Parse(data))
	require.Equal(t, original, parsed)
}

func TestRecord_ParseShortData(t *testing.T) {
	var r Record
	err := r.Parse(make([]byte, Size-1))
	require.ErrorIs(t, err, errs.ErrInvalidBufferLength)
}

func TestNewBuffer(t *testing.T) {
	t.Run("valid multiples", func(t *testing.T) {
		for _, n := range []int{0, 1, 7} {
			buf, err := NewBuffer(make([]byte, n*Size))
			require.NoError(t, err)
			require.Equal(t, n, buf.Count())
		}
	})

	t.Run("invalid length", func(t *testing.T) {
		_, err := NewBuffer(make([]byte, Size+5))
		require.ErrorIs(t, err, errs.ErrInvalidBufferLength)
	})
}

func TestBuffer_At(t *testing.T) {
	first := sampleRecord()
	second := sampleRecord()
	second.Position = [3]float32{-7, 8, 9.5}

	data := first.AppendTo(nil)
	data = second.AppendTo(data)

	buf, err := NewBuffer(data)
	require.NoError(t, err)
	require.Equal(t, 2, buf.Count())

	got, err := buf.At(0)
	require.NoError(t, err)
	require.Equal(t, first, got)

	got, err = buf.At(1)
	require.NoError(t, err)
	require.Equal(t, second, got)

	_, err = buf.At(2)
	require.ErrorIs(t, err, errs.ErrRecordOutOfRange)
	_, err = buf.At(-1)
	require.ErrorIs(t, err, errs.ErrRecordOutOfRange)
}

func TestBuffer_Position(t *testing.T) {
	rec := sampleRecord()
	buf, err := NewBuffer(rec.Bytes())
	require.NoError(t, err)

	x, y, z := buf.Position(0)
	require.Equal(t, rec.Position[0], x)
	require.Equal(t, rec.Position[1], y)
	require.Equal(t, rec.Position[2], z)
}

func TestBuffer_Digest(t *testing.T) {
	a, err := NewBuffer(sampleRecord().Bytes())
	require.NoError(t, err)
	b, err := NewBuffer(sampleRecord().Bytes())
	require.NoError(t, err)

	require.Equal(t, a.Digest(), b.Digest())

	changed := sampleRecord()
	changed.Color[0] = 11
	c, err := NewBuffer(changed.Bytes())
	require.NoError(t, err)
	require.NotEqual(t, a.Digest(), c.Digest())
}

func TestRecord_PackedCovariance(t *testing.T) {
	rec := sampleRecord()
	p := rec.PackedCovariance()

	// Identity rotation: diagonal is 4*scale^2, exactly representable here.
	got := p.Unpack()
	require.Equal(t, float32(1), got[0])  // 4 * 0.5^2
	require.Equal(t, float32(4), got[3])  // 4 * 1^2
	require.Equal(t, float32(16), got[5]) // 4 * 2^2
	require.Zero(t, got[1])
	require.Zero(t, got[2])
	require.Zero(t, got[4])
}
