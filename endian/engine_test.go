package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGetEngines(t *testing.T) {
	require.Equal(t, binary.LittleEndian, GetLittleEndianEngine())
	require.Equal(t, binary.BigEndian, GetBigEndianEngine())
}

func TestCheckEndianness(t *testing.T) {
	// Exactly one of the two must hold on any host.
	require.NotEqual(t, IsNativeLittleEndian(), IsNativeBigEndian())
	if IsNativeLittleEndian() {
		require.Equal(t, binary.ByteOrder(binary.LittleEndian), CheckEndianness())
	} else {
		require.Equal(t, binary.ByteOrder(binary.BigEndian), CheckEndianness())
	}
}

func TestEngineRoundTrip(t *testing.T) {
	engine := GetLittleEndianEngine()

	buf := engine.AppendUint32(nil, 0xDEADBEEF)
	buf = engine.AppendUint64(buf, 0x0123456789ABCDEF)
	require.Len(t, buf, 12)

	require.Equal(t, uint32(0xDEADBEEF), engine.Uint32(buf[0:4]))
	require.Equal(t, uint64(0x0123456789ABCDEF), engine.Uint64(buf[4:12]))

	// Little-endian puts the least significant byte first.
	require.Equal(t, byte(0xEF), buf[0])
}
