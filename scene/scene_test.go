package scene

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/gsplat/ply"
)

// buildSceneFile assembles a binary scene file where every property is a
// float32, one row per record.
func buildSceneFile(t *testing.T, props []string, rows [][]float32) []byte {
	t.Helper()

	var b bytes.Buffer
	fmt.Fprintf(&b, "ply\nformat binary_little_endian 1.0\nelement vertex %d\n", len(rows))
	for _, p := range props {
		fmt.Fprintf(&b, "property float %s\n", p)
	}
	b.WriteString("end_header\n")

	for _, row := range rows {
		require.Len(t, row, len(props))
		for _, v := range row {
			var word [4]byte
			binary.LittleEndian.PutUint32(word[:], math.Float32bits(v))
			b.Write(word[:])
		}
	}

	return b.Bytes()
}

func parseScene(t *testing.T, props []string, rows [][]float32) *ply.Scene {
	t.Helper()

	sc, err := ply.Parse(buildSceneFile(t, props, rows))
	require.NoError(t, err)

	return sc
}
