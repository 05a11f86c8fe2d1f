package scene

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRank_DescendingByVolume(t *testing.T) {
	// Volume factor is exp(scale_0)*exp(scale_1)*exp(scale_2); record 1 is
	// largest, record 2 smallest.
	sc := parseScene(t, []string{"x", "scale_0", "scale_1", "scale_2"}, [][]float32{
		{0, 0, 0, 0},    // volume 1
		{0, 1, 1, 1},    // volume e^3
		{0, -2, -2, -2}, // volume e^-6
	})

	order := Rank(sc)
	require.Equal(t, []uint32{1, 0, 2}, order)
}

func TestRank_OpacityWeighting(t *testing.T) {
	// Equal volumes; opacity decides. Sigmoid is monotonic, so the higher
	// logit ranks first.
	sc := parseScene(t, []string{"x", "opacity"}, [][]float32{
		{0, -4},
		{0, 4},
		{0, 0},
	})

	order := Rank(sc)
	require.Equal(t, []uint32{1, 2, 0}, order)
}

func TestRank_TieBreakAscendingIndex(t *testing.T) {
	// All keys equal: the permutation must keep ascending source order so
	// identical inputs always encode identically.
	sc := parseScene(t, []string{"x"}, [][]float32{
		{3}, {1}, {2}, {0},
	})

	order := Rank(sc)
	require.Equal(t, []uint32{0, 1, 2, 3}, order)
}

func TestRank_MissingPropertiesDefault(t *testing.T) {
	// No scale and no opacity at all: every key is 1, identity order.
	sc := parseScene(t, []string{"x", "y", "z"}, [][]float32{
		{1, 2, 3},
		{4, 5, 6},
	})

	order := Rank(sc)
	require.Equal(t, []uint32{0, 1}, order)
}

func TestRank_Empty(t *testing.T) {
	sc := parseScene(t, []string{"x"}, nil)
	require.Empty(t, Rank(sc))
}

func TestRank_IsPermutation(t *testing.T) {
	rows := make([][]float32, 100)
	for i := range rows {
		rows[i] = []float32{float32(i % 7), float32((i * 13) % 5)}
	}
	sc := parseScene(t, []string{"scale_0", "opacity"}, rows)

	order := Rank(sc)
	require.Len(t, order, len(rows))

	seen := make(map[uint32]bool, len(order))
	for _, idx := range order {
		require.Less(t, int(idx), len(rows))
		require.False(t, seen[idx], "index %d appears twice", idx)
		seen[idx] = true
	}
}
