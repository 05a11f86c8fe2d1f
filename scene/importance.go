// Package scene turns parsed scene files into canonical splat buffers: the
// importance ranking that front-loads visually significant splats, the record
// encoder, and the packed container used to cache encoded scenes.
package scene

import (
	"math"
	"sort"

	"github.com/arloliu/gsplat/internal/pool"
	"github.com/arloliu/gsplat/ply"
)

// scaleProperties are the log-scale axis properties of a source record.
var scaleProperties = [3]string{"scale_0", "scale_1", "scale_2"}

// Rank computes the encode-time importance permutation for a parsed scene.
//
// Each record's key is exp(scale_0)*exp(scale_1)*exp(scale_2) weighted by
// sigmoid(opacity): splat volume times opacity. A missing scale property
// contributes a unit factor and a missing opacity property full weight. The
// returned permutation orders records by descending key; equal keys keep
// ascending source order, so identical inputs always produce identical
// permutations.
//
// Ranking runs once at ingestion and is independent of the runtime depth sort;
// the keys are discarded afterwards.
func Rank(sc *ply.Scene) []uint32 {
	n := sc.Count()
	keys, cleanup := pool.GetFloat64Slice(n)
	defer cleanup()

	for i := range n {
		size := 1.0
		for _, name := range scaleProperties {
			if v, ok := sc.ReadField(i, name); ok {
				size *= math.Exp(v)
			}
		}
		weight := 1.0
		if v, ok := sc.ReadField(i, "opacity"); ok {
			weight = sigmoid(v)
		}
		keys[i] = size * weight
	}

	order := make([]uint32, n)
	for i := range order {
		order[i] = uint32(i)
	}
	sort.Slice(order, func(a, b int) bool {
		ka, kb := keys[order[a]], keys[order[b]]
		if ka != kb {
			return ka > kb
		}

		return order[a] < order[b]
	})

	return order
}

// sigmoid maps a raw opacity logit to (0,1).
func sigmoid(v float64) float64 {
	return 1.0 / (1.0 + math.Exp(-v))
}
