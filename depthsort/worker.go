package depthsort

import (
	"math"

	"github.com/chewxy/math32"

	"github.com/arloliu/gsplat/record"
)

const (
	// bucketCount is the number of depth buckets of the counting sort. A
	// 16-bit key range keeps the tally arrays small enough to live in the
	// worker arena while giving sub-millimeter ordering resolution for
	// typical scene extents.
	bucketCount = 65536

	// depthScale is the fixed multiplier applied to the depth proxy before
	// truncation to an integer. It spreads the useful depth range over the
	// int32 key space so quantization noise stays below bucket granularity.
	depthScale = 4096
)

// arena owns the scratch buffers of the sort worker. Buffers are reused
// across calls and resized only when the splat count grows; they are never
// shared or aliased outside the worker goroutine.
type arena struct {
	counts [bucketCount]uint32
	starts [bucketCount]uint32
	depths []int32
	keys   []uint32
	out    []uint32
}

func newArena() *arena {
	return &arena{}
}

// grow ensures the per-splat scratch slices hold n entries.
func (a *arena) grow(n int) {
	if cap(a.depths) < n {
		a.depths = make([]int32, n)
		a.keys = make([]uint32, n)
		a.out = make([]uint32, n)
	}
	a.depths = a.depths[:n]
	a.keys = a.keys[:n]
	a.out = a.out[:n]
}

// sort computes the back-to-front permutation of buffer under matrix.
//
// The depth proxy d[i] = round(4096 * dot(row2, position_i)) uses only the
// third row of the view-projection matrix, a deliberate approximation of
// perspective depth (no divide by w) that admits O(N) bucketing. Depths are
// quantized into 65536 buckets with the key range inverted so bucket 0 holds
// the farthest splats, then a stable counting sort scatters the indices.
//
// The returned slice aliases the arena and is only valid until the next call;
// the caller must copy it out before publishing.
func (a *arena) sort(matrix Matrix, buffer record.Buffer, n int) []uint32 {
	a.grow(n)
	if n == 0 {
		return a.out
	}

	r0, r1, r2 := matrix[2], matrix[6], matrix[10]
	minDepth := int32(math.MaxInt32)
	maxDepth := int32(math.MinInt32)
	for i := range n {
		x, y, z := buffer.Position(i)
		d := int32(math32.Round(depthScale * (r0*x + r1*y + r2*z)))
		a.depths[i] = d
		if d < minDepth {
			minDepth = d
		}
		if d > maxDepth {
			maxDepth = d
		}
	}

	// Degenerate scene: every splat equidistant, any order is correct.
	if maxDepth == minDepth {
		for i := range n {
			a.out[i] = uint32(i)
		}

		return a.out
	}

	// Quantize depths into bucket keys, inverted so that key 0 is farthest.
	// The spread fits in int64 even when min and max straddle the int32 range.
	scale := float64(bucketCount-1) / float64(int64(maxDepth)-int64(minDepth))
	for i := range n {
		q := uint32(float64(int64(a.depths[i])-int64(minDepth)) * scale)
		if q > bucketCount-1 {
			q = bucketCount - 1
		}
		a.keys[i] = (bucketCount - 1) - q
	}

	// Counting sort: tally, prefix-sum, then a stable scatter.
	clear(a.counts[:])
	for _, k := range a.keys {
		a.counts[k]++
	}
	var total uint32
	for k := range a.starts {
		a.starts[k] = total
		total += a.counts[k]
	}
	for i := range n {
		k := a.keys[i]
		a.out[a.starts[k]] = uint32(i)
		a.starts[k]++
	}

	return a.out
}
