package depthsort

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/gsplat/errs"
)

// resultTimeout bounds how long tests wait for the worker. Sorts in these
// tests take microseconds; the margin covers slow CI machines.
const resultTimeout = 5 * time.Second

func waitResult(t *testing.T, ch <-chan *Result) *Result {
	t.Helper()

	select {
	case r := <-ch:
		return r
	case <-time.After(resultTimeout):
		t.Fatal("timed out waiting for sort result")
		return nil
	}
}

func requireNoResult(t *testing.T, ch <-chan *Result) {
	t.Helper()

	select {
	case r := <-ch:
		t.Fatalf("unexpected sort result delivered: generation %d", r.Generation)
	case <-time.After(100 * time.Millisecond):
	}
}

func newTestService(t *testing.T, opts ...ServiceOption) (*Service, chan *Result) {
	t.Helper()

	ch := make(chan *Result, 16)
	opts = append(opts, WithResultCallback(func(r *Result) { ch <- r }))
	svc, err := NewService(opts...)
	require.NoError(t, err)
	require.NoError(t, svc.Initialize())
	t.Cleanup(func() { _ = svc.Close() })

	return svc, ch
}

// tiltedMatrix has a third row far from the identity's, so motion detection
// never confuses the two.
var tiltedMatrix = Matrix{
	1, 0, 1, 0,
	0, 1, 0, 0,
	0, 0, 0, 0,
	0, 0, 0, 1,
}

func TestService_StateMachine(t *testing.T) {
	buf := positionsBuffer(t, [][3]float32{{0, 0, 1}})

	t.Run("sort before initialize", func(t *testing.T) {
		svc, err := NewService()
		require.NoError(t, err)

		_, err = svc.SortImmediate(identityMatrix, buf)
		require.ErrorIs(t, err, errs.ErrNotInitialized)
		_, err = svc.SortThrottled(identityMatrix, buf)
		require.ErrorIs(t, err, errs.ErrNotInitialized)
	})

	t.Run("double initialize", func(t *testing.T) {
		svc, err := NewService()
		require.NoError(t, err)
		require.NoError(t, svc.Initialize())
		defer func() { _ = svc.Close() }()

		require.ErrorIs(t, svc.Initialize(), errs.ErrAlreadyInitialized)
	})

	t.Run("operations after close", func(t *testing.T) {
		svc, err := NewService()
		require.NoError(t, err)
		require.NoError(t, svc.Initialize())
		require.NoError(t, svc.Close())

		_, err = svc.SortImmediate(identityMatrix, buf)
		require.ErrorIs(t, err, errs.ErrDisposed)
		require.ErrorIs(t, svc.Initialize(), errs.ErrDisposed)
		require.ErrorIs(t, svc.Close(), errs.ErrDisposed)
	})

	t.Run("close without initialize", func(t *testing.T) {
		svc, err := NewService()
		require.NoError(t, err)
		require.NoError(t, svc.Close())
	})
}

func TestService_InvalidOptions(t *testing.T) {
	_, err := NewService(WithSortInterval(0))
	require.ErrorIs(t, err, errs.ErrInvalidSortInterval)

	_, err = NewService(WithMotionThreshold(0))
	require.ErrorIs(t, err, errs.ErrInvalidMotionThreshold)
}

func TestService_ImmediateDeliversResult(t *testing.T) {
	svc, ch := newTestService(t)
	buf := positionsBuffer(t, [][3]float32{
		{0, 0, 1}, {0, 0, 5}, {0, 0, 3},
	})

	cached, err := svc.SortImmediate(identityMatrix, buf)
	require.NoError(t, err)
	require.Nil(t, cached, "no result can be cached before the first sort completes")

	res := waitResult(t, ch)
	require.Equal(t, uint64(1), res.Generation)
	require.Equal(t, uint32(3), res.VertexCount)
	require.Equal(t, identityMatrix, res.Matrix)
	require.Equal(t, []uint32{1, 2, 0}, res.Permutation)
	require.Equal(t, res, svc.LastResult())
}

func TestService_ImmediateStalenessSkip(t *testing.T) {
	svc, ch := newTestService(t)
	buf := positionsBuffer(t, [][3]float32{{0, 0, 1}, {0, 0, 2}})

	_, err := svc.SortImmediate(identityMatrix, buf)
	require.NoError(t, err)
	first := waitResult(t, ch)

	// Perturb every entry by less than the tolerance: numerically equal, so
	// the cached result comes back and no work is dispatched.
	nudged := identityMatrix
	for i := range nudged {
		nudged[i] += 0.0005
	}
	cached, err := svc.SortImmediate(nudged, buf)
	require.NoError(t, err)
	require.Equal(t, first, cached)

	requireNoResult(t, ch)
	require.Equal(t, uint64(1), svc.LastResult().Generation)
}

func TestService_ImmediateResortsOnChange(t *testing.T) {
	svc, ch := newTestService(t)
	buf := positionsBuffer(t, [][3]float32{{0, 0, 1}, {0, 0, 2}})

	_, err := svc.SortImmediate(identityMatrix, buf)
	require.NoError(t, err)
	first := waitResult(t, ch)

	// A genuinely different matrix dispatches again and returns the previous
	// cached result synchronously.
	cached, err := svc.SortImmediate(tiltedMatrix, buf)
	require.NoError(t, err)
	require.Equal(t, first, cached)

	second := waitResult(t, ch)
	require.Equal(t, uint64(2), second.Generation)
	require.Equal(t, tiltedMatrix, second.Matrix)
}

func TestService_ImmediateCountChangeResorts(t *testing.T) {
	svc, ch := newTestService(t)
	small := positionsBuffer(t, [][3]float32{{0, 0, 1}})
	large := positionsBuffer(t, [][3]float32{{0, 0, 1}, {0, 0, 2}})

	_, err := svc.SortImmediate(identityMatrix, small)
	require.NoError(t, err)
	waitResult(t, ch)

	// Same matrix, different count: must not be treated as stale.
	_, err = svc.SortImmediate(identityMatrix, large)
	require.NoError(t, err)
	res := waitResult(t, ch)
	require.Equal(t, uint32(2), res.VertexCount)
}

func TestService_EmptyBuffer(t *testing.T) {
	svc, ch := newTestService(t)

	_, err := svc.SortImmediate(identityMatrix, nil)
	require.NoError(t, err)

	res := waitResult(t, ch)
	require.Zero(t, res.VertexCount)
	require.Empty(t, res.Permutation)
}

func TestService_ThrottledInterval(t *testing.T) {
	svc, ch := newTestService(t, WithSortInterval(3))
	buf := positionsBuffer(t, [][3]float32{{0, 0, 1}, {0, 0, 2}})

	// Call 1 (frame 0) considers and dispatches.
	_, err := svc.SortThrottled(identityMatrix, buf)
	require.NoError(t, err)
	first := waitResult(t, ch)
	require.Equal(t, uint64(1), first.Generation)

	// Calls 2 and 3 fall between intervals: skipped outright, even though
	// the camera moved.
	for range 2 {
		cached, err := svc.SortThrottled(tiltedMatrix, buf)
		require.NoError(t, err)
		require.Equal(t, first, cached)
	}
	requireNoResult(t, ch)

	// Call 4 (frame 3) considers again; the camera moved, so it sorts.
	_, err = svc.SortThrottled(tiltedMatrix, buf)
	require.NoError(t, err)
	second := waitResult(t, ch)
	require.Equal(t, uint64(2), second.Generation)
}

func TestService_ThrottledMotionSkip(t *testing.T) {
	svc, ch := newTestService(t, WithSortInterval(1))
	buf := positionsBuffer(t, [][3]float32{{0, 0, 1}, {0, 0, 2}})

	_, err := svc.SortThrottled(identityMatrix, buf)
	require.NoError(t, err)
	first := waitResult(t, ch)

	// Negligible view change: the third-row dot product stays within the
	// motion threshold of 1, so the call is skipped.
	nudged := identityMatrix
	nudged[10] = 1.0001
	cached, err := svc.SortThrottled(nudged, buf)
	require.NoError(t, err)
	require.Equal(t, first, cached)
	requireNoResult(t, ch)

	// A real rotation passes the motion check and sorts again.
	_, err = svc.SortThrottled(tiltedMatrix, buf)
	require.NoError(t, err)
	second := waitResult(t, ch)
	require.Equal(t, uint64(2), second.Generation)
}

func TestService_NewestWinsUnderBurst(t *testing.T) {
	// A burst of immediate requests must never block the caller, and the
	// permutation that settles last must correspond to the last request.
	svc, ch := newTestService(t)
	buf := positionsBuffer(t, [][3]float32{
		{0, 0, 1}, {0, 0, 5}, {0, 0, 3},
	})

	matrices := []Matrix{identityMatrix, tiltedMatrix, identityMatrix, tiltedMatrix}
	for _, m := range matrices {
		_, err := svc.SortImmediate(m, buf)
		require.NoError(t, err)
	}

	// Generations increase monotonically and the final delivery matches the
	// final requested matrix. Intermediate requests may have been replaced.
	deadline := time.After(resultTimeout)
	var last *Result
	for {
		select {
		case r := <-ch:
			if last != nil {
				require.Greater(t, r.Generation, last.Generation)
			}
			last = r
			if r.Matrix == matrices[len(matrices)-1] {
				requirePermutation(t, r.Permutation, buf.Count())
				return
			}
		case <-deadline:
			t.Fatal("final result never delivered")
		}
	}
}
