// Package depthsort keeps a canonical splat buffer depth-ordered as the
// viewpoint moves.
//
// A Service owns one background worker goroutine that recomputes a
// back-to-front index permutation from a view-projection matrix using a
// bucketed counting sort. Requests never block the caller: the newest request
// replaces any pending one, and callers read the most recent completed result
// synchronously while fresh results are delivered through a callback.
//
// The typical render-loop integration:
//
//	svc, _ := depthsort.NewService(depthsort.WithResultCallback(onSorted))
//	_ = svc.Initialize()
//	// per frame:
//	res, err := svc.SortThrottled(viewProj, buffer)
//	// draw with res.Permutation (may be one or more frames stale)
package depthsort

import (
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/arloliu/gsplat/errs"
	"github.com/arloliu/gsplat/internal/options"
	"github.com/arloliu/gsplat/record"
)

// Matrix is a 4x4 view-projection matrix in column-major order (the GL
// convention). The sorter reads only entries 2, 6 and 10, the third row
// applied to a position's x, y, z; staleness detection compares whole
// matrices. The service never mutates a caller's matrix: requests copy it.
type Matrix [16]float32

const (
	// defaultSortInterval is how many throttled calls elapse between sort
	// considerations.
	defaultSortInterval = 3

	// matrixEpsilon is the per-entry tolerance below which two requested
	// matrices count as numerically equal.
	matrixEpsilon = 0.001

	// defaultMotionThreshold bounds |dot(row2_new, row2_last) - 1| under
	// which camera movement counts as negligible.
	defaultMotionThreshold = 0.01
)

type serviceState uint8

const (
	stateUninitialized serviceState = iota
	stateReady
	stateDisposed
)

// Result is one completed depth sort.
//
// Permutation is a bijection on [0,VertexCount): drawing splats in permutation
// order renders back-to-front under Matrix. Generation increases monotonically
// with every delivered result, letting consumers detect stale deliveries.
// Results are immutable once delivered; callers must not modify Permutation.
type Result struct {
	Permutation []uint32
	Matrix      Matrix
	VertexCount uint32
	Generation  uint64
}

// ServiceConfig holds depth sort service configuration.
type ServiceConfig struct {
	interval        int
	motionThreshold float32
	onResult        func(*Result)
}

// ServiceOption is a functional option for NewService.
type ServiceOption = options.Option[*ServiceConfig]

// WithSortInterval sets how many SortThrottled calls elapse between sort
// considerations. The default is 3; 1 considers every call.
func WithSortInterval(k int) ServiceOption {
	return options.New(func(c *ServiceConfig) error {
		if k < 1 {
			return errs.ErrInvalidSortInterval
		}
		c.interval = k

		return nil
	})
}

// WithMotionThreshold sets the camera-movement threshold under which
// SortThrottled skips sorting. The comparison is |dot(row2_new, row2_last)-1|
// against the threshold, a cheap proxy for view direction change.
func WithMotionThreshold(t float32) ServiceOption {
	return options.New(func(c *ServiceConfig) error {
		if t <= 0 {
			return errs.ErrInvalidMotionThreshold
		}
		c.motionThreshold = t

		return nil
	})
}

// WithResultCallback registers a callback invoked from the worker goroutine
// after each completed sort. The callback must not block for long; it runs on
// the sort worker and delays subsequent sorts while it executes.
func WithResultCallback(fn func(*Result)) ServiceOption {
	return options.NoError(func(c *ServiceConfig) {
		c.onResult = fn
	})
}

// job is one unit of work handed to the worker. The matrix is copied at
// request time; the buffer is shared and must not be mutated by the caller
// while a request is outstanding.
type job struct {
	matrix Matrix
	buffer record.Buffer
	count  int
}

// Service owns the background depth sort worker for one splat buffer stream.
//
// All exported methods are safe for concurrent use. The zero value is not
// usable; create instances with NewService and call Initialize before
// requesting sorts.
type Service struct {
	cfg ServiceConfig

	mu    sync.Mutex
	state serviceState
	work  chan job
	last  *Result
	frame int

	// Last requested pair, for staleness detection. Distinct from the last
	// completed result: staleness is judged against what was asked for, not
	// what has finished.
	hasRequest bool
	lastMatrix Matrix
	lastCount  int

	// busy counts dispatched-but-unfinished jobs. With the single-slot
	// newest-wins mailbox it is at most 2 transiently, and zero means idle.
	busy       atomic.Int32
	generation atomic.Uint64
}

// NewService creates a depth sort service. The service starts Uninitialized;
// call Initialize to spawn the worker before requesting sorts.
func NewService(opts ...ServiceOption) (*Service, error) {
	cfg := ServiceConfig{
		interval:        defaultSortInterval,
		motionThreshold: defaultMotionThreshold,
	}
	if err := options.Apply(&cfg, opts...); err != nil {
		return nil, err
	}

	return &Service{cfg: cfg}, nil
}

// Initialize spawns the background worker and establishes its mailbox. It
// must complete before any sort request. Calling it twice returns
// ErrAlreadyInitialized; calling it after Close returns ErrDisposed.
func (s *Service) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateDisposed:
		return errs.ErrDisposed
	case stateReady:
		return errs.ErrAlreadyInitialized
	case stateUninitialized:
	}

	s.work = make(chan job, 1)
	s.state = stateReady
	go s.runWorker(s.work)

	return nil
}

// SortImmediate requests a sort of buffer under matrix, bypassing throttling.
//
// When the requested (matrix, count) pair is numerically equal to the last
// requested pair, the cached last result is returned without dispatching any
// work. Otherwise the request is dispatched (replacing a pending one, if any)
// and the previous cached result is returned synchronously; it may be nil
// before the first sort completes. SortImmediate never blocks on the sort.
func (s *Service) SortImmediate(matrix Matrix, buffer record.Buffer) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStateLocked(); err != nil {
		return nil, err
	}

	return s.sortLocked(matrix, buffer), nil
}

// SortThrottled is the render-loop entry point. It considers sorting only
// every Kth call (see WithSortInterval), skips while a sort is in flight, and
// skips when the camera has barely moved since the last request; otherwise it
// behaves like SortImmediate. The cached last result is always returned.
func (s *Service) SortThrottled(matrix Matrix, buffer record.Buffer) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkStateLocked(); err != nil {
		return nil, err
	}

	frame := s.frame
	s.frame++
	if frame%s.cfg.interval != 0 {
		return s.last, nil
	}
	if s.busy.Load() > 0 {
		return s.last, nil
	}
	if s.hasRequest {
		dot := matrix[2]*s.lastMatrix[2] + matrix[6]*s.lastMatrix[6] + matrix[10]*s.lastMatrix[10]
		if math32.Abs(dot-1) < s.cfg.motionThreshold {
			return s.last, nil
		}
	}

	return s.sortLocked(matrix, buffer), nil
}

// LastResult returns the most recent completed sort result, or nil if none
// has completed yet.
func (s *Service) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.last
}

// Close disposes the service: the worker terminates after its current job, an
// unfinished job's result is abandoned without delivery, and every subsequent
// operation returns ErrDisposed.
func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == stateDisposed {
		return errs.ErrDisposed
	}
	if s.state == stateReady {
		close(s.work)
	}
	s.state = stateDisposed
	s.last = nil

	return nil
}

func (s *Service) checkStateLocked() error {
	switch s.state {
	case stateUninitialized:
		return errs.ErrNotInitialized
	case stateDisposed:
		return errs.ErrDisposed
	default:
		return nil
	}
}

// sortLocked performs staleness detection and dispatch. Callers hold s.mu.
func (s *Service) sortLocked(matrix Matrix, buffer record.Buffer) *Result {
	count := buffer.Count()
	if s.hasRequest && s.lastCount == count && matrixNear(matrix, s.lastMatrix) {
		return s.last
	}

	s.hasRequest = true
	s.lastMatrix = matrix
	s.lastCount = count
	s.dispatchLocked(job{matrix: matrix, buffer: buffer, count: count})

	return s.last
}

// dispatchLocked pushes a job into the single-slot mailbox, replacing a
// pending job rather than queueing behind it: only the newest request
// matters. Callers hold s.mu, so no other dispatcher races the replacement.
func (s *Service) dispatchLocked(j job) {
	s.busy.Add(1)
	for {
		select {
		case s.work <- j:
			return
		default:
			// Mailbox full: drop the stale pending job and retry. The worker
			// may drain the slot between the two selects, hence the loop.
			select {
			case <-s.work:
				s.busy.Add(-1)
			default:
			}
		}
	}
}

// runWorker is the worker goroutine. It owns the scratch arena exclusively
// and exits when the mailbox closes.
func (s *Service) runWorker(work <-chan job) {
	a := newArena()

	for j := range work {
		perm := a.sort(j.matrix, j.buffer, j.count)

		// The arena owns perm; copy before it escapes the worker.
		res := &Result{
			Permutation: append(make([]uint32, 0, j.count), perm...),
			Matrix:      j.matrix,
			VertexCount: uint32(j.count),
			Generation:  s.generation.Add(1),
		}

		var deliver func(*Result)
		s.mu.Lock()
		if s.state != stateDisposed {
			s.last = res
			deliver = s.cfg.onResult
		}
		s.mu.Unlock()
		s.busy.Add(-1)

		if deliver != nil {
			deliver(res)
		}
	}
}

// matrixNear reports whether every entry of a and b differs by no more than
// the staleness tolerance.
func matrixNear(a, b Matrix) bool {
	for i := range a {
		if math32.Abs(a[i]-b[i]) > matrixEpsilon {
			return false
		}
	}

	return true
}
