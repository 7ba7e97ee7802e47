package accel

import (
	"sync/atomic"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/gonum"
)

// inprocMathHandle issues BLAS calls onto its bound queue through gonum's
// native implementation. The queue reference is borrowed: the owning
// context destroys the handle before the queue.
type inprocMathHandle struct {
	queue     Queue
	impl      gonum.Implementation
	destroyed atomic.Bool
}

func newInprocMathHandle(q Queue) *inprocMathHandle {
	return &inprocMathHandle{queue: q}
}

// Sgemm schedules c = alpha*op(a)*op(b) + beta*c on the bound queue and
// returns as soon as the work is enqueued. Callers observe completion by
// synchronizing the queue.
func (h *inprocMathHandle) Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	if h.destroyed.Load() {
		return errors.New("math handle: use after destroy")
	}
	return h.queue.Submit(func() {
		h.impl.Sgemm(tA, tB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
	})
}

// Destroy releases the handle. The bound queue is left untouched.
func (h *inprocMathHandle) Destroy() error {
	if h.destroyed.Swap(true) {
		return errors.New("math handle: double destroy")
	}
	return nil
}
