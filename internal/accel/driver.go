// Package accel wraps the low-level accelerator primitives an execution
// context needs: device selection, property queries, execution queues,
// queue-bound math handles, and host callbacks.
//
// The Driver interface is the seam between the context layer and whatever
// actually executes device work. This package ships an in-process driver
// that runs queues on goroutines and math calls through gonum, which is
// what default builds and tests use.
package accel

import "gonum.org/v1/gonum/blas"

// Properties is an immutable snapshot of one device, captured once when a
// context is constructed.
type Properties struct {
	// ComputeCapability encodes the device generation (major*10 + minor).
	ComputeCapability int
	// MultiProcessors is the number of parallel units on the device.
	MultiProcessors int
	// MaxThreadsPerMP is the maximum concurrent threads per parallel unit.
	MaxThreadsPerMP int
	DriverVersion   int
	RuntimeVersion  int
}

// Queue is an ordered asynchronous execution stream bound to one device.
// Tasks submitted to a queue run one at a time in submission order.
type Queue interface {
	// ID identifies the queue instance in logs.
	ID() string
	// Submit enqueues a task. It fails after Destroy.
	Submit(task func()) error
	// Synchronize blocks until every previously submitted task finished.
	Synchronize() error
	// Destroy synchronizes and then releases the queue. Subsequent
	// Submit calls fail.
	Destroy() error
}

// MathHandle is a vendor math-library handle bound to a queue. Operations
// issued through the handle execute asynchronously on that queue.
type MathHandle interface {
	// Sgemm schedules c = alpha*op(a)*op(b) + beta*c on the bound queue.
	// Matrices are dense row-major float32 with the usual leading
	// dimensions. The call returns once the work is enqueued.
	Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error
	// Destroy releases the handle. The bound queue is not touched.
	Destroy() error
}

// Driver exposes the per-device primitives. Implementations must be safe
// for concurrent use by multiple contexts.
type Driver interface {
	// Name identifies the driver in logs ("inproc", "cuda", ...).
	Name() string
	// DeviceCount reports how many devices the driver can address.
	DeviceCount() int
	// SetDevice makes the device at index the active one for subsequent
	// calls from the calling goroutine.
	SetDevice(index int) error
	// Properties snapshots the device at index.
	Properties(index int) (Properties, error)
	// CreateQueue creates an execution queue on the device at index.
	CreateQueue(index int) (Queue, error)
	// CreateMathHandle creates a math handle bound to q.
	CreateMathHandle(q Queue) (MathHandle, error)
	// HasOptimizedMathLib reports whether the driver's optimized math
	// library (the workspace-consuming one) is usable at runtime.
	HasOptimizedMathLib() bool
	// LastError reports and clears the driver's sticky error state.
	LastError() error
}
