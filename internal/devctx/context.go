// Package devctx implements the per-device execution contexts of the
// runtime. A context bundles everything a kernel invocation needs on one
// device: an execution queue, queue-bound math handles, a growable scratch
// workspace, and (for optimized CPU execution) a worker-partitioned
// descriptor cache. Contexts are created and owned by the registry, one per
// distinct place, and are never shared across places.
package devctx

import (
	"github.com/fxnlabs/device-runtime/internal/device"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/gonum"
)

// DeviceContext is the capability every context implements. Consumers
// receive contexts as non-owning references from the registry and type
// assert to the concrete kind for device-specific accessors.
type DeviceContext interface {
	// Place names the device this context owns resources for.
	Place() device.Place
	// Destroy tears down all owned resources. The registry calls this
	// once; the context is unusable afterwards.
	Destroy()
}

// HostEngine executes math on the host, synchronously. It is the CPU
// contexts' analog of a queue-bound math handle.
type HostEngine struct {
	impl gonum.Implementation
}

// Sgemm computes c = alpha*op(a)*op(b) + beta*c on the calling goroutine.
func (e *HostEngine) Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) {
	e.impl.Sgemm(tA, tB, m, n, k, alpha, a, lda, b, ldb, beta, c, ldc)
}

// CPUContext is the trivial context for general-purpose host execution.
type CPUContext struct {
	place  device.Place
	engine *HostEngine
}

// NewCPUContext builds a context for the CPU place.
func NewCPUContext(place device.Place) *CPUContext {
	return &CPUContext{place: place, engine: &HostEngine{}}
}

func (c *CPUContext) Place() device.Place { return c.place }

// Engine returns the host math engine. The engine is owned by the context
// and valid for its lifetime.
func (c *CPUContext) Engine() *HostEngine { return c.engine }

func (c *CPUContext) Destroy() {}

// PinnedContext is the trivial context for page-locked host memory. It has
// no queue; pinned buffers are only staging areas for transfers.
type PinnedContext struct {
	place  device.Place
	engine *HostEngine
}

// NewPinnedContext builds a context for the pinned-host place.
func NewPinnedContext(place device.Place) *PinnedContext {
	return &PinnedContext{place: place, engine: &HostEngine{}}
}

func (c *PinnedContext) Place() device.Place { return c.place }

// Engine returns the host math engine.
func (c *PinnedContext) Engine() *HostEngine { return c.engine }

func (c *PinnedContext) Destroy() {}
