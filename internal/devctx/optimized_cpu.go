package devctx

import (
	"runtime"

	"github.com/fxnlabs/device-runtime/internal/device"
	"golang.org/x/sys/cpu"
)

// OptimizedCPUKernelsAvailable reports whether the host CPU carries the
// SIMD features the optimized kernel library requires. The registry uses
// this as the default for its OptimizedCPU capability.
func OptimizedCPUKernelsAvailable() bool {
	switch runtime.GOARCH {
	case "amd64":
		return cpu.X86.HasAVX2 && cpu.X86.HasFMA
	case "arm64":
		return cpu.ARM64.HasASIMD
	default:
		return false
	}
}

// OptimizedCPUContext extends the CPU context for the optimized kernel
// library, adding a worker-partitioned descriptor cache that kernels use to
// reuse precomputed descriptors across invocations.
type OptimizedCPUContext struct {
	CPUContext
	cache *DescriptorCache
}

// NewOptimizedCPUContext builds an optimized CPU context.
func NewOptimizedCPUContext(place device.Place) *OptimizedCPUContext {
	return &OptimizedCPUContext{
		CPUContext: CPUContext{place: place, engine: &HostEngine{}},
		cache:      NewDescriptorCache(),
	}
}

// SetDescriptorFor stores desc for the given worker tag.
func (c *OptimizedCPUContext) SetDescriptorFor(tag WorkerTag, name string, desc any) {
	c.cache.Set(tag, name, desc)
}

// GetDescriptorFor returns the descriptor stored for the given worker tag.
func (c *OptimizedCPUContext) GetDescriptorFor(tag WorkerTag, name string) (any, bool) {
	return c.cache.Get(tag, name)
}

// SetDescriptor stores desc under the process-wide worker tag. See
// SetWorkerTag for when the tag-less form is appropriate.
func (c *OptimizedCPUContext) SetDescriptor(name string, desc any) {
	c.cache.Set(GetWorkerTag(), name, desc)
}

// GetDescriptor returns the descriptor stored under the process-wide worker
// tag.
func (c *OptimizedCPUContext) GetDescriptor(name string) (any, bool) {
	return c.cache.Get(GetWorkerTag(), name)
}

// Destroy drops the descriptor cache.
func (c *OptimizedCPUContext) Destroy() {
	c.cache.drop()
}
