package devctx

import (
	"sync"

	"github.com/fxnlabs/device-runtime/internal/accel"
	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/fxnlabs/device-runtime/internal/metrics"
)

// workspaceHolder owns the growable scratch buffer shared by sequential
// math-library calls on one accelerator context. One mutex serializes every
// use: at most one caller executes inside Run per context.
//
// The buffer only ever grows. Growth synchronizes the bound queue before
// freeing the old buffer, because a previous caller may have left device
// work in flight that still reads it. Steady-state reuse pays no
// synchronization cost.
//
// The queue reference is borrowed from the owning context and is valid for
// the holder's whole lifetime.
type workspaceHolder struct {
	place device.Place
	alloc device.Allocator
	queue accel.Queue

	mu     sync.Mutex
	buf    *device.Buffer
	length int
}

func newWorkspaceHolder(place device.Place, alloc device.Allocator, queue accel.Queue) *workspaceHolder {
	return &workspaceHolder{place: place, alloc: alloc, queue: queue}
}

// Run grows the workspace to at least required bytes and invokes fn with it,
// holding the holder's mutex for the duration of the call.
func (h *workspaceHolder) Run(fn func(workspace []byte) error, required int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if required > h.length {
		h.grow(required)
	}
	var ws []byte
	if h.buf != nil {
		ws = h.buf.Data
	}
	return fn(ws)
}

// grow must be called with the mutex held.
func (h *workspaceHolder) grow(required int) {
	if h.buf != nil {
		// Device work from an earlier Run may still read the old buffer.
		enforce(h.place, "workspace synchronize", h.queue.Synchronize())
		enforce(h.place, "workspace free", h.alloc.Free(h.place, h.buf))
	}
	buf, err := h.alloc.Alloc(h.place, required)
	enforce(h.place, "workspace alloc", err)
	h.buf = buf
	h.length = required

	metrics.WorkspaceReallocations.WithLabelValues(h.place.String()).Inc()
	metrics.WorkspaceBytes.WithLabelValues(h.place.String()).Set(float64(required))
}

// Close frees the buffer. The owning context has already waited on the
// queue by the time members are torn down, so no synchronization happens
// here; callers must uphold that ordering.
func (h *workspaceHolder) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.buf != nil {
		enforce(h.place, "workspace free", h.alloc.Free(h.place, h.buf))
		h.buf = nil
		h.length = 0
		metrics.WorkspaceBytes.WithLabelValues(h.place.String()).Set(0)
	}
}
