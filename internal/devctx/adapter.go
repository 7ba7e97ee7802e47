package devctx

import (
	"sync"
	"sync/atomic"

	"github.com/fxnlabs/device-runtime/internal/accel"
	"github.com/fxnlabs/device-runtime/internal/device"
)

// scratchSize is the fixed size of the adapter's lazily allocated
// scratchpad.
const scratchSize = 1024

// StreamAdapter is the numeric-array device adapter handed to the math
// runtime. It borrows the context's queue, allocates through the context's
// allocator, and keeps a small lazily allocated scratchpad plus a semaphore
// word used by reduction kernels.
//
// The adapter never outlives the owning accelerator context, which releases
// it after the math handle and before the queue.
type StreamAdapter struct {
	place device.Place
	alloc device.Allocator
	queue accel.Queue

	mu        sync.Mutex
	scratch   *device.Buffer
	semaphore *atomic.Uint32
}

// NewStreamAdapter binds an adapter to a queue and an allocator.
func NewStreamAdapter(place device.Place, alloc device.Allocator, queue accel.Queue) *StreamAdapter {
	return &StreamAdapter{place: place, alloc: alloc, queue: queue}
}

// Queue returns the bound queue.
func (s *StreamAdapter) Queue() accel.Queue { return s.queue }

// Allocate reserves n bytes on the adapter's place.
func (s *StreamAdapter) Allocate(n int) []byte {
	buf, err := s.alloc.Alloc(s.place, n)
	enforce(s.place, "adapter alloc", err)
	return buf.Data
}

// Deallocate releases a buffer returned by Allocate.
func (s *StreamAdapter) Deallocate(data []byte) {
	enforce(s.place, "adapter free", s.alloc.Free(s.place, &device.Buffer{Place: s.place, Data: data}))
}

// Scratchpad returns the adapter's scratch area, allocating it on first
// use.
func (s *StreamAdapter) Scratchpad() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scratch == nil {
		buf, err := s.alloc.Alloc(s.place, scratchSize)
		enforce(s.place, "adapter scratchpad alloc", err)
		s.scratch = buf
	}
	return s.scratch.Data
}

// Semaphore returns the adapter's semaphore word. On first use the word is
// zeroed asynchronously on the bound queue, ordered before any kernel that
// could touch it.
func (s *StreamAdapter) Semaphore() *atomic.Uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.semaphore == nil {
		sem := new(atomic.Uint32)
		enforce(s.place, "adapter semaphore init", s.queue.Submit(func() { sem.Store(0) }))
		s.semaphore = sem
	}
	return s.semaphore
}

// Release frees the scratchpad. The owning context has already waited on
// the queue.
func (s *StreamAdapter) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scratch != nil {
		enforce(s.place, "adapter scratchpad free", s.alloc.Free(s.place, s.scratch))
		s.scratch = nil
	}
	s.semaphore = nil
}
