package device

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Buffer is one allocation returned by an Allocator. The ID is unique per
// allocator and lets callers observe when a buffer has been replaced rather
// than reused.
type Buffer struct {
	Place Place
	ID    uint64
	Data  []byte
}

// Len returns the usable size of the buffer in bytes.
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Data)
}

// Allocator hands out memory bound to a place. Implementations must be safe
// for concurrent use; every Alloc must eventually be paired with a Free on
// the same allocator.
type Allocator interface {
	Alloc(place Place, size int) (*Buffer, error)
	Free(place Place, buf *Buffer) error
}

// HostAllocator is the in-process Allocator. Device, pinned, and host
// requests are all served from the Go heap; the place is carried on the
// buffer so double frees and cross-place frees are caught.
type HostAllocator struct {
	nextID    atomic.Uint64
	liveBytes atomic.Int64
}

// NewHostAllocator returns an empty host allocator.
func NewHostAllocator() *HostAllocator {
	return &HostAllocator{}
}

// Alloc reserves size bytes bound to place.
func (a *HostAllocator) Alloc(place Place, size int) (*Buffer, error) {
	if size <= 0 {
		return nil, errors.Errorf("alloc on %s: invalid size %d", place, size)
	}
	a.liveBytes.Add(int64(size))
	return &Buffer{
		Place: place,
		ID:    a.nextID.Add(1),
		Data:  make([]byte, size),
	}, nil
}

// Free releases a buffer previously returned by Alloc.
func (a *HostAllocator) Free(place Place, buf *Buffer) error {
	if buf == nil || buf.Data == nil {
		return errors.Errorf("free on %s: buffer already released", place)
	}
	if buf.Place != place {
		return errors.Errorf("free on %s: buffer belongs to %s", place, buf.Place)
	}
	a.liveBytes.Add(-int64(len(buf.Data)))
	buf.Data = nil
	return nil
}

// LiveBytes reports the total bytes currently allocated and not yet freed.
func (a *HostAllocator) LiveBytes() int64 {
	return a.liveBytes.Load()
}
