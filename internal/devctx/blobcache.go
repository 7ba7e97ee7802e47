package devctx

import (
	"sync"
	"sync/atomic"

	"github.com/fxnlabs/device-runtime/internal/metrics"
)

// WorkerTag identifies a logical worker for descriptor-cache partitioning.
// Tags are assigned externally; logically distinct workers that share no
// descriptors must use distinct tags.
type WorkerTag int

// currentWorkerTag backs the tag-less cache accessors. It is a process-wide
// convenience for programs whose worker phases do not overlap; concurrent
// workers must pass their tag explicitly instead.
var currentWorkerTag atomic.Int64

// SetWorkerTag sets the process-wide worker tag used by the tag-less
// descriptor accessors.
func SetWorkerTag(tag WorkerTag) { currentWorkerTag.Store(int64(tag)) }

// GetWorkerTag returns the process-wide worker tag.
func GetWorkerTag() WorkerTag { return WorkerTag(currentWorkerTag.Load()) }

// DescriptorCache stores opaque, reusable descriptors (precomputed kernel
// descriptors and the like) partitioned by worker tag. A descriptor stored
// under one tag is never visible under another, even for the same name.
//
// One mutex guards both map levels; entries are populated once and read
// repeatedly, so the serialization is cheap. Nothing is evicted before the
// owning context is destroyed.
type DescriptorCache struct {
	mu         sync.Mutex
	partitions map[WorkerTag]map[string]any
}

// NewDescriptorCache returns an empty cache.
func NewDescriptorCache() *DescriptorCache {
	return &DescriptorCache{partitions: make(map[WorkerTag]map[string]any)}
}

// Set stores desc under (tag, name), lazily creating the tag's partition.
// Overwriting replaces only the cache's reference; prior holders of the old
// descriptor keep theirs.
func (c *DescriptorCache) Set(tag WorkerTag, name string, desc any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	part, ok := c.partitions[tag]
	if !ok {
		part = make(map[string]any)
		c.partitions[tag] = part
	}
	if _, exists := part[name]; !exists {
		metrics.DescriptorCacheEntries.Inc()
	}
	part[name] = desc
}

// Get returns the descriptor stored under (tag, name). A miss — no
// partition for the tag, or no entry under the name — is not an error and
// reports ok=false.
func (c *DescriptorCache) Get(tag WorkerTag, name string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	part, ok := c.partitions[tag]
	if !ok {
		return nil, false
	}
	desc, ok := part[name]
	return desc, ok
}

// Len reports the total number of descriptors across all partitions.
func (c *DescriptorCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, part := range c.partitions {
		n += len(part)
	}
	return n
}

func (c *DescriptorCache) drop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, part := range c.partitions {
		metrics.DescriptorCacheEntries.Sub(float64(len(part)))
	}
	c.partitions = make(map[WorkerTag]map[string]any)
}
