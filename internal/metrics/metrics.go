package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Registry metrics
	ContextsBuilt = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_contexts_built_total",
		Help: "Total number of device contexts constructed, by context kind",
	}, []string{"kind"})

	// Workspace metrics
	WorkspaceReallocations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "device_workspace_reallocations_total",
		Help: "Total number of workspace buffer reallocations, by place",
	}, []string{"place"})

	WorkspaceBytes = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "device_workspace_bytes",
		Help: "Current workspace buffer size in bytes, by place",
	}, []string{"place"})

	// Queue metrics
	QueueSyncDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "device_queue_sync_duration_ms",
		Help:    "Duration of blocking queue synchronization in milliseconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 4, 12), // 10µs to ~40s
	})

	// Descriptor cache metrics
	DescriptorCacheEntries = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "device_descriptor_cache_entries",
		Help: "Number of descriptors currently held across all cache partitions",
	})
)
