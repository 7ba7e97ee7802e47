package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestWorkspaceMetrics(t *testing.T) {
	t.Run("WorkspaceBytes", func(t *testing.T) {
		WorkspaceBytes.WithLabelValues("accel:9").Set(4096)
		value := testutil.ToFloat64(WorkspaceBytes.WithLabelValues("accel:9"))
		assert.Equal(t, float64(4096), value)
	})

	t.Run("WorkspaceReallocations", func(t *testing.T) {
		before := testutil.ToFloat64(WorkspaceReallocations.WithLabelValues("accel:9"))
		WorkspaceReallocations.WithLabelValues("accel:9").Inc()
		after := testutil.ToFloat64(WorkspaceReallocations.WithLabelValues("accel:9"))
		assert.Equal(t, before+1, after)
	})
}

func TestQueueSyncDuration(t *testing.T) {
	assert.NotPanics(t, func() {
		QueueSyncDuration.Observe(0.25)
		QueueSyncDuration.Observe(12.5)
	})
}

func TestContextsBuilt(t *testing.T) {
	before := testutil.ToFloat64(ContextsBuilt.WithLabelValues("cpu"))
	ContextsBuilt.WithLabelValues("cpu").Inc()
	after := testutil.ToFloat64(ContextsBuilt.WithLabelValues("cpu"))
	assert.Equal(t, before+1, after)
}
