package devctx

import (
	"sync"
	"testing"

	"github.com/fxnlabs/device-runtime/internal/accel"
	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/blas"
)

// recorder collects the order of driver-level events across the fake
// driver, queue, and handle.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(ev string) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) index(ev string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, e := range r.events {
		if e == ev {
			return i
		}
	}
	return -1
}

type fakeQueue struct {
	rec *recorder
}

func (q *fakeQueue) ID() string { return "fake-queue" }

func (q *fakeQueue) Submit(task func()) error {
	task()
	return nil
}

func (q *fakeQueue) Synchronize() error {
	q.rec.add("queue.synchronize")
	return nil
}

func (q *fakeQueue) Destroy() error {
	q.rec.add("queue.destroy")
	return nil
}

type fakeHandle struct {
	rec *recorder
}

func (h *fakeHandle) Sgemm(tA, tB blas.Transpose, m, n, k int, alpha float32, a []float32, lda int, b []float32, ldb int, beta float32, c []float32, ldc int) error {
	h.rec.add("handle.sgemm")
	return nil
}

func (h *fakeHandle) Destroy() error {
	h.rec.add("handle.destroy")
	return nil
}

type fakeDriver struct {
	rec          *recorder
	optimizedLib bool
	propsErr     error
}

func (d *fakeDriver) Name() string     { return "fake" }
func (d *fakeDriver) DeviceCount() int { return 4 }

func (d *fakeDriver) SetDevice(index int) error {
	d.rec.add("driver.set_device")
	return nil
}

func (d *fakeDriver) Properties(index int) (accel.Properties, error) {
	if d.propsErr != nil {
		return accel.Properties{}, d.propsErr
	}
	return accel.Properties{
		ComputeCapability: 80,
		MultiProcessors:   16,
		MaxThreadsPerMP:   2048,
		DriverVersion:     12040,
		RuntimeVersion:    12020,
	}, nil
}

func (d *fakeDriver) CreateQueue(index int) (accel.Queue, error) {
	return &fakeQueue{rec: d.rec}, nil
}

func (d *fakeDriver) CreateMathHandle(q accel.Queue) (accel.MathHandle, error) {
	return &fakeHandle{rec: d.rec}, nil
}

func (d *fakeDriver) HasOptimizedMathLib() bool { return d.optimizedLib }

func (d *fakeDriver) LastError() error {
	d.rec.add("driver.last_error")
	return nil
}

func TestAcceleratorContext_Accessors(t *testing.T) {
	drv := &fakeDriver{rec: &recorder{}, optimizedLib: true}
	ctx := NewAcceleratorContext(device.Accel(2), drv, device.NewHostAllocator(), zap.NewNop())
	defer ctx.Destroy()

	assert.Equal(t, device.Accel(2), ctx.Place())
	assert.Equal(t, 80, ctx.ComputeCapability())
	assert.Equal(t, 16*2048, ctx.MaxPhysicalThreads())
	assert.NotNil(t, ctx.Queue())
	assert.NotNil(t, ctx.MathHandle())
	assert.NotNil(t, ctx.Adapter())
	assert.NotNil(t, ctx.Callbacks())
}

func TestAcceleratorContext_DestructionOrder(t *testing.T) {
	rec := &recorder{}
	drv := &fakeDriver{rec: rec, optimizedLib: true}
	ctx := NewAcceleratorContext(device.Accel(0), drv, device.NewHostAllocator(), zap.NewNop())

	ctx.Destroy()

	sync := rec.index("queue.synchronize")
	handle := rec.index("handle.destroy")
	queue := rec.index("queue.destroy")
	require.GreaterOrEqual(t, sync, 0)
	require.GreaterOrEqual(t, handle, 0)
	require.GreaterOrEqual(t, queue, 0)

	// Wait before any member teardown; handle before queue.
	assert.Less(t, sync, handle)
	assert.Less(t, handle, queue)
}

func TestAcceleratorContext_WorkspaceUnavailable(t *testing.T) {
	drv := &fakeDriver{rec: &recorder{}, optimizedLib: false}
	ctx := NewAcceleratorContext(device.Accel(0), drv, device.NewHostAllocator(), zap.NewNop())
	defer ctx.Destroy()

	err := ctx.RunWithWorkspace(func(ws []byte) error { return nil }, 64)
	assert.ErrorIs(t, err, ErrNoWorkspace)
}

func TestAcceleratorContext_RunWithWorkspace(t *testing.T) {
	drv := &fakeDriver{rec: &recorder{}, optimizedLib: true}
	ctx := NewAcceleratorContext(device.Accel(0), drv, device.NewHostAllocator(), zap.NewNop())
	defer ctx.Destroy()

	ran := false
	require.NoError(t, ctx.RunWithWorkspace(func(ws []byte) error {
		ran = true
		assert.GreaterOrEqual(t, len(ws), 1024)
		return nil
	}, 1024))
	assert.True(t, ran)

	// Callback errors propagate unchanged.
	wantErr := errors.New("kernel failed")
	err := ctx.RunWithWorkspace(func(ws []byte) error { return wantErr }, 64)
	assert.ErrorIs(t, err, wantErr)
}

func TestAcceleratorContext_ConstructionFailurePanics(t *testing.T) {
	drv := &fakeDriver{rec: &recorder{}, propsErr: errors.New("device fell off the bus")}

	assert.PanicsWithError(t,
		"device failure on accel:0 during query properties: device fell off the bus",
		func() {
			NewAcceleratorContext(device.Accel(0), drv, device.NewHostAllocator(), zap.NewNop())
		})
}

func TestAcceleratorContext_WithInprocDriver(t *testing.T) {
	drv := accel.NewInprocDriver(zap.NewNop())
	ctx := NewAcceleratorContext(device.Accel(0), drv, device.NewHostAllocator(), zap.NewNop())
	defer ctx.Destroy()

	// Math work issued through the handle completes by Wait.
	a := []float32{1, 0, 0, 1}
	b := []float32{3, 4, 5, 6}
	c := make([]float32, 4)
	require.NoError(t, ctx.MathHandle().Sgemm(blas.NoTrans, blas.NoTrans, 2, 2, 2, 1, a, 2, b, 2, 0, c, 2))
	ctx.Wait()
	assert.Equal(t, []float32{3, 4, 5, 6}, c)

	// Callbacks fire after queue work.
	fired := false
	ctx.Callbacks().Add(func() { fired = true })
	ctx.Callbacks().Drain()
	assert.True(t, fired)
}
