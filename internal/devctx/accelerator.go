package devctx

import (
	"fmt"
	"time"

	"github.com/fxnlabs/device-runtime/internal/accel"
	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/fxnlabs/device-runtime/internal/metrics"
	"go.uber.org/zap"
)

// AcceleratorContext owns everything kernel invocations need on one
// accelerator: the execution queue, the queue-bound math handle, the stream
// adapter handed to the math runtime, the growable workspace, and the host
// callback drain point. All of it is created at construction and destroyed
// together; nothing is shared with other contexts.
type AcceleratorContext struct {
	place  device.Place
	driver accel.Driver
	alloc  device.Allocator
	logger *zap.Logger

	props     accel.Properties
	queue     accel.Queue
	adapter   *StreamAdapter
	math      accel.MathHandle
	workspace *workspaceHolder // nil when the optimized math library is absent
	callbacks *accel.CallbackManager
}

// NewAcceleratorContext constructs the context for one accelerator place.
// Construction failures below the driver boundary are unrecoverable and
// panic with a DeviceError.
func NewAcceleratorContext(place device.Place, driver accel.Driver, alloc device.Allocator, logger *zap.Logger) *AcceleratorContext {
	ctx := &AcceleratorContext{
		place:  place,
		driver: driver,
		alloc:  alloc,
		logger: logger.Named("accel_ctx").With(zap.String("place", place.String())),
	}

	enforce(place, "set device", driver.SetDevice(place.Index))

	props, err := driver.Properties(place.Index)
	enforce(place, "query properties", err)
	ctx.props = props

	queue, err := driver.CreateQueue(place.Index)
	enforce(place, "create queue", err)
	ctx.queue = queue

	ctx.adapter = NewStreamAdapter(place, alloc, queue)

	math, err := driver.CreateMathHandle(queue)
	enforce(place, "create math handle", err)
	ctx.math = math

	if driver.HasOptimizedMathLib() {
		ctx.workspace = newWorkspaceHolder(place, alloc, queue)
	}

	ctx.callbacks = accel.NewCallbackManager(ctx.logger, queue)

	ctx.logger.Info("accelerator context created",
		zap.Int("compute_capability", props.ComputeCapability),
		zap.String("driver_version", versionString(props.DriverVersion)),
		zap.String("runtime_version", versionString(props.RuntimeVersion)),
	)
	return ctx
}

// versionString renders a vendor version integer, e.g. 12040 -> "12.4".
func versionString(v int) string {
	return fmt.Sprintf("%d.%d", v/1000, (v%100)/10)
}

func (c *AcceleratorContext) Place() device.Place { return c.place }

// ComputeCapability returns the device generation captured at construction.
func (c *AcceleratorContext) ComputeCapability() int { return c.props.ComputeCapability }

// MaxPhysicalThreads is the product of the device's parallel-unit count and
// its maximum concurrent threads per unit.
func (c *AcceleratorContext) MaxPhysicalThreads() int {
	return c.props.MultiProcessors * c.props.MaxThreadsPerMP
}

// Queue returns the context's execution queue.
func (c *AcceleratorContext) Queue() accel.Queue { return c.queue }

// MathHandle returns the queue-bound math handle.
func (c *AcceleratorContext) MathHandle() accel.MathHandle { return c.math }

// Adapter returns the numeric-array device adapter bound to the queue.
func (c *AcceleratorContext) Adapter() *StreamAdapter { return c.adapter }

// Callbacks returns the host-callback manager bound to the queue.
func (c *AcceleratorContext) Callbacks() *accel.CallbackManager { return c.callbacks }

// RunWithWorkspace grows the workspace to at least required bytes and
// invokes fn with it, serialized against every other workspace user on this
// context. It fails when the optimized math library was unavailable at
// construction.
func (c *AcceleratorContext) RunWithWorkspace(fn func(workspace []byte) error, required int) error {
	if c.workspace == nil {
		return ErrNoWorkspace
	}
	return c.workspace.Run(fn, required)
}

// Wait blocks the calling goroutine until all enqueued work on the queue
// has completed. A device-level failure here is unrecoverable.
func (c *AcceleratorContext) Wait() {
	start := time.Now()
	enforce(c.place, "queue synchronize", c.queue.Synchronize())
	enforce(c.place, "last error", c.driver.LastError())
	metrics.QueueSyncDuration.Observe(float64(time.Since(start).Microseconds()) / 1e3)
}

// Destroy tears the context down. The order is load-bearing: in-flight work
// must finish and callbacks must drain before any queue-bound member is
// destroyed, and the queue goes last.
func (c *AcceleratorContext) Destroy() {
	enforce(c.place, "set device", c.driver.SetDevice(c.place.Index))
	c.Wait()
	c.callbacks.Close()
	enforce(c.place, "destroy math handle", c.math.Destroy())
	c.adapter.Release()
	enforce(c.place, "destroy queue", c.queue.Destroy())
	if c.workspace != nil {
		// The queue is already idle; Close frees without synchronizing.
		c.workspace.Close()
	}
	c.logger.Info("accelerator context destroyed")
}
