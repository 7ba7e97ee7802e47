package accel

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Fabricated device numbers reported by the in-process driver. The values
// follow the vendor convention of major*1000 + minor*10 so version math in
// consumers behaves the same against real drivers.
const (
	inprocComputeCapability = 75
	inprocDriverVersion     = 12040
	inprocRuntimeVersion    = 12020
	inprocMaxThreadsPerUnit = 1024
)

// InprocDriver runs accelerator work in-process: queues are goroutines and
// math calls go through gonum. It models one or more virtual devices that
// all resolve to the host.
type InprocDriver struct {
	logger  *zap.Logger
	devices int

	mu      sync.Mutex
	lastErr error
}

// NewInprocDriver returns an in-process driver with a single virtual
// device.
func NewInprocDriver(logger *zap.Logger) *InprocDriver {
	return NewInprocDriverWithDevices(logger, 1)
}

// NewInprocDriverWithDevices returns an in-process driver modeling n
// virtual devices.
func NewInprocDriverWithDevices(logger *zap.Logger, n int) *InprocDriver {
	if n < 1 {
		n = 1
	}
	return &InprocDriver{logger: logger.Named("inproc"), devices: n}
}

func (d *InprocDriver) Name() string { return "inproc" }

// DeviceCount reports the number of virtual devices.
func (d *InprocDriver) DeviceCount() int { return d.devices }

func (d *InprocDriver) checkIndex(index int) error {
	if index < 0 || index >= d.DeviceCount() {
		return errors.Errorf("inproc: device index %d out of range [0,%d)", index, d.DeviceCount())
	}
	return nil
}

// SetDevice selects the active device. The in-process driver has no
// per-goroutine device state, so this only validates the index.
func (d *InprocDriver) SetDevice(index int) error {
	return d.checkIndex(index)
}

// Properties snapshots the host as an accelerator: one parallel unit per
// logical CPU with a fixed thread width.
func (d *InprocDriver) Properties(index int) (Properties, error) {
	if err := d.checkIndex(index); err != nil {
		return Properties{}, err
	}
	return Properties{
		ComputeCapability: inprocComputeCapability,
		MultiProcessors:   runtime.NumCPU(),
		MaxThreadsPerMP:   inprocMaxThreadsPerUnit,
		DriverVersion:     inprocDriverVersion,
		RuntimeVersion:    inprocRuntimeVersion,
	}, nil
}

// CreateQueue spawns a FIFO worker queue on the device at index.
func (d *InprocDriver) CreateQueue(index int) (Queue, error) {
	if err := d.checkIndex(index); err != nil {
		return nil, err
	}
	return newInprocQueue(d.logger, index), nil
}

// CreateMathHandle binds a gonum-backed handle to q.
func (d *InprocDriver) CreateMathHandle(q Queue) (MathHandle, error) {
	if q == nil {
		return nil, errors.New("inproc: math handle requires a queue")
	}
	return newInprocMathHandle(q), nil
}

// HasOptimizedMathLib reports true: the in-process math library is always
// linked.
func (d *InprocDriver) HasOptimizedMathLib() bool { return true }

// LastError reports and clears the driver's sticky error.
func (d *InprocDriver) LastError() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	err := d.lastErr
	d.lastErr = nil
	return err
}
