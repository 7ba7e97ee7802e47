// Package registry owns the full set of device contexts: exactly one per
// distinct place, built once up front, immutable afterwards.
package registry

import (
	"slices"

	"github.com/fxnlabs/device-runtime/internal/accel"
	"github.com/fxnlabs/device-runtime/internal/devctx"
	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/fxnlabs/device-runtime/internal/metrics"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Capabilities records which context kinds this registry may build. It is
// resolved once per Build call; there is no conditional behavior anywhere
// else.
type Capabilities struct {
	// Accelerator enables accelerator and pinned-host contexts.
	Accelerator bool
	// OptimizedCPU selects the optimized CPU context (with its
	// descriptor cache) over the plain one.
	OptimizedCPU bool
}

// DetectCapabilities returns the capabilities of this build and host: the
// in-process accelerator driver is always linked, and optimized CPU kernels
// depend on host SIMD features.
func DetectCapabilities() Capabilities {
	return Capabilities{
		Accelerator:  true,
		OptimizedCPU: devctx.OptimizedCPUKernelsAvailable(),
	}
}

type options struct {
	caps   *Capabilities
	driver accel.Driver
	alloc  device.Allocator
	logger *zap.Logger
}

// Option customizes Build.
type Option func(*options)

// WithCapabilities overrides capability detection.
func WithCapabilities(caps Capabilities) Option {
	return func(o *options) { o.caps = &caps }
}

// WithDriver supplies the accelerator driver. Defaults to the in-process
// driver.
func WithDriver(d accel.Driver) Option {
	return func(o *options) { o.driver = d }
}

// WithAllocator supplies the allocator backing all device memory requests.
// Defaults to a fresh host allocator.
func WithAllocator(a device.Allocator) Option {
	return func(o *options) { o.alloc = a }
}

// WithLogger supplies the root logger. Defaults to zap.NewNop.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.logger = l }
}

// Registry maps each place from its build list to the context that owns
// that device's resources. After Build returns, the mapping never changes,
// so lookups need no locking.
type Registry struct {
	logger   *zap.Logger
	contexts map[device.Place]devctx.DeviceContext
	order    []device.Place
}

// Build deduplicates places and constructs one context per unique place.
// The build list order is irrelevant; only uniqueness matters. If any place
// needs a capability the build does not carry, Build fails with
// ErrUnsupportedPlace and destroys every context it already constructed.
func Build(places []device.Place, opts ...Option) (*Registry, error) {
	if len(places) == 0 {
		return nil, errors.New("registry: no places given")
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.alloc == nil {
		o.alloc = device.NewHostAllocator()
	}
	caps := DetectCapabilities()
	if o.caps != nil {
		caps = *o.caps
	}

	unique := slices.Clone(places)
	slices.SortFunc(unique, device.Place.Compare)
	unique = slices.CompactFunc(unique, func(a, b device.Place) bool { return a.Compare(b) == 0 })

	r := &Registry{
		logger:   o.logger.Named("registry"),
		contexts: make(map[device.Place]devctx.DeviceContext, len(unique)),
		order:    unique,
	}

	for _, p := range unique {
		ctx, err := r.buildContext(p, caps, &o)
		if err != nil {
			r.Destroy()
			return nil, err
		}
		r.contexts[p] = ctx
		metrics.ContextsBuilt.WithLabelValues(p.Kind.String()).Inc()
	}

	r.logger.Info("registry built", zap.Int("contexts", len(r.contexts)))
	return r, nil
}

func (r *Registry) buildContext(p device.Place, caps Capabilities, o *options) (devctx.DeviceContext, error) {
	switch p.Kind {
	case device.KindCPU:
		if caps.OptimizedCPU {
			return devctx.NewOptimizedCPUContext(p), nil
		}
		return devctx.NewCPUContext(p), nil

	case device.KindAccel:
		if !caps.Accelerator {
			return nil, errors.Wrapf(devctx.ErrUnsupportedPlace, "%s requires accelerator support", p)
		}
		if o.driver == nil {
			o.driver = accel.NewInprocDriver(r.logger)
		}
		return devctx.NewAcceleratorContext(p, o.driver, o.alloc, r.logger), nil

	case device.KindPinned:
		// Pinned host memory is meaningless without a device to
		// transfer to.
		if !caps.Accelerator {
			return nil, errors.Wrapf(devctx.ErrUnsupportedPlace, "%s requires accelerator support", p)
		}
		return devctx.NewPinnedContext(p), nil

	default:
		return nil, errors.Wrapf(devctx.ErrUnsupportedPlace, "unknown device kind in %s", p)
	}
}

// Get returns the context built for place. Places outside the build list
// fail with ErrPlaceNotFound; contexts are never created lazily.
func (r *Registry) Get(place device.Place) (devctx.DeviceContext, error) {
	ctx, ok := r.contexts[place]
	if !ok {
		return nil, errors.Wrapf(devctx.ErrPlaceNotFound, "%s", place)
	}
	return ctx, nil
}

// All returns the contexts in place order. The references are borrowed and
// valid only while the registry lives.
func (r *Registry) All() []devctx.DeviceContext {
	all := make([]devctx.DeviceContext, 0, len(r.contexts))
	for _, p := range r.order {
		if ctx, ok := r.contexts[p]; ok {
			all = append(all, ctx)
		}
	}
	return all
}

// Destroy tears down every context. The registry is unusable afterwards;
// it must not run concurrently with Get or All, which read the context map
// without locking.
func (r *Registry) Destroy() {
	for _, p := range r.order {
		if ctx, ok := r.contexts[p]; ok {
			ctx.Destroy()
			delete(r.contexts, p)
		}
	}
}
