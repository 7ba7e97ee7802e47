package devctx

import (
	"fmt"

	"github.com/fxnlabs/device-runtime/internal/device"
	"github.com/pkg/errors"
)

var (
	// ErrUnsupportedPlace is returned when a registry is built for a place
	// whose device kind needs a capability this build does not carry.
	ErrUnsupportedPlace = errors.New("place not supported by this build")

	// ErrPlaceNotFound is returned by registry lookups for places that were
	// not part of the original build list. Contexts are never created
	// lazily.
	ErrPlaceNotFound = errors.New("no context built for place")

	// ErrNoWorkspace is returned by RunWithWorkspace when the optimized
	// math library was unavailable at construction.
	ErrNoWorkspace = errors.New("optimized math library unavailable, no workspace")
)

// DeviceError is the panic value raised when a low-level device call fails.
// A failed device call leaves state that is not safe to continue from, so
// these are never caught or retried inside this module.
type DeviceError struct {
	Op    string
	Place device.Place
	Err   error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device failure on %s during %s: %v", e.Place, e.Op, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// enforce panics with a DeviceError if err is non-nil.
func enforce(place device.Place, op string, err error) {
	if err != nil {
		panic(&DeviceError{Op: op, Place: place, Err: err})
	}
}
