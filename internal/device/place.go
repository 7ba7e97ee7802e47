// Package device defines the identity of a compute device and the memory
// allocator interface shared by every execution context.
package device

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Kind enumerates the classes of device a Place can name.
type Kind int

const (
	// KindCPU is general-purpose host execution.
	KindCPU Kind = iota
	// KindAccel is an accelerator device addressed by index.
	KindAccel
	// KindPinned is page-locked host memory used for fast host<->device
	// transfers. It only makes sense in builds with accelerator support.
	KindPinned
)

// String returns the lowercase name used in configs and logs.
func (k Kind) String() string {
	switch k {
	case KindCPU:
		return "cpu"
	case KindAccel:
		return "accel"
	case KindPinned:
		return "pinned"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Place names one device: a kind plus an index. The index is only
// meaningful for accelerator places; CPU and pinned places use index 0.
//
// Place is an immutable value type. It is comparable (usable as a map key)
// and totally ordered via Compare, which the registry relies on to
// deduplicate its build list.
type Place struct {
	Kind  Kind
	Index int
}

// CPU returns the place naming host execution.
func CPU() Place { return Place{Kind: KindCPU} }

// Accel returns the place naming the accelerator at the given index.
func Accel(index int) Place { return Place{Kind: KindAccel, Index: index} }

// Pinned returns the place naming page-locked host memory.
func Pinned() Place { return Place{Kind: KindPinned} }

// Compare orders places first by kind, then by index. It returns a negative
// value if p sorts before other, zero if equal, positive otherwise.
func (p Place) Compare(other Place) int {
	if p.Kind != other.Kind {
		return int(p.Kind) - int(other.Kind)
	}
	return p.Index - other.Index
}

// String renders the place in the form accepted by Parse, e.g. "cpu",
// "pinned" or "accel:1".
func (p Place) String() string {
	if p.Kind == KindAccel {
		return fmt.Sprintf("accel:%d", p.Index)
	}
	return p.Kind.String()
}

// Parse converts a config string ("cpu", "pinned", "accel:N", bare "accel"
// meaning index 0) into a Place.
func Parse(s string) (Place, error) {
	name, idx, hasIdx := strings.Cut(strings.TrimSpace(s), ":")
	switch name {
	case "cpu":
		if hasIdx {
			return Place{}, errors.Errorf("device %q: cpu does not take an index", s)
		}
		return CPU(), nil
	case "pinned":
		if hasIdx {
			return Place{}, errors.Errorf("device %q: pinned does not take an index", s)
		}
		return Pinned(), nil
	case "accel":
		if !hasIdx {
			return Accel(0), nil
		}
		n, err := strconv.Atoi(idx)
		if err != nil || n < 0 {
			return Place{}, errors.Errorf("device %q: invalid accelerator index", s)
		}
		return Accel(n), nil
	default:
		return Place{}, errors.Errorf("device %q: unknown device kind", s)
	}
}
