package registry

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// Most programs thread the registry through their subsystems explicitly.
// For the ones that need a single authoritative instance reachable from
// anywhere, the global below is installed exactly once and immutable
// afterwards.

var global atomic.Pointer[Registry]

// SetGlobal installs r as the process-wide registry. Only the first call
// takes effect; later calls fail.
func SetGlobal(r *Registry) error {
	if r == nil {
		return errors.New("registry: cannot install nil global instance")
	}
	if !global.CompareAndSwap(nil, r) {
		return errors.New("registry: global instance already set")
	}
	return nil
}

// Global returns the process-wide registry installed by SetGlobal, or nil
// if none was installed.
func Global() *Registry {
	return global.Load()
}
