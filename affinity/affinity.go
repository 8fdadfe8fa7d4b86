// Package affinity binds OS threads to sets of logical CPUs.
//
// Platform-specific implementations live in affinity_linux.go and
// affinity_other.go.
package affinity

import (
	"errors"
)

var (
	ErrUnsupported = errors.New("affinity: not supported on this platform")
	ErrEmptySet    = errors.New("affinity: empty cpu set")
)

// Pin binds the calling OS thread to cpus. Lock the goroutine to its
// thread with runtime.LockOSThread before calling, or the binding may be
// applied to a thread the goroutine later leaves.
func Pin(cpus []int) error {
	if len(cpus) == 0 {
		return ErrEmptySet
	}
	return pinPlatform(cpus)
}

// Current returns the logical CPUs the calling OS thread may run on,
// ascending.
func Current() ([]int, error) {
	return currentPlatform()
}
