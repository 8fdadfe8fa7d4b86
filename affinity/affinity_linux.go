//go:build linux
// +build linux

package affinity

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// setSize is CPU_SETSIZE, the number of cpus a unix.CPUSet can hold.
const setSize = 1024

func pinPlatform(cpus []int) error {
	var set unix.CPUSet
	set.Zero()
	for _, cpu := range cpus {
		if cpu < 0 || cpu >= setSize {
			return fmt.Errorf("affinity: cpu %d out of range", cpu)
		}
		set.Set(cpu)
	}
	// pid 0 is the calling thread
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: sched_setaffinity %v: %w", cpus, err)
	}
	return nil
}

func currentPlatform() ([]int, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return nil, fmt.Errorf("affinity: sched_getaffinity: %w", err)
	}
	cpus := make([]int, 0, set.Count())
	for cpu := 0; cpu < setSize; cpu++ {
		if set.IsSet(cpu) {
			cpus = append(cpus, cpu)
		}
	}
	return cpus, nil
}
