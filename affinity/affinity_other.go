//go:build !linux
// +build !linux

package affinity

func pinPlatform(cpus []int) error {
	return ErrUnsupported
}

func currentPlatform() ([]int, error) {
	return nil, ErrUnsupported
}
