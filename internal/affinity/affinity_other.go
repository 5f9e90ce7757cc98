//go:build !linux && !windows

package affinity

import (
	"errors"
	"runtime"
)

var errUnsupported = errors.New("affinity: cpu pinning not supported on this platform")

func pin(coreID int) error {
	_ = coreID
	return errUnsupported
}

func numCPU() int {
	return runtime.NumCPU()
}
