//go:build windows

package affinity

import (
	"runtime"

	"golang.org/x/sys/windows"
)

func pin(coreID int) error {
	mask := uintptr(1) << uint(coreID)
	h := windows.CurrentThread()
	_, err := windows.SetThreadAffinityMask(h, mask)
	return err
}

func numCPU() int {
	return runtime.NumCPU()
}
