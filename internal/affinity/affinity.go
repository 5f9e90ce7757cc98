// Package affinity pins the calling OS thread to a single CPU core, so
// that a pipeline stage's hot loop (internal/pipeline) never migrates
// across cores mid-run. Grounded on original_source/src/core/thread.rs's
// pin_to_cpu: pthread_setaffinity_np on Linux, SetThreadAffinityMask on
// Windows, a warning and no-op elsewhere.
//
// A goroutine must call runtime.LockOSThread before Pin has any effect;
// internal/pipeline.Stage.Run does this at stage startup.
package affinity

import "go.uber.org/zap"

// Pin attempts to restrict the calling OS thread to coreID. Logs a warning
// and returns nil on platforms or errors where pinning is unsupported,
// since failure to pin is a performance degradation, not a correctness
// failure, and spec.md does not require the pipeline to abort when it
// cannot pin.
func Pin(logger *zap.Logger, coreID int) error {
	if err := pin(coreID); err != nil {
		logger.Warn("cpu affinity pin failed, continuing unpinned",
			zap.Int("core_id", coreID), zap.Error(err))
	}
	return nil
}

// NumCPU reports the number of logical CPUs available to this process,
// matching thread.rs's num_cpus.
func NumCPU() int {
	return numCPU()
}
