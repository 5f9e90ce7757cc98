//go:build !amd64

package cycles

// archHasTSC is false on every architecture other than amd64: no assembly
// cycle-counter stub is provided, so Now() always falls back to the
// time.Now()-derived synthetic counter. Mirrors
// original_source/src/core/metrics.rs's non-x86 branch, which returns
// Timestamp::from_cycles(0) unconditionally; this module's fallback is a
// monotonically increasing synthetic counter instead of a constant zero so
// that LatencyTracker and the risk stage's rate-limit window still behave
// sensibly off x86 (see SPEC_FULL.md §6).
const archHasTSC = false

func readTSC() uint64 {
	panic("cycles: readTSC called without hardware TSC support")
}
