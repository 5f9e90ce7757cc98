//go:build amd64

package cycles

// archHasTSC is true on amd64: the architecture defines RDTSCP, subject to
// the runtime CPUID feature gate in detectHardwareTSC.
const archHasTSC = true

// readTSC executes RDTSCP and returns the combined 64-bit cycle count. See
// cycles_amd64.s. Grounded on original_source/src/core/metrics.rs's
// __rdtscp intrinsic call, re-expressed as a Go assembly stub following the
// per-architecture stub pattern used throughout
// _examples/hayabusa-cloud-lfq/internal/asm (stubs_riscv64.go / doc.go).
//
//go:noescape
func readTSC() uint64
