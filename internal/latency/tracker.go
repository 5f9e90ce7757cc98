// Package latency implements the lock-free, allocation-free latency
// histogram used directly on the hot path. Grounded on
// original_source/src/core/metrics.rs's LatencyTracker: four atomic
// counters (count/sum/min/max), min/max updated with a compare-and-swap
// retry loop instead of a lock.
//
// This is deliberately not the teacher's internal/performance/latency
// tracker, which holds a mutex and a map[string]*stat and is unsafe to call
// from the pipeline's hot path; that implementation is adapted separately
// into the off-hot-path internal/metrics.Reporter, which drains Tracker
// snapshots on a timer instead of recording into them directly.
package latency

import (
	"math"
	"sync/atomic"
)

// Tracker accumulates a count, sum, min, and max of recorded cycle deltas.
// Construct it with NewTracker, which seeds min with math.MaxUint64 so that
// the first Record always wins the CAS race for both min and max. The zero
// value leaves min at 0, which Record never lowers, so its Stats report a
// min of 0.
type Tracker struct {
	count atomic.Uint64
	sum   atomic.Uint64
	min   atomic.Uint64
	max   atomic.Uint64
}

// NewTracker returns a Tracker ready to record, with min seeded explicitly,
// matching LatencyTracker::new's AtomicU64::new(u64::MAX).
func NewTracker() *Tracker {
	t := &Tracker{}
	t.min.Store(math.MaxUint64)
	return t
}

// Record adds one sample of cycles elapsed. Safe to call from several
// goroutines at once (atomic adds for count and sum, CAS loops for min and
// max); on the hot path each stage records into its own Tracker. No heap
// allocation, no blocking.
func (t *Tracker) Record(cycles uint64) {
	t.count.Add(1)
	t.sum.Add(cycles)

	for {
		current := t.min.Load()
		if cycles >= current {
			break
		}
		if t.min.CompareAndSwap(current, cycles) {
			break
		}
	}

	for {
		current := t.max.Load()
		if cycles <= current {
			break
		}
		if t.max.CompareAndSwap(current, cycles) {
			break
		}
	}
}

// Stats is a point-in-time snapshot of a Tracker, safe to read off the hot
// path (e.g. from internal/metrics.Reporter on a timer).
type Stats struct {
	Count uint64
	Min   uint64
	Max   uint64
	Avg   uint64
}

// Stats reads the current snapshot. The four loads are independent and not
// mutually consistent under concurrent Record calls, which mirrors the
// original's use of Ordering::Relaxed throughout: a reporting tool, not a
// transactional read.
func (t *Tracker) Stats() Stats {
	count := t.count.Load()
	sum := t.sum.Load()
	min := t.min.Load()
	max := t.max.Load()

	var avg uint64
	if count > 0 {
		avg = sum / count
	}

	if min == math.MaxUint64 {
		min = 0
	}

	return Stats{Count: count, Min: min, Max: max, Avg: avg}
}

// Reset zeroes the tracker in place, for reuse across benchmark runs or
// reporting windows.
func (t *Tracker) Reset() {
	t.count.Store(0)
	t.sum.Store(0)
	t.min.Store(math.MaxUint64)
	t.max.Store(0)
}

// StatsNanos is Stats converted from cycles to nanoseconds using a
// calibrated frequency.
type StatsNanos struct {
	Count uint64
	MinNs uint64
	MaxNs uint64
	AvgNs uint64
}

// ToNanos converts a Stats snapshot to nanoseconds given cycles-per-second,
// mirroring LatencyStats::to_nanos. cyclesPerSecond of zero or less is
// treated as an identity conversion (1 cycle == 1 ns), matching the
// fallback convention used by cycles.Frequency.ToNanos.
func (s Stats) ToNanos(cyclesPerSecond float64) StatsNanos {
	if cyclesPerSecond <= 0 {
		return StatsNanos{Count: s.Count, MinNs: s.Min, MaxNs: s.Max, AvgNs: s.Avg}
	}
	nsPerCycle := 1e9 / cyclesPerSecond
	return StatsNanos{
		Count: s.Count,
		MinNs: uint64(float64(s.Min) * nsPerCycle),
		MaxNs: uint64(float64(s.Max) * nsPerCycle),
		AvgNs: uint64(float64(s.Avg) * nsPerCycle),
	}
}
