package latency

import (
	"sync"
	"testing"
)

func TestTrackerRecordAndStats(t *testing.T) {
	tracker := NewTracker()

	tracker.Record(100)
	tracker.Record(200)
	tracker.Record(50)

	stats := tracker.Stats()
	if stats.Count != 3 {
		t.Errorf("expected count 3, got %d", stats.Count)
	}
	if stats.Min != 50 {
		t.Errorf("expected min 50, got %d", stats.Min)
	}
	if stats.Max != 200 {
		t.Errorf("expected max 200, got %d", stats.Max)
	}
	if stats.Avg != 116 {
		t.Errorf("expected avg 116, got %d", stats.Avg)
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker()
	tracker.Record(100)
	tracker.Reset()

	stats := tracker.Stats()
	if stats.Count != 0 || stats.Min != 0 || stats.Max != 0 || stats.Avg != 0 {
		t.Errorf("expected zeroed stats after reset, got %+v", stats)
	}
}

func TestTrackerEmptyStats(t *testing.T) {
	tracker := NewTracker()
	stats := tracker.Stats()
	if stats.Count != 0 || stats.Min != 0 || stats.Max != 0 {
		t.Errorf("expected zeroed stats before any record, got %+v", stats)
	}
}

func TestTrackerConcurrentRecordsConverge(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup
	const samples = 1000

	for i := 1; i <= samples; i++ {
		wg.Add(1)
		go func(cycles uint64) {
			defer wg.Done()
			tracker.Record(cycles)
		}(uint64(i))
	}
	wg.Wait()

	stats := tracker.Stats()
	if stats.Count != samples {
		t.Errorf("expected count %d, got %d", samples, stats.Count)
	}
	if stats.Min != 1 {
		t.Errorf("expected min 1, got %d", stats.Min)
	}
	if stats.Max != samples {
		t.Errorf("expected max %d, got %d", samples, stats.Max)
	}
}

func TestStatsToNanos(t *testing.T) {
	stats := Stats{Count: 2, Min: 1000, Max: 3000, Avg: 2000}
	nanos := stats.ToNanos(1e9)
	if nanos.MinNs != 1000 || nanos.MaxNs != 3000 || nanos.AvgNs != 2000 {
		t.Errorf("unexpected conversion at 1GHz: %+v", nanos)
	}

	nanos3ghz := stats.ToNanos(3e9)
	if nanos3ghz.MaxNs != 1000 {
		t.Errorf("expected max 1000ns at 3GHz, got %d", nanos3ghz.MaxNs)
	}
}
