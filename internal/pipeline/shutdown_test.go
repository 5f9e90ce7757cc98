package pipeline

import (
	"context"
	"testing"
	"time"
)

func TestShutdownSignal(t *testing.T) {
	var s Shutdown
	if s.Requested() {
		t.Fatal("expected not requested initially")
	}
	s.Signal()
	if !s.Requested() {
		t.Fatal("expected requested after Signal")
	}
}

func TestWatchContextSignalsOnCancel(t *testing.T) {
	var s Shutdown
	ctx, cancel := context.WithCancel(context.Background())
	s.WatchContext(ctx)
	cancel()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if s.Requested() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("expected shutdown to be signaled after context cancellation")
}

func TestDrainStopsAfterIdle(t *testing.T) {
	values := []bool{true, true, false, false, false}
	i := 0
	pop := func() bool {
		if i >= len(values) {
			return false
		}
		v := values[i]
		i++
		return v
	}

	n := Drain(pop, 100*time.Millisecond)
	if n != 2 {
		t.Fatalf("expected 2 drained, got %d", n)
	}
}
