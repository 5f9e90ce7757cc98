package queue

import (
	"sync"
	"testing"
)

func TestPushPop(t *testing.T) {
	q, err := NewSPSC[int](4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := q.Push(1); !ok {
		t.Fatal("expected push 1 to succeed")
	}
	if _, ok := q.Push(2); !ok {
		t.Fatal("expected push 2 to succeed")
	}

	if v, ok := q.Pop(); !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%v, %v)", v, ok)
	}
	if v, ok := q.Pop(); !ok || v != 2 {
		t.Fatalf("expected (2, true), got (%v, %v)", v, ok)
	}
	if _, ok := q.Pop(); ok {
		t.Fatal("expected pop on empty queue to fail")
	}
}

func TestFullQueueReturnsValueBack(t *testing.T) {
	q, err := NewSPSC[int](2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := q.Push(1); !ok {
		t.Fatal("expected push 1 to succeed")
	}
	if _, ok := q.Push(2); !ok {
		t.Fatal("expected push 2 to succeed")
	}

	rejected, ok := q.Push(3)
	if ok {
		t.Fatal("expected push on full queue to fail")
	}
	if rejected != 3 {
		t.Fatalf("expected rejected value to be returned unchanged, got %v", rejected)
	}

	if v, ok := q.Pop(); !ok || v != 1 {
		t.Fatalf("expected (1, true), got (%v, %v)", v, ok)
	}
	if _, ok := q.Push(3); !ok {
		t.Fatal("expected push after freeing a slot to succeed")
	}
}

func TestWraparound(t *testing.T) {
	q, err := NewSPSC[int](4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 100; i++ {
		if _, ok := q.Push(i); !ok {
			t.Fatalf("push %d failed", i)
		}
		if v, ok := q.Pop(); !ok || v != i {
			t.Fatalf("expected (%d, true), got (%v, %v)", i, v, ok)
		}
	}
}

func TestLen(t *testing.T) {
	q, err := NewSPSC[int](4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if q.Len() != 0 {
		t.Fatalf("expected len 0, got %d", q.Len())
	}
	q.Push(1)
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
	q.Push(2)
	if q.Len() != 2 {
		t.Fatalf("expected len 2, got %d", q.Len())
	}
	q.Pop()
	if q.Len() != 1 {
		t.Fatalf("expected len 1, got %d", q.Len())
	}
}

func TestCapacityNonPowerOfTwo(t *testing.T) {
	if _, err := NewSPSC[int](3); err == nil {
		t.Fatal("expected error for non-power-of-2 capacity")
	}
}

func TestCapacityZeroOrNegative(t *testing.T) {
	if _, err := NewSPSC[int](0); err == nil {
		t.Fatal("expected error for zero capacity")
	}
	if _, err := NewSPSC[int](-4); err == nil {
		t.Fatal("expected error for negative capacity")
	}
}

func TestMultiThreadedProducerConsumer(t *testing.T) {
	q, err := NewSPSC[int](1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	const total = 10000
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		for i := 0; i < total; i++ {
			for {
				if _, ok := q.Push(i); ok {
					break
				}
			}
		}
	}()

	received := make([]int, 0, total)
	go func() {
		defer wg.Done()
		for len(received) < total {
			if v, ok := q.Pop(); ok {
				received = append(received, v)
			}
		}
	}()

	wg.Wait()

	if len(received) != total {
		t.Fatalf("expected %d elements, got %d", total, len(received))
	}
	for i, v := range received {
		if v != i {
			t.Fatalf("out-of-order delivery at index %d: got %d", i, v)
		}
	}
}

func TestDrain(t *testing.T) {
	q, err := NewSPSC[int](4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q.Push(1)
	q.Push(2)
	q.Push(3)

	n := q.Drain()
	if n != 3 {
		t.Fatalf("expected 3 drained, got %d", n)
	}
	if !q.IsEmpty() {
		t.Fatal("expected queue empty after drain")
	}
}

// BenchmarkPushPop measures single-goroutine push/pop latency, mirroring
// original_source/benches/spsc.rs's single-threaded throughput case.
func BenchmarkPushPop(b *testing.B) {
	q, err := NewSPSC[int](1024)
	if err != nil {
		b.Fatalf("unexpected error: %v", err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q.Push(i)
		q.Pop()
	}
}

// BenchmarkConcurrentPushPop runs the producer and consumer on separate
// goroutines, mirroring the original's cross-thread criterion benchmark.
func BenchmarkConcurrentPushPop(b *testing.B) {
	q, err := NewSPSC[int](1024)
	if err != nil {
		b.Fatalf("unexpected error: %v", err)
	}

	done := make(chan struct{})
	b.ResetTimer()

	go func() {
		for i := 0; i < b.N; i++ {
			for {
				if _, ok := q.Push(i); ok {
					break
				}
			}
		}
		close(done)
	}()

	for i := 0; i < b.N; i++ {
		for {
			if _, ok := q.Pop(); ok {
				break
			}
		}
	}
	<-done
}
