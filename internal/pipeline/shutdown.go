// Package pipeline holds the shared shutdown/lifecycle primitive used by
// every stage driver (internal/pipeline/marketdata, strategy, risk,
// gateway). Each stage's hot loop polls a single shared flag rather than
// ctx.Done(), per spec.md's "single shared shutdown flag" invariant;
// context.Context is only consulted at stage construction and teardown,
// never inside the loop, matching the teacher's broader convention of
// keeping context off allocation/latency-sensitive paths.
package pipeline

import (
	"context"
	"sync/atomic"
	"time"
)

// Shutdown is a shared flag watched by a stage's hot loop. The zero value
// is ready to use.
type Shutdown struct {
	flag atomic.Bool
}

// Requested reports whether shutdown has been signaled.
func (s *Shutdown) Requested() bool {
	return s.flag.Load()
}

// Signal requests shutdown. Idempotent.
func (s *Shutdown) Signal() {
	s.flag.Store(true)
}

// WatchContext spawns a goroutine that calls Signal when ctx is done. This
// is the only place ctx is consulted; the hot loop itself never sees it.
func (s *Shutdown) WatchContext(ctx context.Context) {
	go func() {
		<-ctx.Done()
		s.Signal()
	}()
}

// GraceInterval is how long a stage continues draining its input queue
// after shutdown is signaled, before it stops polling entirely. Resolves
// spec.md's open question on shutdown behavior: without a grace interval a
// downstream stage can stop consuming before an upstream stage notices
// shutdown and stops producing, wedging the upstream stage against a full
// queue indefinitely. 50ms is generous relative to the nanosecond-scale
// per-event processing time and short enough not to delay process exit
// noticeably.
const GraceInterval = 50 * time.Millisecond

// Drain repeatedly calls pop (an input queue's Pop) until it returns false
// three times in a row or the grace interval elapses, discarding whatever it
// reads. Called once a stage's main loop has exited, to flush events an
// upstream stage pushed in the window between shutdown being signaled and
// the upstream stage observing it.
func Drain(pop func() bool, grace time.Duration) int {
	deadline := time.Now().Add(grace)
	drained := 0
	idle := 0

	for time.Now().Before(deadline) {
		if pop() {
			drained++
			idle = 0
			continue
		}
		idle++
		if idle > 2 {
			break
		}
	}

	return drained
}
