// Package gateway implements the fourth and final pipeline stage: it
// consumes RiskDecisions and submits approved orders downstream. Grounded
// on original_source/src/pipeline/gateway.rs's run_gateway.
package gateway

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/affinity"
	"github.com/tradsys-hft/pipeline/internal/cycles"
	"github.com/tradsys-hft/pipeline/internal/egress"
	"github.com/tradsys-hft/pipeline/internal/latency"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/pipeline"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

// Config configures a Stage. Defaults mirror GatewayConfig::default.
type Config struct {
	CPUID int
}

// DefaultConfig returns the stage defaults, matching GatewayConfig::default.
func DefaultConfig() Config {
	return Config{CPUID: 3}
}

// Stage is the gateway pipeline stage.
type Stage struct {
	config    Config
	input     *queue.SPSC[messages.RiskDecision]
	submitter egress.Submitter
	tracker   *latency.Tracker
	logger    *zap.Logger

	shutdown pipeline.Shutdown

	decisionCount uint64
	sentCount     uint64
	rejectedCount uint64
	cancelCount   uint64
}

// New constructs a gateway stage. submitter defaults to a logging no-op if
// nil.
func New(config Config, input *queue.SPSC[messages.RiskDecision], submitter egress.Submitter, tracker *latency.Tracker, logger *zap.Logger) *Stage {
	if submitter == nil {
		submitter = egress.NewNoopSubmitter(logger)
	}
	return &Stage{config: config, input: input, submitter: submitter, tracker: tracker, logger: logger}
}

// Run pins the calling goroutine's OS thread to config.CPUID and runs the
// stage's hot loop until ctx is canceled.
func (s *Stage) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.shutdown.WatchContext(ctx)
	_ = affinity.Pin(s.logger, s.config.CPUID)

	s.logger.Info("gateway stage started", zap.Int("cpu_id", s.config.CPUID))

	for !s.shutdown.Requested() {
		decision, ok := s.input.Pop()
		if !ok {
			runtime.Gosched()
			continue
		}

		start := cycles.Now()
		s.decisionCount++

		switch decision.Kind {
		case messages.RiskDecisionApprove:
			s.submitter.Submit(decision.ApprovedOrder)
			s.sentCount++
		case messages.RiskDecisionReject:
			s.rejectedCount++
		case messages.RiskDecisionCancelAck:
			s.cancelCount++
		}

		if s.tracker != nil {
			end := cycles.Now()
			s.tracker.Record(end.Sub(start))
		}
	}

	drained := pipeline.Drain(func() bool { _, ok := s.input.Pop(); return ok }, pipeline.GraceInterval)
	s.logger.Info("gateway stage stopping",
		zap.Uint64("decisions_processed", s.decisionCount),
		zap.Uint64("sent", s.sentCount),
		zap.Uint64("rejected", s.rejectedCount),
		zap.Uint64("cancel_acks", s.cancelCount),
		zap.Int("drained", drained))
}

// Shutdown signals this stage's hot loop to stop, independent of ctx
// cancellation.
func (s *Stage) Shutdown() { s.shutdown.Signal() }

// DecisionCount, SentCount, RejectedCount, CancelCount expose stage
// counters for tests and metrics.
func (s *Stage) DecisionCount() uint64 { return s.decisionCount }
func (s *Stage) SentCount() uint64     { return s.sentCount }
func (s *Stage) RejectedCount() uint64 { return s.rejectedCount }
func (s *Stage) CancelCount() uint64   { return s.cancelCount }
