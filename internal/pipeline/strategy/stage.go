// Package strategy implements the second pipeline stage: it tracks the
// best bid/ask implied by incoming MarketEvents and emits a buy or sell
// SignalEvent whenever the spread narrows to its threshold. Grounded on
// original_source/src/pipeline/strategy.rs's run_strategy.
package strategy

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/affinity"
	"github.com/tradsys-hft/pipeline/internal/core/types"
	"github.com/tradsys-hft/pipeline/internal/cycles"
	"github.com/tradsys-hft/pipeline/internal/latency"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/pipeline"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

// Config configures a Stage. Defaults mirror StrategyConfig::default.
type Config struct {
	CPUID           int
	SpreadThreshold types.Price
}

// DefaultConfig returns the stage defaults, matching StrategyConfig::default
// (spread_threshold of Price::new(0, 5000), i.e. 0.5).
func DefaultConfig() Config {
	return Config{CPUID: 1, SpreadThreshold: types.NewPrice(0, 5000)}
}

// Stage is the strategy pipeline stage.
type Stage struct {
	config  Config
	input   *queue.SPSC[messages.MarketEvent]
	output  *queue.SPSC[messages.SignalEvent]
	tracker *latency.Tracker
	logger  *zap.Logger

	shutdown pipeline.Shutdown

	bestBid    types.Price
	haveBid    bool
	bestAsk    types.Price
	haveAsk    bool
	eventCount uint64
	signalCount uint64
}

// New constructs a strategy stage.
func New(config Config, input *queue.SPSC[messages.MarketEvent], output *queue.SPSC[messages.SignalEvent], tracker *latency.Tracker, logger *zap.Logger) *Stage {
	return &Stage{config: config, input: input, output: output, tracker: tracker, logger: logger}
}

// Run pins the calling goroutine's OS thread to config.CPUID and runs the
// stage's hot loop until ctx is canceled.
func (s *Stage) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.shutdown.WatchContext(ctx)
	_ = affinity.Pin(s.logger, s.config.CPUID)

	s.logger.Info("strategy stage started", zap.Int("cpu_id", s.config.CPUID))

	for !s.shutdown.Requested() {
		event, ok := s.input.Pop()
		if !ok {
			runtime.Gosched()
			continue
		}

		start := cycles.Now()
		s.eventCount++
		s.process(event)

		if s.tracker != nil {
			end := cycles.Now()
			s.tracker.Record(end.Sub(start))
		}
	}

	drained := pipeline.Drain(func() bool { _, ok := s.input.Pop(); return ok }, pipeline.GraceInterval)
	s.logger.Info("strategy stage stopping",
		zap.Uint64("events_processed", s.eventCount),
		zap.Uint64("signals_generated", s.signalCount),
		zap.Int("drained", drained))
}

func (s *Stage) process(event messages.MarketEvent) {
	switch event.Kind {
	case messages.MarketEventTick:
		if event.Side == messages.SideBuy {
			if !s.haveBid || event.Price.Greater(s.bestBid) {
				s.bestBid, s.haveBid = event.Price, true
			}
		} else {
			if !s.haveAsk || event.Price.Less(s.bestAsk) {
				s.bestAsk, s.haveAsk = event.Price, true
			}
		}
		s.checkSpread(event.Symbol)
	case messages.MarketEventBookUpdate:
		if !event.Bids[0].IsEmpty() {
			s.bestBid, s.haveBid = event.Bids[0].Price, true
		}
		if !event.Asks[0].IsEmpty() {
			s.bestAsk, s.haveAsk = event.Asks[0].Price, true
		}
		s.checkSpread(event.Symbol)
	case messages.MarketEventTrade:
		// no strategy action on trade prints, matching the original's
		// MarketEvent::Trade { .. } => {} arm.
	}
}

// checkSpread emits a signal once both sides of the book are known and the
// spread has narrowed to the configured threshold, regardless of whether
// the triggering event was a Tick or a BookUpdate: both feed the same
// best-bid/best-ask state, so both must be able to trigger a signal.
func (s *Stage) checkSpread(symbol uint32) {
	if !s.haveBid || !s.haveAsk {
		return
	}

	spread := s.bestAsk.Sub(s.bestBid)
	if spread.Greater(s.config.SpreadThreshold) {
		return
	}

	var signal messages.SignalEvent
	ts := cycles.Now()
	if s.eventCount%2 == 0 {
		signal = messages.NewBuySignal(symbol, s.bestAsk, types.NewQuantity(10, 0), ts)
	} else {
		signal = messages.NewSellSignal(symbol, s.bestBid, types.NewQuantity(10, 0), ts)
	}

	pushed := false
	for {
		if _, ok := s.output.Push(signal); ok {
			pushed = true
			break
		}
		if s.shutdown.Requested() {
			break
		}
	}
	if pushed {
		s.signalCount++
	}
}

// EventCount returns the number of market events processed so far.
func (s *Stage) EventCount() uint64 { return s.eventCount }

// SignalCount returns the number of signals generated so far.
func (s *Stage) SignalCount() uint64 { return s.signalCount }

// Shutdown signals this stage's hot loop to stop, independent of ctx
// cancellation.
func (s *Stage) Shutdown() { s.shutdown.Signal() }
