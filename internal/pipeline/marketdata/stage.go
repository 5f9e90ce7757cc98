// Package marketdata implements the first pipeline stage: it generates (or
// ingests) ticks, folds them into a fixed-capacity order book, and emits
// MarketEvent values onto its output queue. Grounded on
// original_source/src/pipeline/market_data.rs's run_market_data.
package marketdata

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/affinity"
	"github.com/tradsys-hft/pipeline/internal/book"
	"github.com/tradsys-hft/pipeline/internal/core/types"
	"github.com/tradsys-hft/pipeline/internal/cycles"
	"github.com/tradsys-hft/pipeline/internal/ingress"
	"github.com/tradsys-hft/pipeline/internal/latency"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/pipeline"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

// Config configures a Stage. Defaults mirror MarketDataConfig::default.
type Config struct {
	Symbol uint32
	CPUID  int
	// MaxTicks bounds a run for benchmarking, matching the original's
	// hard-coded 100_000-tick cutoff; zero means unbounded.
	MaxTicks uint64
	// BookUpdateEvery controls how often a BookUpdate is emitted instead of
	// a Tick, matching the original's tick_count % 10 == 0 cadence.
	BookUpdateEvery uint64
}

// DefaultConfig returns the stage defaults, matching MarketDataConfig::default.
func DefaultConfig() Config {
	return Config{Symbol: 1, CPUID: 0, MaxTicks: 0, BookUpdateEvery: 10}
}

// Stage is the market-data pipeline stage.
type Stage struct {
	config  Config
	output  *queue.SPSC[messages.MarketEvent]
	source  ingress.Source
	tracker *latency.Tracker
	logger  *zap.Logger
	book    *book.OrderBook

	shutdown  pipeline.Shutdown
	tickCount uint64
}

// New constructs a market-data stage. source defaults to
// ingress.NewMockSource() if nil; tracker may be nil to disable latency
// recording, matching the original's Option<Arc<LatencyTracker>>.
func New(config Config, output *queue.SPSC[messages.MarketEvent], source ingress.Source, tracker *latency.Tracker, logger *zap.Logger) *Stage {
	if source == nil {
		source = ingress.NewMockSource()
	}
	if config.BookUpdateEvery == 0 {
		config.BookUpdateEvery = 10
	}
	return &Stage{
		config:  config,
		output:  output,
		source:  source,
		tracker: tracker,
		logger:  logger,
		book:    book.NewOrderBook(),
	}
}

// Run pins the calling goroutine's OS thread to config.CPUID and runs the
// stage's hot loop until ctx is canceled or MaxTicks is reached. ctx is
// consulted only here, at construction/teardown; the hot loop itself polls
// the shared Shutdown flag.
func (s *Stage) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	s.shutdown.WatchContext(ctx)
	_ = affinity.Pin(s.logger, s.config.CPUID)

	s.logger.Info("market data stage started", zap.Int("cpu_id", s.config.CPUID))

	for !s.shutdown.Requested() {
		start := cycles.Now()

		tick := s.source.Next(s.tickCount)
		s.book.UpdateLevel(tick.Side, tick.Price, tick.Qty)

		timestamp := cycles.Now()
		event := s.buildEvent(tick, timestamp)

		for {
			if _, ok := s.output.Push(event); ok {
				break
			}
			if s.shutdown.Requested() {
				break
			}
		}

		if s.tracker != nil {
			end := cycles.Now()
			s.tracker.Record(end.Sub(start))
		}

		s.tickCount++

		if s.tickCount%1000 == 0 {
			runtime.Gosched()
		}

		if s.config.MaxTicks > 0 && s.tickCount >= s.config.MaxTicks {
			break
		}
	}

	s.logger.Info("market data stage stopping", zap.Uint64("ticks_processed", s.tickCount))
}

func (s *Stage) buildEvent(tick ingress.Tick, timestamp types.Timestamp) messages.MarketEvent {
	if s.tickCount%s.config.BookUpdateEvery == 0 {
		bids := ingress.CopyLevels(s.book.Bids())
		asks := ingress.CopyLevels(s.book.Asks())
		return messages.NewBookUpdate(s.config.Symbol, bids, asks, timestamp)
	}
	return messages.MarketEvent{
		Kind:      messages.MarketEventTick,
		Symbol:    s.config.Symbol,
		Price:     tick.Price,
		Qty:       tick.Qty,
		Side:      tick.Side,
		Timestamp: timestamp,
	}
}

// TickCount returns the number of ticks processed so far; exported for
// tests and metrics.
func (s *Stage) TickCount() uint64 { return s.tickCount }

// Shutdown signals this stage's hot loop to stop, independent of ctx
// cancellation.
func (s *Stage) Shutdown() { s.shutdown.Signal() }
