// Package ingress is the market-data stage's data seam: a Source produces
// ticks that the marketdata stage feeds into the order book and the
// outbound MarketEvent queue. Grounded on
// original_source/src/pipeline/market_data.rs's generate_mock_tick, which
// the original inlines directly into run_market_data; this module pulls
// that generator out behind an interface so a real feed can be substituted
// without touching the stage driver, and wires two deps the original has
// no use for: golang.org/x/time/rate to cap the synthetic feed's rate
// (the original free-spins as fast as the core allows, which is fine for a
// benchmark but not for a demo that shares a machine with other
// processes) and google/uuid to generate batch correlation IDs
// (BatchCorrelationID) for log correlation.
package ingress

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/tradsys-hft/pipeline/internal/core/types"
	"github.com/tradsys-hft/pipeline/internal/messages"
)

// Tick is one synthetic market data point.
type Tick struct {
	Price types.Price
	Qty   types.Quantity
	Side  messages.Side
}

// Source produces ticks for the market-data stage to fold into its order
// book. Next is called from the stage's single hot-loop goroutine; an
// implementation that blocks (e.g. on network I/O) will stall the whole
// pipeline, so production sources should buffer internally.
type Source interface {
	Next(tickCount uint64) Tick
}

// MockSource reproduces generate_mock_tick's deterministic synthetic
// sequence: a price oscillating around a base, a quantity that cycles
// through a bounded range, and alternating side.
type MockSource struct{}

// NewMockSource returns the default synthetic tick generator.
func NewMockSource() *MockSource { return &MockSource{} }

// Next returns the deterministic tick for tickCount, matching
// generate_mock_tick exactly so that replaying the same tick count
// sequence reproduces the same book.
func (m *MockSource) Next(tickCount uint64) Tick {
	const basePrice = 10000
	variation := (int64(tickCount%100) - 50) * 5
	priceRaw := basePrice + variation

	price := types.PriceFromRaw(priceRaw)
	qty := types.NewQuantity(10+int64(tickCount%50), 0)

	side := messages.SideBuy
	if tickCount%2 != 0 {
		side = messages.SideSell
	}

	return Tick{Price: price, Qty: qty, Side: side}
}

// PacedSource wraps a Source with a token-bucket rate limit, so a demo run
// doesn't spin a pinned core at 100% just to generate synthetic data.
type PacedSource struct {
	inner   Source
	limiter *rate.Limiter
}

// NewPacedSource wraps inner with a limiter allowing up to ticksPerSecond
// calls to Next per second, with a burst of the same size.
func NewPacedSource(inner Source, ticksPerSecond int) *PacedSource {
	return &PacedSource{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(ticksPerSecond), ticksPerSecond),
	}
}

// Next blocks until the rate limiter admits the next tick, then delegates
// to the wrapped Source. Uses context.Background() since Source.Next has no
// per-call context parameter; the marketdata stage's shutdown flag bounds
// how long the pipeline waits for this to return between checks.
func (p *PacedSource) Next(tickCount uint64) Tick {
	_ = p.limiter.Wait(context.Background())
	return p.inner.Next(tickCount)
}

// BatchCorrelationID returns a fresh correlation ID for a batch of
// synthetic ticks, for inclusion in structured log fields. The marketdata
// stage does not log at batch boundaries (it only yields every 1000 ticks),
// so no pipeline stage calls this.
func BatchCorrelationID() string {
	return uuid.NewString()
}

// CopyLevels copies up to messages.MaxLevels entries from levels into a
// fixed-size array, padding any remainder with empty levels. Matches
// market_data.rs's copy_levels, used when the market-data stage emits a
// BookUpdate event from its internal order book view.
func CopyLevels(levels []messages.PriceLevel) [messages.MaxLevels]messages.PriceLevel {
	var result [messages.MaxLevels]messages.PriceLevel
	n := len(levels)
	if n > messages.MaxLevels {
		n = messages.MaxLevels
	}
	copy(result[:n], levels[:n])
	return result
}
