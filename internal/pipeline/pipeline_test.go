package pipeline_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/core/types"
	"github.com/tradsys-hft/pipeline/internal/cycles"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/pipeline/gateway"
	"github.com/tradsys-hft/pipeline/internal/pipeline/risk"
	"github.com/tradsys-hft/pipeline/internal/pipeline/strategy"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

// captureSubmitter records every order the gateway submits, in submission
// order, so a test can assert on exact sequencing instead of just a count.
type captureSubmitter struct {
	mu     sync.Mutex
	orders []messages.Order
}

func (c *captureSubmitter) Submit(order messages.Order) {
	c.mu.Lock()
	c.orders = append(c.orders, order)
	c.mu.Unlock()
}

func (c *captureSubmitter) Orders() []messages.Order {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]messages.Order, len(c.orders))
	copy(out, c.orders)
	return out
}

// TestFullPipelineApprovesTenRisingBidBookUpdates feeds ten BookUpdate
// events with a monotonically increasing bid price and a spread well
// inside the default threshold through strategy, risk and gateway, and
// checks that the gateway observes exactly ten Approve decisions carrying
// sequential order ids 1..10 (spec.md's pipeline end-to-end scenario).
func TestFullPipelineApprovesTenRisingBidBookUpdates(t *testing.T) {
	logger := zap.NewNop()

	strategyToRisk, err := queue.NewSPSC[messages.SignalEvent](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	riskToGateway, err := queue.NewSPSC[messages.RiskDecision](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	strategyInput, err := queue.NewSPSC[messages.MarketEvent](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	strategyStage := strategy.New(strategy.DefaultConfig(), strategyInput, strategyToRisk, nil, logger)
	riskStage := risk.New(risk.DefaultConfig(), strategyToRisk, riskToGateway, cycles.Frequency{CyclesPerSecond: 1e9}, nil, logger)
	submitter := &captureSubmitter{}
	gatewayStage := gateway.New(gateway.DefaultConfig(), riskToGateway, submitter, nil, logger)

	const events = 10
	ts := types.TimestampFromCycles(1)
	for i := int64(0); i < events; i++ {
		bid := types.NewPrice(100+i, 0)
		ask := bid.Add(types.NewPrice(0, 1000)) // 0.1 above bid, well under the 0.5 threshold

		var bids, asks [messages.MaxLevels]messages.PriceLevel
		bids[0] = messages.NewPriceLevel(bid, types.NewQuantity(10, 0))
		asks[0] = messages.NewPriceLevel(ask, types.NewQuantity(10, 0))

		event := messages.NewBookUpdate(1, bids, asks, ts)
		if _, ok := strategyInput.Push(event); !ok {
			t.Fatalf("unexpected full input queue seeding book update %d", i)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go strategyStage.Run(ctx)
	go riskStage.Run(ctx)
	go gatewayStage.Run(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for gatewayStage.DecisionCount() < events && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	cancel()
	strategyStage.Shutdown()
	riskStage.Shutdown()
	gatewayStage.Shutdown()
	time.Sleep(100 * time.Millisecond)

	if got := gatewayStage.DecisionCount(); got != events {
		t.Fatalf("expected %d decisions at the gateway, got %d", events, got)
	}
	if got := gatewayStage.SentCount(); got != events {
		t.Fatalf("expected %d approved+sent orders, got %d (rejected=%d, cancel_acks=%d)",
			events, got, gatewayStage.RejectedCount(), gatewayStage.CancelCount())
	}

	orders := submitter.Orders()
	if len(orders) != events {
		t.Fatalf("expected %d submitted orders, got %d", events, len(orders))
	}
	for i, order := range orders {
		wantID := uint64(i + 1)
		if order.ID != wantID {
			t.Errorf("order %d: expected id %d, got %d", i, wantID, order.ID)
		}
	}
}
