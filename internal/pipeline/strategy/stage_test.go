package strategy

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/tradsys-hft/pipeline/internal/core/types"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()
	if config.CPUID != 1 {
		t.Errorf("expected cpu_id 1, got %d", config.CPUID)
	}
	if !config.SpreadThreshold.Equal(types.NewPrice(0, 5000)) {
		t.Errorf("expected spread threshold 0.5, got %v", config.SpreadThreshold)
	}
}

func TestStageGeneratesSignalOnNarrowSpread(t *testing.T) {
	input, err := queue.NewSPSC[messages.MarketEvent](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output, err := queue.NewSPSC[messages.SignalEvent](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stage := New(DefaultConfig(), input, output, nil, zaptest.NewLogger(t))

	ts := types.TimestampFromCycles(1)
	input.Push(messages.NewTick(1, types.NewPrice(100, 0), types.NewQuantity(1, 0), messages.SideBuy, ts))
	input.Push(messages.NewTick(1, types.NewPrice(100, 2000), types.NewQuantity(1, 0), messages.SideSell, ts))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stage.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if stage.EventCount() != 2 {
		t.Fatalf("expected 2 events processed, got %d", stage.EventCount())
	}
	if stage.SignalCount() == 0 {
		t.Fatal("expected at least one signal generated for a narrow spread")
	}
	if output.IsEmpty() {
		t.Fatal("expected a signal on the output queue")
	}
}

func TestStageBookUpdateSetsBestLevels(t *testing.T) {
	input, err := queue.NewSPSC[messages.MarketEvent](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	output, err := queue.NewSPSC[messages.SignalEvent](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stage := New(DefaultConfig(), input, output, nil, zaptest.NewLogger(t))

	var bids, asks [messages.MaxLevels]messages.PriceLevel
	bids[0] = messages.NewPriceLevel(types.NewPrice(100, 0), types.NewQuantity(10, 0))
	asks[0] = messages.NewPriceLevel(types.NewPrice(100, 1000), types.NewQuantity(10, 0))

	event := messages.NewBookUpdate(1, bids, asks, types.TimestampFromCycles(1))
	stage.process(event)

	if !stage.haveBid || !stage.bestBid.Equal(types.NewPrice(100, 0)) {
		t.Errorf("expected best bid 100.0, got %v (have=%v)", stage.bestBid, stage.haveBid)
	}
	if !stage.haveAsk || !stage.bestAsk.Equal(types.NewPrice(100, 1000)) {
		t.Errorf("expected best ask 100.1, got %v (have=%v)", stage.bestAsk, stage.haveAsk)
	}
}
