package gateway

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
	if DefaultConfig().CPUID != 3 {
		t.Errorf("expected cpu_id 3, got %d", DefaultConfig().CPUID)
	}
}

func TestStageSubmitsApprovedOrders(t *testing.T) {
	input, err := queue.NewSPSC[messages.RiskDecision](16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stage := New(DefaultConfig(), input, nil, nil, zaptest.NewLogger(t))

	ts := types.TimestampFromCycles(1)
	order := messages.NewOrder(1, 1, types.NewPrice(100, 0), types.NewQuantity(10, 0), messages.SideBuy, ts)
	input.Push(messages.NewApproveDecision(order))
	input.Push(messages.NewRejectDecision(messages.RejectPositionLimitExceeded, messages.NewBuySignal(1, types.NewPrice(100, 0), types.NewQuantity(10, 0), ts)))
	input.Push(messages.NewCancelAckDecision(5, ts))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		stage.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done

	if stage.DecisionCount() != 3 {
		t.Fatalf("expected 3 decisions processed, got %d", stage.DecisionCount())
	}
	if stage.SentCount() != 1 {
		t.Errorf("expected 1 sent, got %d", stage.SentCount())
	}
	if stage.RejectedCount() != 1 {
		t.Errorf("expected 1 rejected, got %d", stage.RejectedCount())
	}
	if stage.CancelCount() != 1 {
		t.Errorf("expected 1 cancel ack, got %d", stage.CancelCount())
	}
}
