package pipeline_test

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/cycles"
	"github.com/tradsys-hft/pipeline/internal/egress"
	"github.com/tradsys-hft/pipeline/internal/ingress"
	"github.com/tradsys-hft/pipeline/internal/latency"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/pipeline/gateway"
	"github.com/tradsys-hft/pipeline/internal/pipeline/marketdata"
	"github.com/tradsys-hft/pipeline/internal/pipeline/risk"
	"github.com/tradsys-hft/pipeline/internal/pipeline/strategy"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

// BenchmarkFullPipeline wires all four stages together with real SPSC
// queues and lets the market-data stage free-run for b.N ticks, mirroring
// original_source/benches/pipeline.rs's end-to-end criterion benchmark.
func BenchmarkFullPipeline(b *testing.B) {
	logger := zap.NewNop()

	mdToStrategy, _ := queue.NewSPSC[messages.MarketEvent](1024)
	strategyToRisk, _ := queue.NewSPSC[messages.SignalEvent](1024)
	riskToGateway, _ := queue.NewSPSC[messages.RiskDecision](1024)

	mdConfig := marketdata.DefaultConfig()
	mdConfig.MaxTicks = uint64(b.N)

	mdStage := marketdata.New(mdConfig, mdToStrategy, ingress.NewMockSource(), latency.NewTracker(), logger)
	strategyStage := strategy.New(strategy.DefaultConfig(), mdToStrategy, strategyToRisk, latency.NewTracker(), logger)
	riskStage := risk.New(risk.DefaultConfig(), strategyToRisk, riskToGateway, cycles.Calibrate(0), latency.NewTracker(), logger)
	gatewayStage := gateway.New(gateway.DefaultConfig(), riskToGateway, egress.NewNoopSubmitter(logger), latency.NewTracker(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b.ResetTimer()
	go strategyStage.Run(ctx)
	go riskStage.Run(ctx)
	go gatewayStage.Run(ctx)
	mdStage.Run(ctx) // runs on this goroutine, returns once MaxTicks is reached

	cancel()
	strategyStage.Shutdown()
	riskStage.Shutdown()
	gatewayStage.Shutdown()
	time.Sleep(50 * time.Millisecond) // let the downstream stages drain and exit
}
