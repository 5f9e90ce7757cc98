// Command benchmark runs the full four-stage pipeline for a configured
// duration and prints per-stage and end-to-end latency statistics. Grounded
// in original_source/src/main.rs's Phase 2 demo (same four trackers, same
// stats-to-nanoseconds-then-sum end-to-end figure) and in the teacher's
// cmd/benchmark binary shape (flag-driven CLI, BenchmarkResult-style report
// written to a file as well as printed).
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
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

func main() {
	var (
		duration = flag.Duration("duration", 5*time.Second, "how long to run the pipeline before reporting")
		output   = flag.String("output", "", "optional file to also write the latency report to")
		verbose  = flag.Bool("verbose", false, "enable verbose logging")
	)
	flag.Parse()

	var (
		logger *zap.Logger
		err    error
	)
	if *verbose {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Sync()

	fmt.Println("=== HFT Pipeline Demo ===")
	fmt.Println("Starting 4-stage pipeline with lock-free SPSC queues...")

	mdToStrategy, _ := queue.NewSPSC[messages.MarketEvent](1024)
	strategyToRisk, _ := queue.NewSPSC[messages.SignalEvent](1024)
	riskToGateway, _ := queue.NewSPSC[messages.RiskDecision](1024)

	mdTracker := latency.NewTracker()
	strategyTracker := latency.NewTracker()
	riskTracker := latency.NewTracker()
	gatewayTracker := latency.NewTracker()

	freq := cycles.Calibrate(0)

	mdStage := marketdata.New(marketdata.DefaultConfig(), mdToStrategy, ingress.NewMockSource(), mdTracker, logger)
	strategyStage := strategy.New(strategy.DefaultConfig(), mdToStrategy, strategyToRisk, strategyTracker, logger)
	riskStage := risk.New(risk.DefaultConfig(), strategyToRisk, riskToGateway, freq, riskTracker, logger)
	gatewayStage := gateway.New(gateway.DefaultConfig(), riskToGateway, egress.NewNoopSubmitter(logger), gatewayTracker, logger)

	ctx, cancel := context.WithCancel(context.Background())

	fmt.Println("Spawning stages on CPUs 0-3...")
	go mdStage.Run(ctx)
	go strategyStage.Run(ctx)
	go riskStage.Run(ctx)
	go gatewayStage.Run(ctx)

	fmt.Printf("Pipeline running for %v...\n", *duration)
	time.Sleep(*duration)

	fmt.Println("Signaling shutdown...")
	cancel()
	mdStage.Shutdown()
	strategyStage.Shutdown()
	riskStage.Shutdown()
	gatewayStage.Shutdown()
	time.Sleep(200 * time.Millisecond) // let every stage observe shutdown and drain

	report := formatReport(freq, mdStage, strategyStage, riskStage, gatewayStage, mdTracker, strategyTracker, riskTracker, gatewayTracker)
	fmt.Println(report)

	if *output != "" {
		if err := os.WriteFile(*output, []byte(report), 0644); err != nil {
			logger.Error("failed to write report", zap.Error(err))
		}
	}
}

func formatReport(
	freq cycles.Frequency,
	mdStage *marketdata.Stage,
	strategyStage *strategy.Stage,
	riskStage *risk.Stage,
	gatewayStage *gateway.Stage,
	mdTracker, strategyTracker, riskTracker, gatewayTracker *latency.Tracker,
) string {
	mdStats := mdTracker.Stats().ToNanos(freq.CyclesPerSecond)
	strategyStats := strategyTracker.Stats().ToNanos(freq.CyclesPerSecond)
	riskStats := riskTracker.Stats().ToNanos(freq.CyclesPerSecond)
	gatewayStats := gatewayTracker.Stats().ToNanos(freq.CyclesPerSecond)

	totalAvgNs := mdStats.AvgNs + strategyStats.AvgNs + riskStats.AvgNs + gatewayStats.AvgNs

	report := "=== Pipeline Summary ===\n\n"
	report += fmt.Sprintf("Ticks processed:     %d\n", mdStage.TickCount())
	report += fmt.Sprintf("Signals generated:   %d\n", strategyStage.SignalCount())
	report += fmt.Sprintf("Signals decided:     %d (approved %d, rejected %d)\n", riskStage.SignalCount(), riskStage.ApprovedCount(), riskStage.RejectedCount())
	report += fmt.Sprintf("Decisions processed: %d (sent %d, rejected %d, cancel-acks %d)\n\n", gatewayStage.DecisionCount(), gatewayStage.SentCount(), gatewayStage.RejectedCount(), gatewayStage.CancelCount())

	report += "=== Latency Statistics ===\n\n"
	report += fmt.Sprintf("Market Data:  %s\n", formatStats(mdStats))
	report += fmt.Sprintf("Strategy:     %s\n", formatStats(strategyStats))
	report += fmt.Sprintf("Risk:         %s\n", formatStats(riskStats))
	report += fmt.Sprintf("Gateway:      %s\n", formatStats(gatewayStats))

	report += fmt.Sprintf("\nEnd-to-End:   %d ns average\n", totalAvgNs)
	report += "Target:       < 1000 ns (1 us)\n"
	if totalAvgNs < 1000 {
		report += "Target achieved!\n"
	} else {
		report += "Above target\n"
	}

	return report
}

func formatStats(s latency.StatsNanos) string {
	return fmt.Sprintf("count=%d min=%dns max=%dns avg=%dns", s.Count, s.MinNs, s.MaxNs, s.AvgNs)
}
