// Command pipeline runs the four-stage market-data -> strategy -> risk ->
// gateway pipeline as one process, one OS thread pinned per stage. Wiring
// follows the teacher's cmd/marketdata.main: an fx.New app supplying a
// logger, a config module, and fx.Invoke hooks that start each long-running
// stage under fx.Lifecycle instead of a bespoke main-function bootstrap.
package main

import (
	"context"
	"flag"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/config"
	"github.com/tradsys-hft/pipeline/internal/cycles"
	"github.com/tradsys-hft/pipeline/internal/egress"
	"github.com/tradsys-hft/pipeline/internal/ingress"
	"github.com/tradsys-hft/pipeline/internal/latency"
	"github.com/tradsys-hft/pipeline/internal/messages"
	"github.com/tradsys-hft/pipeline/internal/metrics"
	"github.com/tradsys-hft/pipeline/internal/pipeline/gateway"
	"github.com/tradsys-hft/pipeline/internal/pipeline/marketdata"
	"github.com/tradsys-hft/pipeline/internal/pipeline/risk"
	"github.com/tradsys-hft/pipeline/internal/pipeline/strategy"
	"github.com/tradsys-hft/pipeline/internal/queue"
)

var (
	configPath = flag.String("config", "pipeline.yaml", "path to the pipeline configuration file")
	metricsAddr = flag.String("metrics-addr", ":9090", "address to serve /metrics on")
)

func main() {
	flag.Parse()

	bootstrapLogger, err := config.NewLogger(config.LogLevelInfo)
	if err != nil {
		panic(err)
	}
	config.TuneForLatency(bootstrapLogger)
	bootstrapLogger.Sync()

	app := fx.New(
		fx.Supply(fx.Annotate(*configPath, fx.ResultTags(`name:"configPath"`))),
		fx.Supply(fx.Annotate(*metricsAddr, fx.ResultTags(`name:"metricsAddr"`))),
		fx.Provide(newLogger),
		fx.Provide(fx.Annotate(newConfigManager, fx.ParamTags(`name:"configPath"`))),
		fx.Provide(newQueues),
		fx.Provide(newTrackers),
		fx.Provide(fx.Annotate(newMarketDataStage, fx.ParamTags("", "", `name:"marketDataTracker"`, ""))),
		fx.Provide(fx.Annotate(newStrategyStage, fx.ParamTags("", "", "", `name:"strategyTracker"`, ""))),
		fx.Provide(fx.Annotate(newRiskStage, fx.ParamTags("", "", "", `name:"riskTracker"`, ""))),
		fx.Provide(fx.Annotate(newGatewayStage, fx.ParamTags("", "", `name:"gatewayTracker"`, ""))),
		fx.Provide(fx.Annotate(newReporter, fx.ParamTags("", "", `name:"metricsAddr"`))),
		fx.Invoke(runStages),
		fx.Invoke(fx.Annotate(serveMetrics, fx.ParamTags("", "", "", `name:"metricsAddr"`))),
	)

	app.Run()
}

func newLogger() (*zap.Logger, error) {
	return config.NewLogger(config.LogLevelInfo)
}

func newConfigManager(path string) (*config.Manager, error) {
	return config.NewManager(path)
}

// queues bundles every inter-stage SPSC queue so fx can provide them as one
// group and each stage constructor can pick the two it needs.
type queues struct {
	fx.Out

	MarketToStrategy *queue.SPSC[messages.MarketEvent]
	StrategyToRisk   *queue.SPSC[messages.SignalEvent]
	RiskToGateway    *queue.SPSC[messages.RiskDecision]
}

func newQueues(mgr *config.Manager) (queues, error) {
	capacity := mgr.Current().QueueCapacity

	marketToStrategy, err := queue.NewSPSC[messages.MarketEvent](capacity)
	if err != nil {
		return queues{}, err
	}
	strategyToRisk, err := queue.NewSPSC[messages.SignalEvent](capacity)
	if err != nil {
		return queues{}, err
	}
	riskToGateway, err := queue.NewSPSC[messages.RiskDecision](capacity)
	if err != nil {
		return queues{}, err
	}

	return queues{
		MarketToStrategy: marketToStrategy,
		StrategyToRisk:   strategyToRisk,
		RiskToGateway:    riskToGateway,
	}, nil
}

// trackers bundles one latency.Tracker per stage. Every field shares the
// same *latency.Tracker type, so each is name-tagged: fx disambiguates
// same-typed values by name, not by field identity.
type trackers struct {
	fx.Out

	MarketData *latency.Tracker `name:"marketDataTracker"`
	Strategy   *latency.Tracker `name:"strategyTracker"`
	Risk       *latency.Tracker `name:"riskTracker"`
	Gateway    *latency.Tracker `name:"gatewayTracker"`
}

func newTrackers() trackers {
	return trackers{
		MarketData: latency.NewTracker(),
		Strategy:   latency.NewTracker(),
		Risk:       latency.NewTracker(),
		Gateway:    latency.NewTracker(),
	}
}

func newMarketDataStage(mgr *config.Manager, output *queue.SPSC[messages.MarketEvent], tracker *latency.Tracker, logger *zap.Logger) *marketdata.Stage {
	cfg := mgr.Current()
	stageConfig := marketdata.Config{
		Symbol:          cfg.Symbol,
		CPUID:           cfg.MarketData.CPUID,
		MaxTicks:        cfg.MarketData.MaxTicks,
		BookUpdateEvery: cfg.MarketData.BookUpdateEvery,
	}
	var source ingress.Source = ingress.NewMockSource()
	if cfg.MarketData.TicksPerSecond > 0 {
		source = ingress.NewPacedSource(source, cfg.MarketData.TicksPerSecond)
	}
	return marketdata.New(stageConfig, output, source, tracker, logger)
}

func newStrategyStage(mgr *config.Manager, input *queue.SPSC[messages.MarketEvent], output *queue.SPSC[messages.SignalEvent], tracker *latency.Tracker, logger *zap.Logger) *strategy.Stage {
	cfg := mgr.Current()
	stageConfig := strategy.Config{
		CPUID:           cfg.Strategy.CPUID,
		SpreadThreshold: cfg.SpreadThreshold(),
	}
	return strategy.New(stageConfig, input, output, tracker, logger)
}

func newRiskStage(mgr *config.Manager, input *queue.SPSC[messages.SignalEvent], output *queue.SPSC[messages.RiskDecision], tracker *latency.Tracker, logger *zap.Logger) *risk.Stage {
	cfg := mgr.Current()
	stageConfig := risk.Config{
		CPUID:              cfg.Risk.CPUID,
		MaxPosition:        cfg.MaxPosition(),
		MaxOrdersPerSecond: cfg.Risk.MaxOrdersPerSecond,
	}
	freq := cycles.Calibrate(0)
	return risk.New(stageConfig, input, output, freq, tracker, logger)
}

func newGatewayStage(mgr *config.Manager, input *queue.SPSC[messages.RiskDecision], tracker *latency.Tracker, logger *zap.Logger) *gateway.Stage {
	cfg := mgr.Current()
	stageConfig := gateway.Config{CPUID: cfg.Gateway.CPUID}
	return gateway.New(stageConfig, input, egress.NewNoopSubmitter(logger), tracker, logger)
}

// reporterTrackers is the name-tagged parameter object newReporter needs to
// pull all four trackers back out of fx by name.
type reporterTrackers struct {
	fx.In

	MarketData *latency.Tracker `name:"marketDataTracker"`
	Strategy   *latency.Tracker `name:"strategyTracker"`
	Risk       *latency.Tracker `name:"riskTracker"`
	Gateway    *latency.Tracker `name:"gatewayTracker"`
}

func newReporter(logger *zap.Logger, t reporterTrackers, addr string) *metrics.Reporter {
	return metrics.NewReporter(logger, 5e9, map[metrics.StageName]*latency.Tracker{
		metrics.StageMarketData: t.MarketData,
		metrics.StageStrategy:   t.Strategy,
		metrics.StageRisk:       t.Risk,
		metrics.StageGateway:    t.Gateway,
	})
}

// runStages starts every stage's hot loop on its own goroutine (each loop
// immediately locks its OS thread), stopping all four together on
// fx.Lifecycle's OnStop.
func runStages(lc fx.Lifecycle, md *marketdata.Stage, st *strategy.Stage, rk *risk.Stage, gw *gateway.Stage, reporter *metrics.Reporter, logger *zap.Logger) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go md.Run(ctx)
			go st.Run(ctx)
			go rk.Run(ctx)
			go gw.Run(ctx)
			go reporter.Run(ctx)
			logger.Info("pipeline started")
			return nil
		},
		OnStop: func(context.Context) error {
			md.Shutdown()
			st.Shutdown()
			rk.Shutdown()
			gw.Shutdown()
			cancel()
			logger.Info("pipeline stopped")
			return nil
		},
	})
}

func serveMetrics(lc fx.Lifecycle, reporter *metrics.Reporter, logger *zap.Logger, addr string) {
	server := &http.Server{Addr: addr, Handler: reporter.Handler()}

	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			go func() {
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Error("metrics server stopped", zap.Error(err))
				}
			}()
			logger.Info("metrics server started", zap.String("addr", addr))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return server.Shutdown(ctx)
		},
	})
}
