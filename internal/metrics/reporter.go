// Package metrics aggregates per-stage latency samples off the hot path
// and exposes them to Prometheus. Grounded on two teacher shapes: the
// rcrowley/go-metrics exponentially-decaying histogram from
// internal/performance/latency.LatencyTracker (percentile reporting) and
// the direct prometheus/client_golang counters/gauges pattern from
// chidi150c-coinbase's metrics.go. Neither of those touches the pipeline's
// hot loops directly: stages record into internal/latency.Tracker (lock-
// free, allocation-free), and Reporter drains that tracker's cheap
// count/sum/min/max snapshot into these heavier collectors on a timer.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	metrics "github.com/rcrowley/go-metrics"
	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/latency"
)

// StageName identifies one of the four pipeline stages for labeling.
type StageName string

const (
	StageMarketData StageName = "market_data"
	StageStrategy   StageName = "strategy"
	StageRisk       StageName = "risk"
	StageGateway    StageName = "gateway"
)

// Reporter periodically snapshots a set of per-stage latency trackers and
// publishes them as Prometheus gauges, keeping an exponentially-decaying
// histogram per stage that is fed one sample per collection, the stage's
// average latency at that moment; its p99 is a percentile of those
// averages, not of individual recorded latencies.
type Reporter struct {
	logger   *zap.Logger
	interval time.Duration

	trackers   map[StageName]*latency.Tracker
	histograms map[StageName]metrics.Histogram

	latencyMinNs prometheus.GaugeVec
	latencyMaxNs prometheus.GaugeVec
	latencyAvgNs prometheus.GaugeVec
	latencyP99Ns prometheus.GaugeVec
	samples      prometheus.CounterVec

	registry *prometheus.Registry
}

// NewReporter builds a Reporter with one latency.Tracker registered per
// named stage.
func NewReporter(logger *zap.Logger, interval time.Duration, trackers map[StageName]*latency.Tracker) *Reporter {
	registry := prometheus.NewRegistry()

	r := &Reporter{
		logger:     logger,
		interval:   interval,
		trackers:   trackers,
		histograms: make(map[StageName]metrics.Histogram, len(trackers)),
		registry:   registry,
		latencyMinNs: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_stage_latency_min_ns",
			Help: "Minimum observed stage latency in nanoseconds.",
		}, []string{"stage"}),
		latencyMaxNs: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_stage_latency_max_ns",
			Help: "Maximum observed stage latency in nanoseconds.",
		}, []string{"stage"}),
		latencyAvgNs: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_stage_latency_avg_ns",
			Help: "Average observed stage latency in nanoseconds.",
		}, []string{"stage"}),
		latencyP99Ns: *prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pipeline_stage_latency_p99_ns",
			Help: "99th percentile of the per-collection average stage latency, from a decaying sample.",
		}, []string{"stage"}),
		samples: *prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pipeline_stage_samples_total",
			Help: "Total latency samples recorded per stage.",
		}, []string{"stage"}),
	}

	for stage := range trackers {
		r.histograms[stage] = metrics.NewHistogram(metrics.NewExpDecaySample(1028, 0.015))
	}

	registry.MustRegister(&r.latencyMinNs, &r.latencyMaxNs, &r.latencyAvgNs, &r.latencyP99Ns, &r.samples)
	return r
}

// Handler returns an http.Handler serving this reporter's registry in
// Prometheus text exposition format.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Run drains every tracker into its Prometheus gauges and decaying
// histogram on Reporter's interval, until ctx is canceled.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.collect()
		}
	}
}

func (r *Reporter) collect() {
	for stage, tracker := range r.trackers {
		stats := tracker.Stats()
		if stats.Count == 0 {
			continue
		}

		label := string(stage)
		r.latencyMinNs.WithLabelValues(label).Set(float64(stats.Min))
		r.latencyMaxNs.WithLabelValues(label).Set(float64(stats.Max))
		r.latencyAvgNs.WithLabelValues(label).Set(float64(stats.Avg))
		r.samples.WithLabelValues(label).Add(float64(stats.Count))

		if h, ok := r.histograms[stage]; ok {
			h.Update(int64(stats.Avg))
			r.latencyP99Ns.WithLabelValues(label).Set(h.Percentile(0.99))
		}

		r.logger.Debug("latency snapshot",
			zap.String("stage", label),
			zap.Uint64("count", stats.Count),
			zap.Uint64("min_ns", stats.Min),
			zap.Uint64("max_ns", stats.Max),
			zap.Uint64("avg_ns", stats.Avg))
	}
}
