// Package egress is the gateway stage's output seam. Grounded on
// original_source/src/pipeline/gateway.rs's send_order_mock, which the
// original inlines as a std::hint::black_box no-op; this module pulls that
// out behind a Submitter interface so a real order-entry transport can be
// substituted without touching internal/pipeline/gateway.
package egress

import (
	"go.uber.org/zap"

	"github.com/tradsys-hft/pipeline/internal/messages"
)

// Submitter accepts an approved order for downstream transmission. Called
// from the gateway stage's single hot-loop goroutine; a blocking
// implementation stalls the whole pipeline, matching the warning on
// ingress.Source.Next.
type Submitter interface {
	Submit(order messages.Order)
}

// NoopSubmitter discards every order after logging it at debug level,
// matching send_order_mock's black_box no-op while giving it somewhere to
// go in structured logs instead of vanishing silently.
type NoopSubmitter struct {
	logger *zap.Logger
}

// NewNoopSubmitter returns a Submitter that logs and discards.
func NewNoopSubmitter(logger *zap.Logger) *NoopSubmitter {
	return &NoopSubmitter{logger: logger}
}

// Submit logs the order at debug level and discards it. The debug check
// guards field construction, not just the log call: order.Price.String()
// and order.Qty.String() allocate, and this runs on the gateway hot loop for
// every approved order, so it must not pay that cost at Info level or above.
func (n *NoopSubmitter) Submit(order messages.Order) {
	if !n.logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	n.logger.Debug("order submitted (no-op transport)",
		zap.Uint64("order_id", order.ID),
		zap.Uint32("symbol", order.Symbol),
		zap.String("side", order.Side.String()),
		zap.String("price", order.Price.String()),
		zap.String("qty", order.Qty.String()),
	)
}
