// Package messages defines the fixed-layout event types passed between
// pipeline stages over internal/queue.SPSC. Grounded on
// original_source/src/messages.rs: PriceLevel, MarketEvent, SignalEvent,
// Order, RejectReason and RiskDecision all have a direct counterpart here.
//
// Rust's tagged-union enums (MarketEvent, SignalEvent, RiskDecision) have no
// Go equivalent; each is re-expressed as a Kind discriminant byte plus a
// flat struct holding the union of every variant's fields, in the style of
// the teacher's own closed-variant types in
// internal/core/matching/trade_types.go and internal/trading/types (a
// Status/Type discriminant constant alongside a single struct shape).
// PriceLevel and Order carry explicit padding so that each is exactly 64
// bytes, one cache line. MarketEvent, SignalEvent and RiskDecision carry no
// padding (see MarketEvent for why a BookUpdate cannot fit one line), and
// no type here is placed on a 64-byte address boundary: Go aligns a struct
// only to the natural alignment of its widest field.
package messages

import (
	"github.com/tradsys-hft/pipeline/internal/core/types"
)

// MaxLevels is the number of price levels carried in a BookUpdate event.
const MaxLevels = 10

// Side identifies the side of an order, quote, or fill.
type Side uint8

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	if s == SideSell {
		return "sell"
	}
	return "buy"
}

// PriceLevel is one level of an order book snapshot, padded to 64 bytes:
// Price (8) + Quantity (8) + OrderCount (4) + 44 bytes of padding.
type PriceLevel struct {
	Price      types.Price
	Qty        types.Quantity
	OrderCount uint32
	_          [44]byte
}

// NewPriceLevel constructs a populated level with an order count of 1,
// matching PriceLevel::new.
func NewPriceLevel(price types.Price, qty types.Quantity) PriceLevel {
	return PriceLevel{Price: price, Qty: qty, OrderCount: 1}
}

// EmptyPriceLevel is the zero-order-count sentinel used to pad unused book
// slots, matching PriceLevel::empty.
func EmptyPriceLevel() PriceLevel {
	return PriceLevel{}
}

// IsEmpty reports whether this level holds no orders.
func (p PriceLevel) IsEmpty() bool {
	return p.OrderCount == 0
}

// MarketEventKind discriminates the variant held by a MarketEvent.
type MarketEventKind uint8

const (
	MarketEventTick MarketEventKind = iota
	MarketEventTrade
	MarketEventBookUpdate
)

// MarketEvent is a tagged union of Tick, Trade, and BookUpdate, grounded on
// MarketEvent in messages.rs. Only the fields relevant to Kind are
// meaningful; the rest hold zero values. BookUpdate's two [MaxLevels]array
// fields dominate the struct's size, so unlike the original's per-variant
// enum layout (sized to its largest variant, 64 bytes because Tick/Trade
// are small), this Go struct is sized to fit BookUpdate's arrays directly
// rather than via indirection — trading the single-cache-line-per-event
// invariant for BookUpdate (a coarser, less latency-sensitive event than
// Tick/Trade) against the alternative of allocating the level arrays on the
// heap, which the hot path cannot afford.
type MarketEvent struct {
	Kind      MarketEventKind
	Symbol    uint32
	Price     types.Price
	Qty       types.Quantity
	Side      Side
	Bids      [MaxLevels]PriceLevel
	Asks      [MaxLevels]PriceLevel
	Timestamp types.Timestamp
}

// NewTick constructs a MarketEvent carrying a Tick.
func NewTick(symbol uint32, price types.Price, qty types.Quantity, side Side, ts types.Timestamp) MarketEvent {
	return MarketEvent{Kind: MarketEventTick, Symbol: symbol, Price: price, Qty: qty, Side: side, Timestamp: ts}
}

// NewTrade constructs a MarketEvent carrying a Trade.
func NewTrade(symbol uint32, price types.Price, qty types.Quantity, ts types.Timestamp) MarketEvent {
	return MarketEvent{Kind: MarketEventTrade, Symbol: symbol, Price: price, Qty: qty, Timestamp: ts}
}

// NewBookUpdate constructs a MarketEvent carrying a BookUpdate.
func NewBookUpdate(symbol uint32, bids, asks [MaxLevels]PriceLevel, ts types.Timestamp) MarketEvent {
	return MarketEvent{Kind: MarketEventBookUpdate, Symbol: symbol, Bids: bids, Asks: asks, Timestamp: ts}
}

// GetSymbol returns the symbol carried by every variant, matching
// MarketEvent::symbol.
func (e MarketEvent) GetSymbol() uint32 { return e.Symbol }

// GetTimestamp returns the timestamp carried by every variant, matching
// MarketEvent::timestamp.
func (e MarketEvent) GetTimestamp() types.Timestamp { return e.Timestamp }

// SignalEventKind discriminates the variant held by a SignalEvent.
type SignalEventKind uint8

const (
	SignalEventBuy SignalEventKind = iota
	SignalEventSell
	SignalEventCancel
)

// SignalEvent is a tagged union of Buy, Sell, and Cancel, grounded on
// SignalEvent in messages.rs.
type SignalEvent struct {
	Kind      SignalEventKind
	Symbol    uint32
	Price     types.Price
	Qty       types.Quantity
	OrderID   uint64
	Timestamp types.Timestamp
}

// NewBuySignal constructs a SignalEvent carrying a Buy.
func NewBuySignal(symbol uint32, price types.Price, qty types.Quantity, ts types.Timestamp) SignalEvent {
	return SignalEvent{Kind: SignalEventBuy, Symbol: symbol, Price: price, Qty: qty, Timestamp: ts}
}

// NewSellSignal constructs a SignalEvent carrying a Sell.
func NewSellSignal(symbol uint32, price types.Price, qty types.Quantity, ts types.Timestamp) SignalEvent {
	return SignalEvent{Kind: SignalEventSell, Symbol: symbol, Price: price, Qty: qty, Timestamp: ts}
}

// NewCancelSignal constructs a SignalEvent carrying a Cancel.
func NewCancelSignal(orderID uint64, ts types.Timestamp) SignalEvent {
	return SignalEvent{Kind: SignalEventCancel, OrderID: orderID, Timestamp: ts}
}

// GetTimestamp returns the timestamp carried by every variant, matching
// SignalEvent::timestamp.
func (e SignalEvent) GetTimestamp() types.Timestamp { return e.Timestamp }

// Order is an approved, risk-checked order ready for the gateway, padded to
// a 64-byte cache line, matching Order in messages.rs. Go's compiler
// inserts its own interior alignment padding between fields (e.g. before
// Price, after Side), so the trailing pad field's size is chosen to bring
// the total to 64 rather than mirroring the original's literal 27-byte
// count.
type Order struct {
	ID        uint64
	Symbol    uint32
	Price     types.Price
	Qty       types.Quantity
	Side      Side
	Timestamp types.Timestamp
	_         [16]byte
}

// NewOrder constructs an Order.
func NewOrder(id uint64, symbol uint32, price types.Price, qty types.Quantity, side Side, ts types.Timestamp) Order {
	return Order{ID: id, Symbol: symbol, Price: price, Qty: qty, Side: side, Timestamp: ts}
}

// RejectReason enumerates why the risk stage rejected a signal, matching
// RejectReason in messages.rs.
type RejectReason uint8

const (
	RejectPositionLimitExceeded RejectReason = iota
	RejectRateLimitExceeded
	RejectInvalidPrice
	RejectInvalidQuantity
	RejectUnknownSymbol
	RejectInternalError
)

func (r RejectReason) String() string {
	switch r {
	case RejectPositionLimitExceeded:
		return "position_limit_exceeded"
	case RejectRateLimitExceeded:
		return "rate_limit_exceeded"
	case RejectInvalidPrice:
		return "invalid_price"
	case RejectInvalidQuantity:
		return "invalid_quantity"
	case RejectUnknownSymbol:
		return "unknown_symbol"
	default:
		return "internal_error"
	}
}

// RiskDecisionKind discriminates the variant held by a RiskDecision.
type RiskDecisionKind uint8

const (
	RiskDecisionApprove RiskDecisionKind = iota
	RiskDecisionReject
	// RiskDecisionCancelAck acknowledges a processed Cancel signal. Not
	// present in messages.rs's RiskDecision (Approve | Reject only); added
	// per the resolved open question in DESIGN.md so the gateway stage can
	// distinguish "cancel accepted" from "order approved" instead of
	// silently dropping cancel acknowledgements.
	RiskDecisionCancelAck
)

// RiskDecision is the risk stage's verdict on a SignalEvent: an approved
// Order, a Reject carrying the reason and original signal, or a
// CancelAck. Grounded on RiskDecision in messages.rs, extended with
// CancelAck (see RiskDecisionCancelAck).
type RiskDecision struct {
	Kind           RiskDecisionKind
	ApprovedOrder  Order
	RejectReason   RejectReason
	OriginalSignal SignalEvent
	CancelOrderID  uint64
	Timestamp      types.Timestamp
}

// NewApproveDecision constructs a RiskDecision approving order.
func NewApproveDecision(order Order) RiskDecision {
	return RiskDecision{Kind: RiskDecisionApprove, ApprovedOrder: order, Timestamp: order.Timestamp}
}

// NewRejectDecision constructs a RiskDecision rejecting signal for reason.
func NewRejectDecision(reason RejectReason, signal SignalEvent) RiskDecision {
	return RiskDecision{
		Kind:           RiskDecisionReject,
		RejectReason:   reason,
		OriginalSignal: signal,
		Timestamp:      signal.Timestamp,
	}
}

// NewCancelAckDecision constructs a RiskDecision acknowledging a processed
// cancel for orderID.
func NewCancelAckDecision(orderID uint64, ts types.Timestamp) RiskDecision {
	return RiskDecision{Kind: RiskDecisionCancelAck, CancelOrderID: orderID, Timestamp: ts}
}
