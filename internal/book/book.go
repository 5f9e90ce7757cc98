// Package book implements the fixed-capacity, allocation-free order book
// maintained by the market-data stage. Grounded on
// original_source/src/order_book.rs's OrderBook: two fixed-size arrays of
// messages.PriceLevel (bids descending, asks ascending), updated in place
// by a linear scan rather than a heap or tree, since the depth is bounded
// at messages.MaxLevels and a tree's allocation and pointer-chasing would
// cost more than a short linear scan at this size.
//
// Accessor naming (GetBestBid, GetSpread, GetMidPrice) follows the
// teacher's own internal/core/matching/order_book.go, whose OrderBook is
// heap-backed and growable; this OrderBook keeps that naming convention
// but not that storage strategy, since spec.md requires a bounded,
// non-allocating structure on the hot path.
package book

import (
	"github.com/tradsys-hft/pipeline/internal/core/types"
	"github.com/tradsys-hft/pipeline/internal/messages"
)

// OrderBook holds up to messages.MaxLevels price levels per side.
type OrderBook struct {
	bids     [messages.MaxLevels]messages.PriceLevel
	asks     [messages.MaxLevels]messages.PriceLevel
	bidDepth int
	askDepth int
}

// NewOrderBook returns an empty order book.
func NewOrderBook() *OrderBook {
	return &OrderBook{}
}

// GetBestBid returns the highest bid price, if any.
func (b *OrderBook) GetBestBid() (types.Price, bool) {
	if b.bidDepth > 0 {
		return b.bids[0].Price, true
	}
	return types.Price{}, false
}

// GetBestAsk returns the lowest ask price, if any.
func (b *OrderBook) GetBestAsk() (types.Price, bool) {
	if b.askDepth > 0 {
		return b.asks[0].Price, true
	}
	return types.Price{}, false
}

// GetSpread returns ask - bid, if both sides are populated.
func (b *OrderBook) GetSpread() (types.Price, bool) {
	ask, okAsk := b.GetBestAsk()
	bid, okBid := b.GetBestBid()
	if !okAsk || !okBid {
		return types.Price{}, false
	}
	return ask.Sub(bid), true
}

// GetMidPrice returns the midpoint of the best bid and ask, if both sides
// are populated. Uses raw integer division, matching
// OrderBook::mid_price's (ask.raw() + bid.raw()) / 2: this can lose the
// least-significant unit of scale when the sum is odd, which is accepted
// in the original and carried here unchanged.
func (b *OrderBook) GetMidPrice() (types.Price, bool) {
	ask, okAsk := b.GetBestAsk()
	bid, okBid := b.GetBestBid()
	if !okAsk || !okBid {
		return types.Price{}, false
	}
	midRaw := (ask.Raw() + bid.Raw()) / 2
	return types.PriceFromRaw(midRaw), true
}

// UpdateLevel applies a book update for one price level: a zero quantity
// removes the level if present, a nonzero quantity inserts or replaces it.
func (b *OrderBook) UpdateLevel(side messages.Side, price types.Price, qty types.Quantity) {
	if side == messages.SideBuy {
		b.updateBid(price, qty)
	} else {
		b.updateAsk(price, qty)
	}
}

func (b *OrderBook) updateBid(price types.Price, qty types.Quantity) {
	pos := b.findBidPosition(price)

	if qty.IsZero() {
		if pos < b.bidDepth && b.bids[pos].Price == price {
			b.removeBid(pos)
		}
		return
	}

	if pos < b.bidDepth && b.bids[pos].Price == price {
		b.bids[pos].Qty = qty
		return
	}
	b.insertBid(pos, price, qty)
}

func (b *OrderBook) updateAsk(price types.Price, qty types.Quantity) {
	pos := b.findAskPosition(price)

	if qty.IsZero() {
		if pos < b.askDepth && b.asks[pos].Price == price {
			b.removeAsk(pos)
		}
		return
	}

	if pos < b.askDepth && b.asks[pos].Price == price {
		b.asks[pos].Qty = qty
		return
	}
	b.insertAsk(pos, price, qty)
}

// findBidPosition returns the index of the first bid level whose price is
// not strictly greater than price, preserving the book's descending sort.
func (b *OrderBook) findBidPosition(price types.Price) int {
	pos := 0
	for pos < b.bidDepth && b.bids[pos].Price.Greater(price) {
		pos++
	}
	return pos
}

// findAskPosition returns the index of the first ask level whose price is
// not strictly less than price, preserving the book's ascending sort.
func (b *OrderBook) findAskPosition(price types.Price) int {
	pos := 0
	for pos < b.askDepth && b.asks[pos].Price.Less(price) {
		pos++
	}
	return pos
}

func (b *OrderBook) insertBid(pos int, price types.Price, qty types.Quantity) {
	if b.bidDepth >= messages.MaxLevels {
		if pos >= messages.MaxLevels {
			return
		}
		b.bidDepth = messages.MaxLevels - 1
	}

	for i := b.bidDepth - 1; i >= pos; i-- {
		b.bids[i+1] = b.bids[i]
	}

	b.bids[pos] = messages.NewPriceLevel(price, qty)
	b.bidDepth++
}

func (b *OrderBook) insertAsk(pos int, price types.Price, qty types.Quantity) {
	if b.askDepth >= messages.MaxLevels {
		if pos >= messages.MaxLevels {
			return
		}
		b.askDepth = messages.MaxLevels - 1
	}

	for i := b.askDepth - 1; i >= pos; i-- {
		b.asks[i+1] = b.asks[i]
	}

	b.asks[pos] = messages.NewPriceLevel(price, qty)
	b.askDepth++
}

func (b *OrderBook) removeBid(pos int) {
	for i := pos; i < b.bidDepth-1; i++ {
		b.bids[i] = b.bids[i+1]
	}
	b.bidDepth--
	b.bids[b.bidDepth] = messages.EmptyPriceLevel()
}

func (b *OrderBook) removeAsk(pos int) {
	for i := pos; i < b.askDepth-1; i++ {
		b.asks[i] = b.asks[i+1]
	}
	b.askDepth--
	b.asks[b.askDepth] = messages.EmptyPriceLevel()
}

// Bids returns a read-only view of the populated bid levels, best first.
func (b *OrderBook) Bids() []messages.PriceLevel {
	return b.bids[:b.bidDepth]
}

// Asks returns a read-only view of the populated ask levels, best first.
func (b *OrderBook) Asks() []messages.PriceLevel {
	return b.asks[:b.askDepth]
}

// BidDepth returns the number of populated bid levels.
func (b *OrderBook) BidDepth() int { return b.bidDepth }

// AskDepth returns the number of populated ask levels.
func (b *OrderBook) AskDepth() int { return b.askDepth }

// IsSorted reports whether both sides still satisfy the book's sort
// invariant (strictly descending bids, strictly ascending asks). Exported
// for use from tests outside this package, mirroring OrderBook::is_sorted
// in the original, which was test-only.
func (b *OrderBook) IsSorted() bool {
	for i := 0; i < b.bidDepth-1; i++ {
		if !b.bids[i].Price.Greater(b.bids[i+1].Price) {
			return false
		}
	}
	for i := 0; i < b.askDepth-1; i++ {
		if !b.asks[i].Price.Less(b.asks[i+1].Price) {
			return false
		}
	}
	return true
}
