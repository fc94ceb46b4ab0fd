package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Trade is an immutable fill between a taker and a resting maker order.
// Price is always the maker's resting price (§4.4 internal order protection).
type Trade struct {
	TradeID        string
	Symbol         string
	Price          decimal.Decimal
	Quantity       decimal.Decimal
	AggressorSide  Side
	MakerOrderID   string
	TakerOrderID   string
	Timestamp      time.Time
	SequenceNumber uint64
}

// BBOSnapshot is the best bid/offer for a symbol. HasBid/HasAsk false means
// that side of the book is empty, and its price and quantity fields are then
// left at zero.
type BBOSnapshot struct {
	Symbol        string
	BestBid       decimal.Decimal
	BestBidQty    decimal.Decimal
	HasBid        bool
	BestAsk       decimal.Decimal
	BestAskQty    decimal.Decimal
	HasAsk        bool
	SequenceNumber uint64
}

// Equal reports whether two BBO snapshots carry the same bid/ask tuple,
// ignoring SequenceNumber — used by the event multiplexer to implement the
// "only emit on change" contract from spec §9.
func (b BBOSnapshot) Equal(other BBOSnapshot) bool {
	if b.HasBid != other.HasBid || b.HasAsk != other.HasAsk {
		return false
	}
	if b.HasBid && (!b.BestBid.Equal(other.BestBid) || !b.BestBidQty.Equal(other.BestBidQty)) {
		return false
	}
	if b.HasAsk && (!b.BestAsk.Equal(other.BestAsk) || !b.BestAskQty.Equal(other.BestAskQty)) {
		return false
	}
	return true
}

// PriceLevelView is a read-only snapshot of one price level, used for
// book depth snapshots and wire serialization.
type PriceLevelView struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// BookSnapshot is a top-N depth snapshot of one symbol's book (§6).
type BookSnapshot struct {
	Symbol         string
	Bids           []PriceLevelView
	Asks           []PriceLevelView
	SequenceNumber uint64
}
