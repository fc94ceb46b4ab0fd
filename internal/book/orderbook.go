package book

import (
	"github.com/shopspring/decimal"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

const defaultRecentTradesCapacity = 200

// entry is the id_index value: enough to unlink an order in O(1) without
// re-searching the price-level map (spec §4.3).
type entry struct {
	side  *Side
	level *Level
	h     Handle
}

// OrderBook is the pair of Book Sides for one symbol, its order-id index,
// and its recent-trades ring buffer (spec §3, §4.3). It is not safe for
// concurrent use by itself — the owning Matching Engine serializes all
// access inside its per-symbol critical section (spec §5).
type OrderBook struct {
	Symbol       string
	Bids         *Side
	Asks         *Side
	index        map[string]entry
	recentTrades *TradeRing
}

// NewOrderBook creates an empty book for symbol with the given recent-trades
// ring capacity (spec §9 default is 200; pass <= 0 for the default).
func NewOrderBook(symbol string, recentTradesCapacity int) *OrderBook {
	if recentTradesCapacity <= 0 {
		recentTradesCapacity = defaultRecentTradesCapacity
	}
	return &OrderBook{
		Symbol:       symbol,
		Bids:         NewBidSide(),
		Asks:         NewAskSide(),
		index:        make(map[string]entry),
		recentTrades: NewTradeRing(recentTradesCapacity),
	}
}

func (b *OrderBook) sideFor(side domain.Side) *Side {
	if side == domain.Buy {
		return b.Bids
	}
	return b.Asks
}

// AddResting inserts a limit order that survived the match loop with
// remaining quantity > 0 (spec §4.3: "only invoked by the engine after a
// taker's match loop yields a non-zero remaining_quantity for a
// resting-eligible type").
func (b *OrderBook) AddResting(order *domain.Order) {
	side := b.sideFor(order.Side)
	h, level := side.Insert(order)
	b.index[order.OrderID] = entry{side: side, level: level, h: h}
}

// Cancel removes a resting order by id (spec §4.3, §7 not_found). Returns
// false if orderID is unknown or not currently resting.
func (b *OrderBook) Cancel(orderID string) (*domain.Order, bool) {
	e, ok := b.index[orderID]
	if !ok {
		return nil, false
	}
	order := e.h.elem.Value.(*domain.Order)
	e.level.Remove(e.h)
	if e.level.IsEmpty() {
		e.side.RemoveLevel(e.level)
	}
	delete(b.index, orderID)
	order.RemainingQuantity = decimal.Zero
	order.Status = domain.StatusCancelled
	return order, true
}

// UnlinkMaker removes a fully-filled maker from the id_index after the
// Matching Engine's match loop has already popped it from its Level (spec
// §4.4 step 2d). The engine owns level/side bookkeeping directly on the hot
// path; this keeps the index consistent with it (spec §8 invariant 4).
func (b *OrderBook) UnlinkMaker(orderID string) {
	delete(b.index, orderID)
}

// DropEmptyLevel removes level from side if it has become empty, mirroring
// the match loop's step 2d (spec §4.4).
func (b *OrderBook) DropEmptyLevel(side *Side, level *Level) {
	if level.IsEmpty() {
		side.RemoveLevel(level)
	}
}

// RecordTrade appends t to the recent-trades ring (spec §4.3, §4.6).
func (b *OrderBook) RecordTrade(t domain.Trade) {
	b.recentTrades.Push(t)
}

// RecentTrades returns up to limit of the most recent trades, newest first.
func (b *OrderBook) RecentTrades(limit int) []domain.Trade {
	return b.recentTrades.Recent(limit)
}

// BBO recomputes the best bid/offer from the top of each side (spec §3:
// "Recomputed from the top level of each side after every mutation").
func (b *OrderBook) BBO() domain.BBOSnapshot {
	snap := domain.BBOSnapshot{Symbol: b.Symbol}
	if level, ok := b.Bids.BestLevel(); ok {
		snap.HasBid = true
		snap.BestBid = level.Price
		snap.BestBidQty = level.TotalQuantity()
	}
	if level, ok := b.Asks.BestLevel(); ok {
		snap.HasAsk = true
		snap.BestAsk = level.Price
		snap.BestAskQty = level.TotalQuantity()
	}
	return snap
}

// Snapshot aggregates up to depth price levels per side (spec §4.3: "it
// does not expose individual resting orders"). depth <= 0 means unbounded.
func (b *OrderBook) Snapshot(depth int) domain.BookSnapshot {
	return domain.BookSnapshot{
		Symbol: b.Symbol,
		Bids:   levelViews(b.Bids.Levels(depth)),
		Asks:   levelViews(b.Asks.Levels(depth)),
	}
}

func levelViews(levels []*Level) []domain.PriceLevelView {
	out := make([]domain.PriceLevelView, len(levels))
	for i, l := range levels {
		out[i] = domain.PriceLevelView{Price: l.Price, Quantity: l.TotalQuantity()}
	}
	return out
}

// IsCrossed reports whether the book is pathologically crossed
// (best_bid >= best_ask) — the spec §8 I1 check, called from tests; never
// true at rest in a correct implementation.
func (b *OrderBook) IsCrossed() bool {
	bidLevel, hasBid := b.Bids.BestLevel()
	askLevel, hasAsk := b.Asks.BestLevel()
	if !hasBid || !hasAsk {
		return false
	}
	return bidLevel.Price.GreaterThanOrEqual(askLevel.Price)
}
