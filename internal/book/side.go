package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

// Side is the ordered collection of Price Levels for one side of one
// symbol's book (spec §4.2). Bids iterate in strictly decreasing price
// order, asks in strictly increasing order; both are backed by
// tidwall/btree.BTreeG for O(log P) insertion and O(1) best-level peek,
// the same structure the teacher uses in internal/engine/orderbook.go.
type Side struct {
	isBid  bool
	levels *btree.BTreeG[*Level]
}

// NewBidSide returns a Side ordered highest-price-first.
func NewBidSide() *Side {
	return &Side{
		isBid: true,
		levels: btree.NewBTreeG(func(a, b *Level) bool {
			return a.Price.GreaterThan(b.Price)
		}),
	}
}

// NewAskSide returns a Side ordered lowest-price-first.
func NewAskSide() *Side {
	return &Side{
		isBid: false,
		levels: btree.NewBTreeG(func(a, b *Level) bool {
			return a.Price.LessThan(b.Price)
		}),
	}
}

// probe builds a comparator-only Level for btree lookups by price.
func probe(price decimal.Decimal) *Level {
	return &Level{Price: price}
}

// Insert appends order onto the level at its price, creating the level if
// none exists yet (spec §4.2: O(log P)). Returns the handle for O(1) future
// removal and the level order now rests on.
func (s *Side) Insert(order *domain.Order) (Handle, *Level) {
	level, ok := s.levels.Get(probe(order.Price))
	if !ok {
		level = newLevel(order.Price)
		s.levels.Set(level)
	}
	h := level.Append(order)
	return h, level
}

// RemoveLevel drops an emptied level from the side (spec §4.3 cancel /
// §4.4 match loop step 2d).
func (s *Side) RemoveLevel(level *Level) {
	s.levels.Delete(probe(level.Price))
}

// BestLevel returns the top price level for this side, if any (spec §4.2:
// O(1)).
func (s *Side) BestLevel() (*Level, bool) {
	return s.levels.Min()
}

// IsEmpty reports whether this side holds no price levels.
func (s *Side) IsEmpty() bool {
	return s.levels.Len() == 0
}

// Matchable reports whether a level at levelPrice on this (opposing, resting)
// side satisfies an incoming order's limit price (spec §4.2): an incoming
// buy crosses ask levels priced P <= L, an incoming sell crosses bid levels
// priced P >= L. s is always the resting side here — a bid Side is
// matchable against an incoming sell, an ask Side against an incoming buy.
func (s *Side) Matchable(levelPrice, limit decimal.Decimal) bool {
	if s.isBid {
		return levelPrice.GreaterThanOrEqual(limit)
	}
	return levelPrice.LessThanOrEqual(limit)
}

// Levels returns up to depth price levels from the best price outward, for
// book snapshots (spec §4.3 snapshot). depth <= 0 means unbounded.
func (s *Side) Levels(depth int) []*Level {
	var out []*Level
	s.levels.Scan(func(level *Level) bool {
		if depth > 0 && len(out) >= depth {
			return false
		}
		out = append(out, level)
		return true
	})
	return out
}

// Len returns the number of distinct price levels on this side.
func (s *Side) Len() int {
	return s.levels.Len()
}
