// Package book implements the Price Level and Book Side components of the
// order book (spec §4.1, §4.2): an ordered, per-price FIFO queue of resting
// orders with O(1) head access and O(1) cancellation given a stored handle.
package book

import (
	"container/list"

	"github.com/shopspring/decimal"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

// Level is the FIFO queue of resting orders at a single price, plus the
// cached aggregate remaining quantity (spec §3 Price Level invariant).
type Level struct {
	Price         decimal.Decimal
	queue         *list.List
	totalQuantity decimal.Decimal
}

// Handle is the O(1) position reference returned by Append and consumed by
// Remove — an index entry stores one of these rather than re-searching the
// queue.
type Handle struct {
	elem *list.Element
}

func newLevel(price decimal.Decimal) *Level {
	return &Level{
		Price:         price,
		queue:         list.New(),
		totalQuantity: decimal.Zero,
	}
}

// Append places order at the tail of the FIFO and returns a handle for O(1)
// future removal.
func (l *Level) Append(order *domain.Order) Handle {
	elem := l.queue.PushBack(order)
	l.totalQuantity = l.totalQuantity.Add(order.RemainingQuantity)
	return Handle{elem: elem}
}

// Remove unlinks the order referenced by h in O(1).
func (l *Level) Remove(h Handle) {
	order := h.elem.Value.(*domain.Order)
	l.totalQuantity = l.totalQuantity.Sub(order.RemainingQuantity)
	l.queue.Remove(h.elem)
}

// DecrementHead reduces the quantity of the resting order at the head of
// the queue by qty, adjusting the level aggregate, and removes the head if
// it is now fully filled. Returns the head order and whether it was fully
// consumed (and therefore removed).
func (l *Level) DecrementHead(qty decimal.Decimal) (maker *domain.Order, removed bool) {
	front := l.queue.Front()
	maker = front.Value.(*domain.Order)
	maker.RemainingQuantity = maker.RemainingQuantity.Sub(qty)
	l.totalQuantity = l.totalQuantity.Sub(qty)
	if maker.RemainingQuantity.Sign() == 0 {
		l.queue.Remove(front)
		removed = true
	}
	return maker, removed
}

// Head returns the next order to fill at this price, and whether the level
// is non-empty.
func (l *Level) Head() (*domain.Order, bool) {
	front := l.queue.Front()
	if front == nil {
		return nil, false
	}
	return front.Value.(*domain.Order), true
}

// IsEmpty reports whether the level holds no resting orders.
func (l *Level) IsEmpty() bool {
	return l.queue.Len() == 0
}

// TotalQuantity returns the cached aggregate remaining quantity (spec §3
// Price Level invariant: total_quantity == sum of resting remaining
// quantities).
func (l *Level) TotalQuantity() decimal.Decimal {
	return l.totalQuantity
}

// Orders returns a snapshot slice of the resting orders in FIFO order, used
// by tests; not on the matching engine's hot path.
func (l *Level) Orders() []*domain.Order {
	orders := make([]*domain.Order, 0, l.queue.Len())
	for e := l.queue.Front(); e != nil; e = e.Next() {
		orders = append(orders, e.Value.(*domain.Order))
	}
	return orders
}
