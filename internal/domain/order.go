// Package domain holds the types shared by the order book, the matching
// engine and the event multiplexer: orders, trades, sides, statuses and the
// sentinel errors the rest of the engine returns.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Side is which side of the book an order rests on or crosses into.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	if s == Buy {
		return "buy"
	}
	return "sell"
}

// Opposite returns the side an incoming order of this side matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderType is one of the four supported order semantics (§4.4).
type OrderType int

const (
	Limit OrderType = iota
	Market
	IOC
	FOK
)

func (t OrderType) String() string {
	switch t {
	case Limit:
		return "limit"
	case Market:
		return "market"
	case IOC:
		return "ioc"
	case FOK:
		return "fok"
	default:
		return "unknown"
	}
}

// RestsOnPartialFill reports whether an unfilled remainder of this order
// type is left resting on the book rather than cancelled.
func (t OrderType) RestsOnPartialFill() bool {
	return t == Limit
}

// RequiresPrice reports whether a price is mandatory for this order type.
func (t OrderType) RequiresPrice() bool {
	return t != Market
}

// Status is the lifecycle state of an Order (§3).
type Status int

const (
	StatusNew Status = iota
	StatusOpen
	StatusPartiallyFilled
	StatusFilled
	StatusCancelled
	StatusRejected
)

func (s Status) String() string {
	switch s {
	case StatusNew:
		return "new"
	case StatusOpen:
		return "open"
	case StatusPartiallyFilled:
		return "partially_filled"
	case StatusFilled:
		return "filled"
	case StatusCancelled:
		return "cancelled"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Resting reports whether an order in this status, with remaining > 0,
// belongs in a Book Side.
func (s Status) Resting() bool {
	return s == StatusOpen || s == StatusPartiallyFilled
}

// Order is a single resting or taker order. Price is the zero Decimal for
// market orders. RemainingQuantity is mutated in place by the matching
// engine under the owning Order Book's critical section; nothing outside
// internal/engine and internal/book should hold a long-lived pointer to one
// without that lock held.
type Order struct {
	OrderID           string
	Symbol            string
	Side              Side
	OrderType         OrderType
	OriginalQuantity  decimal.Decimal
	RemainingQuantity decimal.Decimal
	Price             decimal.Decimal
	SequenceNumber    uint64
	Timestamp         time.Time
	Status            Status
	Owner             string
}

// FilledQuantity returns OriginalQuantity - RemainingQuantity.
func (o *Order) FilledQuantity() decimal.Decimal {
	return o.OriginalQuantity.Sub(o.RemainingQuantity)
}

// IsResting reports whether this order currently belongs on a book side.
func (o *Order) IsResting() bool {
	return o.Status.Resting() && o.RemainingQuantity.Sign() > 0
}
