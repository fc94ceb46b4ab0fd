package domain

import "github.com/shopspring/decimal"

// SubmitRequest is the inbound order submission (spec §6). Price is ignored
// for Market orders.
type SubmitRequest struct {
	Symbol    string
	Side      Side
	OrderType OrderType
	Quantity  decimal.Decimal
	Price     decimal.Decimal
	HasPrice  bool
	Owner     string
}

// SubmitResult is the outbound submission response (spec §4.4, §6).
type SubmitResult struct {
	OrderID           string
	Status            Status
	FilledQuantity    decimal.Decimal
	RemainingQuantity decimal.Decimal
	Trades            []Trade
	RejectReason      string
}
