package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

func restingOrder(id string, side domain.Side, price, qty string) *domain.Order {
	return &domain.Order{
		OrderID:           id,
		Side:              side,
		Price:             decimal.RequireFromString(price),
		OriginalQuantity:  decimal.RequireFromString(qty),
		RemainingQuantity: decimal.RequireFromString(qty),
		Status:            domain.StatusOpen,
	}
}

func TestOrderBookAddRestingAndBBO(t *testing.T) {
	ob := NewOrderBook("BTC-USDT", 10)
	ob.AddResting(restingOrder("b1", domain.Buy, "100", "1"))
	ob.AddResting(restingOrder("a1", domain.Sell, "101", "2"))

	bbo := ob.BBO()
	require.True(t, bbo.HasBid)
	require.True(t, bbo.HasAsk)
	assert.True(t, bbo.BestBid.Equal(decimal.RequireFromString("100")))
	assert.True(t, bbo.BestAsk.Equal(decimal.RequireFromString("101")))
	assert.False(t, ob.IsCrossed())
}

func TestOrderBookCancelRemovesFromIndexAndDropsEmptyLevel(t *testing.T) {
	ob := NewOrderBook("BTC-USDT", 10)
	ob.AddResting(restingOrder("b1", domain.Buy, "100", "1"))

	order, ok := ob.Cancel("b1")
	require.True(t, ok)
	assert.Equal(t, domain.StatusCancelled, order.Status)
	assert.True(t, ob.Bids.IsEmpty())

	_, ok = ob.Cancel("b1")
	assert.False(t, ok, "cancelling an already-cancelled order must report not_found")

	_, ok = ob.Cancel("does-not-exist")
	assert.False(t, ok)
}

func TestOrderBookSnapshotDepthLimited(t *testing.T) {
	ob := NewOrderBook("BTC-USDT", 10)
	ob.AddResting(restingOrder("b1", domain.Buy, "100", "1"))
	ob.AddResting(restingOrder("b2", domain.Buy, "99", "1"))
	ob.AddResting(restingOrder("b3", domain.Buy, "98", "1"))

	snap := ob.Snapshot(2)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, "100", snap.Bids[0].Price.String())
	assert.Equal(t, "99", snap.Bids[1].Price.String())
}

func TestRecentTradesNewestFirstOverwritesOldest(t *testing.T) {
	ob := NewOrderBook("BTC-USDT", 2)
	ob.RecordTrade(domain.Trade{TradeID: "t1"})
	ob.RecordTrade(domain.Trade{TradeID: "t2"})
	ob.RecordTrade(domain.Trade{TradeID: "t3"})

	recent := ob.RecentTrades(0)
	require.Len(t, recent, 2)
	assert.Equal(t, "t3", recent[0].TradeID)
	assert.Equal(t, "t2", recent[1].TradeID)
}
