package engine

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptic-exchange/matchcore/internal/domain"
	"github.com/kryptic-exchange/matchcore/internal/events"
	"github.com/kryptic-exchange/matchcore/internal/idgen"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

func newTestRegistry() *Registry {
	return NewRegistry(fixedClock{at: time.Unix(0, 0)}, idgen.New(), events.New(64, nil), nil)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func submit(t *testing.T, r *Registry, side domain.Side, orderType domain.OrderType, qty, price string, hasPrice bool) domain.SubmitResult {
	t.Helper()
	req := domain.SubmitRequest{
		Symbol:    "BTC-USDT",
		Side:      side,
		OrderType: orderType,
		Quantity:  dec(qty),
		HasPrice:  hasPrice,
	}
	if hasPrice {
		req.Price = dec(price)
	}
	result, err := r.Submit(context.Background(), req)
	require.NoError(t, err)
	return result
}

func limit(t *testing.T, r *Registry, side domain.Side, qty, price string) domain.SubmitResult {
	return submit(t, r, side, domain.Limit, qty, price, true)
}

// S1: a resting limit order produces no trades and opens at full size.
func TestS1RestingLimit(t *testing.T) {
	r := newTestRegistry()
	res := limit(t, r, domain.Buy, "1.0", "100")

	assert.Equal(t, domain.StatusOpen, res.Status)
	assert.True(t, res.RemainingQuantity.Equal(dec("1.0")))
	assert.Empty(t, res.Trades)

	bbo, err := r.BBO("BTC-USDT")
	require.NoError(t, err)
	assert.True(t, bbo.BestBid.Equal(dec("100")))
	assert.False(t, bbo.HasAsk)
}

// S2: a crossing sell fills in full against the resting bid at the maker's
// price, leaving the bid partially filled.
func TestS2CrossPartialMakerFill(t *testing.T) {
	r := newTestRegistry()
	limit(t, r, domain.Buy, "1.0", "100")

	res := limit(t, r, domain.Sell, "0.4", "99")
	require.Len(t, res.Trades, 1)
	trade := res.Trades[0]
	assert.True(t, trade.Price.Equal(dec("100")))
	assert.True(t, trade.Quantity.Equal(dec("0.4")))
	assert.Equal(t, domain.Sell, trade.AggressorSide)
	assert.Equal(t, domain.StatusFilled, res.Status)

	snap, err := r.Snapshot("BTC-USDT", 0)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Quantity.Equal(dec("0.6")))
	assert.Empty(t, snap.Asks)
}

// S3: a resting bid is swept by an incoming market sell.
func TestS3MarketSweep(t *testing.T) {
	r := newTestRegistry()
	limit(t, r, domain.Buy, "1.0", "100")
	limit(t, r, domain.Sell, "0.4", "99") // S2 state: bids=[(100,0.6)]
	limit(t, r, domain.Buy, "2.0", "101") // rests, asks empty

	res := submit(t, r, domain.Sell, domain.Market, "1.5", "", false)
	require.Len(t, res.Trades, 1)
	assert.True(t, res.Trades[0].Price.Equal(dec("101")))
	assert.True(t, res.Trades[0].Quantity.Equal(dec("1.5")))
	assert.Equal(t, domain.StatusFilled, res.Status)

	snap, err := r.Snapshot("BTC-USDT", 0)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 2)
	assert.Equal(t, "101", snap.Bids[0].Price.String())
	assert.True(t, snap.Bids[0].Quantity.Equal(dec("0.5")))
	assert.Equal(t, "100", snap.Bids[1].Price.String())
	assert.True(t, snap.Bids[1].Quantity.Equal(dec("0.6")))
}

// S4: an IOC's unmatched remainder is cancelled, not rested.
func TestS4IOCCancelsRemainder(t *testing.T) {
	r := newTestRegistry()
	limit(t, r, domain.Buy, "0.5", "101")
	limit(t, r, domain.Buy, "0.6", "100")

	res := submit(t, r, domain.Sell, domain.IOC, "1.0", "100.5", true)
	require.Len(t, res.Trades, 1)
	assert.True(t, res.Trades[0].Price.Equal(dec("101")))
	assert.True(t, res.Trades[0].Quantity.Equal(dec("0.5")))
	assert.Equal(t, domain.StatusCancelled, res.Status)
	assert.True(t, res.FilledQuantity.Equal(dec("0.5")))
	assert.True(t, res.RemainingQuantity.Equal(dec("0.5")))

	snap, err := r.Snapshot("BTC-USDT", 0)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, "100", snap.Bids[0].Price.String())
}

// S5: a FOK with insufficient liquidity is rejected atomically, book untouched.
func TestS5FOKInsufficientLiquidity(t *testing.T) {
	r := newTestRegistry()
	limit(t, r, domain.Buy, "0.6", "100")

	res, err := r.Submit(context.Background(), domain.SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Sell, OrderType: domain.FOK,
		Quantity: dec("1.0"), Price: dec("100"), HasPrice: true,
	})
	require.Error(t, err)
	assert.Equal(t, domain.StatusRejected, res.Status)
	assert.Equal(t, "fok_unfillable", res.RejectReason)
	assert.Empty(t, res.Trades)

	snap, err := r.Snapshot("BTC-USDT", 0)
	require.NoError(t, err)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Quantity.Equal(dec("0.6")))
}

// S6: FIFO at a single price level.
func TestS6FIFOAtPrice(t *testing.T) {
	r := newTestRegistry()
	o1 := limit(t, r, domain.Buy, "1", "100")
	o2 := limit(t, r, domain.Buy, "2", "100")
	o3 := limit(t, r, domain.Buy, "3", "100")

	res := submit(t, r, domain.Sell, domain.Market, "2.5", "", false)
	require.Len(t, res.Trades, 2)
	assert.True(t, res.Trades[0].Quantity.Equal(dec("1.0")))
	assert.Equal(t, o1.OrderID, res.Trades[0].MakerOrderID)
	assert.True(t, res.Trades[1].Quantity.Equal(dec("1.5")))
	assert.Equal(t, o2.OrderID, res.Trades[1].MakerOrderID)
	_ = o3
}

func TestValidationRejectsNonPositiveQuantity(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Submit(context.Background(), domain.SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: dec("0"), Price: dec("100"), HasPrice: true,
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestValidationRequiresPriceForLimit(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Submit(context.Background(), domain.SubmitRequest{
		Symbol: "BTC-USDT", Side: domain.Buy, OrderType: domain.Limit,
		Quantity: dec("1"),
	})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	r := newTestRegistry()
	res := limit(t, r, domain.Buy, "1.0", "100")

	found, err := r.Cancel(context.Background(), "BTC-USDT", res.OrderID)
	require.NoError(t, err)
	assert.True(t, found)

	snap, err := r.Snapshot("BTC-USDT", 0)
	require.NoError(t, err)
	assert.Empty(t, snap.Bids)

	found, err = r.Cancel(context.Background(), "BTC-USDT", res.OrderID)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCancelUnknownSymbolIsNotFound(t *testing.T) {
	r := newTestRegistry()
	_, err := r.Cancel(context.Background(), "NOPE-USDT", "whatever")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestQuerySymbolWithNoEngineYetIsEmptyNotError(t *testing.T) {
	r := newTestRegistry()
	snap, err := r.Snapshot("GHOST-USDT", 10)
	require.NoError(t, err)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)

	bbo, err := r.BBO("GHOST-USDT")
	require.NoError(t, err)
	assert.False(t, bbo.HasBid)
	assert.False(t, bbo.HasAsk)

	trades, err := r.RecentTrades("GHOST-USDT", 10)
	require.NoError(t, err)
	assert.Nil(t, trades)
}

func TestBookNeverEndsUpCrossed(t *testing.T) {
	r := newTestRegistry()
	limit(t, r, domain.Buy, "1.0", "100")
	limit(t, r, domain.Sell, "1.0", "100")

	snap, err := r.Snapshot("BTC-USDT", 0)
	require.NoError(t, err)
	assert.Empty(t, snap.Bids)
	assert.Empty(t, snap.Asks)
}

func TestRegistryReadyOnlyWithClockAndIds(t *testing.T) {
	r := NewRegistry(nil, nil, events.New(1, nil), nil)
	assert.False(t, r.Ready())

	r = newTestRegistry()
	assert.True(t, r.Ready())
}

func TestSubscribeReceivesTradeEventAfterSubmit(t *testing.T) {
	r := newTestRegistry()
	sub, err := r.Subscribe(events.TopicTrades)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	limit(t, r, domain.Buy, "1.0", "100")
	limit(t, r, domain.Sell, "1.0", "100")

	select {
	case ev := <-sub.Events():
		require.NotNil(t, ev.Trade)
		assert.True(t, ev.Trade.Price.Equal(dec("100")))
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for trade event")
	}
}
