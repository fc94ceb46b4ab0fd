package transport

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

func TestSubmitRequestRoundTrip(t *testing.T) {
	req := domain.SubmitRequest{
		Symbol:    "BTC-USDT",
		Side:      domain.Sell,
		OrderType: domain.Limit,
		Quantity:  decimal.RequireFromString("1.5"),
		Price:     decimal.RequireFromString("100.25"),
		HasPrice:  true,
		Owner:     "alice",
	}

	frame := EncodeSubmitRequest(req)
	parsed, err := decodeRequest(frame)
	require.NoError(t, err)
	assert.Equal(t, MsgSubmit, parsed.Type)

	got, err := decodeSubmitRequest(parsed.Payload)
	require.NoError(t, err)
	assert.Equal(t, req.Symbol, got.Symbol)
	assert.Equal(t, req.Side, got.Side)
	assert.Equal(t, req.OrderType, got.OrderType)
	assert.True(t, req.Quantity.Equal(got.Quantity))
	assert.True(t, req.Price.Equal(got.Price))
	assert.Equal(t, req.HasPrice, got.HasPrice)
	assert.Equal(t, req.Owner, got.Owner)
}

func TestSubmitResponseRoundTrip(t *testing.T) {
	result := domain.SubmitResult{
		OrderID:           "ord_1",
		Status:            domain.StatusPartiallyFilled,
		FilledQuantity:    decimal.RequireFromString("0.5"),
		RemainingQuantity: decimal.RequireFromString("0.5"),
		Trades: []domain.Trade{
			{
				TradeID:        "trd_1",
				Symbol:         "BTC-USDT",
				Price:          decimal.RequireFromString("100"),
				Quantity:       decimal.RequireFromString("0.5"),
				AggressorSide:  domain.Sell,
				MakerOrderID:   "ord_0",
				TakerOrderID:   "ord_1",
				Timestamp:      time.Unix(1700000000, 123).UTC(),
				SequenceNumber: 7,
			},
		},
	}

	frame := EncodeSubmitResponse(result, nil)
	got, ok, err := decodeSubmitResponse(frame)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, result.OrderID, got.OrderID)
	assert.Equal(t, result.Status, got.Status)
	assert.True(t, result.FilledQuantity.Equal(got.FilledQuantity))
	require.Len(t, got.Trades, 1)
	assert.Equal(t, result.Trades[0].TradeID, got.Trades[0].TradeID)
	assert.True(t, result.Trades[0].Price.Equal(got.Trades[0].Price))
	assert.True(t, result.Trades[0].Timestamp.Equal(got.Trades[0].Timestamp))
	assert.Equal(t, result.Trades[0].SequenceNumber, got.Trades[0].SequenceNumber)
}

func TestCancelRoundTrip(t *testing.T) {
	frame := EncodeCancelRequest("BTC-USDT", "ord_5")
	parsed, err := decodeRequest(frame)
	require.NoError(t, err)
	assert.Equal(t, MsgCancel, parsed.Type)

	symbol, orderID, err := decodeCancelRequest(parsed.Payload)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", symbol)
	assert.Equal(t, "ord_5", orderID)

	respFrame := EncodeCancelResponse(true, nil)
	ok, found, err := decodeCancelResponse(respFrame)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, found)
}

func TestSnapshotRoundTrip(t *testing.T) {
	snap := domain.BookSnapshot{
		Symbol:         "BTC-USDT",
		SequenceNumber: 42,
		Bids: []domain.PriceLevelView{
			{Price: decimal.RequireFromString("100"), Quantity: decimal.RequireFromString("1.5")},
		},
		Asks: []domain.PriceLevelView{
			{Price: decimal.RequireFromString("101"), Quantity: decimal.RequireFromString("2")},
		},
	}

	reqFrame := EncodeSnapshotRequest("BTC-USDT", 20)
	parsed, err := decodeRequest(reqFrame)
	require.NoError(t, err)
	symbol, depth, err := decodeSnapshotRequest(parsed.Payload)
	require.NoError(t, err)
	assert.Equal(t, "BTC-USDT", symbol)
	assert.Equal(t, 20, depth)

	respFrame := EncodeSnapshotResponse(snap, nil)
	got, ok, err := decodeSnapshotResponse(respFrame)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, snap.SequenceNumber, got.SequenceNumber)
	require.Len(t, got.Bids, 1)
	assert.True(t, snap.Bids[0].Price.Equal(got.Bids[0].Price))
	require.Len(t, got.Asks, 1)
	assert.True(t, snap.Asks[0].Quantity.Equal(got.Asks[0].Quantity))
}

func TestBBORoundTrip(t *testing.T) {
	bbo := domain.BBOSnapshot{
		Symbol:     "BTC-USDT",
		HasBid:     true,
		BestBid:    decimal.RequireFromString("100"),
		BestBidQty: decimal.RequireFromString("1"),
		HasAsk:     false,
	}

	frame := EncodeBBOResponse(bbo, nil)
	got, ok, err := decodeBBOResponse(frame)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, got.HasBid)
	assert.False(t, got.HasAsk)
	assert.True(t, bbo.BestBid.Equal(got.BestBid))
}

func TestRecentTradesRoundTrip(t *testing.T) {
	trades := []domain.Trade{
		{TradeID: "t1", Symbol: "BTC-USDT", Price: decimal.RequireFromString("100"), Quantity: decimal.RequireFromString("1")},
		{TradeID: "t2", Symbol: "BTC-USDT", Price: decimal.RequireFromString("101"), Quantity: decimal.RequireFromString("2")},
	}

	frame := EncodeRecentTradesResponse(trades, nil)
	got, ok, err := decodeRecentTradesResponse(frame)
	require.NoError(t, err)
	assert.True(t, ok)
	require.Len(t, got, 2)
	assert.Equal(t, "t1", got[0].TradeID)
	assert.Equal(t, "t2", got[1].TradeID)
}

func TestDecodeRequestRejectsEmptyFrame(t *testing.T) {
	_, err := decodeRequest(nil)
	assert.ErrorIs(t, err, ErrShortBuffer)
}
