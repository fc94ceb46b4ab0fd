package transport

import (
	"fmt"

	"github.com/kryptic-exchange/matchcore/internal/domain"
)

// MessageType tags a request frame's payload shape, mirroring the teacher's
// internal/net MessageType but covering the Engine surface (spec §6.1)
// instead of the teacher's PlaceOrder/CancelOrder/LogBook set.
type MessageType byte

const (
	MsgSubmit MessageType = iota
	MsgCancel
	MsgSnapshot
	MsgBBO
	MsgRecentTrades
)

func (t MessageType) String() string {
	switch t {
	case MsgSubmit:
		return "submit"
	case MsgCancel:
		return "cancel"
	case MsgSnapshot:
		return "snapshot"
	case MsgBBO:
		return "bbo"
	case MsgRecentTrades:
		return "recent_trades"
	default:
		return "unknown"
	}
}

// Request is one client request frame: a type tag plus its already-encoded
// payload.
type Request struct {
	Type    MessageType
	Payload []byte
}

func encodeRequest(t MessageType, payload []byte) []byte {
	out := make([]byte, 0, 1+len(payload))
	out = append(out, byte(t))
	out = append(out, payload...)
	return out
}

func decodeRequest(frame []byte) (Request, error) {
	if len(frame) < 1 {
		return Request{}, fmt.Errorf("%w: empty request frame", ErrShortBuffer)
	}
	return Request{Type: MessageType(frame[0]), Payload: frame[1:]}, nil
}

// EncodeSubmitRequest serializes a submission request (spec §6 "Submission
// request").
func EncodeSubmitRequest(req domain.SubmitRequest) []byte {
	var e encoder
	e.str(req.Symbol)
	e.u8(byte(req.Side))
	e.u8(byte(req.OrderType))
	e.decimal(req.Quantity)
	e.bool(req.HasPrice)
	e.decimal(req.Price)
	e.str(req.Owner)
	return encodeRequest(MsgSubmit, e.bytes())
}

func decodeSubmitRequest(payload []byte) (domain.SubmitRequest, error) {
	d := newDecoder(payload)
	var req domain.SubmitRequest
	var err error
	if req.Symbol, err = d.str(); err != nil {
		return req, err
	}
	side, err := d.u8()
	if err != nil {
		return req, err
	}
	req.Side = domain.Side(side)
	orderType, err := d.u8()
	if err != nil {
		return req, err
	}
	req.OrderType = domain.OrderType(orderType)
	if req.Quantity, err = d.decimal(); err != nil {
		return req, err
	}
	if req.HasPrice, err = d.boolean(); err != nil {
		return req, err
	}
	if req.Price, err = d.decimal(); err != nil {
		return req, err
	}
	if req.Owner, err = d.str(); err != nil {
		return req, err
	}
	return req, nil
}

// EncodeSubmitResponse serializes a submission response (spec §6
// "Submission response"). ok is false when err is non-nil; the reject
// reason is still carried in result.RejectReason either way.
func EncodeSubmitResponse(result domain.SubmitResult, err error) []byte {
	var e encoder
	e.bool(err == nil)
	e.str(result.OrderID)
	e.u8(byte(result.Status))
	e.decimal(result.FilledQuantity)
	e.decimal(result.RemainingQuantity)
	e.str(result.RejectReason)
	e.u32(uint32(len(result.Trades)))
	for _, trade := range result.Trades {
		encodeTrade(&e, trade)
	}
	return e.bytes()
}

func decodeSubmitResponse(payload []byte) (domain.SubmitResult, bool, error) {
	d := newDecoder(payload)
	ok, err := d.boolean()
	if err != nil {
		return domain.SubmitResult{}, false, err
	}
	var result domain.SubmitResult
	if result.OrderID, err = d.str(); err != nil {
		return result, ok, err
	}
	status, err := d.u8()
	if err != nil {
		return result, ok, err
	}
	result.Status = domain.Status(status)
	if result.FilledQuantity, err = d.decimal(); err != nil {
		return result, ok, err
	}
	if result.RemainingQuantity, err = d.decimal(); err != nil {
		return result, ok, err
	}
	if result.RejectReason, err = d.str(); err != nil {
		return result, ok, err
	}
	n, err := d.u32()
	if err != nil {
		return result, ok, err
	}
	result.Trades = make([]domain.Trade, n)
	for i := range result.Trades {
		trade, err := decodeTrade(d)
		if err != nil {
			return result, ok, err
		}
		result.Trades[i] = trade
	}
	return result, ok, nil
}

func encodeTrade(e *encoder, t domain.Trade) {
	e.str(t.TradeID)
	e.str(t.Symbol)
	e.decimal(t.Price)
	e.decimal(t.Quantity)
	e.u8(byte(t.AggressorSide))
	e.str(t.MakerOrderID)
	e.str(t.TakerOrderID)
	e.i64(t.Timestamp.UnixNano())
	e.u64(t.SequenceNumber)
}

func decodeTrade(d *decoder) (domain.Trade, error) {
	var t domain.Trade
	var err error
	if t.TradeID, err = d.str(); err != nil {
		return t, err
	}
	if t.Symbol, err = d.str(); err != nil {
		return t, err
	}
	if t.Price, err = d.decimal(); err != nil {
		return t, err
	}
	if t.Quantity, err = d.decimal(); err != nil {
		return t, err
	}
	side, err := d.u8()
	if err != nil {
		return t, err
	}
	t.AggressorSide = domain.Side(side)
	if t.MakerOrderID, err = d.str(); err != nil {
		return t, err
	}
	if t.TakerOrderID, err = d.str(); err != nil {
		return t, err
	}
	nanos, err := d.i64()
	if err != nil {
		return t, err
	}
	t.Timestamp = unixNano(nanos)
	if t.SequenceNumber, err = d.u64(); err != nil {
		return t, err
	}
	return t, nil
}

// EncodeCancelRequest serializes a cancel request (spec §6 "Cancel").
func EncodeCancelRequest(symbol, orderID string) []byte {
	var e encoder
	e.str(symbol)
	e.str(orderID)
	return encodeRequest(MsgCancel, e.bytes())
}

func decodeCancelRequest(payload []byte) (symbol, orderID string, err error) {
	d := newDecoder(payload)
	if symbol, err = d.str(); err != nil {
		return
	}
	orderID, err = d.str()
	return
}

// EncodeCancelResponse serializes a cancel response: `{cancelled: bool}`.
func EncodeCancelResponse(found bool, err error) []byte {
	var e encoder
	e.bool(err == nil)
	e.bool(found)
	return e.bytes()
}

func decodeCancelResponse(payload []byte) (ok, found bool, err error) {
	d := newDecoder(payload)
	if ok, err = d.boolean(); err != nil {
		return
	}
	found, err = d.boolean()
	return
}

// EncodeSnapshotRequest serializes an orderbook snapshot request (spec §6
// "Orderbook snapshot").
func EncodeSnapshotRequest(symbol string, depth int) []byte {
	var e encoder
	e.str(symbol)
	e.u32(uint32(depth))
	return encodeRequest(MsgSnapshot, e.bytes())
}

func decodeSnapshotRequest(payload []byte) (symbol string, depth int, err error) {
	d := newDecoder(payload)
	if symbol, err = d.str(); err != nil {
		return
	}
	d32, err := d.u32()
	return symbol, int(d32), err
}

// EncodeSnapshotResponse serializes an orderbook snapshot.
func EncodeSnapshotResponse(snap domain.BookSnapshot, err error) []byte {
	var e encoder
	e.bool(err == nil)
	e.str(snap.Symbol)
	e.u64(snap.SequenceNumber)
	encodeLevels(&e, snap.Bids)
	encodeLevels(&e, snap.Asks)
	return e.bytes()
}

func decodeSnapshotResponse(payload []byte) (domain.BookSnapshot, bool, error) {
	d := newDecoder(payload)
	ok, err := d.boolean()
	if err != nil {
		return domain.BookSnapshot{}, false, err
	}
	var snap domain.BookSnapshot
	if snap.Symbol, err = d.str(); err != nil {
		return snap, ok, err
	}
	if snap.SequenceNumber, err = d.u64(); err != nil {
		return snap, ok, err
	}
	if snap.Bids, err = decodeLevels(d); err != nil {
		return snap, ok, err
	}
	if snap.Asks, err = decodeLevels(d); err != nil {
		return snap, ok, err
	}
	return snap, ok, nil
}

func encodeLevels(e *encoder, levels []domain.PriceLevelView) {
	e.u32(uint32(len(levels)))
	for _, l := range levels {
		e.decimal(l.Price)
		e.decimal(l.Quantity)
	}
}

func decodeLevels(d *decoder) ([]domain.PriceLevelView, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	levels := make([]domain.PriceLevelView, n)
	for i := range levels {
		if levels[i].Price, err = d.decimal(); err != nil {
			return nil, err
		}
		if levels[i].Quantity, err = d.decimal(); err != nil {
			return nil, err
		}
	}
	return levels, nil
}

// EncodeBBORequest serializes a BBO request (spec §6 "BBO snapshot").
func EncodeBBORequest(symbol string) []byte {
	var e encoder
	e.str(symbol)
	return encodeRequest(MsgBBO, e.bytes())
}

func decodeBBORequest(payload []byte) (string, error) {
	return newDecoder(payload).str()
}

// EncodeBBOResponse serializes a BBO snapshot.
func EncodeBBOResponse(bbo domain.BBOSnapshot, err error) []byte {
	var e encoder
	e.bool(err == nil)
	e.str(bbo.Symbol)
	e.bool(bbo.HasBid)
	e.decimal(bbo.BestBid)
	e.decimal(bbo.BestBidQty)
	e.bool(bbo.HasAsk)
	e.decimal(bbo.BestAsk)
	e.decimal(bbo.BestAskQty)
	return e.bytes()
}

func decodeBBOResponse(payload []byte) (domain.BBOSnapshot, bool, error) {
	d := newDecoder(payload)
	ok, err := d.boolean()
	if err != nil {
		return domain.BBOSnapshot{}, false, err
	}
	var bbo domain.BBOSnapshot
	if bbo.Symbol, err = d.str(); err != nil {
		return bbo, ok, err
	}
	if bbo.HasBid, err = d.boolean(); err != nil {
		return bbo, ok, err
	}
	if bbo.BestBid, err = d.decimal(); err != nil {
		return bbo, ok, err
	}
	if bbo.BestBidQty, err = d.decimal(); err != nil {
		return bbo, ok, err
	}
	if bbo.HasAsk, err = d.boolean(); err != nil {
		return bbo, ok, err
	}
	if bbo.BestAsk, err = d.decimal(); err != nil {
		return bbo, ok, err
	}
	bbo.BestAskQty, err = d.decimal()
	return bbo, ok, err
}

// EncodeRecentTradesRequest serializes a trades-feed request (spec §6
// "Trades feed").
func EncodeRecentTradesRequest(symbol string, limit int) []byte {
	var e encoder
	e.str(symbol)
	e.u32(uint32(limit))
	return encodeRequest(MsgRecentTrades, e.bytes())
}

func decodeRecentTradesRequest(payload []byte) (symbol string, limit int, err error) {
	d := newDecoder(payload)
	if symbol, err = d.str(); err != nil {
		return
	}
	l, err := d.u32()
	return symbol, int(l), err
}

// EncodeRecentTradesResponse serializes a trades-feed response.
func EncodeRecentTradesResponse(trades []domain.Trade, err error) []byte {
	var e encoder
	e.bool(err == nil)
	e.u32(uint32(len(trades)))
	for _, t := range trades {
		encodeTrade(&e, t)
	}
	return e.bytes()
}

func decodeRecentTradesResponse(payload []byte) ([]domain.Trade, bool, error) {
	d := newDecoder(payload)
	ok, err := d.boolean()
	if err != nil {
		return nil, false, err
	}
	n, err := d.u32()
	if err != nil {
		return nil, ok, err
	}
	trades := make([]domain.Trade, n)
	for i := range trades {
		if trades[i], err = decodeTrade(d); err != nil {
			return nil, ok, err
		}
	}
	return trades, ok, nil
}
