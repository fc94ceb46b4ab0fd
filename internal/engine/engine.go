// Package engine implements the Matching Engine and Engine Registry (spec
// §4.4, §4.6): one symbolEngine per symbol, each serializing all book
// mutations inside its own critical section, and a Registry that lazily
// creates symbolEngines and dispatches the public Engine surface to them.
package engine

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/kryptic-exchange/matchcore/internal/book"
	"github.com/kryptic-exchange/matchcore/internal/domain"
	"github.com/kryptic-exchange/matchcore/internal/events"
	"github.com/kryptic-exchange/matchcore/internal/idgen"
	"github.com/kryptic-exchange/matchcore/internal/metrics"
)

// symbolEngine is the Matching Engine for exactly one symbol. All book
// mutation happens under mu, held for the duration of one submission's
// match loop (spec §5: "single-threaded cooperative within one engine
// instance"); across symbols, symbolEngines share nothing and run fully in
// parallel. Grounded on the teacher's engine.Engine/OrderBook split
// (internal/engine/engine.go, orderbook.go), generalized from the teacher's
// single global book-per-asset-type map into one instance per symbol owned
// by the Registry.
type symbolEngine struct {
	symbol  string
	clock   domain.Clock
	ids     *idgen.Generator
	mux     *events.Multiplexer
	metrics *metrics.Collector

	mu     sync.Mutex
	seq    idgen.SequenceCounter
	book   *book.OrderBook
	halted bool
}

func newSymbolEngine(symbol string, clock domain.Clock, ids *idgen.Generator, mux *events.Multiplexer, collector *metrics.Collector) *symbolEngine {
	return &symbolEngine{
		symbol:  symbol,
		clock:   clock,
		ids:     ids,
		mux:     mux,
		metrics: collector,
		book:    book.NewOrderBook(symbol, 0),
	}
}

// Submit runs the full lifecycle of one order: validation, the FOK
// non-mutating pre-check, the match loop, and disposal of any remainder
// (spec §4.4). The completed event batch is published only after the
// critical section is released (spec §5).
func (e *symbolEngine) Submit(req domain.SubmitRequest) (domain.SubmitResult, error) {
	if err := validateSubmitRequest(req); err != nil {
		e.recordRejection(err)
		return domain.SubmitResult{Status: domain.StatusRejected, RejectReason: domain.RejectReason(err)}, err
	}

	e.mu.Lock()

	if e.halted {
		e.mu.Unlock()
		err := fmt.Errorf("%w: %s", domain.ErrSymbolQuarantined, e.symbol)
		e.recordRejection(err)
		return domain.SubmitResult{Status: domain.StatusRejected, RejectReason: domain.RejectReason(err)}, err
	}

	order := e.acceptOrder(req)

	if order.OrderType == domain.FOK && !e.fokFillable(order) {
		e.mu.Unlock()
		order.Status = domain.StatusRejected
		err := fmt.Errorf("%w: order %s", domain.ErrFokUnfillable, order.OrderID)
		e.recordRejection(err)
		return domain.SubmitResult{
			OrderID:           order.OrderID,
			Status:            order.Status,
			RemainingQuantity: order.RemainingQuantity,
			RejectReason:      domain.RejectReason(err),
		}, err
	}

	trades, err := e.runMatchLoop(order)
	if err != nil {
		e.halted = true
		e.mu.Unlock()
		if e.metrics != nil {
			e.metrics.QuarantinedSymbols.WithLabelValues(e.symbol).Set(1)
		}
		e.recordRejection(err)
		return domain.SubmitResult{OrderID: order.OrderID, RejectReason: domain.RejectReason(err)}, err
	}

	e.disposeRemainder(order)

	result := domain.SubmitResult{
		OrderID:           order.OrderID,
		Status:            order.Status,
		FilledQuantity:    order.FilledQuantity(),
		RemainingQuantity: order.RemainingQuantity,
		Trades:            trades,
	}

	batch := events.Batch{
		Symbol:         e.symbol,
		SequenceNumber: order.SequenceNumber,
		Trades:         trades,
		Book:           e.book.Snapshot(0),
		BBO:            e.book.BBO(),
	}

	if e.metrics != nil {
		e.metrics.SubmissionsTotal.WithLabelValues(e.symbol, order.Status.String()).Inc()
		if len(trades) > 0 {
			e.metrics.TradesTotal.WithLabelValues(e.symbol).Add(float64(len(trades)))
		}
		e.metrics.BookDepth.WithLabelValues(e.symbol, "bid").Set(float64(e.book.Bids.Len()))
		e.metrics.BookDepth.WithLabelValues(e.symbol, "ask").Set(float64(e.book.Asks.Len()))
	}

	e.mu.Unlock()

	if e.mux != nil {
		e.mux.Publish(batch)
	}

	return result, nil
}

func (e *symbolEngine) recordRejection(err error) {
	if e.metrics == nil {
		return
	}
	e.metrics.RejectionsTotal.WithLabelValues(e.symbol, domain.RejectReason(err)).Inc()
}

func (e *symbolEngine) acceptOrder(req domain.SubmitRequest) *domain.Order {
	price := req.Price
	if !req.OrderType.RequiresPrice() {
		price = decimal.Zero
	}
	return &domain.Order{
		OrderID:           e.ids.NextOrderID(),
		Symbol:            e.symbol,
		Side:              req.Side,
		OrderType:         req.OrderType,
		OriginalQuantity:  req.Quantity,
		RemainingQuantity: req.Quantity,
		Price:             price,
		SequenceNumber:    e.seq.Next(),
		Timestamp:         e.clock.Now(),
		Status:            domain.StatusNew,
		Owner:             req.Owner,
	}
}

// oppositeSide returns the Book Side an incoming order of side s matches
// against (spec §4.4 step 1).
func oppositeSide(b *book.OrderBook, s domain.Side) *book.Side {
	if s == domain.Buy {
		return b.Asks
	}
	return b.Bids
}

// runMatchLoop is the match loop of spec §4.4: it consumes the opposite
// side's best matchable level, head-first, until the taker is filled or no
// more matchable liquidity remains. A non-nil error means an internal
// invariant was violated (an empty level survived in the side's index) and
// the caller must quarantine the symbol rather than trust the partial
// result.
func (e *symbolEngine) runMatchLoop(taker *domain.Order) ([]domain.Trade, error) {
	opposite := oppositeSide(e.book, taker.Side)
	var trades []domain.Trade

	for taker.RemainingQuantity.Sign() > 0 {
		level, ok := opposite.BestLevel()
		if !ok {
			break
		}
		if taker.OrderType != domain.Market && !opposite.Matchable(level.Price, taker.Price) {
			break
		}

		maker, ok := level.Head()
		if !ok {
			return nil, fmt.Errorf("%w: empty price level %s survived on %s", domain.ErrInternalInvariant, level.Price, e.symbol)
		}

		qty := decimal.Min(taker.RemainingQuantity, maker.RemainingQuantity)
		trade := domain.Trade{
			TradeID:        e.ids.NextTradeID(),
			Symbol:         e.symbol,
			Price:          maker.Price,
			Quantity:       qty,
			AggressorSide:  taker.Side,
			MakerOrderID:   maker.OrderID,
			TakerOrderID:   taker.OrderID,
			Timestamp:      e.clock.Now(),
			SequenceNumber: taker.SequenceNumber,
		}

		taker.RemainingQuantity = taker.RemainingQuantity.Sub(qty)
		_, makerFilled := level.DecrementHead(qty)

		trades = append(trades, trade)
		e.book.RecordTrade(trade)

		if makerFilled {
			maker.Status = domain.StatusFilled
			e.book.UnlinkMaker(maker.OrderID)
		} else {
			maker.Status = domain.StatusPartiallyFilled
		}
		e.book.DropEmptyLevel(opposite, level)
	}

	return trades, nil
}

// fokFillable runs the FOK pre-check (spec §4.4): a strictly non-mutating
// simulation of how much of the opposing side's matchable liquidity the
// taker could consume, best price outward.
func (e *symbolEngine) fokFillable(taker *domain.Order) bool {
	opposite := oppositeSide(e.book, taker.Side)
	available := decimal.Zero
	for _, level := range opposite.Levels(0) {
		if !opposite.Matchable(level.Price, taker.Price) {
			break
		}
		available = available.Add(level.TotalQuantity())
		if available.GreaterThanOrEqual(taker.OriginalQuantity) {
			return true
		}
	}
	return available.GreaterThanOrEqual(taker.OriginalQuantity)
}

// disposeRemainder assigns the taker's terminal status once the match loop
// has run, resting it if its type allows (spec §4.4 order-type table).
func (e *symbolEngine) disposeRemainder(order *domain.Order) {
	if order.RemainingQuantity.Sign() == 0 {
		order.Status = domain.StatusFilled
		return
	}
	if order.OrderType.RestsOnPartialFill() {
		if order.RemainingQuantity.Equal(order.OriginalQuantity) {
			order.Status = domain.StatusOpen
		} else {
			order.Status = domain.StatusPartiallyFilled
		}
		e.book.AddResting(order)
		return
	}
	order.Status = domain.StatusCancelled
}

// Cancel delegates to the owning Order Book under the same critical section
// as Submit (spec §4.4: "so a cancel can never race a match loop").
func (e *symbolEngine) Cancel(orderID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.halted {
		return false, fmt.Errorf("%w: %s", domain.ErrSymbolQuarantined, e.symbol)
	}
	_, found := e.book.Cancel(orderID)
	return found, nil
}

func (e *symbolEngine) Snapshot(depth int) domain.BookSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.Snapshot(depth)
}

func (e *symbolEngine) BBO() domain.BBOSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.BBO()
}

func (e *symbolEngine) RecentTrades(limit int) []domain.Trade {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.book.RecentTrades(limit)
}

func (e *symbolEngine) Halted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.halted
}

// validateSubmitRequest enforces the input constraints of spec §4.4/§7
// before any state is touched.
func validateSubmitRequest(req domain.SubmitRequest) error {
	if req.Symbol == "" {
		return fmt.Errorf("%w: symbol is required", domain.ErrValidation)
	}
	if req.Quantity.Sign() <= 0 {
		return fmt.Errorf("%w: quantity must be positive", domain.ErrValidation)
	}
	if req.OrderType.RequiresPrice() && (!req.HasPrice || req.Price.Sign() <= 0) {
		return fmt.Errorf("%w: positive price required for %s orders", domain.ErrValidation, req.OrderType)
	}
	return nil
}
