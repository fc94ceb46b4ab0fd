package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kryptic-exchange/matchcore/internal/domain"
	"github.com/kryptic-exchange/matchcore/internal/events"
	"github.com/kryptic-exchange/matchcore/internal/idgen"
	"github.com/kryptic-exchange/matchcore/internal/metrics"
)

// Engine is the CORE-facing Go surface (spec §6.1): internal/transport's
// Server talks to this interface rather than to a concrete registry, so it
// can be tested against a fake. cmd/client reaches it only over the wire,
// through transport.Client.
type Engine interface {
	Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error)
	Cancel(ctx context.Context, symbol, orderID string) (found bool, err error)
	Snapshot(symbol string, depth int) (domain.BookSnapshot, error)
	BBO(symbol string) (domain.BBOSnapshot, error)
	RecentTrades(symbol string, limit int) ([]domain.Trade, error)
	Subscribe(topic events.Topic) (*events.Subscription, error)
	Ready() bool
}

var _ Engine = (*Registry)(nil)

// Registry is the Engine Registry (spec §4.6): it lazily creates one
// symbolEngine per symbol on first submission, dispatches every Engine
// operation by symbol, and tracks which symbols have quarantined
// themselves after an internal invariant failure. Grounded on the
// teacher's Engine.Books map (internal/engine/engine.go), generalized from
// a fixed asset-type enum to an open symbol namespace with a reader-biased
// lock (spec §5: "read-mostly; protect with a reader-biased lock").
type Registry struct {
	clock   domain.Clock
	ids     *idgen.Generator
	mux     *events.Multiplexer
	metrics *metrics.Collector

	mu      sync.RWMutex
	engines map[string]*symbolEngine

	ready atomic.Bool
}

// NewRegistry constructs a Registry. It becomes Ready once clock and ids
// are non-nil (spec §6: "live only after its clock and id source are
// initialized").
func NewRegistry(clock domain.Clock, ids *idgen.Generator, mux *events.Multiplexer, collector *metrics.Collector) *Registry {
	r := &Registry{
		clock:   clock,
		ids:     ids,
		mux:     mux,
		metrics: collector,
		engines: make(map[string]*symbolEngine),
	}
	r.ready.Store(clock != nil && ids != nil)
	return r
}

// Ready reports the readiness flag described in spec §6/§4.6.
func (r *Registry) Ready() bool {
	return r.ready.Load()
}

func (r *Registry) lookup(symbol string) *symbolEngine {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.engines[symbol]
}

func (r *Registry) getOrCreate(symbol string) *symbolEngine {
	r.mu.RLock()
	e, ok := r.engines[symbol]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.engines[symbol]; ok {
		return e
	}
	e = newSymbolEngine(symbol, r.clock, r.ids, r.mux, r.metrics)
	r.engines[symbol] = e
	return e
}

// Submit lazily creates the symbol's engine if this is its first
// submission, then dispatches to it.
func (r *Registry) Submit(ctx context.Context, req domain.SubmitRequest) (domain.SubmitResult, error) {
	if err := ctx.Err(); err != nil {
		return domain.SubmitResult{}, err
	}
	if req.Symbol == "" {
		err := fmt.Errorf("%w: symbol is required", domain.ErrValidation)
		return domain.SubmitResult{Status: domain.StatusRejected, RejectReason: domain.RejectReason(err)}, err
	}
	return r.getOrCreate(req.Symbol).Submit(req)
}

// Cancel dispatches to symbol's engine. A symbol with no engine yet has
// never accepted an order, so any order_id against it is not_found.
func (r *Registry) Cancel(ctx context.Context, symbol, orderID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	e := r.lookup(symbol)
	if e == nil {
		return false, fmt.Errorf("%w: unknown symbol %s", domain.ErrNotFound, symbol)
	}
	return e.Cancel(orderID)
}

// Snapshot returns symbol's book depth. An unsubmitted-to symbol reports an
// empty book rather than an error — it is a valid, quiescent state.
func (r *Registry) Snapshot(symbol string, depth int) (domain.BookSnapshot, error) {
	e := r.lookup(symbol)
	if e == nil {
		return domain.BookSnapshot{Symbol: symbol}, nil
	}
	return e.Snapshot(depth), nil
}

// BBO returns symbol's best bid/offer, empty on both sides if no engine
// exists yet for symbol.
func (r *Registry) BBO(symbol string) (domain.BBOSnapshot, error) {
	e := r.lookup(symbol)
	if e == nil {
		return domain.BBOSnapshot{Symbol: symbol}, nil
	}
	return e.BBO(), nil
}

// RecentTrades returns up to limit of symbol's most recent trades, newest
// first, or nil if no engine exists yet for symbol.
func (r *Registry) RecentTrades(symbol string, limit int) ([]domain.Trade, error) {
	e := r.lookup(symbol)
	if e == nil {
		return nil, nil
	}
	return e.RecentTrades(limit), nil
}

// Subscribe registers a new subscriber on the Event Multiplexer shared
// across all symbols (spec §4.5, §4.6).
func (r *Registry) Subscribe(topic events.Topic) (*events.Subscription, error) {
	return r.mux.Subscribe(topic), nil
}

// QuarantinedSymbols lists every symbol whose engine has halted on an
// internal invariant failure (spec §4.6, §7), for health/introspection
// endpoints.
func (r *Registry) QuarantinedSymbols() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []string
	for symbol, e := range r.engines {
		if e.Halted() {
			out = append(out, symbol)
		}
	}
	return out
}
