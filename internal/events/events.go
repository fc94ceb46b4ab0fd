// Package events implements the Event Multiplexer (spec §4.5): it accepts a
// completed per-submission Batch from the matching engine — produced after
// the engine has already released its per-symbol critical section — and
// fans it out to bounded per-subscriber queues across three topics, in the
// order trades -> orderbook -> bbo (only if the BBO actually changed).
package events

import "github.com/kryptic-exchange/matchcore/internal/domain"

// Topic is one of the three subscribable event streams (spec §4.5).
type Topic int

const (
	TopicOrderbook Topic = iota
	TopicTrades
	TopicBBO
)

func (t Topic) String() string {
	switch t {
	case TopicOrderbook:
		return "orderbook"
	case TopicTrades:
		return "trades"
	case TopicBBO:
		return "bbo"
	default:
		return "unknown"
	}
}

// Event is the tagged envelope delivered to subscribers (spec §4.5, §9:
// "a single publish method that accepts a tagged event"). Exactly one of
// Trade/Book/BBO is populated, matching Topic.
type Event struct {
	Topic  Topic
	Symbol string
	Trade  *domain.Trade
	Book   *domain.BookSnapshot
	BBO    *domain.BBOSnapshot
}

// Batch is everything one accepted submission produced, handed off by the
// Matching Engine to the multiplexer after its critical section has already
// been released (spec §5). Trades are in match order; Book and BBO are the
// post-match state. BBO is always the current snapshot — the multiplexer,
// not the engine, decides whether it actually changed (spec §9 open
// question, resolved to the stricter "only on change" contract).
type Batch struct {
	Symbol         string
	SequenceNumber uint64
	Trades         []domain.Trade
	Book           domain.BookSnapshot
	BBO            domain.BBOSnapshot
}
