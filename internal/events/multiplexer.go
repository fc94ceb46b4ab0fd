package events

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/kryptic-exchange/matchcore/internal/domain"
	"github.com/kryptic-exchange/matchcore/internal/metrics"
)

const defaultQueueCapacity = 1024

// Subscription is a live handle to one subscriber's event stream (spec
// §4.5). Range over Events() until it closes (either the subscriber calls
// Unsubscribe, or — for the trades topic only — the multiplexer closes it
// after a disconnect-on-overflow).
type Subscription struct {
	events chan Event
	cancel func()
}

// Events returns the channel of delivered events for this subscription.
func (s *Subscription) Events() <-chan Event { return s.events }

// Unsubscribe removes this subscriber from the multiplexer and closes its
// channel.
func (s *Subscription) Unsubscribe() { s.cancel() }

type subscriber struct {
	id    uint64
	topic Topic
	ch    chan Event
}

// Multiplexer is the Event Multiplexer (spec §4.5): it accepts completed
// per-submission Batches from matching engines and fans them out to
// per-topic subscribers with bounded queues and a per-topic slow-consumer
// policy — drop-newest for the coalescible orderbook/bbo topics, disconnect
// for trades (spec: "never drop trades silently"). Grounded on the
// teacher's bounded-channel idioms (internal/net/server.go's
// clientMessages channel, internal/utils.WorkerPool's tasks channel),
// generalized here into a real pub/sub fan-out.
type Multiplexer struct {
	queueCapacity int
	metrics       *metrics.Collector

	mu          sync.RWMutex
	subscribers map[Topic]map[uint64]*subscriber
	nextID      atomic.Uint64

	bboMu   sync.Mutex
	lastBBO map[string]domain.BBOSnapshot
}

// New creates a Multiplexer whose subscriber queues hold queueCapacity
// events (spec §4.5 default 1024; pass <= 0 for the default). collector may
// be nil to disable metrics.
func New(queueCapacity int, collector *metrics.Collector) *Multiplexer {
	if queueCapacity <= 0 {
		queueCapacity = defaultQueueCapacity
	}
	return &Multiplexer{
		queueCapacity: queueCapacity,
		metrics:       collector,
		subscribers: map[Topic]map[uint64]*subscriber{
			TopicOrderbook: {},
			TopicTrades:    {},
			TopicBBO:       {},
		},
		lastBBO: make(map[string]domain.BBOSnapshot),
	}
}

// Subscribe registers a new subscriber on topic and returns its handle.
func (m *Multiplexer) Subscribe(topic Topic) *Subscription {
	id := m.nextID.Add(1)
	sub := &subscriber{id: id, topic: topic, ch: make(chan Event, m.queueCapacity)}

	m.mu.Lock()
	m.subscribers[topic][id] = sub
	m.mu.Unlock()

	var once sync.Once
	return &Subscription{
		events: sub.ch,
		cancel: func() {
			once.Do(func() { m.remove(topic, id) })
		},
	}
}

func (m *Multiplexer) remove(topic Topic, id uint64) {
	m.mu.Lock()
	sub, ok := m.subscribers[topic][id]
	if ok {
		delete(m.subscribers[topic], id)
	}
	m.mu.Unlock()
	if ok {
		close(sub.ch)
	}
}

// Publish fans out one submission's Batch in the order required by spec
// §4.5/§5: trades (in match order), then an orderbook update, then a bbo
// update only if the BBO tuple actually changed for this symbol (spec §9
// stricter contract).
func (m *Multiplexer) Publish(batch Batch) {
	for i := range batch.Trades {
		trade := batch.Trades[i]
		m.publish(TopicTrades, Event{Topic: TopicTrades, Symbol: batch.Symbol, Trade: &trade})
	}

	book := batch.Book
	m.publish(TopicOrderbook, Event{Topic: TopicOrderbook, Symbol: batch.Symbol, Book: &book})

	if m.bboChanged(batch.Symbol, batch.BBO) {
		bbo := batch.BBO
		m.publish(TopicBBO, Event{Topic: TopicBBO, Symbol: batch.Symbol, BBO: &bbo})
	}
}

func (m *Multiplexer) bboChanged(symbol string, bbo domain.BBOSnapshot) bool {
	m.bboMu.Lock()
	defer m.bboMu.Unlock()
	prev, ok := m.lastBBO[symbol]
	if ok && prev.Equal(bbo) {
		return false
	}
	m.lastBBO[symbol] = bbo
	return true
}

// publish delivers event to every current subscriber of topic, applying the
// slow-consumer policy for that topic (spec §4.5, §7 overflow).
func (m *Multiplexer) publish(topic Topic, event Event) {
	// The read lock is held across the (non-blocking) sends so that remove
	// cannot close a channel this loop is still sending on.
	m.mu.RLock()
	var overflowed []uint64
	for _, sub := range m.subscribers[topic] {
		select {
		case sub.ch <- event:
		default:
			if topic == TopicTrades {
				overflowed = append(overflowed, sub.id)
			}
			log.Warn().
				Str("topic", topic.String()).
				Str("symbol", event.Symbol).
				Uint64("subscriberID", sub.id).
				Msg("subscriber queue overflow")
			if m.metrics != nil {
				m.metrics.SubscriberOverflow.WithLabelValues(topic.String()).Inc()
			}
		}
	}
	m.mu.RUnlock()

	for _, id := range overflowed {
		m.remove(topic, id)
	}
}
