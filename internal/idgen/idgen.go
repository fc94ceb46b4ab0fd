// Package idgen generates opaque order/trade identifiers and per-symbol
// monotonic sequence numbers. Per spec §9, no cross-process coordination is
// needed inside the core: a per-process monotonic counter plus a random
// process epoch is sufficient to make ids globally unique in practice.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator produces opaque ids. It is safe for concurrent use.
type Generator struct {
	epoch   string
	counter atomic.Uint64
}

// New creates a Generator tagged with a fresh random process epoch, the
// way the teacher's internal/net/messages.go calls uuid.New() per order but
// without a counter; this adds the counter spec §9 asks for.
func New() *Generator {
	return &Generator{epoch: uuid.NewString()}
}

// NextOrderID returns a globally unique opaque order id.
func (g *Generator) NextOrderID() string {
	return fmt.Sprintf("ord_%s_%d", g.epoch, g.counter.Add(1))
}

// NextTradeID returns a globally unique opaque trade id.
func (g *Generator) NextTradeID() string {
	return fmt.Sprintf("trd_%s_%d", g.epoch, g.counter.Add(1))
}

// SequenceCounter is a per-symbol monotonic counter for Order.SequenceNumber
// (spec §3: "unique per symbol"). Each Matching Engine instance owns
// exactly one, so no locking is needed beyond the engine's own critical
// section (spec §5).
type SequenceCounter struct {
	next uint64
}

// Next returns the next sequence number, starting at 1.
func (c *SequenceCounter) Next() uint64 {
	c.next++
	return c.next
}
