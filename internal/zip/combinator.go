package zip

import "github.com/google/uuid"

// Combinator pairs the Nth item of stream A with the Nth item of stream B.
// Items on the faster side wait, without limit, until the other side catches
// up.
type Combinator struct {
	id      uuid.UUID
	pending [2][]Item
	seq     int
	out     func(Pair)
	cancels []func()
	closed  bool
}

// Zip subscribes to a and b and calls out for every completed pair. Each call
// starts a new subscription generation with empty pending slots.
func Zip(a, b *Stream, out func(Pair)) *Combinator {
	if a.Side() != SideA || b.Side() != SideB {
		panic("zip: streams must be passed as (a, b)")
	}
	c := &Combinator{id: uuid.New(), out: out}
	c.cancels = []func(){
		a.Subscribe(c.receive),
		b.Subscribe(c.receive),
	}
	return c
}

// ID identifies the subscription generation.
func (c *Combinator) ID() uuid.UUID { return c.id }

// Pending returns the items of side still waiting for a partner.
func (c *Combinator) Pending(side Side) []Item {
	return append([]Item(nil), c.pending[side]...)
}

func (c *Combinator) receive(it Item) {
	if c.closed {
		return
	}
	c.pending[it.Side] = append(c.pending[it.Side], it)
	if len(c.pending[SideA]) == 0 || len(c.pending[SideB]) == 0 {
		return
	}
	p := Pair{A: c.pending[SideA][0], B: c.pending[SideB][0], Seq: c.seq}
	c.pending[SideA] = c.pending[SideA][1:]
	c.pending[SideB] = c.pending[SideB][1:]
	c.seq++
	c.out(p)
}

// Close unsubscribes from both streams and drops anything still pending.
func (c *Combinator) Close() {
	if c.closed {
		return
	}
	c.closed = true
	for _, cancel := range c.cancels {
		cancel()
	}
	c.pending = [2][]Item{}
}
