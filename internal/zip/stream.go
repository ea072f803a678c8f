package zip

// Stream is the event source for one side. Every Emit creates a new item and
// hands it to the current subscribers in subscription order.
type Stream struct {
	side    Side
	emitted []Item
	subs    []*subscriber
}

type subscriber struct {
	fn     func(Item)
	active bool
}

// NewStream returns an empty stream for side.
func NewStream(side Side) *Stream {
	if !side.Valid() {
		panic("zip: invalid side " + side.String())
	}
	return &Stream{side: side}
}

// Side returns the side this stream produces for.
func (s *Stream) Side() Side { return s.side }

// Next builds the item the next Emit will produce without publishing it.
func (s *Stream) Next() Item {
	key := 0
	if n := len(s.emitted); n > 0 {
		key = s.emitted[n-1].Key + 1
	}
	return newItem(s.side, key)
}

// Emit records a new item on the emission lane and publishes it.
func (s *Stream) Emit() Item {
	it := s.Next()
	s.emitted = append(s.emitted, it)
	s.publish(it)
	return it
}

func (s *Stream) publish(it Item) {
	// Snapshot so a subscriber that cancels during delivery does not shift
	// the iteration.
	subs := append([]*subscriber(nil), s.subs...)
	for _, sub := range subs {
		if sub.active {
			sub.fn(it)
		}
	}
}

// Subscribe registers fn for future items. The returned cancel func is
// idempotent.
func (s *Stream) Subscribe(fn func(Item)) (cancel func()) {
	sub := &subscriber{fn: fn, active: true}
	s.subs = append(s.subs, sub)
	return func() {
		if !sub.active {
			return
		}
		sub.active = false
		for i, cur := range s.subs {
			if cur == sub {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				break
			}
		}
	}
}

// Emitted returns a copy of the emission lane.
func (s *Stream) Emitted() []Item {
	return append([]Item(nil), s.emitted...)
}

// Reset clears the emission lane so keys restart at zero. Subscriptions are
// left alone; callers tear those down themselves.
func (s *Stream) Reset() {
	s.emitted = nil
}
