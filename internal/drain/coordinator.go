package drain

import (
	"fmt"

	"github.com/jask/zipdemo/internal/zip"
)

// State is the coordinator's position in the drain cycle.
type State int

const (
	StateIdle State = iota
	StateHighlight
	StateMove
)

func (s State) String() string {
	switch s {
	case StateHighlight:
		return "highlight"
	case StateMove:
		return "move"
	default:
		return "idle"
	}
}

// MarshalText renders the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Busy reports whether a pair is in flight.
func (s State) Busy() bool { return s != StateIdle }

// EventKind names a coordinator transition.
type EventKind string

const (
	EventEnqueued  EventKind = "enqueued"
	EventBuffered  EventKind = "buffered"
	EventStarted   EventKind = "started"
	EventPhase     EventKind = "phase"
	EventCommitted EventKind = "committed"
	EventReset     EventKind = "reset"
)

// Event describes one transition, for logging and tracing.
type Event struct {
	Kind     EventKind
	Item     zip.Item
	Pair     zip.Pair
	Phase    Phase
	Buffered int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithObserver registers fn to be called after every transition.
func WithObserver(fn func(Event)) Option {
	return func(c *Coordinator) { c.observers = append(c.observers, fn) }
}

// WithDurations overrides DefaultDurations.
func WithDurations(d Durations) Option {
	return func(c *Coordinator) { c.durations = d }
}

// Coordinator drains the pair buffer one pair at a time. It is a plain state
// machine: every method runs to completion on the caller's thread and must
// not be called concurrently.
type Coordinator struct {
	anim      Animator
	durations Durations
	observers []func(Event)

	buf     Buffer
	display Display
	state   State
	current zip.Pair
	token   uint64
	// done holds the sides whose animation for the current token finished.
	done      [2]bool
	commits   int
	animating bool
}

// New returns an idle coordinator that drives anim.
func New(anim Animator, opts ...Option) *Coordinator {
	c := &Coordinator{anim: anim, durations: DefaultDurations}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enqueue shows it as waiting on its side.
func (c *Coordinator) Enqueue(it zip.Item) {
	c.display.enqueue(it)
	c.emit(Event{Kind: EventEnqueued, Item: it, Buffered: c.buf.Len()})
}

// Push buffers p and starts draining if the coordinator is idle. A pair that
// arrives while another is in flight waits its turn.
func (c *Coordinator) Push(p zip.Pair) {
	c.buf.Push(p)
	c.emit(Event{Kind: EventBuffered, Pair: p, Buffered: c.buf.Len()})
	c.next()
}

// next starts the head pair when idle. It is the only IDLE -> BUSY edge.
func (c *Coordinator) next() {
	if c.state.Busy() || c.buf.Len() == 0 {
		return
	}
	c.current = c.buf.Pop()
	c.state = StateHighlight
	c.emit(Event{Kind: EventStarted, Pair: c.current, Phase: PhaseHighlight, Buffered: c.buf.Len()})
	c.request(PhaseHighlight)
}

func (c *Coordinator) request(phase Phase) {
	if c.animating {
		panic("drain: re-entrant animation request")
	}
	c.token++
	c.done = [2]bool{}
	c.animating = true
	defer func() { c.animating = false }()
	for _, side := range zip.Sides {
		c.anim.Animate(Request{
			Token:    c.token,
			Target:   side,
			Phase:    phase,
			Pair:     c.current,
			Duration: c.durations.of(phase),
		})
	}
}

// Complete records one per-side completion. The phase advances once both
// sides of the current token are done, so the commit runs exactly once per
// pair whatever order the sides finish in. It returns false for completions
// that no longer apply (old token, duplicate side, or after a reset).
func (c *Coordinator) Complete(done Completion) bool {
	if c.animating {
		panic("drain: completion delivered from inside Animate")
	}
	if !c.state.Busy() || done.Token != c.token || !done.Target.Valid() || c.done[done.Target] {
		return false
	}
	c.done[done.Target] = true
	if !c.done[zip.SideA] || !c.done[zip.SideB] {
		return true
	}
	switch c.state {
	case StateHighlight:
		c.state = StateMove
		c.emit(Event{Kind: EventPhase, Pair: c.current, Phase: PhaseMove, Buffered: c.buf.Len()})
		c.request(PhaseMove)
	case StateMove:
		c.commit()
	default:
		panic(fmt.Sprintf("drain: completion in state %s", c.state))
	}
	return true
}

func (c *Coordinator) commit() {
	p := c.current
	c.display.commit(p)
	c.commits++
	c.state = StateIdle
	c.current = zip.Pair{}
	c.emit(Event{Kind: EventCommitted, Pair: p, Buffered: c.buf.Len()})
	c.next()
}

// Reset cancels any in-flight animation and returns to an empty idle state.
// Completions for the cancelled sequence are ignored afterwards.
func (c *Coordinator) Reset() {
	c.anim.CancelAll()
	c.buf.Clear()
	c.display.clear()
	c.state = StateIdle
	c.current = zip.Pair{}
	c.done = [2]bool{}
	// Bump the token so anything still in flight is stale.
	c.token++
	c.emit(Event{Kind: EventReset})
}

// SetDurations changes the timing of phases requested from now on.
func (c *Coordinator) SetDurations(d Durations) { c.durations = d }

// Durations returns the current phase timing.
func (c *Coordinator) Durations() Durations { return c.durations }

// State returns the current state.
func (c *Coordinator) State() State { return c.state }

// Buffered returns how many pairs wait behind the one in flight.
func (c *Coordinator) Buffered() int { return c.buf.Len() }

// Commits returns how many pairs have been committed since creation.
func (c *Coordinator) Commits() int { return c.commits }

func (c *Coordinator) emit(ev Event) {
	for _, fn := range c.observers {
		fn(ev)
	}
}

// Snapshot is a read-only copy of everything a renderer needs.
type Snapshot struct {
	State    State      `json:"state"`
	Active   *zip.Pair  `json:"active,omitempty"`
	QueueA   []zip.Item `json:"queue_a"`
	QueueB   []zip.Item `json:"queue_b"`
	Output   *zip.Pair  `json:"output"`
	Mode     UpdateMode `json:"mode"`
	Buffered []zip.Pair `json:"buffered"`
	Commits  int        `json:"commits"`
}

// Queue returns the snapshot queue for side.
func (s Snapshot) Queue(side zip.Side) []zip.Item {
	if side == zip.SideB {
		return s.QueueB
	}
	return s.QueueA
}

// IsActive reports whether it belongs to the pair in flight.
func (s Snapshot) IsActive(it zip.Item) bool {
	return s.Active != nil && s.Active.Get(it.Side) == it
}

// Settled reports whether nothing is in flight or waiting.
func (s Snapshot) Settled() bool {
	return !s.State.Busy() && len(s.Buffered) == 0
}

// Snapshot copies the current state.
func (c *Coordinator) Snapshot() Snapshot {
	s := Snapshot{
		State:    c.state,
		QueueA:   c.display.Queue(zip.SideA),
		QueueB:   c.display.Queue(zip.SideB),
		Mode:     c.display.Mode(),
		Buffered: c.buf.Items(),
		Commits:  c.commits,
	}
	if c.state.Busy() {
		active := c.current
		s.Active = &active
	}
	if out, ok := c.display.Output(); ok {
		s.Output = &out
	}
	return s
}

// MarshalText renders the phase by name.
func (p Phase) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// MarshalText renders the mode by name.
func (m UpdateMode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }
