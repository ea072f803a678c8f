// Package engine runs the zip demo on one logical thread. User triggers,
// animation completions and queries all arrive as messages on a single
// channel and are handled strictly one at a time, so the streams, the
// combinator and the drain coordinator never see concurrent access.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jask/zipdemo/internal/drain"
	"github.com/jask/zipdemo/internal/logger"
	"github.com/jask/zipdemo/internal/zip"
)

// ErrStopped is returned when talking to an engine whose loop has exited.
var ErrStopped = errors.New("engine: stopped")

const (
	MinSpeed = 0.25
	MaxSpeed = 4.0

	inboxSize = 256
)

// Config holds the engine timing.
type Config struct {
	Durations drain.Durations
	Speed     float64
}

// ClampSpeed keeps s inside [MinSpeed, MaxSpeed]; zero means 1.
func ClampSpeed(s float64) float64 {
	switch {
	case s == 0:
		return 1
	case s < MinSpeed:
		return MinSpeed
	case s > MaxSpeed:
		return MaxSpeed
	}
	return s
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger; the default discards.
func WithLogger(l *logger.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l.WithComponent("engine")
		}
	}
}

// WithRecorder traces every coordinator transition to r.
func WithRecorder(r Recorder) Option {
	return func(e *Engine) { e.rec = r }
}

// WithClock overrides time.Now for trace timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

type (
	emitMsg       struct{ side zip.Side }
	resetMsg      struct{}
	speedMsg      struct{ speed float64 }
	completionMsg struct{ done drain.Completion }
	queryMsg      struct{ reply chan Snapshot }
)

// Engine owns the streams, the combinator and the coordinator.
type Engine struct {
	cfg   Config
	log   *logger.Logger
	rec   Recorder
	now   func() time.Time
	inbox chan any
	quit  chan struct{}

	running atomic.Bool

	subMu sync.Mutex
	subs  map[int]chan Snapshot
	subID int

	// Loop-owned from here on.
	ctx     context.Context
	streams [2]*zip.Stream
	comb    *zip.Combinator
	coord   *drain.Coordinator
	anim    *TimerAnimator
	speed   float64
	version uint64
}

// New builds an engine. Nothing happens until Run is called; triggers sent
// before that are queued.
func New(cfg Config, opts ...Option) *Engine {
	if cfg.Durations == (drain.Durations{}) {
		cfg.Durations = drain.DefaultDurations
	}
	e := &Engine{
		cfg:   cfg,
		log:   logger.Nop(),
		now:   time.Now,
		inbox: make(chan any, inboxSize),
		quit:  make(chan struct{}),
		subs:  make(map[int]chan Snapshot),
		ctx:   context.Background(),
		speed: ClampSpeed(cfg.Speed),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.anim = NewTimerAnimator(func(done drain.Completion) {
		_ = e.send(completionMsg{done: done})
	})
	e.coord = drain.New(e.anim,
		drain.WithDurations(cfg.Durations.Scale(e.speed)),
		drain.WithObserver(e.observe),
	)
	e.streams = [2]*zip.Stream{zip.NewStream(zip.SideA), zip.NewStream(zip.SideB)}
	e.subscribe()
	return e
}

func (e *Engine) subscribe() {
	e.comb = zip.Zip(e.streams[zip.SideA], e.streams[zip.SideB], e.coord.Push)
}

// Run drives the loop until ctx is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return errors.New("engine: already running")
	}
	e.ctx = ctx
	defer e.closeSubscribers()
	defer close(e.quit)
	defer e.anim.CancelAll()

	e.log.Info("engine started", map[string]interface{}{logger.FieldGeneration: e.comb.ID().String()})
	e.publish()
	for {
		select {
		case <-ctx.Done():
			e.log.Info("engine stopped")
			return ctx.Err()
		case msg := <-e.inbox:
			e.handle(msg)
		}
	}
}

func (e *Engine) handle(msg any) {
	switch m := msg.(type) {
	case emitMsg:
		e.emit(m.side)
	case resetMsg:
		e.reset()
	case speedMsg:
		e.speed = ClampSpeed(m.speed)
		e.coord.SetDurations(e.cfg.Durations.Scale(e.speed))
		e.log.Info("speed changed", map[string]interface{}{"speed": e.speed})
	case completionMsg:
		if !e.coord.Complete(m.done) {
			e.log.Debug("stale completion dropped", map[string]interface{}{"token": m.done.Token, "target": m.done.Target.String()})
			return
		}
	case queryMsg:
		m.reply <- e.snapshot()
		return
	}
	e.publish()
}

// emit shows the new item before the combinator sees it, so a pair can only
// ever commit items that are on screen.
func (e *Engine) emit(side zip.Side) {
	s := e.streams[side]
	e.coord.Enqueue(s.Next())
	s.Emit()
}

func (e *Engine) reset() {
	timers := e.anim.Live()
	e.coord.Reset()
	e.comb.Close()
	for _, s := range e.streams {
		s.Reset()
	}
	old := e.comb.ID()
	e.subscribe()
	e.log.Info("reset", map[string]interface{}{
		"previous":             old.String(),
		"cancelled_timers":     timers,
		logger.FieldGeneration: e.comb.ID().String(),
	})
}

func (e *Engine) observe(ev drain.Event) {
	fields := map[string]interface{}{
		logger.FieldEvent:    string(ev.Kind),
		logger.FieldState:    e.coord.State().String(),
		logger.FieldBuffered: ev.Buffered,
	}
	if ev.Kind == drain.EventEnqueued {
		fields[logger.FieldItem] = ev.Item.Text
	} else if ev.Kind != drain.EventReset {
		fields[logger.FieldPair] = ev.Pair.String()
	}
	e.log.Debug("transition", fields)

	if e.rec == nil {
		return
	}
	generation := ""
	if e.comb != nil {
		generation = e.comb.ID().String()
	}
	if err := e.rec.Record(e.ctx, recordOf(ev, generation, e.now())); err != nil {
		e.log.WithError(err).Warn("trace record failed")
	}
}

func (e *Engine) send(msg any) error {
	select {
	case <-e.quit:
		return ErrStopped
	default:
	}
	select {
	case e.inbox <- msg:
		return nil
	case <-e.quit:
		return ErrStopped
	}
}

// EmitA triggers stream A.
func (e *Engine) EmitA() { e.Emit(zip.SideA) }

// EmitB triggers stream B.
func (e *Engine) EmitB() { e.Emit(zip.SideB) }

// Emit triggers side. Fire-and-forget.
func (e *Engine) Emit(side zip.Side) {
	if err := e.send(emitMsg{side: side}); err != nil {
		e.log.Debug("emit after stop ignored")
	}
}

// Reset cancels animations, clears everything and starts a fresh
// subscription. Fire-and-forget.
func (e *Engine) Reset() {
	if err := e.send(resetMsg{}); err != nil {
		e.log.Debug("reset after stop ignored")
	}
}

// SetSpeed scales future animations; 2 plays twice as fast.
func (e *Engine) SetSpeed(speed float64) {
	if err := e.send(speedMsg{speed: speed}); err != nil {
		e.log.Debug("speed change after stop ignored")
	}
}

// Query returns a snapshot taken on the loop after every previously sent
// trigger has been handled.
func (e *Engine) Query(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := e.send(queryMsg{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	case <-e.quit:
		return Snapshot{}, ErrStopped
	}
}

// Subscribe returns a channel carrying the newest snapshot after every
// change. Slow readers skip intermediate states. The channel is closed when
// the engine stops or cancel is called.
func (e *Engine) Subscribe() (<-chan Snapshot, func()) {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	ch := make(chan Snapshot, 1)
	select {
	case <-e.quit:
		close(ch)
		return ch, func() {}
	default:
	}
	id := e.subID
	e.subID++
	e.subs[id] = ch
	return ch, func() {
		e.subMu.Lock()
		defer e.subMu.Unlock()
		if c, ok := e.subs[id]; ok {
			delete(e.subs, id)
			close(c)
		}
	}
}

func (e *Engine) publish() {
	snap := e.snapshot()
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for _, ch := range e.subs {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

func (e *Engine) closeSubscribers() {
	e.subMu.Lock()
	defer e.subMu.Unlock()
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}

// WaitSettled blocks until nothing is in flight or buffered and returns that
// snapshot.
func (e *Engine) WaitSettled(ctx context.Context) (Snapshot, error) {
	ch, cancel := e.Subscribe()
	defer cancel()
	snap, err := e.Query(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	for !snap.Settled() {
		select {
		case s, ok := <-ch:
			if !ok {
				return Snapshot{}, ErrStopped
			}
			if s.Version > snap.Version {
				snap = s
			}
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		}
	}
	return snap, nil
}
