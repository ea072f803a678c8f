package engine

import (
	"context"
	"time"

	"github.com/jask/zipdemo/internal/drain"
)

// Record is one traced coordinator transition.
type Record struct {
	Kind       string
	Side       string
	Item       string
	Pair       string
	Phase      string
	Seq        int
	Buffered   int
	Generation string
	At         time.Time
}

// Recorder receives every Record the engine produces. Implementations run on
// the engine loop and should be quick.
type Recorder interface {
	Record(ctx context.Context, r Record) error
}

func recordOf(ev drain.Event, generation string, at time.Time) Record {
	r := Record{
		Kind:       string(ev.Kind),
		Buffered:   ev.Buffered,
		Generation: generation,
		At:         at,
	}
	switch ev.Kind {
	case drain.EventEnqueued:
		r.Side = ev.Item.Side.String()
		r.Item = ev.Item.Text
		r.Seq = ev.Item.Key
	case drain.EventReset:
	default:
		r.Pair = ev.Pair.String()
		r.Seq = ev.Pair.Seq
		if ev.Kind == drain.EventStarted || ev.Kind == drain.EventPhase {
			r.Phase = ev.Phase.String()
		}
	}
	return r
}
