package drain

import (
	"time"

	"github.com/jask/zipdemo/internal/zip"
)

// Phase is one animation step of a drained pair.
type Phase int

const (
	// PhaseHighlight marks both queued items active and waits a fixed delay.
	PhaseHighlight Phase = iota
	// PhaseMove slides both items out of their queues.
	PhaseMove
)

func (p Phase) String() string {
	if p == PhaseMove {
		return "move"
	}
	return "highlight"
}

// Request asks the animator to run one phase for one side of a pair. Both
// sides of a phase share a token.
type Request struct {
	Token    uint64
	Target   zip.Side
	Phase    Phase
	Pair     zip.Pair
	Duration time.Duration
}

// Completion reports that the animation for Target under Token finished.
func (r Request) Completion() Completion {
	return Completion{Token: r.Token, Target: r.Target}
}

// Completion is the "done" signal for one Request.
type Completion struct {
	Token  uint64
	Target zip.Side
}

// Animator schedules timed effects. Completions must be delivered back to
// Coordinator.Complete later, from the coordinator's own thread, never from
// inside Animate.
type Animator interface {
	Animate(req Request)
	// CancelAll drops every scheduled effect. Completions already on their
	// way are tolerated; the coordinator ignores stale tokens.
	CancelAll()
}

// Durations holds the fixed timing of both phases.
type Durations struct {
	Highlight time.Duration
	Move      time.Duration
}

// DefaultDurations matches the pacing of the classic marble demo.
var DefaultDurations = Durations{Highlight: 500 * time.Millisecond, Move: 500 * time.Millisecond}

// Scale returns d with both phases multiplied by 1/speed.
func (d Durations) Scale(speed float64) Durations {
	if speed <= 0 {
		return d
	}
	return Durations{
		Highlight: time.Duration(float64(d.Highlight) / speed),
		Move:      time.Duration(float64(d.Move) / speed),
	}
}

func (d Durations) of(p Phase) time.Duration {
	if p == PhaseMove {
		return d.Move
	}
	return d.Highlight
}
