package engine

import (
	"sync"
	"time"

	"github.com/jask/zipdemo/internal/drain"
	"github.com/jask/zipdemo/internal/zip"
)

type timerKey struct {
	token  uint64
	target zip.Side
}

// TimerAnimator plays every phase as a plain timer and reports completions
// through post. Post is called from timer goroutines, never from Animate.
type TimerAnimator struct {
	mu     sync.Mutex
	timers map[timerKey]*time.Timer
	post   func(drain.Completion)
}

// NewTimerAnimator returns an animator that calls post when a timer fires.
func NewTimerAnimator(post func(drain.Completion)) *TimerAnimator {
	return &TimerAnimator{timers: make(map[timerKey]*time.Timer), post: post}
}

// Animate schedules req.
func (a *TimerAnimator) Animate(req drain.Request) {
	key := timerKey{token: req.Token, target: req.Target}
	a.mu.Lock()
	defer a.mu.Unlock()
	if old, ok := a.timers[key]; ok {
		old.Stop()
	}
	a.timers[key] = time.AfterFunc(req.Duration, func() {
		a.mu.Lock()
		_, live := a.timers[key]
		delete(a.timers, key)
		a.mu.Unlock()
		if live {
			a.post(req.Completion())
		}
	})
}

// CancelAll stops every live timer.
func (a *TimerAnimator) CancelAll() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for key, t := range a.timers {
		t.Stop()
		delete(a.timers, key)
	}
}

// Live returns the number of timers that have not fired or been cancelled.
func (a *TimerAnimator) Live() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.timers)
}
