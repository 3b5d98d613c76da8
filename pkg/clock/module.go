// Package clock provides the pausable countdown that drives a match's time
// limit. Unlike time.Timer it can be paused and resumed, carrying over the
// remaining duration.
package clock

import (
	"time"

	"github.com/sasha-s/go-deadlock"
)

const (
	stateIdle = iota
	stateActive
	stateExpired
)

type Timer struct {
	t  *time.Timer
	C  <-chan time.Time
	fn func()

	l         *deadlock.Mutex // to synchronize access to the fields below
	state     int
	duration  time.Duration
	startedAt time.Time
}

// NewTimer creates a stopped Timer that will send on C once Start is called
// and the duration elapses.
func NewTimer(d time.Duration) *Timer {
	c := make(chan time.Time, 1)
	t := &Timer{
		C:        c,
		duration: d,
		l:        new(deadlock.Mutex),
	}
	t.fn = func() {
		t.state = stateExpired
		c <- time.Now()
	}
	return t
}

// AfterFunc is like NewTimer but calls f in its own goroutine on expiry.
func AfterFunc(d time.Duration, f func()) *Timer {
	t := &Timer{
		duration: d,
		l:        new(deadlock.Mutex),
	}
	t.fn = func() {
		t.state = stateExpired
		f()
	}
	return t
}

func (t *Timer) Start() bool {
	t.l.Lock()
	defer t.l.Unlock()
	if t.state != stateIdle {
		return false
	}
	t.startedAt = time.Now()
	t.state = stateActive
	t.t = time.AfterFunc(t.duration, t.fn)
	return true
}

// Pause stops the countdown; the next Start continues with whatever duration
// was left.
func (t *Timer) Pause() bool {
	t.l.Lock()
	defer t.l.Unlock()
	if t.state != stateActive {
		return false
	}
	if !t.t.Stop() {
		t.state = stateExpired
		return false
	}
	t.state = stateIdle
	t.duration -= time.Since(t.startedAt)
	return true
}

func (t *Timer) Paused() bool {
	t.l.Lock()
	defer t.l.Unlock()
	return t.state == stateIdle
}

func (t *Timer) Stop() bool {
	t.l.Lock()
	defer t.l.Unlock()
	if t.state != stateActive {
		return false
	}
	t.state = stateExpired
	return t.t.Stop()
}

// TimeLeft is safe to call on a nil timer and returns 0 in that case.
func (t *Timer) TimeLeft() time.Duration {
	if t == nil {
		return 0
	}

	t.l.Lock()
	defer t.l.Unlock()

	switch t.state {
	case stateIdle:
		return t.duration
	case stateActive:
		return t.duration - time.Since(t.startedAt)
	case stateExpired:
		return 0
	default:
		panic("unhandled timer state")
	}
}
