package transition

import (
	"math"
	"sync"
	"time"
)

// DefaultDuration is how long a displayed value takes to reach a new target
const DefaultDuration = 650 * time.Millisecond

// EaseOutCubic maps progress p in [0,1] to 1-(1-p)^3; p is clamped
func EaseOutCubic(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	inv := 1 - p
	return 1 - inv*inv*inv
}

// Transition animates a displayed number towards its latest target, one step per frame.
// Retargeting starts from the currently displayed value and cancels the pending frame.
type Transition struct {
	scheduler Scheduler
	duration  time.Duration

	mu        sync.Mutex
	displayed float64
	from      float64
	target    float64
	start     time.Time
	frame     Frame
	gen       uint64
	steps     int
	onUpdate  func(value float64)
}

func New(scheduler Scheduler, duration time.Duration, initial float64) *Transition {
	return &Transition{
		scheduler: scheduler,
		duration:  duration,
		displayed: initial,
		from:      initial,
		target:    initial,
	}
}

// OnUpdate registers a callback invoked with every new displayed value
func (t *Transition) OnUpdate(fn func(value float64)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onUpdate = fn
}

// SetTarget moves the transition towards v. Non-finite values and a non-positive duration
// jump immediately; an unchanged value schedules nothing.
func (t *Transition) SetTarget(v float64) {
	t.mu.Lock()

	t.gen++
	t.releaseFrameLocked()

	old := t.displayed
	t.target = v

	if !isFinite(old) || !isFinite(v) || t.duration <= 0 {
		t.displayed = v
		t.from = v
		notify, value := t.onUpdate, t.displayed
		t.mu.Unlock()
		if notify != nil {
			notify(value)
		}
		return
	}

	if old == v {
		t.mu.Unlock()
		return
	}

	t.from = old
	t.start = t.scheduler.Now()
	t.frame = t.scheduler.RequestFrame(t.tick(t.gen))
	t.mu.Unlock()
}

func (t *Transition) tick(gen uint64) func(now time.Time) {
	return func(now time.Time) {
		t.mu.Lock()
		if gen != t.gen {
			t.mu.Unlock()
			return
		}

		p := float64(now.Sub(t.start)) / float64(t.duration)
		if p > 1 {
			p = 1
		}
		t.displayed = t.from + (t.target-t.from)*EaseOutCubic(p)
		t.steps++

		if p < 1 {
			t.frame = t.scheduler.RequestFrame(t.tick(gen))
		} else {
			t.displayed = t.target
			t.frame = nil
		}

		notify, value := t.onUpdate, t.displayed
		t.mu.Unlock()

		if notify != nil {
			notify(value)
		}
	}
}

func (t *Transition) releaseFrameLocked() {
	if t.frame != nil {
		t.frame.Cancel()
		t.frame = nil
	}
}

// Value is the currently displayed value
func (t *Transition) Value() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.displayed
}

func (t *Transition) Target() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.target
}

// Animating reports whether a frame is pending
func (t *Transition) Animating() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frame != nil
}

// Steps counts the interpolation frames run so far
func (t *Transition) Steps() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.steps
}

// Stop releases the pending frame; the displayed value stays where it is
func (t *Transition) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.gen++
	t.releaseFrameLocked()
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
