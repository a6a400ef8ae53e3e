package transition

import (
	"sync"
	"time"
)

// DefaultFrameInterval approximates one display refresh at 60Hz
const DefaultFrameInterval = 16 * time.Millisecond

// Frame is a pending frame callback
type Frame interface {
	// Cancel releases the callback; it is safe to call more than once and after it fired
	Cancel()
}

// Scheduler runs one callback per display frame
type Scheduler interface {
	Now() time.Time
	RequestFrame(cb func(now time.Time)) Frame
}

// TimerScheduler schedules frames on the runtime timer
type TimerScheduler struct {
	Interval time.Duration
}

func NewTimerScheduler(interval time.Duration) *TimerScheduler {
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return &TimerScheduler{Interval: interval}
}

func (s *TimerScheduler) Now() time.Time {
	return time.Now()
}

func (s *TimerScheduler) RequestFrame(cb func(now time.Time)) Frame {
	f := &timerFrame{}
	f.timer = time.AfterFunc(s.Interval, func() {
		f.mu.Lock()
		cancelled := f.cancelled
		f.mu.Unlock()
		if !cancelled {
			cb(time.Now())
		}
	})
	return f
}

type timerFrame struct {
	mu        sync.Mutex
	timer     *time.Timer
	cancelled bool
}

func (f *timerFrame) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
	f.timer.Stop()
}
