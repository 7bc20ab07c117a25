package session

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultSplashDuration is how long the splash screen stays up.
const DefaultSplashDuration = 3 * time.Second

type splashState int

const (
	splashPending splashState = iota
	splashFired
	splashCancelled
)

// Splash is the one-shot timer that ends the Loading phase. It fires at most
// once, never after Cancel, and never into a closed controller.
type Splash struct {
	mu    sync.Mutex
	state splashState
	timer *clock.Timer
	done  chan struct{}
	once  sync.Once
}

// ScheduleLoading arms the loading timer: after d the controller moves to
// Ready. Scheduling again replaces (cancels) the previous timer. Closing the
// controller cancels it.
func (c *Controller) ScheduleLoading(d time.Duration) *Splash {
	s := &Splash{done: make(chan struct{})}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		s.state = splashCancelled
		s.finish()
		return s
	}
	prev := c.splash
	c.splash = s
	// Hold s.mu while arming so a zero-duration timer cannot fire before
	// s.timer is assigned.
	s.mu.Lock()
	s.timer = c.clk.AfterFunc(d, func() { s.fire(c) })
	s.mu.Unlock()
	c.mu.Unlock()

	if prev != nil {
		prev.Cancel()
	}
	return s
}

func (s *Splash) fire(c *Controller) {
	s.mu.Lock()
	if s.state != splashPending {
		s.mu.Unlock()
		return
	}
	s.state = splashFired
	s.mu.Unlock()

	// ErrDisposed here means the controller was closed between firing and
	// this call; FinishLoading already refuses to touch it.
	_ = c.FinishLoading()

	c.mu.Lock()
	if c.splash == s {
		c.splash = nil
	}
	c.mu.Unlock()
	s.finish()
}

// Cancel stops the timer. It reports whether the transition was prevented;
// cancelling after the timer fired is a no-op returning false.
func (s *Splash) Cancel() bool {
	s.mu.Lock()
	if s.state != splashPending {
		s.mu.Unlock()
		return false
	}
	s.state = splashCancelled
	if s.timer != nil {
		s.timer.Stop()
	}
	s.mu.Unlock()
	s.finish()
	return true
}

// Fired reports whether the timer ran.
func (s *Splash) Fired() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == splashFired
}

// Done is closed once the timer has fired (and the phase change has been
// applied) or has been cancelled.
func (s *Splash) Done() <-chan struct{} { return s.done }

func (s *Splash) finish() { s.once.Do(func() { close(s.done) }) }
