// Package carousel holds the slide position state machine behind the site's
// testimonial and portfolio sliders. Rendering is left to subscribers of the
// slideChanged notification.
package carousel

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"emirates-studios/internal/clock"
)

var (
	// ErrInvalidConfiguration is returned by New for a non-positive slide
	// count or interval
	ErrInvalidConfiguration = errors.New("invalid carousel configuration")
	// ErrIndexOutOfRange is returned by GoTo for an index outside [0, N-1]
	ErrIndexOutOfRange = errors.New("slide index out of range")
)

// Listener receives the new index after every transition
type Listener func(index int)

// State is a point-in-time view of a controller
type State struct {
	Index       int
	SlideCount  int
	AutoAdvance bool
	Paused      bool
	Armed       bool
}

// Option configures a Controller
type Option func(*Controller)

// WithClock sets the time source. Defaults to clock.Real().
func WithClock(c clock.Clock) Option {
	return func(ctrl *Controller) {
		ctrl.clock = c
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(ctrl *Controller) {
		ctrl.logger = logger
	}
}

// WithStartIndex sets the initial index; out-of-range values are ignored
func WithStartIndex(index int) Option {
	return func(ctrl *Controller) {
		if index >= 0 && index < ctrl.count {
			ctrl.current = index
		}
	}
}

// Controller owns the current slide index of a fixed-size slide set and
// drives optional auto-advance on a cancellable timer.
type Controller struct {
	mu       sync.Mutex
	clock    clock.Clock
	logger   *zap.Logger
	count    int
	interval time.Duration

	current     int
	autoAdvance bool
	paused      bool
	disposed    bool

	timer      clock.Timer
	generation uint64

	listeners  map[uint64]Listener
	listenerID uint64

	pending     []int
	dispatching bool
}

// New creates a controller over slideCount slides. If autoAdvance is set the
// first tick fires one interval after construction.
func New(slideCount int, interval time.Duration, autoAdvance bool, opts ...Option) (*Controller, error) {
	if slideCount < 1 {
		return nil, fmt.Errorf("%w: slide count must be positive, got %d", ErrInvalidConfiguration, slideCount)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %s", ErrInvalidConfiguration, interval)
	}

	c := &Controller{
		clock:       clock.Real(),
		logger:      zap.NewNop(),
		count:       slideCount,
		interval:    interval,
		autoAdvance: autoAdvance,
		listeners:   make(map[uint64]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.mu.Lock()
	c.rearmLocked()
	c.mu.Unlock()

	return c, nil
}

// Subscribe registers a listener for slideChanged notifications and returns a
// function that removes it.
func (c *Controller) Subscribe(l Listener) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return func() {}
	}
	c.listenerID++
	id := c.listenerID
	c.listeners[id] = l

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Next moves to the following slide, wrapping at the end
func (c *Controller) Next() {
	c.mu.Lock()
	c.moveLocked((c.current + 1) % c.count)
	c.mu.Unlock()
	c.flush()
}

// Previous moves to the preceding slide, wrapping at the start
func (c *Controller) Previous() {
	c.mu.Lock()
	c.moveLocked((c.current - 1 + c.count) % c.count)
	c.mu.Unlock()
	c.flush()
}

// GoTo jumps to index. State is left unchanged on error.
func (c *Controller) GoTo(index int) error {
	c.mu.Lock()
	if index < 0 || index >= c.count {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d not in [0, %d]", ErrIndexOutOfRange, index, c.count-1)
	}
	c.moveLocked(index)
	c.mu.Unlock()
	c.flush()
	return nil
}

// Pause suspends auto-advance. The pending tick is cancelled, so time spent
// paused does not count toward the next transition.
func (c *Controller) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.paused {
		return
	}
	c.paused = true
	c.rearmLocked()
}

// Resume lifts a pause. With auto-advance enabled the next tick is a full
// interval away.
func (c *Controller) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.paused = false
	c.rearmLocked()
}

// SetAutoAdvance turns timer-driven transitions on or off. Enabling starts a
// fresh interval; disabling cancels any pending tick.
func (c *Controller) SetAutoAdvance(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.autoAdvance = enabled
	c.rearmLocked()
}

// CurrentSlide returns the current index
func (c *Controller) CurrentSlide() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// SlideCount returns N
func (c *Controller) SlideCount() int {
	return c.count
}

// Interval returns the auto-advance period
func (c *Controller) Interval() time.Duration {
	return c.interval
}

// State returns a snapshot of the controller
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return State{
		Index:       c.current,
		SlideCount:  c.count,
		AutoAdvance: c.autoAdvance,
		Paused:      c.paused,
		Armed:       c.timer != nil,
	}
}

// Dispose stops the timer and drops all listeners. No transition happens
// after Dispose returns. Calling it again is a no-op.
func (c *Controller) Dispose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.disposed {
		return
	}
	c.disposed = true
	c.disarmLocked()
	c.pending = nil
	c.listeners = make(map[uint64]Listener)
	c.logger.Debug("carousel disposed", zap.Int("index", c.current))
}

// moveLocked is the single mutation path for manual and timer transitions.
// Must be called with lock held.
func (c *Controller) moveLocked(index int) {
	if c.disposed {
		return
	}
	c.current = index
	c.pending = append(c.pending, index)
}

// rearmLocked cancels any pending tick and, when auto-advance should run,
// schedules a new one a full interval from now.
// Must be called with lock held.
func (c *Controller) rearmLocked() {
	c.disarmLocked()
	if !c.autoAdvance || c.paused || c.disposed {
		return
	}

	gen := c.generation
	c.timer = c.clock.AfterFunc(c.interval, func() {
		c.tick(gen)
	})
}

// disarmLocked stops the timer and invalidates any callback already in flight.
// Must be called with lock held.
func (c *Controller) disarmLocked() {
	c.generation++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	if gen != c.generation || c.disposed {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	c.moveLocked((c.current + 1) % c.count)
	c.rearmLocked()
	c.mu.Unlock()

	c.flush()
}

// flush delivers queued notifications in order. Only one goroutine drains at
// a time; transitions made by listeners are queued and delivered by the
// drainer once the current listener returns.
func (c *Controller) flush() {
	c.mu.Lock()
	if c.dispatching {
		c.mu.Unlock()
		return
	}
	c.dispatching = true

	for len(c.pending) > 0 && !c.disposed {
		index := c.pending[0]
		c.pending = c.pending[1:]

		listeners := make([]Listener, 0, len(c.listeners))
		for _, l := range c.listeners {
			listeners = append(listeners, l)
		}
		c.mu.Unlock()

		for _, l := range listeners {
			l(index)
		}

		c.mu.Lock()
	}

	c.dispatching = false
	c.mu.Unlock()
}
