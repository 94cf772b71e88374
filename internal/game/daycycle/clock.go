// Package daycycle provides the tick-driven day/night clock and its event
// channel.
package daycycle

import (
	"fmt"
	"sync"
)

// Phase is the half of the day the clock is in.
type Phase int

const (
	// Day is the building phase.
	Day Phase = iota
	// Night is the hazard phase.
	Night
)

// String returns "day" or "night".
func (p Phase) String() string {
	if p == Night {
		return "night"
	}
	return "day"
}

// EventKind distinguishes clock transitions.
type EventKind int

const (
	// NewDay is published when a night ends and the day counter advances.
	NewDay EventKind = iota
	// NightStarted is published when a day ends.
	NightStarted
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case NewDay:
		return "new_day"
	case NightStarted:
		return "night_started"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is a clock transition delivered to subscribers.
type Event struct {
	Kind EventKind
	// Day is the day number after the transition.
	Day int
}

// Config holds phase lengths in simulation ticks.
type Config struct {
	DayTicks   int
	NightTicks int
}

// Validate checks that both phases have a positive length.
func (c Config) Validate() error {
	if c.DayTicks <= 0 || c.NightTicks <= 0 {
		return fmt.Errorf("daycycle config: day_ticks and night_ticks must be > 0, got %d and %d", c.DayTicks, c.NightTicks)
	}
	return nil
}

// Clock advances day/night phases one tick at a time and broadcasts
// transitions to subscribers.
//
// Invariant: 0 <= elapsed < length of the current phase.
type Clock struct {
	cfg         Config
	mu          sync.Mutex
	day         int
	phase       Phase
	elapsed     int
	subscribers map[chan<- Event]struct{}
}

// NewClock creates a Clock at the start of day 1.
//
// Precondition: cfg must validate.
// Postcondition: Returns a Clock in the Day phase, or an error.
func NewClock(cfg Config) (*Clock, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("daycycle.NewClock: %w", err)
	}
	return &Clock{
		cfg:         cfg,
		day:         1,
		phase:       Day,
		subscribers: make(map[chan<- Event]struct{}),
	}, nil
}

// Subscribe registers ch to receive every transition.
// If ch is full, the event is dropped for that subscriber (non-blocking).
//
// Precondition: ch must not be nil.
func (c *Clock) Subscribe(ch chan<- Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers[ch] = struct{}{}
}

// Unsubscribe removes ch from the subscriber list.
func (c *Clock) Unsubscribe(ch chan<- Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subscribers, ch)
}

// Advance moves the clock forward one tick, publishing a transition when the
// current phase runs out.
//
// Postcondition: Returns the published event, if any.
func (c *Clock) Advance() (Event, bool) {
	c.mu.Lock()
	c.elapsed++
	var (
		ev Event
		ok bool
	)
	switch {
	case c.phase == Day && c.elapsed >= c.cfg.DayTicks:
		ev, ok = c.startNightLocked(), true
	case c.phase == Night && c.elapsed >= c.cfg.NightTicks:
		ev, ok = c.startDayLocked(), true
	}
	c.mu.Unlock()
	if ok {
		c.publish(ev)
	}
	return ev, ok
}

// SkipToNight ends the current day immediately.
//
// Postcondition: no-op returning false when already at night.
func (c *Clock) SkipToNight() (Event, bool) {
	c.mu.Lock()
	if c.phase == Night {
		c.mu.Unlock()
		return Event{}, false
	}
	ev := c.startNightLocked()
	c.mu.Unlock()
	c.publish(ev)
	return ev, true
}

// StartNewDay begins the next day immediately, from either phase.
func (c *Clock) StartNewDay() Event {
	c.mu.Lock()
	ev := c.startDayLocked()
	c.mu.Unlock()
	c.publish(ev)
	return ev
}

func (c *Clock) startNightLocked() Event {
	c.phase = Night
	c.elapsed = 0
	return Event{Kind: NightStarted, Day: c.day}
}

func (c *Clock) startDayLocked() Event {
	c.phase = Day
	c.elapsed = 0
	c.day++
	return Event{Kind: NewDay, Day: c.day}
}

func (c *Clock) publish(ev Event) {
	c.mu.Lock()
	subs := make([]chan<- Event, 0, len(c.subscribers))
	for ch := range c.subscribers {
		subs = append(subs, ch)
	}
	c.mu.Unlock()
	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Day returns the current day number, starting at 1.
func (c *Clock) Day() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.day
}

// Phase returns the current phase.
func (c *Clock) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Remaining returns the ticks left in the current phase.
func (c *Clock) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phaseLength() - c.elapsed
}

// Progress returns the fraction of the current phase elapsed, in [0, 1).
func (c *Clock) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return float64(c.elapsed) / float64(c.phaseLength())
}

func (c *Clock) phaseLength() int {
	if c.phase == Night {
		return c.cfg.NightTicks
	}
	return c.cfg.DayTicks
}

// String returns e.g. "day 3 night (12 ticks left)".
func (c *Clock) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fmt.Sprintf("day %d %s (%d ticks left)", c.day, c.phase, c.phaseLength()-c.elapsed)
}
