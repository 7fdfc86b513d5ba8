// Package irq dispatches interrupt-style events to registered handlers.
//
// Each event source has one pending bit, the equivalent of a peripheral's
// edge or update flag. Raising a source sets its bit and drains the pending
// set: exactly one caller services handlers at a time, always picking the
// highest-priority pending source next. Handlers therefore never run
// concurrently with each other, and a source raised from inside a handler is
// serviced before the draining caller returns.
//
// The controller takes no locks, so it may be used from TinyGo interrupt
// context as well as from ordinary goroutines.
package irq

import (
	"fmt"
	"math/bits"
	"sync/atomic"
)

// Source is an event source. Lower values have higher priority.
type Source uint8

const (
	// Tick is the fixed-period millisecond tick.
	Tick Source = iota
	// Timer is the periodic step timer's update event.
	Timer
	// RotateLeft is the falling edge of the left button.
	RotateLeft
	// RotateRight is the falling edge of the right button.
	RotateRight

	// NumSources is the number of event sources.
	NumSources
)

// String returns a string representation of the source.
func (s Source) String() string {
	switch s {
	case Tick:
		return "tick"
	case Timer:
		return "timer"
	case RotateLeft:
		return "rotate-left"
	case RotateRight:
		return "rotate-right"
	default:
		return fmt.Sprintf("Source(%d)", s)
	}
}

func (s Source) mask() uint32 { return 1 << s }

// Handler handles an event. It must run to completion without blocking and
// must acknowledge the event, or it will be dispatched again.
type Handler func(Event)

// Table maps each source to its handler.
type Table [NumSources]Handler

// Event is a dispatched event.
type Event struct {
	Source Source
	c      *Controller
}

// Ack clears the pending flag of the event's source.
func (e Event) Ack() {
	e.c.clear(e.Source.mask())
}

// Pending reports whether src is pending alongside this event.
func (e Event) Pending(src Source) bool {
	return e.c.Pending(src)
}

// Cancel clears the pending flag of another source so that it is not
// dispatched. It is how a handler supersedes a lower-priority event that
// arrived together with its own.
func (e Event) Cancel(src Source) {
	e.c.clear(src.mask())
}

// Controller holds the pending flags and the handler table.
type Controller struct {
	table    Table
	pending  atomic.Uint32
	draining atomic.Bool
}

// NewController creates a new controller with the given handlers.
func NewController(table Table) *Controller {
	return &Controller{table: table}
}

// Register sets the handler for src. It must be called before any event can
// be raised on src; sources raised without a handler are dropped.
func (c *Controller) Register(src Source, h Handler) {
	if src >= NumSources {
		panic("irq: invalid source")
	}
	c.table[src] = h
}

// Pending reports whether src is pending.
func (c *Controller) Pending(src Source) bool {
	return c.pending.Load()&src.mask() != 0
}

// Raise marks all given sources as pending together and then services
// pending sources in priority order. If another caller is already servicing
// (including a handler raising a source), Raise returns immediately and the
// active caller picks the new sources up.
func (c *Controller) Raise(srcs ...Source) {
	var mask uint32
	for _, src := range srcs {
		mask |= src.mask()
	}
	c.set(mask)
	c.drain()
}

// Hold marks the given sources as pending without servicing them. A later
// Raise or Service call dispatches them in priority order.
func (c *Controller) Hold(srcs ...Source) {
	var mask uint32
	for _, src := range srcs {
		mask |= src.mask()
	}
	c.set(mask)
}

// Service dispatches every pending source.
func (c *Controller) Service() {
	c.drain()
}

func (c *Controller) drain() {
	for c.pending.Load() != 0 {
		if !c.draining.CompareAndSwap(false, true) {
			return
		}

		for {
			p := c.pending.Load()
			if p == 0 {
				break
			}

			src := Source(bits.TrailingZeros32(p))
			h := c.table[src]
			if h == nil {
				c.clear(src.mask())
				continue
			}

			h(Event{Source: src, c: c})
		}

		// Anything pended between the last load and this store is caught by
		// the outer loop.
		c.draining.Store(false)
	}
}

func (c *Controller) set(mask uint32) {
	for {
		old := c.pending.Load()
		if c.pending.CompareAndSwap(old, old|mask) {
			return
		}
	}
}

func (c *Controller) clear(mask uint32) {
	for {
		old := c.pending.Load()
		if c.pending.CompareAndSwap(old, old&^mask) {
			return
		}
	}
}
