// Package counter provides software versions of the two hardware time bases
// the ring needs: an auto-reload step timer and the clock that drives it
// together with the millisecond tick.
package counter

import (
	"context"
	"sync/atomic"
	"time"

	"libdb.so/ledring/irq"
	"periph.io/x/conn/v3/physic"
)

// Timer is an auto-reload up-counter. Each Step adds one to the count; when
// the count passes the reload value it wraps to zero and raises the timer's
// source on the controller.
type Timer struct {
	ctrl *irq.Controller
	src  irq.Source
	// state packs the reload value in the high half and the count in the
	// low half so both change together.
	state   atomic.Uint64
	enabled atomic.Bool
}

func pack(reload, count uint32) uint64 {
	return uint64(reload)<<32 | uint64(count)
}

func unpack(v uint64) (reload, count uint32) {
	return uint32(v >> 32), uint32(v)
}

// NewTimer creates a stopped timer that raises src on ctrl.
func NewTimer(ctrl *irq.Controller, src irq.Source) *Timer {
	return &Timer{ctrl: ctrl, src: src}
}

// SetReload sets the reload value and resets the count to zero.
func (t *Timer) SetReload(reload uint32) {
	t.state.Store(pack(reload, 0))
}

// Reload returns the current reload value.
func (t *Timer) Reload() uint32 {
	reload, _ := unpack(t.state.Load())
	return reload
}

// Count returns the current count.
func (t *Timer) Count() uint32 {
	_, count := unpack(t.state.Load())
	return count
}

// Force resets the count and raises an update event immediately.
func (t *Timer) Force() {
	for {
		old := t.state.Load()
		reload, _ := unpack(old)
		if t.state.CompareAndSwap(old, pack(reload, 0)) {
			break
		}
	}
	t.ctrl.Raise(t.src)
}

// Enable starts counting.
func (t *Timer) Enable() {
	t.enabled.Store(true)
}

// Disable stops counting. The count is kept.
func (t *Timer) Disable() {
	t.enabled.Store(false)
}

// Step advances the counter by one counter-clock period.
func (t *Timer) Step() {
	if !t.enabled.Load() {
		return
	}

	for {
		old := t.state.Load()
		reload, count := unpack(old)

		count++
		fire := count > reload
		if fire {
			count = 0
		}

		if t.state.CompareAndSwap(old, pack(reload, count)) {
			if fire {
				t.ctrl.Raise(t.src)
			}
			return
		}
	}
}

// Period returns the time between update events when stepped at freq.
func (t *Timer) Period(freq physic.Frequency) time.Duration {
	return time.Duration(t.Reload()+1) * freq.Period()
}

// DefaultFrequency is the clock frequency matching the millisecond tick.
const DefaultFrequency = physic.KiloHertz

// Clock raises the tick source and steps the attached timers once per period
// of its frequency.
type Clock struct {
	ctrl    *irq.Controller
	src     irq.Source
	freq    physic.Frequency
	timers  []*Timer
	started atomic.Bool
}

// NewClock creates a clock that raises src on ctrl at freq. If freq is zero,
// DefaultFrequency is used.
func NewClock(ctrl *irq.Controller, src irq.Source, freq physic.Frequency) *Clock {
	if freq == 0 {
		freq = DefaultFrequency
	}
	return &Clock{ctrl: ctrl, src: src, freq: freq}
}

// Attach adds timers that are stepped on every clock period. It must be
// called before Run.
func (c *Clock) Attach(timers ...*Timer) {
	c.timers = append(c.timers, timers...)
}

// Frequency returns the clock frequency.
func (c *Clock) Frequency() physic.Frequency {
	return c.freq
}

// Start enables the clock. Until then Run keeps time but raises nothing.
func (c *Clock) Start() {
	c.started.Store(true)
}

// Pulse performs the work of one clock period.
func (c *Clock) Pulse() {
	if !c.started.Load() {
		return
	}

	c.ctrl.Raise(c.src)
	for _, t := range c.timers {
		t.Step()
	}
}

// Run pulses the clock until ctx is canceled.
func (c *Clock) Run(ctx context.Context) error {
	ticker := time.NewTicker(c.freq.Period())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			c.Pulse()
		}
	}
}
