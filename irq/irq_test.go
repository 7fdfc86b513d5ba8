package irq

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRaisePriorityOrder(t *testing.T) {
	var order []Source
	record := func(ev Event) {
		ev.Ack()
		order = append(order, ev.Source)
	}

	c := NewController(Table{
		Tick:        record,
		Timer:       record,
		RotateLeft:  record,
		RotateRight: record,
	})

	c.Raise(RotateRight, Timer, RotateLeft, Tick)
	assert.Equal(t, []Source{Tick, Timer, RotateLeft, RotateRight}, order)

	for src := Source(0); src < NumSources; src++ {
		assert.False(t, c.Pending(src), "%s still pending", src)
	}
}

func TestRaiseFromHandler(t *testing.T) {
	var order []Source

	c := NewController(Table{})
	c.Register(Timer, func(ev Event) {
		ev.Ack()
		order = append(order, ev.Source)
	})
	c.Register(RotateLeft, func(ev Event) {
		ev.Ack()
		order = append(order, ev.Source)
		c.Raise(Timer)
		// The nested raise is deferred to the active drainer.
		assert.True(t, c.Pending(Timer))
	})
	c.Register(RotateRight, func(ev Event) {
		ev.Ack()
		order = append(order, ev.Source)
		c.Raise(Timer)
	})

	// Both buttons together: left first, its forced timer tick outranks the
	// right button, then the right button forces another tick.
	c.Raise(RotateLeft, RotateRight)
	assert.Equal(t, []Source{RotateLeft, Timer, RotateRight, Timer}, order)
}

func TestUnacknowledgedIsRedispatched(t *testing.T) {
	var calls int

	c := NewController(Table{})
	c.Register(Timer, func(ev Event) {
		calls++
		if calls == 3 {
			ev.Ack()
		}
	})

	c.Raise(Timer)
	assert.Equal(t, 3, calls)
	assert.False(t, c.Pending(Timer))
}

func TestUnregisteredSourceDropped(t *testing.T) {
	c := NewController(Table{})
	c.Raise(RotateLeft)
	assert.False(t, c.Pending(RotateLeft))
}

func TestHoldThenService(t *testing.T) {
	var calls int

	c := NewController(Table{})
	c.Register(Tick, func(ev Event) {
		ev.Ack()
		calls++
	})

	c.Hold(Tick)
	assert.True(t, c.Pending(Tick))
	assert.Zero(t, calls)

	c.Service()
	assert.Equal(t, 1, calls)
	assert.False(t, c.Pending(Tick))
}

func TestCancelLowerPriority(t *testing.T) {
	var order []Source

	c := NewController(Table{})
	c.Register(RotateLeft, func(ev Event) {
		ev.Ack()
		order = append(order, ev.Source)
		if ev.Pending(RotateRight) {
			ev.Cancel(RotateRight)
		}
	})
	c.Register(RotateRight, func(ev Event) {
		ev.Ack()
		order = append(order, ev.Source)
	})

	c.Raise(RotateLeft, RotateRight)
	assert.Equal(t, []Source{RotateLeft}, order)
	assert.False(t, c.Pending(RotateRight))

	c.Raise(RotateRight)
	assert.Equal(t, []Source{RotateLeft, RotateRight}, order)
}

func TestHandlersNeverOverlap(t *testing.T) {
	var active, overlaps, handled atomic.Int32
	h := func(ev Event) {
		ev.Ack()
		if active.Add(1) > 1 {
			overlaps.Add(1)
		}
		handled.Add(1)
		active.Add(-1)
	}

	c := NewController(Table{Tick: h, Timer: h, RotateLeft: h, RotateRight: h})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		src := Source(i % int(NumSources))
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 500; j++ {
				c.Raise(src)
			}
		}()
	}
	wg.Wait()
	c.Service()

	assert.Zero(t, overlaps.Load())
	assert.NotZero(t, handled.Load())
	assert.Equal(t, uint32(0), c.pending.Load())
}

func TestSourceString(t *testing.T) {
	assert.Equal(t, "rotate-left", RotateLeft.String())
	assert.Equal(t, "Source(9)", Source(9).String())
}
