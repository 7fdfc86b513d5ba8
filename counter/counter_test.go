package counter

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"libdb.so/ledring/irq"
	"periph.io/x/conn/v3/physic"
)

type counts [irq.NumSources]int

func newCountingController(c *counts) *irq.Controller {
	ctrl := irq.NewController(irq.Table{})
	for src := irq.Source(0); src < irq.NumSources; src++ {
		src := src
		ctrl.Register(src, func(ev irq.Event) {
			ev.Ack()
			c[src]++
		})
	}
	return ctrl
}

func TestTimerFiresEveryReloadPlusOne(t *testing.T) {
	var c counts
	timer := NewTimer(newCountingController(&c), irq.Timer)
	timer.SetReload(4)

	timer.Step()
	assert.Zero(t, c[irq.Timer], "disabled timer must not count")

	timer.Enable()
	for i := 0; i < 15; i++ {
		timer.Step()
	}
	assert.Equal(t, 3, c[irq.Timer])
}

func TestTimerSetReloadRestartsCount(t *testing.T) {
	var c counts
	timer := NewTimer(newCountingController(&c), irq.Timer)
	timer.SetReload(4)
	timer.Enable()

	for i := 0; i < 4; i++ {
		timer.Step()
	}
	timer.SetReload(2)

	timer.Step()
	timer.Step()
	assert.Zero(t, c[irq.Timer], "partial period must not carry over")

	timer.Step()
	assert.Equal(t, 1, c[irq.Timer])
}

func TestTimerSetReloadDuringStep(t *testing.T) {
	for i := 0; i < 1000; i++ {
		var fired atomic.Int32
		ctrl := irq.NewController(irq.Table{})
		ctrl.Register(irq.Timer, func(ev irq.Event) {
			ev.Ack()
			fired.Add(1)
		})

		timer := NewTimer(ctrl, irq.Timer)
		timer.SetReload(1000)
		timer.Enable()
		for j := 0; j < 999; j++ {
			timer.Step()
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			timer.Step()
		}()
		timer.SetReload(5)
		<-done

		if !assert.Zero(t, fired.Load(), "speed change must not fire a stale step") {
			return
		}
		assert.LessOrEqual(t, timer.Count(), uint32(1))
		assert.Equal(t, uint32(5), timer.Reload())
	}
}

func TestTimerForce(t *testing.T) {
	var c counts
	timer := NewTimer(newCountingController(&c), irq.Timer)
	timer.SetReload(2)
	timer.Enable()

	timer.Step()
	timer.Step()
	timer.Force()
	assert.Equal(t, 1, c[irq.Timer])

	timer.Step()
	timer.Step()
	assert.Equal(t, 1, c[irq.Timer], "force restarts the period")
	timer.Step()
	assert.Equal(t, 2, c[irq.Timer])
}

func TestTimerPeriod(t *testing.T) {
	timer := NewTimer(irq.NewController(irq.Table{}), irq.Timer)
	timer.SetReload(499)
	assert.Equal(t, 500*time.Millisecond, timer.Period(physic.KiloHertz))
}

func TestClockPulse(t *testing.T) {
	var c counts
	ctrl := newCountingController(&c)

	timer := NewTimer(ctrl, irq.Timer)
	timer.SetReload(1)
	timer.Enable()

	clock := NewClock(ctrl, irq.Tick, 0)
	clock.Attach(timer)
	assert.Equal(t, DefaultFrequency, clock.Frequency())

	clock.Pulse()
	assert.Zero(t, c[irq.Tick], "clock not started")

	clock.Start()
	for i := 0; i < 4; i++ {
		clock.Pulse()
	}
	assert.Equal(t, 4, c[irq.Tick])
	assert.Equal(t, 2, c[irq.Timer])
}

func TestClockRunStopsOnCancel(t *testing.T) {
	ctrl := irq.NewController(irq.Table{})
	clock := NewClock(ctrl, irq.Tick, physic.KiloHertz)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, clock.Run(ctx), context.Canceled)
}
