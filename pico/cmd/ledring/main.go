// Command ledring runs the LED ring on a Raspberry Pi Pico.
package main

import (
	"context"
	"machine"
	"runtime"
	"runtime/interrupt"

	"libdb.so/ledring/counter"
	"libdb.so/ledring/irq"
	"libdb.so/ledring/pico"
	"libdb.so/ledring/ring"
)

func main() {
	ctrl := irq.NewController(irq.Table{})
	timer := counter.NewTimer(ctrl, irq.Timer)

	var table ring.Table
	for i, pin := range pico.LEDs {
		pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
		table[i] = pin
	}

	r := ring.New(table, timer)
	r.Install(ctrl)

	armButton(ctrl, pico.LeftButton, irq.RotateLeft)
	armButton(ctrl, pico.RightButton, irq.RotateRight)

	clock := counter.NewClock(ctrl, irq.Tick, counter.DefaultFrequency)

	r.Start()
	clock.Attach(timer)
	timer.Enable()
	clock.Start()

	go clock.Run(context.Background())

	machine.LED.Configure(machine.PinConfig{Mode: machine.PinOutput})

	for {
		var changed bool
		critical(func() { _, changed = r.Poll() })
		if changed {
			machine.LED.Set(!machine.LED.Get())
		}
		runtime.Gosched()
	}
}

func armButton(ctrl *irq.Controller, pin machine.Pin, src irq.Source) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	err := pin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		ctrl.Raise(src)
	})
	if err != nil {
		panic("ledring: cannot arm " + src.String() + " button: " + err.Error())
	}
}

func critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}
