package main

import (
	"fmt"
	"image/color"
	"machine"
	"runtime/interrupt"
	"sync"
	"sync/atomic"
	"time"

	"libdb.so/ledring/ledserial"
	"tinygo.org/x/drivers/ws2812"
)

// buttonPollInterval is how often latched button edges are reported.
const buttonPollInterval = 5 * time.Millisecond

// Device stores the current state of the ring controller.
type Device struct {
	port  *port
	ring  ws2812.Device
	color color.RGBA

	writeMu sync.Mutex
	pixels  []color.RGBA

	// pressed latches button edges from interrupt context, one bit per
	// ledserial.Button.
	pressed atomic.Uint32
}

// NewDevice creates a new device.
func NewDevice(serial machine.Serialer, ringPin machine.Pin, lit color.RGBA) *Device {
	ringPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &Device{
		port:  newPort(serial),
		ring:  ws2812.New(ringPin),
		color: lit,
	}
}

// WatchButtons arms the two buttons and starts reporting their presses.
func (d *Device) WatchButtons(left, right machine.Pin) {
	d.armButton(left, ledserial.ButtonLeft)
	d.armButton(right, ledserial.ButtonRight)
	go d.reportButtons()
}

func (d *Device) armButton(pin machine.Pin, button ledserial.Button) {
	pin.Configure(machine.PinConfig{Mode: machine.PinInputPullup})

	err := pin.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		for {
			old := d.pressed.Load()
			if d.pressed.CompareAndSwap(old, old|1<<button) {
				return
			}
		}
	})
	if err != nil {
		d.logError(fmt.Errorf("failed to arm %s button: %w", button, err))
	}
}

func (d *Device) reportButtons() {
	for {
		pressed := d.pressed.Swap(0)
		for _, button := range []ledserial.Button{ledserial.ButtonLeft, ledserial.ButtonRight} {
			if pressed&(1<<button) != 0 {
				d.sendPacket(ledserial.ButtonPacket{Button: button})
			}
		}
		time.Sleep(buttonPollInterval)
	}
}

// Run runs the device loop forever.
func (d *Device) Run() {
	for {
		statusOn()
		p, err := ledserial.ReadIncomingPacket(d.port)
		statusOff()

		if err != nil {
			d.logError(err)
			continue
		}

		if err := d.handlePacket(p); err != nil {
			d.logError(err)
			continue
		}

		d.sendPacket(ledserial.AckPacket{IncomingPacketType: p.Type()})
	}
}

func (d *Device) handlePacket(p ledserial.IncomingPacket) error {
	switch p := p.(type) {
	case ledserial.InitializePacket:
		if p.NumLEDs < 1 || p.NumLEDs > ledserial.FrameSize {
			return fmt.Errorf("invalid number of LEDs: %d", p.NumLEDs)
		}
		d.pixels = make([]color.RGBA, p.NumLEDs)
		d.draw(0)
		d.log(fmt.Sprintf("ring of %d LEDs ready", p.NumLEDs))

	case ledserial.ClearPacket:
		d.draw(0)

	case ledserial.FramePacket:
		if d.pixels == nil {
			return fmt.Errorf("frame before initialize")
		}
		d.draw(p.Lit)

	default:
		return fmt.Errorf("unknown packet type: %T", p)
	}

	return nil
}

func (d *Device) draw(f ledserial.Frame) {
	for i := range d.pixels {
		if f.Lit(i) {
			d.pixels[i] = d.color
		} else {
			d.pixels[i] = color.RGBA{}
		}
	}
	critical(func() { d.ring.WriteColors(d.pixels) })
}

func (d *Device) log(msg string) {
	d.sendPacket(ledserial.LogPacket{Message: msg})
}

func (d *Device) logError(err error) {
	d.sendPacket(ledserial.ErrorPacket{Message: err.Error()})
}

func (d *Device) sendPacket(p ledserial.OutgoingPacket) {
	d.writeMu.Lock()
	defer d.writeMu.Unlock()

	ledserial.WriteOutgoingPacket(d.port, p)
}

func critical(f func()) {
	state := interrupt.Disable()
	f()
	interrupt.Restore(state)
}
