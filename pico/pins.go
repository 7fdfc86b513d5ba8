// Package pico holds the wiring of the ledring board built around a
// Raspberry Pi Pico.
package pico

import "machine"

// LEDs lists the LED pins in ring order.
var LEDs = [16]machine.Pin{
	machine.GP2, machine.GP3, machine.GP4, machine.GP5,
	machine.GP6, machine.GP7, machine.GP8, machine.GP9,
	machine.GP10, machine.GP11, machine.GP12, machine.GP13,
	machine.GP14, machine.GP15, machine.GP16, machine.GP17,
}

var (
	// LeftButton is the rotate-left push-button, active low.
	LeftButton = machine.GP20
	// RightButton is the rotate-right push-button, active low.
	RightButton = machine.GP21
)
