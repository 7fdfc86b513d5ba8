// Command ringserial turns a Seeed XIAO RP2040 into a ring controller for the
// ledring serial driver: it draws frames onto a 16-pixel WS2812 ring and
// reports button presses back to the host.
package main

import (
	"image/color"
	"machine"
)

var (
	ringPin     = machine.D10
	leftButton  = machine.D1
	rightButton = machine.D2
)

// litColor is the color of the lit LED.
var litColor = color.RGBA{255, 140, 40, 255}

func main() {
	d := NewDevice(machine.Serial, ringPin, litColor)
	d.WatchButtons(leftButton, rightButton)
	d.Run()
}
