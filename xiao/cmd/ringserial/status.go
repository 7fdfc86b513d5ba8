package main

import (
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// The XIAO RP2040 has its own WS2812 behind a power switch. It is lit while
// the device waits for a packet.
var (
	statusPower = machine.GPIO11
	statusData  = machine.GPIO12
	status      ws2812.Device
	statusReady bool
)

func initStatus() {
	if statusReady {
		return
	}
	// https://wiki.seeedstudio.com/XIAO-RP2040-with-Arduino/
	statusPower.Configure(machine.PinConfig{Mode: machine.PinOutput})
	statusPower.Low()
	statusData.Configure(machine.PinConfig{Mode: machine.PinOutput})
	status = ws2812.New(statusData)
	statusReady = true
}

func statusOn() {
	initStatus()
	statusPower.High()
	status.WriteByte(0)
	status.WriteByte(16)
	status.WriteByte(0)
}

func statusOff() {
	initStatus()
	statusPower.Low()
}
