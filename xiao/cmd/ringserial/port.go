package main

import (
	"machine"
	"runtime"
	"time"
)

// port adapts a machine.Serialer to io.ReadWriter. Reads block until at
// least one byte is available.
type port struct {
	serial machine.Serialer
}

func newPort(serial machine.Serialer) *port {
	return &port{serial: serial}
}

func (p *port) Read(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	for p.serial.Buffered() == 0 {
		// Sleep to reduce CPU usage.
		time.Sleep(time.Millisecond)
	}

	var n int
	for n < len(b) && p.serial.Buffered() > 0 {
		c, err := p.serial.ReadByte()
		if err != nil {
			return n, err
		}
		b[n] = c
		n++
	}
	return n, nil
}

func (p *port) Write(b []byte) (int, error) {
	for i, c := range b {
		if err := p.serial.WriteByte(c); err != nil {
			return i, err
		}
	}
	runtime.Gosched()
	return len(b), nil
}
