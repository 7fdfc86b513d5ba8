// Package board configures the peripherals the ring runs on: sixteen output
// lines and two falling-edge button inputs.
package board

import (
	"context"
	"log/slog"
	"time"

	"libdb.so/ledring/irq"
	"libdb.so/ledring/ring"
	"periph.io/x/conn/v3/gpio"
)

// Board is a set of peripherals for the ring. Methods are called in order:
// Outputs, Inputs, then Run. Close releases the peripherals.
type Board interface {
	// Outputs configures one output line per ring position, all off.
	Outputs() (ring.Table, error)
	// Inputs configures the two buttons. Falling edges raise
	// irq.RotateLeft and irq.RotateRight on ctrl once Run is called.
	Inputs(ctrl *irq.Controller) error
	// Run services the inputs until ctx is canceled.
	Run(ctx context.Context) error
	// Close releases the board.
	Close() error
}

// Flusher is implemented by boards that buffer line levels and need to push
// them out after the display is updated.
type Flusher interface {
	Flush() error
}

// edgePollTimeout bounds each wait for a button edge so that Run notices
// cancellation.
const edgePollTimeout = 100 * time.Millisecond

// pinLine drives a ring LED through a GPIO output pin.
type pinLine struct {
	pin    gpio.PinOut
	logger *slog.Logger
}

func (l pinLine) Set(on bool) {
	if err := l.pin.Out(gpio.Level(on)); err != nil {
		l.logger.Warn(
			"failed to write LED line",
			"pin", l.pin,
			"error", err)
	}
}

// watchEdges raises src on ctrl for every edge on pin until ctx is canceled.
func watchEdges(ctx context.Context, pin gpio.PinIn, ctrl *irq.Controller, src irq.Source) error {
	for ctx.Err() == nil {
		if pin.WaitForEdge(edgePollTimeout) {
			ctrl.Raise(src)
		}
	}
	return ctx.Err()
}
