package board

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledring/irq"
	"libdb.so/ledring/ring"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// GPIOConfig names the pins of a GPIO board.
type GPIOConfig struct {
	// LEDs lists the output pins in ring order, one per position.
	LEDs []string `toml:"leds"`
	// Left is the input pin of the rotate-left button.
	Left string `toml:"left"`
	// Right is the input pin of the rotate-right button.
	Right string `toml:"right"`
}

// Validate validates the configuration.
func (c GPIOConfig) Validate() error {
	if len(c.LEDs) != ring.NumPositions {
		return errors.Errorf("need %d LED pins, got %d", ring.NumPositions, len(c.LEDs))
	}
	if c.Left == "" || c.Right == "" {
		return errors.New("both button pins must be set")
	}

	seen := make(map[string]bool, len(c.LEDs)+2)
	for _, name := range append(append([]string(nil), c.LEDs...), c.Left, c.Right) {
		if name == "" {
			return errors.New("empty pin name")
		}
		if seen[name] {
			return errors.Errorf("pin %q used more than once", name)
		}
		seen[name] = true
	}

	return nil
}

// GPIO is a board whose LEDs and buttons are wired to host GPIO pins, driven
// through periph.io.
type GPIO struct {
	cfg    GPIOConfig
	logger *slog.Logger

	leds  []gpio.PinIO
	left  gpio.PinIO
	right gpio.PinIO
	ctrl  *irq.Controller
}

var _ Board = (*GPIO)(nil)

// NewGPIO creates a GPIO board. No pin is touched until Outputs is called.
func NewGPIO(cfg GPIOConfig, logger *slog.Logger) (*GPIO, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid GPIO configuration")
	}
	return &GPIO{cfg: cfg, logger: logger}, nil
}

// Outputs implements Board.
func (b *GPIO) Outputs() (ring.Table, error) {
	var table ring.Table

	if _, err := host.Init(); err != nil {
		return table, errors.Wrap(err, "failed to initialize host drivers")
	}

	b.leds = make([]gpio.PinIO, 0, len(b.cfg.LEDs))
	for i, name := range b.cfg.LEDs {
		pin, err := lookupPin(name)
		if err != nil {
			return table, err
		}
		if err := pin.Out(gpio.Low); err != nil {
			return table, errors.Wrapf(err, "failed to configure LED %d on %s", i, name)
		}

		b.leds = append(b.leds, pin)
		table[i] = pinLine{pin: pin, logger: b.logger}
	}

	b.logger.Debug("configured LED outputs", "count", len(b.leds))
	return table, nil
}

// Inputs implements Board.
func (b *GPIO) Inputs(ctrl *irq.Controller) error {
	var err error

	b.left, err = configureButton(b.cfg.Left)
	if err != nil {
		return err
	}
	b.right, err = configureButton(b.cfg.Right)
	if err != nil {
		return err
	}

	b.ctrl = ctrl
	b.logger.Debug(
		"configured buttons",
		"left", b.cfg.Left,
		"right", b.cfg.Right)
	return nil
}

// Run implements Board.
func (b *GPIO) Run(ctx context.Context) error {
	if b.ctrl == nil {
		return errors.New("inputs not configured")
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return watchEdges(ctx, b.left, b.ctrl, irq.RotateLeft) })
	errg.Go(func() error { return watchEdges(ctx, b.right, b.ctrl, irq.RotateRight) })
	return errg.Wait()
}

// Close switches every LED off and disarms the buttons.
func (b *GPIO) Close() error {
	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	for _, pin := range b.leds {
		keep(pin.Out(gpio.Low))
	}
	for _, pin := range []gpio.PinIO{b.left, b.right} {
		if pin != nil {
			keep(pin.In(gpio.PullUp, gpio.NoEdge))
		}
	}

	return errors.Wrap(firstErr, "failed to release pins")
}

func lookupPin(name string) (gpio.PinIO, error) {
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, errors.Errorf("no such pin %q", name)
	}
	return pin, nil
}

// configureButton sets up an active-low push-button: pulled up, interrupting
// on the falling edge.
func configureButton(name string) (gpio.PinIO, error) {
	pin, err := lookupPin(name)
	if err != nil {
		return nil, err
	}
	if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, errors.Wrapf(err, "failed to configure button on %s", name)
	}
	return pin, nil
}
