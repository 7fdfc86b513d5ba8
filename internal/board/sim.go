package board

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledring/irq"
	"libdb.so/ledring/ledserial"
	"libdb.so/ledring/ring"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

// Sim is a simulated board. Its pins are periph.io test pins. Buttons are
// pressed by reading "l" or "r" lines from an input stream, and the ring is
// drawn to an output stream whenever it changes.
type Sim struct {
	in     io.Reader
	out    io.Writer
	logger *slog.Logger

	leds  [ring.NumPositions]*gpiotest.Pin
	left  *gpiotest.Pin
	right *gpiotest.Pin
	ctrl  *irq.Controller

	drawn ledserial.Frame
	ever  bool
}

var (
	_ Board   = (*Sim)(nil)
	_ Flusher = (*Sim)(nil)
)

// NewSim creates a simulated board reading button presses from in and
// drawing to out. Either may be nil.
func NewSim(in io.Reader, out io.Writer, logger *slog.Logger) *Sim {
	if out == nil {
		out = io.Discard
	}
	return &Sim{in: in, out: out, logger: logger}
}

// Outputs implements Board.
func (b *Sim) Outputs() (ring.Table, error) {
	var table ring.Table
	for i := range b.leds {
		b.leds[i] = &gpiotest.Pin{N: fmt.Sprintf("LED%d", i), Num: i}
		if err := b.leds[i].Out(gpio.Low); err != nil {
			return table, errors.Wrapf(err, "failed to configure LED %d", i)
		}
		table[i] = pinLine{pin: b.leds[i], logger: b.logger}
	}
	return table, nil
}

// Inputs implements Board.
func (b *Sim) Inputs(ctrl *irq.Controller) error {
	b.left = &gpiotest.Pin{N: "BTN_LEFT", EdgesChan: make(chan gpio.Level)}
	b.right = &gpiotest.Pin{N: "BTN_RIGHT", EdgesChan: make(chan gpio.Level)}

	for _, pin := range []*gpiotest.Pin{b.left, b.right} {
		if err := pin.In(gpio.PullUp, gpio.FallingEdge); err != nil {
			return errors.Wrapf(err, "failed to configure %s", pin.N)
		}
	}

	b.ctrl = ctrl
	return nil
}

// Run implements Board.
func (b *Sim) Run(ctx context.Context) error {
	if b.ctrl == nil {
		return errors.New("inputs not configured")
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error { return watchEdges(ctx, b.left, b.ctrl, irq.RotateLeft) })
	errg.Go(func() error { return watchEdges(ctx, b.right, b.ctrl, irq.RotateRight) })

	if b.in != nil {
		// The scanner cannot be interrupted, so it runs outside the group
		// and only hands commands over until ctx is done.
		cmds := make(chan string)
		go b.scan(ctx.Done(), cmds)

		errg.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case cmd, ok := <-cmds:
					if !ok {
						b.logger.Debug("simulator input closed")
						<-ctx.Done()
						return ctx.Err()
					}
					b.command(ctx, cmd)
				}
			}
		})
	}

	return errg.Wait()
}

func (b *Sim) scan(done <-chan struct{}, dst chan<- string) {
	defer close(dst)

	scanner := bufio.NewScanner(b.in)
	for scanner.Scan() {
		select {
		case dst <- strings.TrimSpace(scanner.Text()):
		case <-done:
			return
		}
	}
}

func (b *Sim) command(ctx context.Context, cmd string) {
	switch strings.ToLower(cmd) {
	case "":
	case "l", "left":
		b.Press(ctx, ledserial.ButtonLeft)
	case "r", "right":
		b.Press(ctx, ledserial.ButtonRight)
	default:
		b.logger.Warn("unknown simulator command", "command", cmd)
	}
}

// Press produces a falling edge on a button. It blocks until the edge is
// picked up or ctx is canceled.
func (b *Sim) Press(ctx context.Context, button ledserial.Button) {
	pin := b.left
	if button == ledserial.ButtonRight {
		pin = b.right
	}

	select {
	case pin.EdgesChan <- gpio.Low:
	case <-ctx.Done():
	}
}

// Frame returns the current level of every LED.
func (b *Sim) Frame() ledserial.Frame {
	var f ledserial.Frame
	for i, pin := range b.leds {
		f.Set(i, pin.Read() == gpio.High)
	}
	return f
}

// Flush draws the ring if it changed since the last draw.
func (b *Sim) Flush() error {
	f := b.Frame()
	if b.ever && f == b.drawn {
		return nil
	}

	b.drawn = f
	b.ever = true

	if _, err := io.WriteString(b.out, drawFrame(f)+"\n"); err != nil {
		return errors.Wrap(err, "failed to draw ring")
	}
	return nil
}

// Close implements Board.
func (b *Sim) Close() error {
	return nil
}

func drawFrame(f ledserial.Frame) string {
	var s strings.Builder
	for i := 0; i < ring.NumPositions; i++ {
		if f.Lit(i) {
			s.WriteRune('●')
		} else {
			s.WriteRune('○')
		}
	}
	return s.String()
}
