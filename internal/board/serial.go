package board

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledring/irq"
	"libdb.so/ledring/ledserial"
	"libdb.so/ledring/ring"
)

// SerialConfig is the configuration of a serial ring controller.
type SerialConfig struct {
	// Device is the path to the controller's serial device.
	// This is usually /dev/ttyUSB0 or /dev/ttyACM0.
	Device string `toml:"device"`
	// Baud is the baud rate for the serial connection.
	Baud int `toml:"baud"`
}

// Validate validates the configuration.
func (c SerialConfig) Validate() error {
	if c.Device == "" {
		return errors.New("no serial device configured")
	}
	if c.Baud <= 0 {
		return errors.New("baud rate must be positive")
	}
	return nil
}

// Serial is a board whose LEDs and buttons live on a ring controller at the
// other end of a serial port. Line levels are buffered into a frame that is
// sent on Flush; button edges arrive as packets.
type Serial struct {
	cfg    SerialConfig
	logger *slog.Logger
	open   func() (io.ReadWriteCloser, error)

	port  io.ReadWriteCloser
	ctrl  *irq.Controller
	frame atomic.Uint32

	writeMu sync.Mutex
	sent    ledserial.Frame
	synced  bool
}

var (
	_ Board   = (*Serial)(nil)
	_ Flusher = (*Serial)(nil)
)

// NewSerial creates a serial board. The port is opened by Outputs.
func NewSerial(cfg SerialConfig, logger *slog.Logger) (*Serial, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid serial configuration")
	}

	return &Serial{
		cfg:    cfg,
		logger: logger,
		open: func() (io.ReadWriteCloser, error) {
			return serial.Open(cfg.Device, &serial.Mode{BaudRate: cfg.Baud})
		},
	}, nil
}

// frameLine is one bit of the serial board's frame.
type frameLine struct {
	board *Serial
	index int
}

func (l frameLine) Set(on bool) {
	for {
		old := l.board.frame.Load()
		f := ledserial.Frame(old)
		f.Set(l.index, on)
		if l.board.frame.CompareAndSwap(old, uint32(f)) {
			return
		}
	}
}

// Outputs opens the port and initializes the controller.
func (b *Serial) Outputs() (ring.Table, error) {
	var table ring.Table

	port, err := b.open()
	if err != nil {
		return table, errors.Wrap(err, "failed to open serial port")
	}
	b.port = port

	if err := b.write(ledserial.InitializePacket{NumLEDs: ring.NumPositions}); err != nil {
		return table, err
	}

	for i := range table {
		table[i] = frameLine{board: b, index: i}
	}
	return table, nil
}

// Inputs implements Board.
func (b *Serial) Inputs(ctrl *irq.Controller) error {
	if sp, ok := b.port.(serial.Port); ok {
		if err := sp.SetReadTimeout(serial.NoTimeout); err != nil {
			return errors.Wrap(err, "failed to reset read timeout")
		}
	}
	b.ctrl = ctrl
	return nil
}

// Run reads packets from the controller until ctx is canceled.
func (b *Serial) Run(ctx context.Context) error {
	if b.ctrl == nil {
		return errors.New("inputs not configured")
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		b.logger.Debug("closing serial port")
		if err := b.port.Close(); err != nil {
			return errors.Wrap(err, "failed to close serial port")
		}
		return ctx.Err()
	})
	errg.Go(func() error {
		return b.readPackets(ctx)
	})

	return errg.Wait()
}

func (b *Serial) readPackets(ctx context.Context) error {
	for ctx.Err() == nil {
		p, err := ledserial.ReadOutgoingPacket(b.port)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// A short read indicates a timeout. This is expected.
			if errors.Is(err, io.EOF) {
				continue
			}
			return errors.Wrap(err, "failed to read packet")
		}

		if err := b.handlePacket(p); err != nil {
			return err
		}
	}

	return ctx.Err()
}

func (b *Serial) handlePacket(p ledserial.OutgoingPacket) error {
	switch p := p.(type) {
	case ledserial.ButtonPacket:
		switch p.Button {
		case ledserial.ButtonLeft:
			b.ctrl.Raise(irq.RotateLeft)
		case ledserial.ButtonRight:
			b.ctrl.Raise(irq.RotateRight)
		default:
			b.logger.Warn("controller reported unknown button", "button", p.Button)
		}

	case ledserial.AckPacket:
		b.logger.Debug(
			"received ack packet from controller",
			"acked_for", p.IncomingPacketType)

	case ledserial.ErrorPacket:
		b.logger.Warn(
			"received error packet from controller",
			"message", p.Message)

	case ledserial.LogPacket:
		b.logger.Info(
			"received log packet from controller",
			"message", p.Message)

	default:
		return errors.Errorf("received unknown packet from controller: %s", p.Type())
	}

	return nil
}

// Frame returns the buffered line levels.
func (b *Serial) Frame() ledserial.Frame {
	return ledserial.Frame(b.frame.Load())
}

// Flush sends the buffered frame if it changed since the last one sent.
func (b *Serial) Flush() error {
	f := b.Frame()

	b.writeMu.Lock()
	unchanged := b.synced && f == b.sent
	b.writeMu.Unlock()

	if unchanged {
		return nil
	}

	if err := b.write(ledserial.FramePacket{Lit: f}); err != nil {
		return err
	}

	b.writeMu.Lock()
	b.sent = f
	b.synced = true
	b.writeMu.Unlock()

	return nil
}

func (b *Serial) write(p ledserial.IncomingPacket) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()

	if err := ledserial.WriteIncomingPacket(b.port, p); err != nil {
		return errors.Wrapf(err, "failed to write %s packet", p.Type())
	}
	return nil
}

// Close switches the ring off and closes the port.
func (b *Serial) Close() error {
	if b.port == nil {
		return nil
	}

	// The port may already be closed by Run.
	if err := b.write(ledserial.ClearPacket{}); err != nil {
		b.logger.Debug("failed to clear ring", "error", err)
	}
	b.port.Close()
	return nil
}
