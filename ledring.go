// Package ledring runs a ring of sixteen LEDs with a single lit LED chasing
// around it. Two buttons reverse its direction, and every full revolution
// steps its speed through 2, 4, 8 and 16 steps per second.
package ledring

import (
	"context"
	"log/slog"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
	"libdb.so/ledring/counter"
	"libdb.so/ledring/internal/board"
	"libdb.so/ledring/irq"
	"libdb.so/ledring/ring"
	"periph.io/x/conn/v3/physic"
)

// Daemon is the main ledring daemon.
type Daemon struct {
	cfg    *Config
	logger *slog.Logger
	board  board.Board

	state atomic.Pointer[ring.State]
	ready chan struct{}
}

// NewDaemon creates a new ledring daemon.
func NewDaemon(cfg *Config, logger *slog.Logger) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	return &Daemon{
		cfg:    cfg,
		logger: logger,
		ready:  make(chan struct{}),
	}, nil
}

// SetBoard overrides the board selected by the configuration. It must be
// called before Run.
func (d *Daemon) SetBoard(b board.Board) {
	d.board = b
}

// Ready returns a channel that is closed once the ring is running.
func (d *Daemon) Ready() <-chan struct{} {
	return d.ready
}

// State returns the ring state, or nil if the ring is not running yet.
func (d *Daemon) State() *ring.State {
	return d.state.Load()
}

func (d *Daemon) newBoard() (board.Board, error) {
	switch d.cfg.Driver {
	case SimDriver:
		return board.NewSim(os.Stdin, os.Stdout, d.logger), nil
	case GPIODriver:
		return board.NewGPIO(d.cfg.GPIO, d.logger)
	case SerialDriver:
		return board.NewSerial(d.cfg.Serial, d.logger)
	default:
		return nil, errors.Errorf("unknown driver %q", d.cfg.Driver)
	}
}

// Run starts the daemon. It blocks until the given context is canceled.
func (d *Daemon) Run(ctx context.Context) error {
	b := d.board
	if b == nil {
		var err error
		b, err = d.newBoard()
		if err != nil {
			return errors.Wrap(err, "failed to create board")
		}
	}
	defer func() {
		if err := b.Close(); err != nil {
			d.logger.Warn("failed to close board", "error", err)
		}
	}()

	ctrl := irq.NewController(irq.Table{})
	timer := counter.NewTimer(ctrl, irq.Timer)

	table, err := b.Outputs()
	if err != nil {
		return errors.Wrap(err, "failed to configure outputs")
	}

	r := ring.New(table, timer)
	r.Install(ctrl)

	if err := b.Inputs(ctrl); err != nil {
		return errors.Wrap(err, "failed to configure inputs")
	}

	clock := counter.NewClock(ctrl, irq.Tick, counter.DefaultFrequency)

	r.Start()
	clock.Attach(timer)
	timer.Enable()
	d.logger.Debug(
		"step timer started",
		"rate", stepRate(r.State().SpeedLevel()),
		"period", timer.Period(clock.Frequency()))

	clock.Start()

	d.state.Store(r.State())
	close(d.ready)

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		return b.Run(ctx)
	})
	errg.Go(func() error {
		return clock.Run(ctx)
	})
	errg.Go(func() error {
		return d.mainLoop(ctx, r, b, timer, clock.Frequency())
	})

	return errg.Wait()
}

func (d *Daemon) mainLoop(ctx context.Context, r *ring.Ring, b board.Board, timer *counter.Timer, freq physic.Frequency) error {
	flusher, _ := b.(board.Flusher)

	ticker := time.NewTicker(time.Duration(d.cfg.Poll))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-ticker.C:
			level, changed := r.Poll()
			if changed {
				d.logger.Debug(
					"speed changed",
					"level", level,
					"rate", stepRate(level),
					"period", timer.Period(freq))
			}

			if flusher != nil {
				if err := flusher.Flush(); err != nil {
					return errors.Wrap(err, "failed to flush board")
				}
			}
		}
	}
}

func stepRate(level int) physic.Frequency {
	return physic.Frequency(ring.StepRate(level)) * physic.Hertz
}
