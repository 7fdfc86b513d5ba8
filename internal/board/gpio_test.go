package board

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"libdb.so/ledring/irq"
	"libdb.so/ledring/ring"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/gpio/gpiotest"
)

type testPins struct {
	cfg   GPIOConfig
	leds  []*gpiotest.Pin
	left  *gpiotest.Pin
	right *gpiotest.Pin
}

// registerTestPins registers a full set of board pins under names unique to
// prefix. The registry is global, so every test uses its own prefix.
func registerTestPins(t *testing.T, prefix string) testPins {
	t.Helper()

	var p testPins
	for i := 0; i < ring.NumPositions; i++ {
		pin := &gpiotest.Pin{N: fmt.Sprintf("%s_LED%d", prefix, i), Num: -1}
		require.NoError(t, gpioreg.Register(pin))
		p.leds = append(p.leds, pin)
		p.cfg.LEDs = append(p.cfg.LEDs, pin.N)
	}

	p.left = &gpiotest.Pin{N: prefix + "_LEFT", Num: -1, EdgesChan: make(chan gpio.Level)}
	p.right = &gpiotest.Pin{N: prefix + "_RIGHT", Num: -1, EdgesChan: make(chan gpio.Level)}
	for _, pin := range []*gpiotest.Pin{p.left, p.right} {
		require.NoError(t, gpioreg.Register(pin))
	}
	p.cfg.Left = p.left.N
	p.cfg.Right = p.right.N

	return p
}

func TestGPIOBoard(t *testing.T) {
	pins := registerTestPins(t, "BOARD")
	require.NoError(t, pins.leds[3].Out(gpio.High))

	b, err := NewGPIO(pins.cfg, discardLogger())
	require.NoError(t, err)

	table, err := b.Outputs()
	require.NoError(t, err)
	for i, pin := range pins.leds {
		assert.Equal(t, gpio.Low, pin.Read(), "LED %d should start off", i)
	}

	table[2].Set(true)
	assert.Equal(t, gpio.High, pins.leds[2].Read())

	rec, ctrl := newSourceRecorder()
	require.NoError(t, b.Inputs(ctrl))
	assert.Equal(t, gpio.PullUp, pins.left.Pull())
	assert.Equal(t, gpio.PullUp, pins.right.Pull())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	pins.left.EdgesChan <- gpio.Low
	assert.Equal(t, irq.RotateLeft, rec.next(t))

	pins.right.EdgesChan <- gpio.Low
	assert.Equal(t, irq.RotateRight, rec.next(t))

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	require.NoError(t, b.Close())
	for i, pin := range pins.leds {
		assert.Equal(t, gpio.Low, pin.Read(), "LED %d should be off after close", i)
	}
	for _, pin := range []*gpiotest.Pin{pins.left, pins.right} {
		assert.Equal(t, gpio.PullUp, pin.Pull())
		assert.Equal(t, gpio.High, pin.Read(), "%s should idle high", pin.N)
	}
}

func TestGPIOBoardRunWithoutInputs(t *testing.T) {
	pins := registerTestPins(t, "NOINPUT")

	b, err := NewGPIO(pins.cfg, discardLogger())
	require.NoError(t, err)

	_, err = b.Outputs()
	require.NoError(t, err)

	assert.EqualError(t, b.Run(context.Background()), "inputs not configured")
}

func TestGPIOBoardUnknownPin(t *testing.T) {
	pins := registerTestPins(t, "UNKNOWN")

	cfg := pins.cfg
	cfg.LEDs = append([]string(nil), pins.cfg.LEDs...)
	cfg.LEDs[7] = "UNKNOWN_MISSING"

	b, err := NewGPIO(cfg, discardLogger())
	require.NoError(t, err)

	_, err = b.Outputs()
	assert.EqualError(t, err, `no such pin "UNKNOWN_MISSING"`)

	cfg = pins.cfg
	cfg.Right = "UNKNOWN_NOBUTTON"

	b, err = NewGPIO(cfg, discardLogger())
	require.NoError(t, err)

	_, err = b.Outputs()
	require.NoError(t, err)
	assert.EqualError(t, b.Inputs(irq.NewController(irq.Table{})), `no such pin "UNKNOWN_NOBUTTON"`)
}

func TestNewGPIOInvalidConfig(t *testing.T) {
	_, err := NewGPIO(GPIOConfig{}, discardLogger())
	assert.EqualError(t, err, "invalid GPIO configuration: need 16 LED pins, got 0")
}
