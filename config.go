package ledring

import (
	"encoding"
	"io"
	"time"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
	"libdb.so/ledring/internal/board"
)

// Driver selects the board the ring runs on.
type Driver string

const (
	// SimDriver simulates the ring in the terminal. Buttons are pressed by
	// typing "l" or "r" followed by enter.
	SimDriver Driver = "sim"
	// GPIODriver drives LEDs and buttons wired to host GPIO pins.
	GPIODriver Driver = "gpio"
	// SerialDriver drives a ring controller over a serial port.
	SerialDriver Driver = "serial"
)

// Config is the configuration for the ledring daemon.
type Config struct {
	// Driver is the board to run on. Defaults to sim.
	Driver Driver `toml:"driver"`
	// Poll is the interval between two main loop iterations.
	// Defaults to 1ms.
	Poll TOMLDuration `toml:"poll"`
	// GPIO is the configuration for the gpio driver.
	GPIO board.GPIOConfig `toml:"gpio"`
	// Serial is the configuration for the serial driver.
	Serial board.SerialConfig `toml:"serial"`
}

const (
	defaultPoll = time.Millisecond
	defaultBaud = 115200
)

// DefaultConfig returns the configuration used for unset fields.
func DefaultConfig() *Config {
	return &Config{
		Driver: SimDriver,
		Poll:   TOMLDuration(defaultPoll),
		Serial: board.SerialConfig{Baud: defaultBaud},
	}
}

func (c *Config) setDefaults() {
	def := DefaultConfig()
	if c.Driver == "" {
		c.Driver = def.Driver
	}
	if c.Poll == 0 {
		c.Poll = def.Poll
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Poll <= 0 {
		return errors.New("poll interval must be positive")
	}

	switch c.Driver {
	case SimDriver:
		return nil
	case GPIODriver:
		return errors.Wrap(c.GPIO.Validate(), "gpio")
	case SerialDriver:
		return errors.Wrap(c.Serial.Validate(), "serial")
	default:
		return errors.Errorf("unknown driver %q", c.Driver)
	}
}

// TOMLDuration is a duration that can be parsed from TOML.
type TOMLDuration time.Duration

var (
	_ encoding.TextUnmarshaler = (*TOMLDuration)(nil)
	_ encoding.TextMarshaler   = (*TOMLDuration)(nil)
)

func (d *TOMLDuration) UnmarshalText(text []byte) error {
	duration, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = TOMLDuration(duration)
	return nil
}

func (d TOMLDuration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// ParseConfig parses a configuration from a reader. Unset fields take their
// values from DefaultConfig.
func ParseConfig(r io.Reader) (*Config, error) {
	var config Config
	if err := toml.NewDecoder(r).Decode(&config); err != nil {
		return nil, err
	}
	config.setDefaults()
	return &config, nil
}
