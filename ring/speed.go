package ring

const (
	// SystemClock is the frequency of the clock feeding the step timer's
	// prescaler, in Hz.
	SystemClock = 4_000_000
	// CounterClock is the frequency at which the step timer counts after
	// prescaling, in Hz.
	CounterClock = 1000
)

// StepRates are the supported speeds in LED steps per second. Each rollover
// moves to the next rate, wrapping back to the first after the last.
var StepRates = [...]uint32{2, 4, 8, 16}

// NumSpeeds is the number of speed levels.
const NumSpeeds = len(StepRates)

// Timer is the periodic step timer.
type Timer interface {
	// SetReload sets the value at which the counter wraps and generates an
	// update event. It also resets the running count to zero, so the next
	// event comes a full period later.
	SetReload(reload uint32)
	// Force generates an update event now without waiting for the period to
	// elapse.
	Force()
}

// Prescaler returns the prescaler value that divides SystemClock down to
// CounterClock.
func Prescaler() uint32 {
	return SystemClock/CounterClock - 1
}

// Reload returns the reload value for a step rate in steps per second.
func Reload(rate uint32) uint32 {
	return CounterClock/rate - 1
}

// StepRate returns the step rate of the given speed level. Levels outside the
// table wrap around.
func StepRate(level int) uint32 {
	return StepRates[wrapSpeed(level)]
}

// NextSpeed moves to the next speed level and returns it.
//
// NextSpeed is the only writer of the speed level. It must only be called
// from the main loop.
func (s *State) NextSpeed() int {
	level := wrapSpeed(s.SpeedLevel() + 1)
	s.speed.Store(uint32(level))
	return level
}

// ApplySpeed programs t with the reload value of the current speed level.
func (s *State) ApplySpeed(t Timer) {
	t.SetReload(Reload(StepRate(s.SpeedLevel())))
}

func wrapSpeed(level int) int {
	level %= NumSpeeds
	if level < 0 {
		level += NumSpeeds
	}
	return level
}
