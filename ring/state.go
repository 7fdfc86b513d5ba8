// Package ring implements the LED ring chaser: a single lit LED that travels
// around a ring of NumPositions LEDs, reverses on button presses and steps
// its speed on every full revolution.
//
// The package has no platform dependencies. Handlers are plain functions
// registered on an irq.Controller, and outputs and timers are small
// interfaces, so the same code runs under TinyGo on a microcontroller and in
// ordinary Go tests.
package ring

import (
	"fmt"
	"sync/atomic"
	"time"
)

// NumPositions is the number of LEDs in the ring.
const NumPositions = 16

// DebounceDelay is the settle time of the push-buttons. It is not applied by
// any handler: edges are acted upon immediately.
const DebounceDelay = 20 * time.Millisecond

// Direction is the direction of travel.
type Direction uint32

const (
	// Left moves the lit LED towards higher positions.
	Left Direction = iota
	// Right moves the lit LED towards lower positions.
	Right
)

// String returns a string representation of the direction.
func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return fmt.Sprintf("Direction(%d)", d)
	}
}

// State is the state shared between the handlers and the main loop. Each
// field is a single atomic word with exactly one writer:
//
//   - position is written by the step timer handler,
//   - direction is written by the button handlers,
//   - speed is written by the main loop,
//   - rollover is set by the step timer handler and cleared by the main loop,
//   - millis is written by the tick handler.
type State struct {
	position  atomic.Int32
	direction atomic.Uint32
	speed     atomic.Uint32
	rollover  atomic.Bool
	millis    atomic.Uint32
}

// NewState creates the initial state: position 0 moving left at the slowest
// speed.
func NewState() *State {
	return &State{}
}

// Position returns the currently lit position.
func (s *State) Position() int {
	return int(s.position.Load())
}

// Direction returns the current direction of travel.
func (s *State) Direction() Direction {
	return Direction(s.direction.Load())
}

// SpeedLevel returns the index into StepRates of the current speed.
func (s *State) SpeedLevel() int {
	return int(s.speed.Load())
}

// RolloverPending reports whether a rollover is waiting to be consumed.
func (s *State) RolloverPending() bool {
	return s.rollover.Load()
}

// TakeRollover consumes the rollover mailbox. It reports whether a rollover
// was pending. Rollovers that happened while one was already pending are not
// counted.
func (s *State) TakeRollover() bool {
	return s.rollover.Swap(false)
}

// Snapshot is a point-in-time copy of the state.
type Snapshot struct {
	Position   int
	Direction  Direction
	SpeedLevel int
	Rollover   bool
	Millis     uint32
}

// Snapshot copies the state. Fields are loaded one at a time, so a snapshot
// taken while handlers run may mix values from before and after a handler.
func (s *State) Snapshot() Snapshot {
	return Snapshot{
		Position:   s.Position(),
		Direction:  s.Direction(),
		SpeedLevel: s.SpeedLevel(),
		Rollover:   s.RolloverPending(),
		Millis:     s.Millis(),
	}
}
