package ring

import "libdb.so/ledring/irq"

// Ring ties the shared state to its handlers, the display and the step
// timer.
type Ring struct {
	state   *State
	display *Display
	timer   Timer
}

// New creates a ring that drives the given lines and step timer.
func New(table Table, timer Timer) *Ring {
	return &Ring{
		state:   NewState(),
		display: NewDisplay(table),
		timer:   timer,
	}
}

// State returns the shared state.
func (r *Ring) State() *State {
	return r.state
}

// Handlers returns the dispatch table for the ring's event sources.
func (r *Ring) Handlers() irq.Table {
	return irq.Table{
		irq.Tick:        r.HandleTick,
		irq.Timer:       r.HandleTimer,
		irq.RotateLeft:  r.HandleRotateLeft,
		irq.RotateRight: r.HandleRotateRight,
	}
}

// Install registers the ring's handlers on c.
func (r *Ring) Install(c *irq.Controller) {
	for src, h := range r.Handlers() {
		c.Register(irq.Source(src), h)
	}
}

// HandleTick counts one millisecond.
func (r *Ring) HandleTick(ev irq.Event) {
	ev.Ack()
	r.state.Tick()
}

// HandleTimer advances the lit position by one step.
func (r *Ring) HandleTimer(ev irq.Event) {
	ev.Ack()
	r.state.Advance()
}

// HandleRotateLeft turns the ring left and forces a step if the direction
// changed. A right edge pending at the same time is discarded, so left wins
// when both buttons are pressed together.
func (r *Ring) HandleRotateLeft(ev irq.Event) {
	ev.Ack()
	if ev.Pending(irq.RotateRight) {
		ev.Cancel(irq.RotateRight)
	}
	r.turn(Left)
}

// HandleRotateRight turns the ring right and forces a step if the direction
// changed.
func (r *Ring) HandleRotateRight(ev irq.Event) {
	ev.Ack()
	r.turn(Right)
}

func (r *Ring) turn(d Direction) {
	if r.state.Turn(d) {
		r.timer.Force()
	}
}

// Start programs the step timer with the current speed and lights the
// current position.
func (r *Ring) Start() {
	r.state.ApplySpeed(r.timer)
	r.display.Show(r.state.Position(), r.state.Direction())
}

// Poll runs one iteration of the main loop: it refreshes the display and,
// if a rollover is pending, moves to the next speed and reprograms the step
// timer. It returns the speed level in effect and whether it just changed.
func (r *Ring) Poll() (level int, changed bool) {
	r.display.Show(r.state.Position(), r.state.Direction())

	if r.state.TakeRollover() {
		level = r.state.NextSpeed()
		r.state.ApplySpeed(r.timer)
		return level, true
	}

	return r.state.SpeedLevel(), false
}
