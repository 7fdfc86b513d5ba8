package ring

// Advance moves the lit position one step in the current direction and
// reports whether the step wrapped around the ring. A wrap sets the rollover
// mailbox.
//
// Advance is the only writer of the position. It must only be called from the
// step timer handler.
func (s *State) Advance() bool {
	pos := s.position.Load()

	var wrapped bool
	switch s.Direction() {
	case Left:
		pos++
		if pos == NumPositions {
			pos = 0
			wrapped = true
		}
	case Right:
		pos--
		if pos < 0 {
			pos = NumPositions - 1
			wrapped = true
		}
	}

	s.position.Store(pos)
	if wrapped {
		s.rollover.Store(true)
	}

	return wrapped
}
