package ring

// Turn sets the direction of travel and reports whether it changed. Turning
// towards the current direction does nothing.
//
// Turn is the only writer of the direction. It must only be called from the
// button handlers.
func (s *State) Turn(d Direction) bool {
	return Direction(s.direction.Swap(uint32(d))) != d
}
