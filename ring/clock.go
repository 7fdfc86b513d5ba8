package ring

// Tick advances the millisecond counter by one. The counter is a uint32 and
// wraps to zero after 2^32-1 milliseconds, about 49.7 days.
func (s *State) Tick() {
	s.millis.Add(1)
}

// Millis returns the millisecond counter.
func (s *State) Millis() uint32 {
	return s.millis.Load()
}

// Since returns the milliseconds elapsed from then to now, both read from
// Millis. The result is correct across a counter wrap as long as the real
// interval is shorter than the wrap period.
func Since(now, then uint32) uint32 {
	return now - then
}
