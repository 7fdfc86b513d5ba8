package ring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTickWraps(t *testing.T) {
	s := NewState()
	s.millis.Store(math.MaxUint32)

	then := s.Millis()
	s.Tick()
	s.Tick()

	assert.Equal(t, uint32(1), s.Millis())
	assert.Equal(t, uint32(2), Since(s.Millis(), then))
}

func TestSince(t *testing.T) {
	assert.Equal(t, uint32(20), Since(120, 100))
	assert.Equal(t, uint32(0), Since(7, 7))
}
