package ring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrevious(t *testing.T) {
	assert.Equal(t, 15, Previous(0, Left))
	assert.Equal(t, 4, Previous(5, Left))
	assert.Equal(t, 0, Previous(15, Right))
	assert.Equal(t, 6, Previous(5, Right))
	assert.Equal(t, 1, Previous(0, Right))
}

func TestNewDisplayClearsLines(t *testing.T) {
	table, lines := newTestTable()
	for i := range lines {
		lines[i].on = true
	}

	d := NewDisplay(table)
	assert.Empty(t, litPositions(lines))
	assert.Equal(t, -1, d.Lit())
}

func TestShow(t *testing.T) {
	table, lines := newTestTable()
	d := NewDisplay(table)

	d.Show(3, Left)
	assert.Equal(t, []int{3}, litPositions(lines))

	d.Show(4, Left)
	assert.Equal(t, []int{4}, litPositions(lines))

	// Reversal: the forced step lands on 3 moving right, whose predecessor
	// is 4.
	d.Show(3, Right)
	assert.Equal(t, []int{3}, litPositions(lines))
	assert.Equal(t, 3, d.Lit())
}

func TestShowIdempotent(t *testing.T) {
	table, lines := newTestTable()
	d := NewDisplay(table)

	d.Show(9, Right)
	first := countTransitions(lines)

	d.Show(9, Right)
	assert.Equal(t, first, countTransitions(lines))
	assert.Equal(t, []int{9}, litPositions(lines))
}
