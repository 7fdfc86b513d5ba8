package ring

// Line is a single on/off output driving one LED. High is lit. Setting a
// line to its current level must be harmless.
//
// machine.Pin satisfies Line under TinyGo.
type Line interface {
	Set(on bool)
}

// Table maps each ring position to its output line. The order of the table
// defines which LEDs are neighbours.
type Table [NumPositions]Line

// Previous returns the position lit just before pos when travelling in
// direction d, which is the neighbour of pos opposite to d.
func Previous(pos int, d Direction) int {
	switch d {
	case Right:
		if pos < NumPositions-1 {
			return pos + 1
		}
		return 0
	default:
		if pos > 0 {
			return pos - 1
		}
		return NumPositions - 1
	}
}

// Display lights the current position and extinguishes the one before it.
type Display struct {
	table Table
	lit   int
}

// NewDisplay creates a display over the given table. All lines are switched
// off.
func NewDisplay(table Table) *Display {
	for _, line := range table {
		line.Set(false)
	}
	return &Display{table: table, lit: -1}
}

// Show turns on the line at pos and turns off the line at Previous(pos, d).
// If the last position lit by Show is neither, it is turned off too, so a
// caller that skipped a step still leaves exactly one line on. Calling Show
// again with the same arguments writes the same levels.
func (d *Display) Show(pos int, dir Direction) {
	prev := Previous(pos, dir)

	d.table[pos].Set(true)
	d.table[prev].Set(false)

	if d.lit >= 0 && d.lit != pos && d.lit != prev {
		d.table[d.lit].Set(false)
	}
	d.lit = pos
}

// Lit returns the position last lit by Show, or -1 if Show was never called.
func (d *Display) Lit() int {
	return d.lit
}
