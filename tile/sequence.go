package tile

import (
	"lukechampine.com/frand"
)

// MaxTurns is the length of a full game's tile sequence.
const MaxTurns = 500

// Sequence is the list of tiles for a whole game, indexed by absolute turn.
type Sequence []Tile

// At returns the tile dropped on turn i. Turns past the end of the known
// sequence yield the empty tile.
func (s Sequence) At(i int) Tile {
	if i < 0 || i >= len(s) {
		return Empty
	}
	return s[i]
}

// TurnsUntil returns how many turns after `from` the first tile containing
// value v arrives, or 0 if no later tile has it.
func (s Sequence) TurnsUntil(from, v int) int {
	for i := from; i < len(s); i++ {
		if s[i].CountOfValue(v) > 0 {
			return i - from
		}
	}
	return 0
}

// RandomSequence deals n tiles with cells drawn uniformly from 1..9.
func RandomSequence(n int) Sequence {
	seq := make(Sequence, n)
	for i := range seq {
		seq[i] = New(1+frand.Intn(MaxValue), 1+frand.Intn(MaxValue),
			1+frand.Intn(MaxValue), 1+frand.Intn(MaxValue))
	}
	return seq
}
