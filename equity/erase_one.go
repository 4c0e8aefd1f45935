// Package equity estimates how much chain a board is holding. The estimate
// removes one exposed block at a time and measures the chain that falls out
// of it.
package equity

import (
	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/tile"
)

// AllColumns disables the column filter.
const AllColumns = -1

const firstCandidateRow = 4

// Options narrow the set of candidate blocks.
type Options struct {
	// IgnoreBottom skips the two lowest rows.
	IgnoreBottom bool
	// Column restricts the scan to one column, or AllColumns.
	Column int
}

// DefaultOptions scans every column including the bottom rows.
var DefaultOptions = Options{Column: AllColumns}

// Point is a board coordinate.
type Point struct {
	Row, Col int
}

// Result is the best single-block removal. When Found is false no removal
// produced a chain and the Score is zero.
type Result struct {
	Score score.Score
	Point Point
	Value int
	Found bool
}

// EraseOne tries removing each candidate block and keeps the removal whose
// resulting chain has the highest Sum. Ties keep the first block found,
// scanning top row first and left to right.
//
// A candidate is a numbered block that has something on top of it, rests on
// at least one diagonal neighbour below (blocks on the floor are always
// supported), and touches an empty cell to its left, right, upper left or
// upper right. Those are the blocks a single tile could plausibly reach.
func EraseOne(b *board.Board, opts Options) Result {
	var best Result
	for y := firstCandidateRow; y < board.DangerHeight; y++ {
		if b.RowEmpty(y) {
			continue
		}
		if opts.IgnoreBottom && y >= board.DangerHeight-2 {
			continue
		}
		for x := 0; x < board.Width; x++ {
			if opts.Column != AllColumns && x != opts.Column {
				continue
			}
			if !isCandidate(b, y, x) {
				continue
			}
			c := *b
			v := c.Get(y, x)
			c.Set(y, x, board.Empty)
			sc := c.Simulate(tile.Empty, move.NoAction)
			if sc.Sum() > best.Score.Sum() {
				best = Result{Score: sc, Point: Point{y, x}, Value: v, Found: true}
			}
		}
	}
	return best
}

func isCandidate(b *board.Board, y, x int) bool {
	v := b.Get(y, x)
	if v == board.Empty || v == board.Garbage {
		return false
	}
	if b.Get(y-1, x) == board.Empty {
		return false
	}
	if y < board.BottomRow {
		leftEmpty := x == 0 || b.Get(y+1, x-1) == board.Empty
		rightEmpty := x == board.Width-1 || b.Get(y+1, x+1) == board.Empty
		if leftEmpty && rightEmpty {
			return false
		}
	}
	for _, d := range [4][2]int{{-1, -1}, {-1, 1}, {0, -1}, {0, 1}} {
		ny, nx := y+d[0], x+d[1]
		if nx < 0 || nx >= board.Width {
			continue
		}
		if b.Get(ny, nx) == board.Empty {
			return true
		}
	}
	return false
}
