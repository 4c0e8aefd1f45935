// Package tile implements the falling 2x2 piece ("pack") of four numbered
// cells.
package tile

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Tile is a 2x2 piece packed into 16 bits. From the most significant nibble
// down, the cells are stored as upper-left, upper-right, lower-right,
// lower-left. Walking the piece clockwise this way means a quarter turn is
// a plain nibble rotation of the word.
//
//	15   11    7    3
//	UUUU RRRR rrrr LLLL
//	  UL   UR   LR   LL
type Tile uint16

// Empty is the tile with no cells. It is what gets "dropped" when the board
// only needs to settle.
const Empty Tile = 0

const (
	numPatterns = 1 << 16
	// MaxValue is the largest numbered cell a tile can carry.
	MaxValue = 9
)

var (
	selfIgniting [numPatterns]bool
	valueCounts  [MaxValue + 1][numPatterns]uint8

	initOnce    sync.Once
	initialized atomic.Bool
)

// Init builds the lookup tables. It is safe to call more than once; the
// tables are only built the first time.
func Init() {
	initOnce.Do(func() {
		for a := 0; a <= MaxValue; a++ {
			for b := 0; b <= MaxValue; b++ {
				for c := 0; c <= MaxValue; c++ {
					for d := 0; d <= MaxValue; d++ {
						pattern := a<<12 | b<<8 | c<<4 | d
						if a+b == 10 || a+c == 10 || a+d == 10 ||
							b+c == 10 || b+d == 10 || c+d == 10 {
							selfIgniting[pattern] = true
						}
						valueCounts[a][pattern]++
						valueCounts[b][pattern]++
						valueCounts[c][pattern]++
						valueCounts[d][pattern]++
					}
				}
			}
		}
		initialized.Store(true)
	})
}

func mustBeInitialized() {
	if !initialized.Load() {
		panic("tile: lookup tables used before tile.Init")
	}
}

// New creates a tile from its four cells as they appear on screen.
func New(upperLeft, upperRight, lowerLeft, lowerRight int) Tile {
	return Tile(upperLeft<<12 | upperRight<<8 | lowerRight<<4 | lowerLeft)
}

// FromBits wraps a raw 16-bit pattern.
func FromBits(b uint16) Tile {
	return Tile(b)
}

// Bits returns the raw pattern.
func (t Tile) Bits() uint16 {
	return uint16(t)
}

func (t Tile) UpperLeft() int  { return int(t>>12) & 0xF }
func (t Tile) UpperRight() int { return int(t>>8) & 0xF }
func (t Tile) LowerRight() int { return int(t>>4) & 0xF }
func (t Tile) LowerLeft() int  { return int(t) & 0xF }

// Rotate returns the tile turned clockwise by r quarter turns.
func (t Tile) Rotate(r int) Tile {
	switch r & 3 {
	case 1:
		return t>>4 | (t&0xF)<<12
	case 2:
		return t>>8 | (t&0xFF)<<8
	case 3:
		return t<<4 | t>>12
	}
	return t
}

// TopRow returns the upper two cells packed as two nibbles, left cell high.
func (t Tile) TopRow() uint64 {
	return uint64(t >> 8)
}

// BottomRow returns the lower two cells packed as two nibbles, left cell high.
func (t Tile) BottomRow() uint64 {
	return uint64((t>>4)&0xF) | uint64((t<<4)&0xF0)
}

// IsSelfIgniting is true if dropping this tile by itself would start a
// chain: some pair of its cells already sums to ten.
func (t Tile) IsSelfIgniting() bool {
	mustBeInitialized()
	return selfIgniting[t]
}

// CountOfValue returns how many cells of the tile hold v.
func (t Tile) CountOfValue(v int) int {
	mustBeInitialized()
	if v < 0 || v > MaxValue {
		return 0
	}
	return int(valueCounts[v][t])
}

func (t Tile) String() string {
	return fmt.Sprintf("[%d, %d, %d, %d]", t.UpperLeft(), t.UpperRight(),
		t.LowerLeft(), t.LowerRight())
}
