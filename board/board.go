package board

import (
	"encoding/binary"

	"github.com/cespare/xxhash"
)

const (
	// Width is the number of columns.
	Width = 10
	// Height is the number of rows the game shows.
	Height = 16
	// DangerHeight is the total number of rows kept. Rows 0 and 1 are where
	// a tile gets placed before it falls, row 2 is the danger row, and the
	// visible rows sit below those.
	DangerHeight = 19
	// DangerRow is the row whose occupation ends the game.
	DangerRow = 2
	// FirstVisibleRow is the topmost row of the visible playfield.
	FirstVisibleRow = DangerHeight - Height
	// BottomRow is the floor.
	BottomRow = DangerHeight - 1

	// Empty is an empty cell.
	Empty = 0
	// Complement is the sum two cells must reach to erase.
	Complement = 10
	// Garbage is an indestructible block dropped by an attack.
	Garbage = 11
	// SkillValue is the block the skill detonates around.
	SkillValue = 5

	cellBits = 4
	cellMask = uint64(0xF)
	// garbageRow is a full row of Garbage cells.
	garbageRow = uint64(0xBBBBBBBBBB)
)

// Board is one player's field. Each row is a uint64 with four bits per
// cell; column 0 is the most significant used nibble (bits 36-39) and
// column 9 is bits 0-3. Row 0 is the top. Keeping rows packed makes a
// Board a small value that copies in one go, so search branches just
// take copies.
type Board struct {
	rows [DangerHeight]uint64
}

func shift(col int) uint {
	return uint(cellBits * (Width - 1 - col))
}

// Get returns the cell at (row, col).
func (b *Board) Get(row, col int) int {
	return int((b.rows[row] >> shift(col)) & cellMask)
}

// Set stores v at (row, col).
func (b *Board) Set(row, col, v int) {
	s := shift(col)
	b.rows[row] = b.rows[row]&^(cellMask<<s) | uint64(v)<<s
}

// Row returns the packed representation of a row.
func (b *Board) Row(row int) uint64 {
	return b.rows[row]
}

// RowEmpty is true if no cell of the row is occupied.
func (b *Board) RowEmpty(row int) bool {
	return b.rows[row] == 0
}

// IsGameOver is true once anything reaches the danger row.
func (b *Board) IsGameOver() bool {
	return b.rows[DangerRow] != 0
}

// Attacked drops up to n rows of garbage from the top. It stops at the
// first header row that is already occupied, so existing blocks are never
// overwritten, and then lets the board settle.
func (b *Board) Attacked(n int) {
	if n <= 0 {
		return
	}
	if n > DangerHeight {
		n = DangerHeight
	}
	for i := 0; i < n; i++ {
		if b.rows[i] != 0 {
			break
		}
		b.rows[i] = garbageRow
	}
	b.settle()
}

// CountBlocks counts numbered (erasable) blocks from fromRow to the floor.
func (b *Board) CountBlocks(fromRow int) int {
	n := 0
	for y := fromRow; y < DangerHeight; y++ {
		if b.rows[y] == 0 {
			continue
		}
		for x := 0; x < Width; x++ {
			v := b.Get(y, x)
			if v != Empty && v != Garbage {
				n++
			}
		}
	}
	return n
}

// Heights returns, for each column, how many cells are stacked from the
// floor up to the topmost occupied cell.
func (b *Board) Heights() [Width]int {
	var h [Width]int
	for x := 0; x < Width; x++ {
		for y := 0; y < DangerHeight; y++ {
			if b.Get(y, x) != Empty {
				h[x] = DangerHeight - y
				break
			}
		}
	}
	return h
}

// Hash fingerprints the board contents.
func (b *Board) Hash() uint64 {
	var buf [DangerHeight * 8]byte
	for y, r := range b.rows {
		binary.LittleEndian.PutUint64(buf[y*8:], r)
	}
	return xxhash.Sum64(buf[:])
}

// Equals is true if both boards hold the same cells.
func (b *Board) Equals(o *Board) bool {
	return b.rows == o.rows
}
