package board

import (
	"sync"
	"sync/atomic"

	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/tile"
)

var (
	// pairErase[l<<4|r] is true if two horizontally adjacent cells l and r
	// sum to ten.
	pairErase [1 << 8]bool
	// upperErase[own][ctx] is the part of the three-cell context above a
	// cell (up-left, up, up-right; up-left in the high nibble) that erases
	// together with the cell holding own.
	upperErase [Garbage + 1][1 << 12]uint64

	initOnce    sync.Once
	initialized atomic.Bool
)

// Init builds the erasure tables. It must run before the first Simulate;
// calling it again is harmless.
func Init() {
	initOnce.Do(func() {
		for n := 1; n <= 5; n++ {
			c := Complement - n
			pairErase[n<<4|c] = true
			pairErase[c<<4|n] = true
		}
		for own := 1; own <= 9; own++ {
			want := uint64(Complement - own)
			for ctx := 0; ctx < 1<<12; ctx++ {
				var m uint64
				for i := uint(0); i < 3; i++ {
					if (uint64(ctx)>>(4*i))&cellMask == want {
						m |= want << (4 * i)
					}
				}
				upperErase[own][ctx] = m
			}
		}
		initialized.Store(true)
	})
}

// Simulate applies an action to the board and resolves every chain it
// causes. The board is changed in place; copy it first if the old state
// matters.
//
// A drop ORs the rotated tile into the two rows above the danger row and
// lets gravity do the rest. The skill erases every 5 together with its
// numbered neighbours before the board settles.
func (b *Board) Simulate(t tile.Tile, a move.Action) score.Score {
	if !initialized.Load() {
		panic("board: Simulate called before board.Init")
	}
	var sc score.Score
	switch a.Type {
	case move.MoveTypeSkill:
		sc.ExplosionScore = score.Explosion(b.explode())
	case move.MoveTypeDrop:
		r := t.Rotate(a.Rotation)
		s := uint(cellBits * (Width - 2 - a.Column))
		b.rows[0] |= r.TopRow() << s
		b.rows[1] |= r.BottomRow() << s
	}
	chains := b.settle()
	sc.ChainScore = score.ForChain(chains)
	sc.ChainCount = chains
	return sc
}

// settle runs gravity and erasure until nothing more disappears and
// returns the number of erasing passes.
func (b *Board) settle() int {
	chains := 0
	for {
		b.fall()
		if !b.erase() {
			return chains
		}
		chains++
	}
}

// fall lets every column collapse onto the floor. A move is recorded as the
// cell disappearing from its old row and appearing in its new one.
func (b *Board) fall() {
	var gone, appear [DangerHeight]uint64
	for x := 0; x < Width; x++ {
		s := shift(x)
		mask := cellMask << s
		ground := BottomRow
		for ; ground >= 0; ground-- {
			if b.rows[ground]&mask == 0 {
				break
			}
		}
		count := 0
		for y := ground - 1; y >= 0; y-- {
			cell := b.rows[y] & mask
			if cell != 0 {
				gone[y] |= cell
				appear[ground-count] |= cell
				count++
			}
		}
	}
	for y := 0; y < DangerHeight; y++ {
		b.rows[y] ^= gone[y]
		b.rows[y] |= appear[y]
	}
}

// erase finds every cell that sums to ten with a horizontal neighbour or
// with one of the three cells above it, and removes them all at once. The
// matching is done against the board as it was before the pass. Row 0 is
// never an anchor.
func (b *Board) erase() bool {
	var gone [DangerHeight]uint64
	update := false
	for y := BottomRow; y > 0; y-- {
		row := b.rows[y]
		if row == 0 {
			continue
		}
		// x counts nibbles from the least significant end, i.e. from the
		// right edge of the board.
		for x := Width - 2; x >= 0; x-- {
			pair := row & (0xFF << (4 * x))
			if pairErase[pair>>(4*x)] {
				update = true
				gone[y] |= pair
			}
		}
		above := b.rows[y-1]
		if above == 0 {
			continue
		}
		for x := Width - 1; x >= 0; x-- {
			own := row & (cellMask << (4 * x))
			var ctx uint64
			if x > 0 {
				ctx = (above >> (4 * (x - 1))) & 0xFFF
			} else {
				ctx = (above & 0xFF) << 4
			}
			hit := upperErase[own>>(4*x)][ctx]
			if hit == 0 {
				continue
			}
			update = true
			gone[y] |= own
			if x == 0 {
				gone[y-1] |= hit >> 4
			} else {
				gone[y-1] |= hit << (4 * (x - 1))
			}
		}
	}
	for y := BottomRow; y > 0; y-- {
		b.rows[y] ^= gone[y]
	}
	return update
}

var neighbours = [8][2]int{
	{-1, 0}, {-1, 1}, {0, 1}, {1, 1}, {1, 0}, {1, -1}, {0, -1}, {-1, -1},
}

// explode erases every SkillValue block plus its numbered neighbours and
// returns how many blocks went away. Garbage survives the blast.
func (b *Board) explode() int {
	var gone [DangerHeight]uint64
	var marked [DangerHeight][Width]bool
	count := 0
	for y := 0; y < DangerHeight; y++ {
		for x := 0; x < Width; x++ {
			if b.Get(y, x) != SkillValue {
				continue
			}
			if !marked[y][x] {
				count++
			}
			marked[y][x] = true
			gone[y] |= SkillValue << shift(x)
			for _, d := range neighbours {
				ny, nx := y+d[0], x+d[1]
				if ny < 0 || ny >= DangerHeight || nx < 0 || nx >= Width {
					continue
				}
				if marked[ny][nx] {
					continue
				}
				v := b.Get(ny, nx)
				if v == Empty || v == Garbage {
					continue
				}
				gone[ny] |= uint64(v) << shift(nx)
				marked[ny][nx] = true
				count++
			}
		}
	}
	for y := 0; y < DangerHeight; y++ {
		b.rows[y] ^= gone[y]
	}
	return count
}
