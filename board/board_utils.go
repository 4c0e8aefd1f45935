package board

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidBoard = errors.New("invalid board")

// FromVisible builds a board from the visible playfield, top row first.
// Fewer than Height rows are allowed and sit on the floor; anything above
// them is empty.
func FromVisible(cells [][]int) (Board, error) {
	var b Board
	if len(cells) > Height {
		return b, fmt.Errorf("%w: %d rows, at most %d allowed", ErrInvalidBoard, len(cells), Height)
	}
	offset := DangerHeight - len(cells)
	for i, row := range cells {
		if len(row) != Width {
			return b, fmt.Errorf("%w: row %d has %d cells, want %d", ErrInvalidBoard, i, len(row), Width)
		}
		for x, v := range row {
			if v < Empty || v > Garbage || v == Complement {
				return b, fmt.Errorf("%w: cell (%d, %d) holds %d", ErrInvalidBoard, i, x, v)
			}
			b.Set(offset+i, x, v)
		}
	}
	return b, nil
}

// MustFromVisible is FromVisible for boards known to be well formed.
func MustFromVisible(cells [][]int) Board {
	b, err := FromVisible(cells)
	if err != nil {
		panic(err)
	}
	return b
}

// Visible returns the playfield as a Height x Width grid, top row first.
func (b *Board) Visible() [][]int {
	out := make([][]int, Height)
	for i := range out {
		out[i] = make([]int, Width)
		for x := 0; x < Width; x++ {
			out[i][x] = b.Get(FirstVisibleRow+i, x)
		}
	}
	return out
}

func cellString(v int) string {
	switch v {
	case Empty:
		return "."
	case Garbage:
		return "#"
	}
	return fmt.Sprintf("%d", v)
}

func (b *Board) ToDisplayText() string {
	var sb strings.Builder
	sb.WriteString("   ")
	for x := 0; x < Width; x++ {
		fmt.Fprintf(&sb, "%d ", x)
	}
	sb.WriteString("\n   " + strings.Repeat("-", Width*2) + "\n")
	for y := FirstVisibleRow; y < DangerHeight; y++ {
		fmt.Fprintf(&sb, "%2d|", y)
		for x := 0; x < Width; x++ {
			sb.WriteString(cellString(b.Get(y, x)) + " ")
		}
		sb.WriteString("|\n")
	}
	sb.WriteString("   " + strings.Repeat("-", Width*2) + "\n")
	return "\n" + sb.String()
}
