package tile

import (
	"os"
	"testing"

	"github.com/matryer/is"
)

func TestMain(m *testing.M) {
	Init()
	os.Exit(m.Run())
}

func TestRotate(t *testing.T) {
	is := is.New(t)
	tl := New(9, 5, 0, 3)
	is.Equal(tl.Rotate(0), New(9, 5, 0, 3))
	is.Equal(tl.Rotate(1), New(0, 9, 3, 5))
	is.Equal(tl.Rotate(2), New(3, 0, 5, 9))
	is.Equal(tl.Rotate(3), New(5, 3, 9, 0))
}

func TestRotationGroup(t *testing.T) {
	is := is.New(t)
	for _, tl := range []Tile{New(9, 5, 0, 3), New(1, 2, 3, 4), New(7, 7, 0, 1)} {
		for r1 := 0; r1 < 4; r1++ {
			for r2 := 0; r2 < 4; r2++ {
				is.Equal(tl.Rotate(r1).Rotate(r2), tl.Rotate((r1+r2)%4))
			}
		}
	}
}

func TestRows(t *testing.T) {
	is := is.New(t)
	tl := New(9, 5, 0, 3)
	is.Equal(tl.TopRow(), uint64(0x95))
	is.Equal(tl.BottomRow(), uint64(0x03))
	tl = New(1, 2, 3, 4)
	is.Equal(tl.TopRow(), uint64(0x12))
	is.Equal(tl.BottomRow(), uint64(0x34))
}

func TestSelfIgniting(t *testing.T) {
	is := is.New(t)
	type tc struct {
		tl       Tile
		igniting bool
	}
	cases := []tc{
		{New(9, 1, 0, 5), true},
		{New(0, 0, 0, 0), false},
		{New(5, 5, 5, 5), true},
		{New(9, 8, 7, 6), false},
		{New(1, 9, 2, 8), true},
		{New(1, 0, 0, 9), true},
	}
	for _, c := range cases {
		is.Equal(c.tl.IsSelfIgniting(), c.igniting)
	}
}

func TestSelfIgnitingRotationInvariant(t *testing.T) {
	is := is.New(t)
	for bits := 0; bits < 1<<16; bits += 7 {
		tl := FromBits(uint16(bits))
		for r := 1; r < 4; r++ {
			is.Equal(tl.Rotate(r).IsSelfIgniting(), tl.IsSelfIgniting())
		}
	}
}

func TestCountOfValue(t *testing.T) {
	is := is.New(t)
	tl := New(1, 9, 2, 8)
	expected := []int{0, 1, 1, 0, 0, 0, 0, 0, 1, 1}
	for v := 1; v <= 9; v++ {
		is.Equal(tl.CountOfValue(v), expected[v])
	}
	tl = New(1, 1, 1, 1)
	is.Equal(tl.CountOfValue(1), 4)
	for v := 2; v <= 9; v++ {
		is.Equal(tl.CountOfValue(v), 0)
	}
}

func TestString(t *testing.T) {
	is := is.New(t)
	is.Equal(New(9, 5, 0, 3).String(), "[9, 5, 0, 3]")
}

func TestSequence(t *testing.T) {
	is := is.New(t)
	seq := Sequence{New(1, 1, 1, 1), New(2, 2, 2, 2), New(3, 4, 3, 4)}
	is.Equal(seq.At(1), New(2, 2, 2, 2))
	is.Equal(seq.At(3), Empty)
	is.Equal(seq.At(-1), Empty)
	is.Equal(seq.TurnsUntil(0, 4), 2)
	is.Equal(seq.TurnsUntil(1, 2), 0)
	is.Equal(seq.TurnsUntil(0, 9), 0)

	rnd := RandomSequence(MaxTurns)
	is.Equal(len(rnd), MaxTurns)
	for _, tl := range rnd {
		is.True(tl.UpperLeft() >= 1 && tl.UpperLeft() <= 9)
		is.True(tl.LowerRight() >= 1 && tl.LowerRight() <= 9)
	}
}
