package equity

import (
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/tile"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	tile.Init()
	board.Init()
	os.Exit(m.Run())
}

// Removing the 2 drops the 9 onto the 1.
var buried = board.MustFromVisible([][]int{
	{9, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{2, 0, 0, 0, 0, 0, 0, 0, 0, 0},
	{1, 3, 0, 0, 0, 0, 0, 0, 0, 0},
})

func TestEraseOneFindsBuriedBlock(t *testing.T) {
	is := is.New(t)
	b := buried
	res := EraseOne(&b, DefaultOptions)
	is.True(res.Found)
	is.Equal(res.Point, Point{Row: board.BottomRow - 1, Col: 0})
	is.Equal(res.Value, 2)
	is.Equal(res.Score.ChainCount, 1)
	is.Equal(res.Score.Sum(), 1)
	// the input board is untouched
	is.True(b.Equals(&buried))
}

func TestEraseOneEmptyBoard(t *testing.T) {
	is := is.New(t)
	var b board.Board
	res := EraseOne(&b, DefaultOptions)
	is.True(!res.Found)
	is.Equal(res.Score.Sum(), 0)
}

func TestEraseOneOptions(t *testing.T) {
	is := is.New(t)
	b := buried
	is.True(!EraseOne(&b, Options{IgnoreBottom: true, Column: AllColumns}).Found)
	is.True(!EraseOne(&b, Options{Column: 1}).Found)
	is.True(EraseOne(&b, Options{Column: 0}).Found)
}

func TestEraseOneFirstFoundWinsTies(t *testing.T) {
	is := is.New(t)
	b := board.MustFromVisible([][]int{
		{9, 0, 0, 0, 0, 9, 0, 0, 0, 0},
		{2, 0, 0, 0, 0, 2, 0, 0, 0, 0},
		{1, 3, 0, 0, 0, 1, 3, 0, 0, 0},
	})
	res := EraseOne(&b, DefaultOptions)
	is.True(res.Found)
	is.Equal(res.Point, Point{Row: board.BottomRow - 1, Col: 0})

	res = EraseOne(&b, Options{Column: 5})
	is.Equal(res.Point, Point{Row: board.BottomRow - 1, Col: 5})
}

func TestEraseOneNeedsSomethingAbove(t *testing.T) {
	is := is.New(t)
	// The 2 has nothing on top of it so it is never tried. Removing the 1
	// only drops the 2 next to the 3.
	b := board.MustFromVisible([][]int{
		{2, 0, 0, 0, 0, 0, 0, 0, 0, 0},
		{1, 3, 0, 0, 0, 0, 0, 0, 0, 0},
	})
	res := EraseOne(&b, Options{Column: 0})
	is.True(!res.Found)
}

func TestCache(t *testing.T) {
	is := is.New(t)
	c := NewCache(0)
	is.Equal(c.Len(), 1<<minSizePowerOf2)

	b := buried
	first := c.EraseOne(&b, DefaultOptions)
	second := c.EraseOne(&b, DefaultOptions)
	is.Equal(first, second)
	is.Equal(first, EraseOne(&b, DefaultOptions))

	other := c.EraseOne(&b, Options{Column: 1})
	is.True(!other.Found)

	lookups, hits, _ := c.Stats()
	is.Equal(lookups, uint64(3))
	is.Equal(hits, uint64(1))

	c.Reset(0)
	lookups, hits, _ = c.Stats()
	is.Equal(lookups, uint64(0))
	is.Equal(hits, uint64(0))
}

func TestNilCache(t *testing.T) {
	is := is.New(t)
	var c *Cache
	b := buried
	is.Equal(c.EraseOne(&b, DefaultOptions), EraseOne(&b, DefaultOptions))
}
