package game

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/tile"
)

func TestMain(m *testing.M) {
	tile.Init()
	board.Init()
	os.Exit(m.Run())
}

func sampleSnapshot() *Snapshot {
	s := &Snapshot{Turn: 3, Tiles: tile.Sequence{
		tile.New(1, 2, 3, 4), tile.New(5, 6, 7, 8), tile.New(9, 1, 2, 3),
		tile.New(4, 4, 0, 4), tile.New(2, 2, 2, 2),
	}}
	s.Players[Me] = PlayerState{TimeLeftMs: 170000, GarbageStock: 12, Skill: 40, Score: 3,
		Board: board.MustFromVisible([][]int{{1, 2, 3, 4, 11, 6, 7, 8, 11, 1}})}
	s.Players[Opponent] = PlayerState{TimeLeftMs: 165000, Skill: 88, Score: 17,
		Board: board.MustFromVisible([][]int{{0, 0, 5, 0, 0, 0, 0, 0, 0, 0}, {1, 2, 4, 0, 0, 0, 0, 0, 0, 3}})}
	return s
}

func TestAccessors(t *testing.T) {
	is := is.New(t)
	s := sampleSnapshot()
	is.Equal(s.Me().GarbageRowsPending(), 1)
	is.Equal(s.Opponent().GarbageRowsPending(), 0)
	is.True(!s.Me().SkillReady())
	is.True(s.Opponent().SkillReady())
	is.Equal(s.TileAt(0), tile.New(4, 4, 0, 4))
	is.Equal(s.TileAt(1), tile.New(2, 2, 2, 2))
	is.Equal(s.TileAt(2), tile.Empty)
}

func TestSnapshotIsAValue(t *testing.T) {
	is := is.New(t)
	s := sampleSnapshot()
	c := *s
	c.Players[Me].Board.Set(board.BottomRow, 0, 9)
	is.Equal(s.Me().Board.Get(board.BottomRow, 0), 1)
}

func TestYAMLRoundTrip(t *testing.T) {
	is := is.New(t)
	s := sampleSnapshot()
	var buf bytes.Buffer
	is.NoErr(WriteSnapshot(&buf, s))
	assert.Contains(t, buf.String(), "garbage_stock: 12")

	r, err := ReadSnapshot(&buf)
	is.NoErr(err)
	is.Equal(r.Turn, s.Turn)
	is.Equal(r.Tiles, s.Tiles)
	for i := range s.Players {
		is.Equal(r.Players[i].TimeLeftMs, s.Players[i].TimeLeftMs)
		is.Equal(r.Players[i].Skill, s.Players[i].Skill)
		is.True(r.Players[i].Board.Equals(&s.Players[i].Board))
	}
}

func TestYAMLErrors(t *testing.T) {
	cases := map[string]string{
		"bad cell":  "turn: 0\nme: {field: [[10, 0, 0, 0, 0, 0, 0, 0, 0, 0]]}\n",
		"short row": "turn: 0\nopponent: {field: [[1, 2]]}\n",
		"bad tile":  "turn: 0\ntiles: [[1, 2, 3, 12]]\n",
		"bad turn":  "turn: 900\n",
		"tile size": "turn: 0\ntiles: [[1, 2, 3]]\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSnapshot(strings.NewReader(doc))
			assert.Error(t, err)
			assert.True(t, errors.Is(err, ErrBadSnapshot), err)
		})
	}
}
