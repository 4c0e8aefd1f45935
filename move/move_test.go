package move

import (
	"errors"
	"testing"

	"github.com/matryer/is"
)

func TestString(t *testing.T) {
	is := is.New(t)
	is.Equal(Drop(3, 2).String(), "3 2")
	is.Equal(Skill.String(), "S")
	is.Equal(Resign.String(), "0 0")
}

func TestParse(t *testing.T) {
	is := is.New(t)
	a, err := Parse("8 3")
	is.NoErr(err)
	is.Equal(a, Drop(8, 3))

	a, err = Parse(" S ")
	is.NoErr(err)
	is.Equal(a, Skill)

	for _, bad := range []string{"", "9 0", "1 4", "x 1", "1 2 3", "-1 0"} {
		_, err = Parse(bad)
		is.True(errors.Is(err, ErrUnparsableAction))
	}
}

func TestEnumerationOrder(t *testing.T) {
	is := is.New(t)
	drops := AllDrops()
	is.Equal(len(drops), 36)
	is.Equal(drops[0], Drop(0, 0))
	is.Equal(drops[1], Drop(0, 1))
	is.Equal(drops[4], Drop(1, 0))
	is.Equal(drops[35], Drop(8, 3))
	for i, d := range drops {
		is.Equal(DropAt(i), d)
		is.True(d.IsDrop())
	}
}

func TestJoinActions(t *testing.T) {
	is := is.New(t)
	is.Equal(JoinActions([]Action{Drop(4, 0), Skill, Drop(8, 3)}), "(4 0) (S) (8 3)")
	is.Equal(JoinActions(nil), "")
}
