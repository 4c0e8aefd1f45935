package move

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// MoveType is what kind of action a player takes on a turn.
type MoveType uint8

const (
	MoveTypeNone MoveType = iota
	MoveTypeDrop
	MoveTypeSkill
	MoveTypeResign
)

const (
	// Columns is the number of columns a tile's left edge can occupy. A tile
	// is two cells wide, so it is one less than the board width.
	Columns = 9
	// Rotations is the number of distinct quarter turns.
	Rotations = 4
	// NumDrops is the size of the drop action space.
	NumDrops = Columns * Rotations

	skillToken  = "S"
	resignToken = "0 0"
)

var ErrUnparsableAction = errors.New("unparsable action")

// Action is one turn's decision. Column and Rotation only mean something for
// a drop.
type Action struct {
	Type     MoveType
	Column   int
	Rotation int
}

var (
	NoAction = Action{Type: MoveTypeNone}
	Skill    = Action{Type: MoveTypeSkill}
	Resign   = Action{Type: MoveTypeResign}
)

// Drop creates a normal drop action.
func Drop(column, rotation int) Action {
	return Action{Type: MoveTypeDrop, Column: column, Rotation: rotation}
}

// DropAt returns the i-th drop in enumeration order: column ascending, then
// rotation ascending.
func DropAt(i int) Action {
	return Drop(i/Rotations, i%Rotations)
}

// AllDrops lists every legal drop in enumeration order.
func AllDrops() []Action {
	drops := make([]Action, NumDrops)
	for i := range drops {
		drops[i] = DropAt(i)
	}
	return drops
}

func (a Action) IsDrop() bool  { return a.Type == MoveTypeDrop }
func (a Action) IsSkill() bool { return a.Type == MoveTypeSkill }

// String is the wire form of the action: "column rotation" for a drop, the
// skill token, or the resign token.
func (a Action) String() string {
	switch a.Type {
	case MoveTypeSkill:
		return skillToken
	case MoveTypeResign:
		return resignToken
	}
	return strconv.Itoa(a.Column) + " " + strconv.Itoa(a.Rotation)
}

// Parse reads an action in wire form. "0 0" is read back as a drop, since
// the resign token and the leftmost unrotated drop are the same text.
func Parse(s string) (Action, error) {
	fields := strings.Fields(s)
	if len(fields) == 1 && fields[0] == skillToken {
		return Skill, nil
	}
	if len(fields) != 2 {
		return NoAction, fmt.Errorf("%w: %q", ErrUnparsableAction, s)
	}
	col, err := strconv.Atoi(fields[0])
	if err != nil {
		return NoAction, fmt.Errorf("%w: %q: %w", ErrUnparsableAction, s, err)
	}
	rot, err := strconv.Atoi(fields[1])
	if err != nil {
		return NoAction, fmt.Errorf("%w: %q: %w", ErrUnparsableAction, s, err)
	}
	if col < 0 || col >= Columns || rot < 0 || rot >= Rotations {
		return NoAction, fmt.Errorf("%w: %q out of range", ErrUnparsableAction, s)
	}
	return Drop(col, rot), nil
}

// JoinActions renders a sequence of actions in wire form, each in
// parentheses.
func JoinActions(as []Action) string {
	return strings.Join(lo.Map(as, func(a Action, _ int) string {
		return "(" + a.String() + ")"
	}), " ")
}
