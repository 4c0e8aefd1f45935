// Package game holds what the engine knows about a match at the start of a
// turn: both players' fields and counters, and the full tile sequence.
package game

import (
	"fmt"
	"strings"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/tile"
)

// Player indices. The engine always plays Me.
const (
	Me       = 0
	Opponent = 1
)

// PlayerState is one side's situation at the start of a turn.
type PlayerState struct {
	// TimeLeftMs is the remaining thinking time in milliseconds.
	TimeLeftMs int
	// GarbageStock is how many garbage blocks are queued to fall on this
	// player. Every full Width of stock is one garbage row.
	GarbageStock int
	// Skill is the skill meter.
	Skill int
	Score int
	Board board.Board
}

// GarbageRowsPending is how many full rows the stock amounts to.
func (p *PlayerState) GarbageRowsPending() int {
	return p.GarbageStock / board.Width
}

// SkillReady is true if the meter is high enough to fire the skill.
func (p *PlayerState) SkillReady() bool {
	return p.Skill >= score.MaxSkill
}

// Snapshot is the input to one decision. Searches take it by value so each
// turn works on its own copy.
type Snapshot struct {
	Turn    int
	Players [2]PlayerState
	Tiles   tile.Sequence
}

// Me returns the engine's own state.
func (s *Snapshot) Me() *PlayerState { return &s.Players[Me] }

// Opponent returns the other player's state.
func (s *Snapshot) Opponent() *PlayerState { return &s.Players[Opponent] }

// TileAt returns the tile dropped `ahead` turns after the current one.
func (s *Snapshot) TileAt(ahead int) tile.Tile {
	return s.Tiles.At(s.Turn + ahead)
}

func (s *Snapshot) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "turn %d, next tile %v\n", s.Turn, s.TileAt(0))
	for i := range s.Players {
		p := &s.Players[i]
		who := "me"
		if i == Opponent {
			who = "opponent"
		}
		fmt.Fprintf(&sb, "%s: time=%dms stock=%d skill=%d score=%d",
			who, p.TimeLeftMs, p.GarbageStock, p.Skill, p.Score)
		sb.WriteString(p.Board.ToDisplayText())
	}
	return sb.String()
}
