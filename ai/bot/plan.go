package bot

import (
	"github.com/samber/lo"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/search/beam"
	"github.com/domino14/tenfall/tile"
)

// step is one queued move of a beam plan, together with the turn it is
// meant for and the hash of the board we expect to see on that turn.
type step struct {
	turn     int
	action   move.Action
	expected uint64
}

// Fewer moves are kept than the beam planned. The last few are left to the
// depth-first search, which may find it better to attack early.
const (
	planHoldBack       = 3
	serverPlanHoldBack = 2
	maxPlanLength      = 7
)

// planLength is how many moves of a beam result go into the queue.
func planLength(turn, requireTurn int, serverMode bool) int {
	n := requireTurn - planHoldBack
	if serverMode {
		n = requireTurn - serverPlanHoldBack
	}
	if turn > 0 {
		n = min(maxPlanLength, n)
	}
	return max(0, min(n, requireTurn))
}

// newPlan replays the first n moves of res from b, recording what the board
// should look like before each of them.
func newPlan(b board.Board, turn int, tiles tile.Sequence, res beam.Result, n int) []step {
	n = min(n, len(res.Actions))
	steps := make([]step, n)
	for i := 0; i < n; i++ {
		a := res.Actions[i]
		steps[i] = step{turn: turn + i, action: a, expected: b.Hash()}
		b.Simulate(tiles.At(turn+i), a)
	}
	return steps
}

// matches is true if the game is where the plan expected it to be.
func (st step) matches(turn int, b *board.Board) bool {
	return st.turn == turn && st.expected == b.Hash()
}

func planString(steps []step) string {
	return move.JoinActions(lo.Map(steps, func(st step, _ int) move.Action {
		return st.action
	}))
}
