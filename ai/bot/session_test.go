package bot

import (
	"context"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/search/beam"
	"github.com/domino14/tenfall/tile"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	tile.Init()
	board.Init()
	os.Exit(m.Run())
}

// testConfig keeps every search small enough for a unit test.
func testConfig() Config {
	c := DefaultConfig()
	c.BeamWidthFirst = 20
	c.BeamWidth = 20
	c.BeamLateWidth = 20
	c.BeamWorkers = 2
	c.DFSParallel = false
	c.DFSDepth = 1
	c.DFSDepthLowTime = 1
	c.OpponentDepth = 1
	return c
}

func onesTiles() tile.Sequence {
	seq := make(tile.Sequence, tile.MaxTurns)
	for i := range seq {
		seq[i] = tile.New(1, 1, 1, 1)
	}
	return seq
}

func fullOfGarbage() board.Board {
	rows := make([][]int, board.Height)
	for i := range rows {
		rows[i] = []int{11, 11, 11, 11, 11, 11, 11, 11, 11, 11}
	}
	return board.MustFromVisible(rows)
}

func newSnapshot(turn int, me board.Board, timeLeft int) *game.Snapshot {
	s := &game.Snapshot{Turn: turn, Tiles: onesTiles()}
	s.Players[game.Me] = game.PlayerState{TimeLeftMs: timeLeft, Board: me}
	s.Players[game.Opponent] = game.PlayerState{TimeLeftMs: 180000}
	return s
}

func TestNewConfig(t *testing.T) {
	is := is.New(t)
	cfg := &config.Config{}
	is.NoErr(cfg.Load([]string{"--beam-width", "77", "--dfs-depth", "2"}))
	c := NewConfig(cfg)
	is.Equal(c.BeamWidth, 77)
	is.Equal(c.BeamLateWidth, 5000)
	is.Equal(c.DFSDepth, 2)
	is.Equal(c.DFSDepthLowTime, 1)
	is.Equal(c.OpponentDepth, 4)
	is.True(!c.ServerMode)

	is.NoErr(cfg.Load([]string{"--server-mode"}))
	c = NewConfig(cfg)
	is.Equal(c.BeamWidth, config.ServerBeamWidth)
	is.Equal(c.DFSDepth, config.ServerSearchDepth)
	is.Equal(c.DFSDepthLowTime, config.ServerSearchDepth)
	is.Equal(c.OpponentDepth, config.ServerSearchDepth)
	is.True(!c.DFSParallel)
	is.True(c.ServerMode)
}

func TestPlanLength(t *testing.T) {
	is := is.New(t)
	is.Equal(planLength(0, 12, false), 9)
	is.Equal(planLength(0, 12, true), 10)
	is.Equal(planLength(4, 12, false), 7)
	is.Equal(planLength(4, 8, false), 5)
	is.Equal(planLength(4, 2, false), 0)
	is.Equal(planLength(4, 0, true), 0)
}

func TestNewPlanPredictsBoards(t *testing.T) {
	is := is.New(t)
	tiles := onesTiles()
	res := beam.Result{Actions: []move.Action{move.Drop(1, 0), move.Drop(5, 2), move.Drop(7, 1)}}
	var b board.Board
	steps := newPlan(b, 10, tiles, res, 2)
	is.Equal(len(steps), 2)
	is.Equal(steps[0].turn, 10)
	is.True(steps[0].matches(10, &b))
	is.True(!steps[0].matches(11, &b))

	b.Simulate(tiles.At(10), move.Drop(1, 0))
	is.True(steps[1].matches(11, &b))
	is.True(!steps[1].matches(11, &board.Board{}))

	// never longer than the beam's own plan
	is.Equal(len(newPlan(b, 10, tiles, res, 9)), 3)
	is.Equal(planString(steps), "(1 0) (5 2)")
}

func TestNewSession(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	is.Equal(s.Mode(), ChainMode)
	is.True(s.BeamPending())
	is.Equal(s.PlanLength(), 0)
	is.True(!s.LastBeam().Found())
}

func TestFailedBeamSwitchesToSkill(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	a, err := s.BestAction(context.Background(), newSnapshot(3, board.Board{}, 100000))
	is.NoErr(err)
	is.True(a.IsDrop())
	is.Equal(s.BeamTimes().Iterations(), 1)
	is.Equal(s.Mode(), SkillMode)
	is.True(!s.BeamPending())
	is.Equal(s.TurnTimes().Iterations(), 1)
	is.Equal(s.DFSNodes().Iterations(), 1)
}

func TestNoBeamWhenShortOfTime(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	_, err := s.BestAction(context.Background(), newSnapshot(3, board.Board{}, 30000))
	is.NoErr(err)
	is.Equal(s.BeamTimes().Iterations(), 0)
	is.Equal(s.Mode(), ChainMode)
}

func TestShouldBeam(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	snap := newSnapshot(3, board.Board{}, 100000)
	is.True(s.shouldBeam(snap))

	snap.Me().GarbageStock = board.Width
	is.True(!s.shouldBeam(snap))
	snap.Me().GarbageStock = 0

	snap.Me().Board.Set(beamClearRow, 4, 1)
	is.True(!s.shouldBeam(snap))
	snap.Me().Board = board.Board{}

	s.mode = SkillMode
	is.True(!s.shouldBeam(snap))
}

func TestCachedPlanIsPlayed(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	s.beamFlag = false
	snap := newSnapshot(6, board.Board{}, 100000)
	res := beam.Result{
		Score:       score.Score{ChainCount: 12},
		RequireTurn: 4,
		Actions:     []move.Action{move.Drop(2, 1), move.Drop(3, 3), move.Drop(6, 0)},
	}
	s.lastBeam = res
	s.plan = newPlan(snap.Me().Board, snap.Turn, snap.Tiles, res, 2)

	a, err := s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(a, move.Drop(2, 1))
	is.Equal(s.PlanLength(), 1)
	is.Equal(s.DFSNodes().Iterations(), 0)

	snap.Turn++
	snap.Me().Board.Simulate(snap.Tiles.At(6), move.Drop(2, 1))
	a, err = s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(a, move.Drop(3, 3))
	is.Equal(s.PlanLength(), 0)
	assert.Contains(t, s.BestActionDetails(), "cached move 3 3")
}

func TestDivergedPlanIsDropped(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	s.beamFlag = false
	snap := newSnapshot(6, board.Board{}, 30000)
	res := beam.Result{
		Score:       score.Score{ChainCount: 12},
		RequireTurn: 6,
		Actions:     []move.Action{move.Drop(2, 1), move.Drop(3, 3)},
	}
	s.plan = newPlan(snap.Me().Board, snap.Turn, snap.Tiles, res, 2)

	// a garbage row the plan did not expect
	snap.Me().Board.Attacked(1)
	_, err := s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(s.PlanLength(), 0)
	is.Equal(s.DFSNodes().Iterations(), 1)
}

func TestGarbageAbandonsPlan(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	s.beamFlag = false
	snap := newSnapshot(6, board.Board{}, 30000)
	snap.Me().GarbageStock = board.Width
	res := beam.Result{RequireTurn: 6, Actions: []move.Action{move.Drop(2, 1), move.Drop(3, 3)}}
	s.plan = newPlan(snap.Me().Board, snap.Turn, snap.Tiles, res, 2)

	_, err := s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(s.PlanLength(), 0)
	is.True(!s.LastBeam().Found())
}

func TestHopelessChainSearchRetriesAsSkill(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	snap := newSnapshot(40, fullOfGarbage(), 30000)
	snap.Me().GarbageStock = 3 * board.Width
	a, err := s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(a, move.Drop(0, 0))
	is.Equal(s.Mode(), SkillMode)
	is.Equal(s.LastSearch().Score, score.Worst(0))
}

func TestServerModeStaysInChainMode(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	cfg.ServerMode = true
	s := NewSession(cfg, nil)
	snap := newSnapshot(40, fullOfGarbage(), 30000)
	snap.Me().GarbageStock = 3 * board.Width
	_, err := s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(s.Mode(), ChainMode)
}

func TestSkillReturnsToChainMode(t *testing.T) {
	is := is.New(t)
	s := NewSession(testConfig(), nil)
	s.mode = SkillMode
	snap := newSnapshot(40, fullOfGarbage(), 30000)
	snap.Me().Skill = score.MaxSkill
	a, err := s.BestAction(context.Background(), snap)
	is.NoErr(err)
	is.Equal(a, move.Skill)
	is.Equal(s.Mode(), ChainMode)
	assert.Contains(t, s.BestActionDetails(), "skill search")
}

func TestCanceledContext(t *testing.T) {
	is := is.New(t)
	cfg := testConfig()
	cfg.DFSParallel = true
	s := NewSession(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.BestAction(ctx, newSnapshot(3, board.Board{}, 30000))
	is.True(err != nil)
}

func TestSummary(t *testing.T) {
	s := NewSession(testConfig(), nil)
	_, err := s.BestAction(context.Background(), newSnapshot(3, board.Board{}, 30000))
	assert.NoError(t, err)
	assert.Contains(t, s.Summary(), "turns: 1")
}
