// Package bot decides what to play each turn. A Session carries what the
// engine remembers between turns: its strategy, whether a long beam search
// is due, and any moves left over from the last one.
package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/search/beam"
	"github.com/domino14/tenfall/search/dfs"
	"github.com/domino14/tenfall/stats"
)

const (
	// A beam search needs this much clock left.
	beamMinTimeMs = 40_000
	// Below this the depth-first search drops a ply.
	deepSearchMinTimeMs = 20_000
	// the beam never looks at boards stacked this high
	beamClearRow = 5

	firstTurnTarget = 99
	laterTarget     = 12
	// A beam chain shorter than this, which also takes longer to build
	// than it is long, is not worth pursuing.
	worthwhileChain = 11

	// Chain mode gives up for skill mode when nothing scores and this
	// much garbage is on its way.
	skillSwitchSum   = 20
	skillSwitchStock = 3 * board.Width
	// A weak chain search with little garbage queued asks for a new beam
	// search next turn.
	beamRetrySum   = 70
	beamRetryStock = 2 * board.Width
	// A chain this long has spent the board.
	spentChain = 6
)

// Session plays one game. It is not safe for concurrent use; the turn loop
// calls BestAction once per turn.
type Session struct {
	cfg   Config
	cache *equity.Cache
	beam  *beam.Searcher

	mode     Mode
	beamFlag bool
	plan     []step
	lastBeam beam.Result
	lastDFS  dfs.Result
	details  string

	turnTimes stats.Statistic
	beamTimes stats.Statistic
	dfsNodes  stats.Statistic
}

// NewSession starts a game in chain mode with a beam search due. cache may
// be nil.
func NewSession(cfg Config, cache *equity.Cache) *Session {
	bs := beam.NewSearcher(cache)
	bs.Workers = cfg.BeamWorkers
	bs.Cutoff = cfg.BeamCutoff
	bs.LateWidth = cfg.BeamLateWidth
	return &Session{
		cfg:      cfg,
		cache:    cache,
		beam:     bs,
		mode:     ChainMode,
		beamFlag: true,
		lastBeam: beam.Result{RequireTurn: beam.NotFound},
	}
}

func (s *Session) Mode() Mode { return s.mode }

// BeamPending is true if the next chain-mode turn will try a beam search.
func (s *Session) BeamPending() bool { return s.beamFlag }

// PlanLength is the number of queued moves.
func (s *Session) PlanLength() int { return len(s.plan) }

// TurnTimes is the wall time per turn, in milliseconds.
func (s *Session) TurnTimes() *stats.Statistic { return &s.turnTimes }

// BeamTimes is the wall time per beam search, in milliseconds.
func (s *Session) BeamTimes() *stats.Statistic { return &s.beamTimes }

// DFSNodes is the number of positions the depth-first search visited per
// turn it ran.
func (s *Session) DFSNodes() *stats.Statistic { return &s.dfsNodes }

// LastSearch is the result of the most recent depth-first search.
func (s *Session) LastSearch() dfs.Result { return s.lastDFS }

// LastBeam is the result of the most recent beam search, or a result with
// nothing found once its plan has been abandoned.
func (s *Session) LastBeam() beam.Result { return s.lastBeam }

// BestActionDetails summarizes how the last action was chosen.
func (s *Session) BestActionDetails() string {
	return s.details
}

// BestAction picks this turn's move.
func (s *Session) BestAction(ctx context.Context, snap *game.Snapshot) (move.Action, error) {
	start := time.Now()
	logger := zerolog.Ctx(ctx).With().Int("turn", snap.Turn).Logger()
	ctx = logger.WithContext(ctx)
	defer func() { s.turnTimes.PushDuration(time.Since(start)) }()

	me := snap.Me()
	if len(s.plan) > 0 && !s.plan[0].matches(snap.Turn, &me.Board) {
		logger.Warn().Int("planned-turn", s.plan[0].turn).
			Int("dropped", len(s.plan)).Msg("board-differs-from-plan")
		s.plan = nil
	}

	if s.shouldBeam(snap) {
		s.runBeam(ctx, snap)
	}

	if s.mode == ChainMode && len(s.plan) > 0 && me.GarbageStock < board.Width {
		st := s.plan[0]
		s.plan = s.plan[1:]
		s.details = fmt.Sprintf("cached move %v toward a %d chain, %d left",
			st.action, s.lastBeam.Score.ChainCount, len(s.plan))
		logger.Info().Int("chain", s.lastBeam.Score.ChainCount).
			Int("queued", len(s.plan)).
			Dur("elapsed", time.Since(start)).Msg("cache")
		return st.action, nil
	}
	// garbage or a mode change has made the plan useless
	s.beamFlag = false
	s.lastBeam = beam.Result{RequireTurn: beam.NotFound}
	s.plan = nil

	res, err := s.search(ctx, snap)
	if err != nil {
		return move.NoAction, err
	}
	s.lastDFS = res

	if res.Score.ChainCount > spentChain || res.Score.ExplosionScore > 0 {
		s.beamFlag = true
	}
	mode := s.mode
	if res.Action.IsSkill() {
		s.mode = ChainMode
	}

	s.details = fmt.Sprintf("%s search: %v scoring %d (chain %d, explosion %d)",
		mode, res.Action, res.Score.Sum(), res.Score.ChainCount, res.Score.ExplosionScore)
	logger.Info().
		Stringer("mode", mode).
		Int("score", res.Score.Sum()).
		Int("chain", res.Score.ChainCount).
		Int("explosion", res.Score.ExplosionScore).
		Dur("elapsed", time.Since(start)).
		Msg("dfs")
	return res.Action, nil
}

// shouldBeam is true when a long search is both due and affordable: there
// is time, no garbage about to land, and room on the board.
func (s *Session) shouldBeam(snap *game.Snapshot) bool {
	me := snap.Me()
	return s.mode == ChainMode && s.beamFlag &&
		me.TimeLeftMs > beamMinTimeMs &&
		me.GarbageStock < board.Width &&
		me.Board.RowEmpty(beamClearRow)
}

func (s *Session) runBeam(ctx context.Context, snap *game.Snapshot) {
	me := snap.Me()
	req := beam.Request{
		Board:    me.Board,
		Tiles:    snap.Tiles,
		Turn:     snap.Turn,
		Target:   laterTarget,
		Width:    s.cfg.BeamWidth,
		UseSides: snap.Turn > 0,
	}
	if snap.Turn == 0 {
		req.Target = firstTurnTarget
		req.Width = s.cfg.BeamWidthFirst
	}
	start := time.Now()
	res := s.beam.Search(ctx, req)
	s.beamTimes.PushDuration(time.Since(start))
	s.lastBeam = res
	s.plan = nil

	if res.Score.ChainCount < worthwhileChain && res.Score.ChainCount < res.RequireTurn {
		s.mode = SkillMode
	} else {
		n := planLength(snap.Turn, res.RequireTurn, s.cfg.ServerMode)
		s.plan = newPlan(me.Board, snap.Turn, snap.Tiles, res, n)
	}
	s.beamFlag = false

	zerolog.Ctx(ctx).Info().
		Int("chain", res.Score.ChainCount).
		Int("require-turn", res.RequireTurn).
		Int("width", req.Width).
		Stringer("mode", s.mode).
		Str("plan", planString(s.plan)).
		Dur("elapsed", time.Since(start)).
		Msg("beam")
}

// search runs the depth-first searches. A chain search that finds nothing
// while garbage piles up hands over to a skill search of the same position.
func (s *Session) search(ctx context.Context, snap *game.Snapshot) (dfs.Result, error) {
	me := snap.Me()
	ds := dfs.NewSearcher(snap, dfs.Options{
		Parallel: s.cfg.DFSParallel,
		Threads:  s.cfg.Threads,
		Cache:    s.cache,
	})
	defer func() { s.dfsNodes.Push(float64(ds.Nodes())) }()

	if err := ds.FillOpponentTables(ctx, s.cfg.OpponentDepth); err != nil {
		return dfs.Result{}, fmt.Errorf("opponent tables: %w", err)
	}
	depth := s.cfg.DFSDepth
	if me.TimeLeftMs <= deepSearchMinTimeMs {
		depth = s.cfg.DFSDepthLowTime
	}

	if s.mode == ChainMode {
		res, err := ds.ChainSearch(ctx, depth)
		if err != nil {
			return res, fmt.Errorf("chain search: %w", err)
		}
		if s.cfg.ServerMode {
			return res, nil
		}
		sum := res.Score.Sum()
		switch {
		case sum < skillSwitchSum && me.GarbageStock >= skillSwitchStock:
			zerolog.Ctx(ctx).Info().Int("score", sum).Int("stock", me.GarbageStock).
				Msg("switching-to-skill")
			s.mode = SkillMode
		case sum < beamRetrySum && me.GarbageStock < beamRetryStock:
			s.beamFlag = true
			return res, nil
		default:
			return res, nil
		}
	}

	res, err := ds.SkillSearch(ctx, me.Skill, depth)
	if err != nil {
		return res, fmt.Errorf("skill search: %w", err)
	}
	return res, nil
}

// Summary reports the session's telemetry.
func (s *Session) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "turns: %d, mean %.1f ms (max %.1f ms)\n",
		s.turnTimes.Iterations(), s.turnTimes.Mean(), s.turnTimes.Max())
	fmt.Fprintf(&sb, "beam searches: %d, mean %.1f ms\n",
		s.beamTimes.Iterations(), s.beamTimes.Mean())
	fmt.Fprintf(&sb, "dfs nodes per search: mean %.0f ± %.0f\n",
		s.dfsNodes.Mean(), s.dfsNodes.ConfidenceInterval(95))
	return sb.String()
}
