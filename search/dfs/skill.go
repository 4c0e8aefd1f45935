package dfs

import (
	"context"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/tile"
)

const (
	skillLeafBonus = 10_000
	// skillFireBonus is for an explosion big enough to matter, fired while
	// the board is getting tall.
	skillFireBonus = 100_000
	skillFireRow   = 9
	// skillLastChance fires the skill before the meter would be useless
	// because the opponent is about to bury us.
	skillLastChance    = 300_000
	skillLastChanceRow = 6
	skillMeterFull     = 92
	smallSkillPenalty  = 100
	fiveCellWeight     = 5
)

// SkillSearch looks depthMax plies ahead for the move that sets up the
// biggest skill explosion, or fires the skill if that is best. skill is
// the current meter. FillOpponentTables must have been called first.
func (s *Searcher) SkillSearch(ctx context.Context, skill, depthMax int) (Result, error) {
	if !s.tablesFilled {
		panic("dfs: SkillSearch called before FillOpponentTables")
	}
	return s.skillNode(ctx, s.root(), skill, 0, depthMax)
}

func (s *Searcher) skillLeaf(n node, skill int) score.Score {
	if skill >= score.MaxSkill {
		b := n.b
		sc := b.Simulate(tile.Empty, move.Skill)
		sc.HeuristicScore += skillLeafBonus - n.stock
		return sc
	}

	// Count every cell the skill would reach, filled or not, and penalize
	// an uneven skyline.
	var reach [board.DangerHeight][board.Width]bool
	for y := 0; y < board.DangerHeight; y++ {
		for x := 0; x < board.Width; x++ {
			if n.b.Get(y, x) != board.SkillValue {
				continue
			}
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= board.DangerHeight || nx < 0 || nx >= board.Width {
						continue
					}
					reach[ny][nx] = true
				}
			}
		}
	}
	count := 0
	for y := range reach {
		for x := range reach[y] {
			if reach[y][x] {
				count++
			}
		}
	}
	heights := n.b.Heights()
	hs := make([]float64, board.Width)
	for i, h := range heights {
		hs[i] = float64(h)
	}
	_, variance := stat.PopMeanVariance(hs, nil)

	var sc score.Score
	sc.HeuristicScore = int(float64(fiveCellWeight*count)-variance) + skill
	return sc
}

func (s *Searcher) skillNode(ctx context.Context, n node, skill, depth, depthMax int) (Result, error) {
	if depth >= depthMax {
		return Result{Score: s.skillLeaf(n, skill), Action: move.Drop(0, 0)}, nil
	}
	me, opp := s.snap.Me(), s.snap.Opponent()

	if depth == 0 {
		if e := zerolog.Ctx(ctx).Debug(); e.Enabled() {
			var opSkill score.Score
			if opp.SkillReady() {
				ob := opp.Board
				opSkill = ob.Simulate(tile.Empty, move.Skill)
			}
			opDamaged := s.currentChainPotential(opp.Board, 5*board.Width, 1, 4)
			e.Int("skill", skill).
				Int("op-skill", opSkill.ExplosionScore).
				Int("op-chain-under-attack", opDamaged.ChainCount).
				Msg("skill-search-root")
		}
	}

	cur := n.withPendingGarbage()

	best := Result{Score: score.Worst(depth), Action: move.Drop(0, 0)}
	if skill >= score.MaxSkill {
		b := n.b
		sc := b.Simulate(tile.Empty, move.Skill)
		if !n.b.RowEmpty(skillFireRow) && sc.ExplosionScore-2*me.GarbageStock >= skillWorthFiring {
			sc.HeuristicScore += skillFireBonus - 100*depth - 11*n.stock
		}
		if sc.ExplosionScore < skillWorthFiring {
			sc.HeuristicScore -= smallSkillPenalty
		}
		if depth == 0 && skill < skillMeterFull && s.opScores[0].ChainCount >= 3 &&
			!n.b.RowEmpty(skillLastChanceRow) {
			sc.HeuristicScore += skillLastChance
		}
		sc.HeuristicScore = int(float64(sc.HeuristicScore) + float64(skill)*1.5)
		best = Result{Score: sc, Action: move.Skill}
	}

	t := s.snap.TileAt(depth)
	consider := func(sc score.Score, chains int, a move.Action) {
		if sc.Sum() > best.Score.Sum() {
			sc.ChainCount = chains
			best = Result{Score: sc, Action: a}
		}
	}

	if depth == 0 {
		err := s.forEachDrop(ctx, s.opts.Parallel, func(i int, a move.Action) {
			sc, chains, ok := s.skillBranch(ctx, cur, t, a, skill, depth, depthMax)
			s.branchResults[i] = branchResult{sc: sc, chains: chains, valid: ok}
		}, func(i int) {
			if r := s.branchResults[i]; r.valid {
				consider(r.sc, r.chains, move.DropAt(i))
			}
		})
		return best, err
	}
	for i := 0; i < move.NumDrops; i++ {
		a := move.DropAt(i)
		if sc, chains, ok := s.skillBranch(ctx, cur, t, a, skill, depth, depthMax); ok {
			consider(sc, chains, a)
		}
	}
	return best, nil
}

func (s *Searcher) skillBranch(ctx context.Context, cur node, t tile.Tile, a move.Action,
	skill, depth, depthMax int) (score.Score, int, bool) {

	s.nodes.Add(1)
	child := cur
	now := child.b.Simulate(t, a)
	if child.b.IsGameOver() {
		return score.Score{}, 0, false
	}
	next := skill
	if now.ChainCount > 0 {
		next += score.SkillPerChain
	}
	r, _ := s.skillNode(ctx, child, next, depth+1, depthMax)
	sc := r.Score
	// chains only matter here for what they do to the meter
	sc.ChainScore = 0

	for y := board.FirstVisibleRow + 1; y < board.DangerHeight; y++ {
		if !child.b.RowEmpty(y) {
			sc.HeuristicScore -= board.DangerHeight - y
		}
	}
	if skill <= skillMeterFull {
		switch now.ChainCount {
		case 1:
			sc.HeuristicScore += 10
		case 3:
			sc.HeuristicScore += 2
		default:
			sc.HeuristicScore++
		}
	}
	return sc, now.ChainCount, true
}
