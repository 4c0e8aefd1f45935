package dfs

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/tile"
)

const (
	// bigChainBonus makes firing a winning chain dominate everything else.
	bigChainBonus = 10_000_000
	// finishingBonus is for a chain that buries an opponent already
	// stacked up to the top row.
	finishingBonus = 700_000
	topRowPenalty  = 2000
	// chains this long are held back a little in favour of growing them.
	longChainLength  = 5
	longChainPenalty = 10
	// opponent chains at least this long are assumed to hit us next ply.
	threateningChain = 11
	// the skill is fired outright when it scores at least this much.
	skillWorthFiring = 100
	// a leaf that still has room gets this many garbage rows dropped on it
	// before it is evaluated.
	leafGarbageRows = 4
	leafSpareRow    = 6
	// leafCrampedPenalty applies when that garbage is not simulated.
	leafCrampedPenalty = 20
	// per turn to wait for the tile that completes the best removal.
	waitPenalty = 3
	// rows counted when rewarding blocks kept on the board.
	blockCountRow = 5
)

// ChainSearch looks depthMax plies ahead for the move that builds or fires
// the best chain. FillOpponentTables must have been called first.
func (s *Searcher) ChainSearch(ctx context.Context, depthMax int) (Result, error) {
	if !s.tablesFilled {
		panic("dfs: ChainSearch called before FillOpponentTables")
	}
	return s.chainNode(ctx, s.root(), 0, depthMax)
}

func (s *Searcher) chainLeaf(n node, depth int) score.Score {
	me := s.snap.Me()
	b := n.b
	b.Attacked(n.stock / board.Width)
	if b.IsGameOver() {
		return score.Worst(depth)
	}

	var res equity.Result
	if me.GarbageStock < board.Width && b.RowEmpty(leafSpareRow) {
		b.Attacked(leafGarbageRows)
		res = s.opts.Cache.EraseOne(&b, equity.DefaultOptions)
	} else {
		res = s.opts.Cache.EraseOne(&b, equity.DefaultOptions)
		res.Score.HeuristicScore -= leafCrampedPenalty
	}
	sc := res.Score
	if res.Found {
		wait := s.snap.Tiles.TurnsUntil(s.snap.Turn+depth, board.Complement-res.Value)
		sc.HeuristicScore -= waitPenalty * wait
	}
	sc.HeuristicScore += b.CountBlocks(blockCountRow)
	return sc
}

// chainNode searches every drop from n. Only the root may fan out.
func (s *Searcher) chainNode(ctx context.Context, n node, depth, depthMax int) (Result, error) {
	if depth >= depthMax {
		return Result{Score: s.chainLeaf(n, depth), Action: move.Drop(0, 0)}, nil
	}
	me, opp := s.snap.Me(), s.snap.Opponent()

	cur := n
	if cur.stock >= board.Width || (depth > 0 && s.opScores[0].ChainCount >= threateningChain) {
		cur.b.Attacked(1)
		cur.stock -= board.Width
	}

	var mySkill score.Score
	if depth == 0 {
		mb := me.Board
		mySkill = mb.Simulate(tile.Empty, move.Skill)
		ob := opp.Board
		s.opSkill = ob.Simulate(tile.Empty, move.Skill)

		if e := zerolog.Ctx(ctx).Debug(); e.Enabled() {
			eb := me.Board
			myEval := s.opts.Cache.EraseOne(&eb, equity.DefaultOptions)
			predicted := max(s.opScores[0].ChainScore/2, s.opSkill.ExplosionScore/2)
			damaged := s.currentChainPotential(cur.b, predicted, 1, 4)
			e.Int("my-eval", myEval.Score.Sum()).
				Int("my-skill", mySkill.ExplosionScore).
				Int("op-skill", s.opSkill.ExplosionScore).
				Int("predicted-garbage", predicted).
				Int("chain-under-attack", damaged.ChainCount).
				Msg("chain-search-root")
		}

		if me.SkillReady() && s.skillBeatsEverything(mySkill) {
			return Result{Score: mySkill, Action: move.Skill}, nil
		}
	}

	t := s.snap.TileAt(depth)
	best := Result{Score: score.Worst(depth), Action: move.Drop(0, 0)}
	consider := func(sc score.Score, a move.Action) {
		if sc.Sum() > best.Score.Sum() {
			best = Result{Score: sc, Action: a}
		}
	}

	if depth == 0 {
		err := s.forEachDrop(ctx, s.opts.Parallel, func(i int, a move.Action) {
			sc, ok := s.chainBranch(ctx, cur, t, a, depth, depthMax)
			s.branchResults[i] = branchResult{sc: sc, valid: ok}
		}, func(i int) {
			if r := s.branchResults[i]; r.valid {
				consider(r.sc, move.DropAt(i))
			}
		})
		if err != nil {
			return best, err
		}
		if best.Score.Sum() == -score.Inf && me.SkillReady() {
			// Every drop loses; the skill is the only way out.
			return Result{Score: mySkill, Action: move.Skill}, nil
		}
		return best, nil
	}

	for i := 0; i < move.NumDrops; i++ {
		a := move.DropAt(i)
		if sc, ok := s.chainBranch(ctx, cur, t, a, depth, depthMax); ok {
			consider(sc, a)
		}
	}
	return best, nil
}

// skillBeatsEverything decides whether firing the skill right now is
// better than any chain either side could set up.
func (s *Searcher) skillBeatsEverything(mySkill score.Score) bool {
	opp := s.snap.Opponent()
	exp := mySkill.ExplosionScore
	if exp < skillWorthFiring || opp.GarbageStock >= board.Width {
		return false
	}
	if exp+2*opp.GarbageStock < 2*board.Width || exp < s.opScores[0].Sum() {
		return false
	}
	return !opp.SkillReady() || exp >= s.opSkill.Sum()
}

// chainBranch plays a from cur and scores the result. ok is false if the
// move loses on the spot.
func (s *Searcher) chainBranch(ctx context.Context, cur node, t tile.Tile, a move.Action,
	depth, depthMax int) (score.Score, bool) {

	opp := s.snap.Opponent()
	s.nodes.Add(1)
	child := cur
	now := child.b.Simulate(t, a)
	if child.b.IsGameOver() {
		return score.Score{}, false
	}

	var future score.Score
	if continues(now, t) {
		r, _ := s.chainNode(ctx, child, depth+1, depthMax)
		future = r.Score
	} else {
		future = s.chainLeaf(child, depthMax)
	}

	sc := score.Score{
		ChainScore:     now.ChainScore + future.ChainScore,
		HeuristicScore: now.HeuristicScore + future.HeuristicScore,
		ChainCount:     now.ChainCount,
	}

	if s.firesWinningChain(now, depth) {
		sc.HeuristicScore += bigChainBonus - 1000*depth - 110*cur.stock
	}
	if now.ChainCount > longChainLength {
		sc.HeuristicScore -= longChainPenalty
	}

	if depth == 0 {
		for y := board.FirstVisibleRow; y < board.DangerHeight; y++ {
			for x := 0; x < board.Width; x++ {
				if child.b.Get(y, x) == board.SkillValue {
					sc.HeuristicScore++
				}
			}
		}
		if s.opScores[0].ChainCount == 0 &&
			now.ChainScore/2+opp.GarbageStock >= board.Width &&
			now.ChainScore > s.opScores[1].Sum() &&
			opp.GarbageStock < board.Width &&
			!opp.Board.RowEmpty(board.FirstVisibleRow) {
			sc.HeuristicScore += finishingBonus
		}
	}

	if !child.b.RowEmpty(board.FirstVisibleRow) {
		sc.HeuristicScore -= topRowPenalty
	}
	for y := board.FirstVisibleRow + 1; y < 8; y++ {
		if !child.b.RowEmpty(y) {
			sc.HeuristicScore -= 8 - y
		}
	}
	return sc, true
}

// firesWinningChain is true for a chain long enough to be worth firing now:
// it outscores whatever the opponent can answer with and covers the score
// gap.
func (s *Searcher) firesWinningChain(now score.Score, depth int) bool {
	me, opp := s.snap.Me(), s.snap.Opponent()
	long := (me.Score < 10 && now.ChainCount >= 12) || (me.Score >= 10 && now.ChainCount >= 11)
	if !long {
		return false
	}
	if now.ChainScore <= opp.Score-me.Score {
		return false
	}
	if opp.Skill+score.SkillPerChain*depth >= score.MaxSkill {
		return true
	}
	net := now.ChainScore - 2*me.GarbageStock
	return net >= s.opScores[min(depth, TableSlots-1)].ChainScore &&
		net >= s.opDamaged[min(depth+2, TableSlots-1)].ChainScore
}
