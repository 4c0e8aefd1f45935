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

// TableSlots is the number of plies the opponent tables cover.
const TableSlots = 8

// Table holds, per ply, the biggest chain the opponent can fire by then.
// Each slot is at least as big (by chain count) as the one before it.
type Table [TableSlots]score.Score

// continues is true if a move leaves the position open for more building:
// it did not chain, or the only chain was one the tile forces anyway.
func continues(sc score.Score, t tile.Tile) bool {
	return sc.ChainCount == 0 || (sc.ChainCount == 1 && t.IsSelfIgniting())
}

// FillOpponentTables searches the opponent's moves up to depthMax plies and
// records the largest chain reachable at each ply, both with the
// opponent's own garbage falling on schedule and with a garbage row assumed
// to land on every ply. It also evaluates the opponent's current board.
func (s *Searcher) FillOpponentTables(ctx context.Context, depthMax int) error {
	opp := s.snap.Opponent()
	depthMax = max(1, min(TableSlots, depthMax))

	var raw, rawDamaged Table
	err := s.forEachDrop(ctx, s.opts.Parallel, func(i int, a move.Action) {
		var local Table
		b := opp.Board
		stock := opp.GarbageStock
		if stock >= board.Width {
			b.Attacked(1)
			stock -= board.Width
		}
		s.opponentBranch(b, a, 0, depthMax, stock, false, &local)
		s.branchTables[i] = local
	}, func(i int) {
		mergeTable(&raw, &s.branchTables[i])
	})
	if err != nil {
		return err
	}
	err = s.forEachDrop(ctx, s.opts.Parallel, func(i int, a move.Action) {
		var local Table
		b := opp.Board
		if opp.GarbageStock >= board.Width {
			b.Attacked(1)
		}
		s.opponentBranch(b, a, 0, depthMax, 0, true, &local)
		s.branchTables[i] = local
	}, func(i int) {
		mergeTable(&rawDamaged, &s.branchTables[i])
	})
	if err != nil {
		return err
	}

	s.opScores = accumulate(&raw, depthMax, false)
	s.opDamaged = accumulate(&rawDamaged, depthMax, true)
	ob := opp.Board
	s.opEval = s.opts.Cache.EraseOne(&ob, equity.DefaultOptions)
	s.tablesFilled = true

	zerolog.Ctx(ctx).Debug().
		Int("depth", depthMax).
		Int("op-chain-now", s.opScores[0].ChainCount).
		Int("op-chain-max", s.opScores[TableSlots-1].ChainCount).
		Int("op-damaged-chain-max", s.opDamaged[TableSlots-1].ChainCount).
		Int("op-eval", s.opEval.Score.Sum()).
		Msg("opponent-tables")
	return nil
}

// opponentBranch plays a at the given ply and either records the chain it
// fires or keeps building from the new position.
func (s *Searcher) opponentBranch(b board.Board, a move.Action, depth, depthMax, stock int,
	damaged bool, raw *Table) {

	s.nodes.Add(1)
	t := s.snap.TileAt(depth)
	sc := b.Simulate(t, a)
	if b.IsGameOver() {
		return
	}
	if continues(sc, t) {
		s.opponentNode(b, depth+1, depthMax, stock, damaged, raw)
		return
	}
	if sc.ChainCount > raw[depth].ChainCount {
		raw[depth] = sc
	}
}

func (s *Searcher) opponentNode(b board.Board, depth, depthMax, stock int, damaged bool, raw *Table) {
	if depth >= depthMax {
		return
	}
	switch {
	case damaged:
		b.Attacked(1)
	case stock >= board.Width:
		b.Attacked(1)
		stock -= board.Width
	}
	for i := 0; i < move.NumDrops; i++ {
		s.opponentBranch(b, move.DropAt(i), depth, depthMax, stock, damaged, raw)
	}
}

func mergeTable(dst, src *Table) {
	for d := range dst {
		if src[d].ChainCount > dst[d].ChainCount {
			dst[d] = src[d]
		}
	}
}

// accumulate turns per-ply maxima into running maxima. Plies past depthMax
// repeat the last searched ply. With countOnly, a slot that is beaten by an
// earlier one only inherits its chain count.
func accumulate(raw *Table, depthMax int, countOnly bool) Table {
	var out Table
	out[0] = raw[0]
	for d := 1; d < TableSlots; d++ {
		prev := out[d-1]
		switch {
		case d >= depthMax:
			out[d] = prev
		case raw[d].ChainCount > prev.ChainCount:
			out[d] = raw[d]
		case countOnly:
			out[d] = score.Score{ChainCount: prev.ChainCount}
		default:
			out[d] = prev
		}
	}
	return out
}

// currentChainPotential is the biggest chain (by count) reachable from b
// within depthMax plies while stock garbage keeps falling, one row per ply.
func (s *Searcher) currentChainPotential(b board.Board, stock, depth, depthMax int) score.Score {
	var best score.Score
	if depth >= depthMax {
		return best
	}
	t := s.snap.TileAt(depth)
	for i := 0; i < move.NumDrops; i++ {
		s.nodes.Add(1)
		p := b
		st := stock
		if st >= board.Width {
			p.Attacked(1)
			st -= board.Width
		}
		sc := p.Simulate(t, move.DropAt(i))
		if p.IsGameOver() {
			continue
		}
		if continues(sc, t) {
			sc = s.currentChainPotential(p, st, depth+1, depthMax)
		}
		if sc.ChainCount > best.ChainCount {
			best = sc
		}
	}
	return best
}
