// Package dfs is the exhaustive short-horizon searcher. It enumerates every
// drop for a few plies and ranks them with hand-tuned heuristics, either
// aiming for big chains (ChainSearch) or for a big skill explosion
// (SkillSearch).
package dfs

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
)

// Options configure a Searcher.
type Options struct {
	// Parallel fans the root moves out over goroutines.
	Parallel bool
	// Threads caps the number of goroutines when Parallel is set. Zero
	// means one per root move.
	Threads int
	// Cache memoizes board evaluations. It may be nil.
	Cache *equity.Cache
}

// Result is the best move found and the score it was ranked with.
type Result struct {
	Score  score.Score
	Action move.Action
}

// Searcher runs the depth-first searches for one turn. It owns a copy of
// the snapshot, so the caller's snapshot is never touched.
type Searcher struct {
	snap game.Snapshot
	opts Options

	opScores     Table
	opDamaged    Table
	opEval       equity.Result
	opSkill      score.Score
	tablesFilled bool

	branchTables  [move.NumDrops]Table
	branchResults [move.NumDrops]branchResult

	nodes atomic.Uint64
}

type branchResult struct {
	sc     score.Score
	chains int
	valid  bool
}

// NewSearcher creates a searcher for the given turn.
func NewSearcher(snap *game.Snapshot, opts Options) *Searcher {
	return &Searcher{snap: *snap, opts: opts}
}

// OpponentTable returns the opponent's reachable chains with its own
// garbage schedule.
func (s *Searcher) OpponentTable() Table { return s.opScores }

// OpponentDamagedTable returns the opponent's reachable chains assuming a
// garbage row lands every ply.
func (s *Searcher) OpponentDamagedTable() Table { return s.opDamaged }

// OpponentEval is the single-removal evaluation of the opponent's board.
func (s *Searcher) OpponentEval() equity.Result { return s.opEval }

// Nodes is the number of positions simulated so far.
func (s *Searcher) Nodes() uint64 { return s.nodes.Load() }

// node is a searched position: a board and the garbage still queued for it.
type node struct {
	b     board.Board
	stock int
}

func (s *Searcher) root() node {
	me := s.snap.Me()
	return node{b: me.Board, stock: me.GarbageStock}
}

// withPendingGarbage drops one garbage row if a full row is queued.
func (n node) withPendingGarbage() node {
	if n.stock >= board.Width {
		n.b.Attacked(1)
		n.stock -= board.Width
	}
	return n
}

// forEachDrop calls eval for every drop, concurrently if parallel, and then
// calls reduce for every drop in enumeration order. Reducing in order keeps
// tie-breaking identical to a serial search.
func (s *Searcher) forEachDrop(ctx context.Context, parallel bool,
	eval func(i int, a move.Action), reduce func(i int)) error {

	if !parallel {
		for i := 0; i < move.NumDrops; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			eval(i, move.DropAt(i))
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		if s.opts.Threads > 0 {
			g.SetLimit(s.opts.Threads)
		}
		for i := 0; i < move.NumDrops; i++ {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				eval(i, move.DropAt(i))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	for i := 0; i < move.NumDrops; i++ {
		reduce(i)
	}
	return nil
}
