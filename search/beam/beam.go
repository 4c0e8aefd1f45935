// Package beam searches a long way ahead for the fastest route to a big
// chain. Only the best Width positions survive each ply.
package beam

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/tile"
)

const (
	// Depth is the number of plies searched.
	Depth = 21
	// NotFound is the RequireTurn of a search that found no chain.
	NotFound = score.Inf

	DefaultWorkers = 16
	DefaultCutoff  = 18 * time.Second
	// DefaultLateWidth is the beam width of the last plies, whatever the
	// width before them.
	DefaultLateWidth = 5000

	lateWidthPly  = Depth - 4
	openingColumn = 4
	// a chain must be longer than this to count as fired.
	minFiredChain = 1

	spareRow       = 6
	openingGarbage = 4
	topRowPenalty  = 1000
	tallRowPenalty = 5
	tallRowLimit   = 10
	blockCountRow  = 5
)

// Request describes one search.
type Request struct {
	Board board.Board
	Tiles tile.Sequence
	// Turn is the game turn of the first ply.
	Turn int
	// Target is the chain length that ends the search early.
	Target int
	Width  int
	// UseSides allows drops into the leftmost column.
	UseSides bool
}

// Result is the best chain found and how to get there. Actions holds one
// action per ply up to and including the firing move.
type Result struct {
	Score       score.Score
	RequireTurn int
	Actions     []move.Action
}

// Found is true if some chain of at least two was reached.
func (r Result) Found() bool {
	return r.RequireTurn != NotFound
}

// state is one beam entry. plan stores drop indices plus one so that the
// zero value means no action.
type state struct {
	b           board.Board
	sc          score.Score
	plan        [Depth]uint8
	requireTurn int
}

func (st *state) actions() []move.Action {
	var as []move.Action
	for _, p := range st.plan {
		if p == 0 {
			break
		}
		as = append(as, move.DropAt(int(p-1)))
	}
	return as
}

type rankedIdx struct {
	sum int
	idx int
}

// Searcher runs beam searches. Its buffers are reused from one search to
// the next, so a Searcher must not run two searches at once.
type Searcher struct {
	Workers   int
	Cutoff    time.Duration
	LateWidth int
	Cache     *equity.Cache

	states []state
	next   []state
	valid  []bool
	ranked []rankedIdx
}

// NewSearcher creates a searcher with the default worker count, late width
// and time cutoff.
func NewSearcher(cache *equity.Cache) *Searcher {
	return &Searcher{
		Workers:   DefaultWorkers,
		Cutoff:    DefaultCutoff,
		LateWidth: DefaultLateWidth,
		Cache:     cache,
	}
}

// plyWidth is the number of states expanded at ply. A LateWidth of zero
// keeps the request's width to the end.
func (s *Searcher) plyWidth(ply, width int) int {
	if ply > lateWidthPly && s.LateWidth > 0 {
		return s.LateWidth
	}
	return width
}

// allowedColumn applies the column restrictions: no leftmost column unless
// sides are allowed, and only the centre column for the very first drop of
// the game.
func allowedColumn(gameTurn, ply, col int, useSides bool) bool {
	if !useSides && col == 0 {
		return false
	}
	if gameTurn == 0 && ply == 0 && col != openingColumn {
		return false
	}
	return true
}

// better reports whether a beats b. Once both reach the target the
// quicker chain wins; before that the longer one does.
func better(a, b *state, target int) bool {
	if a.sc.ChainCount >= target && b.sc.ChainCount >= target {
		if a.requireTurn != b.requireTurn {
			return a.requireTurn < b.requireTurn
		}
		if a.sc.ChainCount != b.sc.ChainCount {
			return a.sc.ChainCount > b.sc.ChainCount
		}
		return a.sc.HeuristicScore > b.sc.HeuristicScore
	}
	if a.sc.ChainCount != b.sc.ChainCount {
		return a.sc.ChainCount > b.sc.ChainCount
	}
	return a.requireTurn < b.requireTurn
}

// keyPlyShift orders finished chains by ply, then by slot.
const keyPlyShift = 40

type finished struct {
	st  state
	key int
	ok  bool
}

// offer replaces f with candidate if it is better, or equally good but
// found at a lower key.
func (f *finished) offer(candidate *state, key, target int) {
	if !f.ok || better(candidate, &f.st, target) ||
		(!better(&f.st, candidate, target) && key < f.key) {
		f.st = *candidate
		f.key = key
		f.ok = true
	}
}

// Search runs the beam. It stops early once the target is reached, when
// the beam runs dry, when Cutoff has elapsed or when ctx is done; the best
// chain found so far is returned in every case.
func (s *Searcher) Search(ctx context.Context, req Request) Result {
	logger := zerolog.Ctx(ctx)
	start := time.Now()
	deadline := start.Add(s.Cutoff)
	workers := max(1, s.Workers)

	best := finished{st: state{requireTurn: NotFound}}
	s.states = append(s.states[:0], state{b: req.Board, requireTurn: NotFound})

	for ply := 0; ply < Depth; ply++ {
		width := s.plyWidth(ply, req.Width)
		if best.ok && best.st.sc.ChainCount >= req.Target {
			break
		}
		if len(s.states) == 0 || time.Now().After(deadline) || ctx.Err() != nil {
			break
		}
		s.selectTop(width)

		n := len(s.states)
		s.next = slices.Grow(s.next[:0], n*move.NumDrops)[:n*move.NumDrops]
		s.valid = slices.Grow(s.valid[:0], n*move.NumDrops)[:n*move.NumDrops]
		clear(s.valid)

		t := req.Tiles.At(req.Turn + ply)
		var mu sync.Mutex
		counter := 0
		plyBest := make([]finished, workers)

		g := errgroup.Group{}
		for w := 0; w < workers; w++ {
			g.Go(func() error {
				for {
					mu.Lock()
					if counter == n {
						mu.Unlock()
						return nil
					}
					i := counter
					counter++
					mu.Unlock()
					if ctx.Err() != nil {
						return nil
					}
					if !s.expand(req, ply, t, i, deadline, &plyBest[w]) {
						return nil
					}
				}
			})
		}
		g.Wait()

		for w := range plyBest {
			if plyBest[w].ok {
				best.offer(&plyBest[w].st, plyBest[w].key, req.Target)
			}
		}
		s.states = s.states[:0]
		for i := range s.next {
			if s.valid[i] {
				s.states = append(s.states, s.next[i])
			}
		}
		logger.Debug().Int("ply", ply).Int("beam", len(s.states)).
			Int("best-chain", best.st.sc.ChainCount).Msg("beam-ply")
	}

	res := Result{Score: best.st.sc, RequireTurn: best.st.requireTurn, Actions: best.st.actions()}
	logger.Debug().Int("chain", res.Score.ChainCount).Int("require-turn", res.RequireTurn).
		Dur("elapsed", time.Since(start)).Msg("beam-search-done")
	return res
}

// selectTop keeps the width best states, best first. Equal sums keep their
// current order.
func (s *Searcher) selectTop(width int) {
	s.ranked = s.ranked[:0]
	for i := range s.states {
		s.ranked = append(s.ranked, rankedIdx{sum: s.states[i].sc.Sum(), idx: i})
	}
	slices.SortFunc(s.ranked, func(a, b rankedIdx) int {
		if c := cmp.Compare(b.sum, a.sum); c != 0 {
			return c
		}
		return cmp.Compare(a.idx, b.idx)
	})
	keep := min(width, len(s.ranked))
	// reuse next as scratch space for the reordering
	s.next = append(s.next[:0], s.states...)
	s.states = s.states[:keep]
	for i := 0; i < keep; i++ {
		s.states[i] = s.next[s.ranked[i].idx]
	}
}

// expand plays every allowed drop from state i. It returns false once the
// deadline has passed.
func (s *Searcher) expand(req Request, ply int, t tile.Tile, i int, deadline time.Time,
	best *finished) bool {

	parent := &s.states[i]
	for col := 0; col < move.Columns; col++ {
		if !allowedColumn(req.Turn, ply, col, req.UseSides) {
			continue
		}
		for rot := 0; rot < move.Rotations; rot++ {
			if time.Now().After(deadline) {
				return false
			}
			a := move.Drop(col, rot)
			slot := i*move.NumDrops + col*move.Rotations + rot
			next := *parent
			now := next.b.Simulate(t, a)
			if !next.b.RowEmpty(board.FirstVisibleRow) {
				continue
			}
			next.plan[ply] = uint8(col*move.Rotations+rot) + 1

			if now.ChainCount > minFiredChain {
				next.sc = now
				next.requireTurn = ply
				if now.ChainCount >= req.Target {
					next.sc.HeuristicScore += next.b.CountBlocks(blockCountRow)
				}
				best.offer(&next, ply<<keyPlyShift|slot, req.Target)
				continue
			}

			s.shape(req, &next, now)
			s.next[slot] = next
			s.valid[slot] = true
		}
	}
	return true
}

// shape scores a position that is still building.
func (s *Searcher) shape(req Request, next *state, now score.Score) {
	var res equity.Result
	evaluated := false
	if req.Turn == 0 {
		if next.b.RowEmpty(spareRow) {
			d := next.b
			d.Attacked(openingGarbage)
			res = s.Cache.EraseOne(&d, equity.DefaultOptions)
			evaluated = true
		}
	} else {
		res = s.Cache.EraseOne(&next.b, equity.DefaultOptions)
		evaluated = true
	}
	if evaluated {
		next.sc = res.Score
	}

	if now.ChainCount == 1 {
		next.sc.HeuristicScore--
	}
	if res.Found {
		y := res.Point.Row
		if y == board.BottomRow {
			next.sc.HeuristicScore -= 50
		}
		if req.Turn > 0 {
			// the opponent will likely attack before this fires, so the
			// trigger should sit high
			switch y {
			case board.BottomRow - 1:
				next.sc.HeuristicScore -= 40
			case board.BottomRow - 2:
				next.sc.HeuristicScore -= 10
			case board.BottomRow - 3:
				next.sc.HeuristicScore -= 5
			}
			next.sc.HeuristicScore -= 2 * y
		}
	}
	if !next.b.RowEmpty(board.FirstVisibleRow) {
		next.sc.HeuristicScore -= topRowPenalty
	}
	for y := board.FirstVisibleRow + 1; y < tallRowLimit; y++ {
		if !next.b.RowEmpty(y) {
			next.sc.HeuristicScore -= tallRowPenalty
		}
	}
}
