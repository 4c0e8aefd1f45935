// Package score holds the value object the simulator returns and the
// game's fixed scoring tables.
package score

import (
	"fmt"
	"math"
)

const (
	// Inf is used as the magnitude of a pruned branch's heuristic.
	Inf = 1_000_000_000

	// MaxSkill is the meter value at which the skill may be fired.
	MaxSkill = 80
	// SkillPerChain is how much the meter grows for a move that chains.
	SkillPerChain = 8
	// SkillCap is the most the meter holds. It keeps filling past MaxSkill.
	SkillCap = 100
)

// chainScores is indexed by chain count. These values come from the game
// rules and must not be tuned.
var chainScores = [64]int{
	0, 1, 2, 3, 6, 9, 12, 17, 23,
	32, 42, 56, 74, 97, 127, 167, 218,
	285, 371, 483, 630, 820, 1067, 1388, 1806,
	2348, 3054, 3971, 5164, 6714, 8729, 11349, 14755,
	19183, 24939, 32422, 42150, 54796, 71237, 92609, 120392,
	156511, 203466, 264507, 343860, 447019, 581126, 755465, 982105,
	1276738, 1659760, 2157689, 2804997, 3646498, 4740448, 6162584, 8011360,
	10414770, 13539202, 17600963, 22881253, 29745631, 38669321, 50270118,
}

// MaxChain is the largest chain count the table covers.
const MaxChain = len(chainScores) - 1

// Score is the outcome of one simulation step. ChainScore and
// ExplosionScore are what the game awards; HeuristicScore only exists to
// rank moves and is never reported anywhere.
type Score struct {
	ChainScore     int
	ExplosionScore int
	HeuristicScore int
	ChainCount     int
}

// Sum is the ranking key for moves.
func (s Score) Sum() int {
	return s.ChainScore + s.ExplosionScore + s.HeuristicScore
}

// Awarded is the part of the score the game actually hands out.
func (s Score) Awarded() int {
	return s.ChainScore + s.ExplosionScore
}

func (s Score) String() string {
	return fmt.Sprintf("<score chain=%d(%d) explosion=%d heuristic=%d sum=%d>",
		s.ChainCount, s.ChainScore, s.ExplosionScore, s.HeuristicScore, s.Sum())
}

// Worst is the score of a pruned branch found at the given depth. Deeper
// losses score slightly better so that the search prefers to postpone them.
func Worst(depth int) Score {
	return Score{HeuristicScore: -Inf + depth}
}

// ChargeSkill returns the meter after a drop that scored sc.
func ChargeSkill(meter int, sc Score) int {
	if sc.ChainCount == 0 {
		return meter
	}
	return min(SkillCap, meter+SkillPerChain)
}

// ForChain returns the table score for a chain count.
func ForChain(chains int) int {
	if chains < 0 || chains > MaxChain {
		panic(fmt.Sprintf("score: chain count %d outside table", chains))
	}
	return chainScores[chains]
}

// Explosion returns the skill score for erasing n blocks: 25 * 2^(n/12)
// rounded down, and nothing at all for an empty explosion.
func Explosion(n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Floor(25 * math.Pow(2, float64(n)/12)))
}
