// bench plays solitaire games on random tile sequences and reports how long
// the engine thinks per turn and how big its chains get.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/aybabtme/uniplot/histogram"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tenfall/ai/bot"
	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/score"
	"github.com/domino14/tenfall/stats"
	"github.com/domino14/tenfall/tile"
)

const (
	defaultGames = 3
	defaultTurns = 60
	startingTime = 180 * time.Second
	histBins     = 15
)

type gameResult struct {
	turns    int
	score    int
	maxChain int
	skills   int
	toppedUp bool
}

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}

	games, turns := defaultGames, defaultTurns
	args := cfg.Args()
	var err error
	if len(args) > 0 {
		if games, err = strconv.Atoi(args[0]); err != nil {
			log.Fatal().Err(err).Msg("games")
		}
	}
	if len(args) > 1 {
		if turns, err = strconv.Atoi(args[1]); err != nil {
			log.Fatal().Err(err).Msg("turns")
		}
	}

	tile.Init()
	board.Init()
	cache := equity.NewCache(cfg.GetFloat64(config.ConfigEvalCacheFraction))
	ctx := log.Logger.WithContext(context.Background())

	var turnMs []float64
	var chains stats.Statistic
	for g := 0; g < games; g++ {
		session := bot.NewSession(bot.NewConfig(cfg), cache)
		res, err := play(ctx, session, tile.RandomSequence(tile.MaxTurns), turns, &turnMs)
		if err != nil {
			log.Fatal().Err(err).Int("game", g).Msg("bench")
		}
		chains.Push(float64(res.maxChain))
		fmt.Printf("game %d: %d turns, score %d, longest chain %d, %d skills, topped out: %v\n",
			g, res.turns, res.score, res.maxChain, res.skills, res.toppedUp)
		fmt.Print(session.Summary())
		lookups, hits, _ := cache.Stats()
		fmt.Printf("eval cache: %d lookups, %d hits\n\n", lookups, hits)
	}
	fmt.Printf("longest chain: mean %.1f ± %.1f, best %.0f\n",
		chains.Mean(), chains.ConfidenceInterval(95), chains.Max())

	if len(turnMs) == 0 {
		return
	}
	fmt.Println("think time per turn (ms):")
	if err := histogram.Fprint(os.Stdout, histogram.Hist(histBins, turnMs), histogram.Linear(40)); err != nil {
		log.Fatal().Err(err).Msg("histogram")
	}
}

// play runs one game against an opponent that never moves, charging the
// engine's clock with the time it actually spends.
func play(ctx context.Context, session *bot.Session, tiles tile.Sequence, turns int,
	turnMs *[]float64) (gameResult, error) {

	var res gameResult
	snap := &game.Snapshot{Tiles: tiles}
	me := snap.Me()
	me.TimeLeftMs = int(startingTime / time.Millisecond)
	snap.Opponent().TimeLeftMs = me.TimeLeftMs

	for turn := 0; turn < turns; turn++ {
		snap.Turn = turn
		start := time.Now()
		a, err := session.BestAction(ctx, snap)
		if err != nil {
			return res, err
		}
		elapsed := time.Since(start)
		*turnMs = append(*turnMs, float64(elapsed)/float64(time.Millisecond))
		me.TimeLeftMs = max(0, me.TimeLeftMs-int(elapsed/time.Millisecond))

		var sc score.Score
		if a.IsSkill() {
			sc = me.Board.Simulate(tile.Empty, move.Skill)
			me.Skill = 0
			res.skills++
		} else {
			sc = me.Board.Simulate(snap.TileAt(0), a)
			me.Skill = score.ChargeSkill(me.Skill, sc)
		}
		me.Score += sc.Awarded()
		res.maxChain = max(res.maxChain, sc.ChainCount)
		res.turns = turn + 1
		if me.Board.IsGameOver() {
			res.toppedUp = true
			break
		}
	}
	res.score = me.Score
	return res, nil
}
