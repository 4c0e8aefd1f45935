// analyze picks a move for a single position stored as YAML and explains
// how it got there. With --remote the position goes to the NATS analysis
// worker instead.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tenfall/ai/bot"
	"github.com/domino14/tenfall/board"
	natsbot "github.com/domino14/tenfall/bot"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/tile"
)

// remoteSlack is added to the worker's own time limit when waiting for it.
const remoteSlack = 5 * time.Second

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if len(cfg.Args()) != 1 {
		fmt.Fprintln(os.Stderr, "usage: analyze [flags] snapshot.yaml")
		os.Exit(2)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	tile.Init()
	board.Init()

	ctx := log.Logger.WithContext(context.Background())
	if err := run(ctx, cfg, cfg.Args()[0], os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("analyze")
	}
}

func run(ctx context.Context, cfg *config.Config, path string, out io.Writer) error {
	snap, err := game.LoadSnapshot(path)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, snap.String())

	var a move.Action
	if cfg.GetBool(config.ConfigRemote) {
		a, err = analyzeRemote(cfg, snap, out)
	} else {
		a, err = analyzeLocal(ctx, cfg, snap, out)
	}
	if err != nil {
		return err
	}

	after := snap.Me().Board
	if snap.Me().GarbageStock >= board.Width {
		after.Attacked(1)
	}
	sc := after.Simulate(snap.TileAt(0), a)
	fmt.Fprintf(out, "result: %v\n%s", sc, after.ToDisplayText())
	return nil
}

func analyzeLocal(ctx context.Context, cfg *config.Config, snap *game.Snapshot, out io.Writer) (move.Action, error) {
	cache := equity.NewCache(cfg.GetFloat64(config.ConfigEvalCacheFraction))
	session := bot.NewSession(bot.NewConfig(cfg), cache)

	start := time.Now()
	a, err := session.BestAction(ctx, snap)
	if err != nil {
		return a, fmt.Errorf("searching: %w", err)
	}
	fmt.Fprintf(out, "best action: %v (%v)\n", a, time.Since(start))
	fmt.Fprintln(out, session.BestActionDetails())
	if bm := session.LastBeam(); bm.Found() {
		fmt.Fprintf(out, "beam: %d chain in %d turns, plan %s\n",
			bm.Score.ChainCount, bm.RequireTurn, move.JoinActions(bm.Actions))
	}
	fmt.Fprintf(out, "mode for next turn: %v, %d moves queued\n", session.Mode(), session.PlanLength())
	return a, nil
}

func analyzeRemote(cfg *config.Config, snap *game.Snapshot, out io.Writer) (move.Action, error) {
	url := cfg.GetString(config.ConfigNatsURL)
	nc, err := nats.Connect(url, nats.Name("tenfall-analyze"))
	if err != nil {
		return move.NoAction, fmt.Errorf("connecting to %s: %w", url, err)
	}
	defer nc.Close()

	client := natsbot.NewClient(nc, cfg.GetString(config.ConfigBotChannel),
		cfg.GetDuration(config.ConfigBotTimeout)+remoteSlack)
	start := time.Now()
	a, resp, err := client.RequestAction(snap)
	if err != nil {
		return a, fmt.Errorf("remote analysis: %w", err)
	}
	fmt.Fprintf(out, "best action: %v (%v, remote)\n", a, time.Since(start))
	fmt.Fprintln(out, resp.Details)
	if resp.Plan != "" {
		fmt.Fprintf(out, "beam plan %s\n", resp.Plan)
	}
	fmt.Fprintf(out, "mode for next turn: %s\n", resp.Mode)
	return a, nil
}
