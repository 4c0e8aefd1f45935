package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tenfall/ai/bot"
	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/protocol"
	"github.com/domino14/tenfall/tile"
)

const engineName = "tenfall"

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	// stdout belongs to the game server, so all logging goes to stderr.
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	output.FormatLevel = func(i interface{}) string {
		return strings.ToUpper(fmt.Sprintf("| %-6s|", i))
	}
	var logger zerolog.Logger
	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		logger = zerolog.New(output).Level(zerolog.DebugLevel).With().Timestamp().Logger()
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		logger = zerolog.New(output).Level(zerolog.InfoLevel).With().Timestamp().Logger()
	}
	zerolog.DefaultContextLogger = &logger
	log.Logger = logger

	if path := cfg.GetString(config.ConfigCPUProfile); path != "" {
		f, err := os.Create(path)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create CPU profile")
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal().Err(err).Msg("could not start CPU profile")
		}
		defer pprof.StopCPUProfile()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	tile.Init()
	board.Init()

	if err := run(ctx, cfg, os.Stdin, os.Stdout); err != nil {
		log.Error().Err(err).Msg("game-loop")
		return
	}
	log.Info().Msg("input closed, exiting")
}

func run(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) error {
	r := protocol.NewReader(in)
	w := protocol.NewWriter(out)
	if err := w.WriteName(engineName); err != nil {
		return err
	}
	tiles, err := r.ReadTiles()
	if err != nil {
		return fmt.Errorf("reading tiles: %w", err)
	}

	cache := equity.NewCache(cfg.GetFloat64(config.ConfigEvalCacheFraction))
	session := bot.NewSession(bot.NewConfig(cfg), cache)
	defer func() {
		lookups, hits, _ := cache.Stats()
		log.Info().Uint64("cache-lookups", lookups).Uint64("cache-hits", hits).
			Msg("session-summary:\n" + session.Summary())
	}()

	for {
		snap, err := r.ReadTurn(tiles)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading turn: %w", err)
		}
		log.Debug().Msg("snapshot:\n" + snap.String())

		a, err := session.BestAction(ctx, snap)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// an answer of some kind keeps the game going
			log.Error().Err(err).Int("turn", snap.Turn).Msg("no-action-found")
			a = move.Drop(0, 0)
		}
		if err := w.WriteAction(a); err != nil {
			return fmt.Errorf("writing action: %w", err)
		}
	}
}
