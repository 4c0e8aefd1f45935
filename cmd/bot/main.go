package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/bot"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/tile"
)

func main() {
	cfg := &config.Config{}
	if err := cfg.Load(os.Args[1:]); err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	log.Info().Msgf("Loaded config: %v", cfg.AllSettings())

	if cfg.GetBool(config.ConfigDebug) {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	tile.Init()
	board.Init()

	b := bot.NewBot(cfg, equity.NewCache(cfg.GetFloat64(config.ConfigEvalCacheFraction)))
	if err := bot.Main(ctx, cfg.GetString(config.ConfigNatsURL), cfg.GetString(config.ConfigBotChannel), b); err != nil {
		log.Fatal().Err(err).Msg("bot")
	}
	log.Info().Msg("server gracefully shutting down")
}
