// Package bot serves move analysis over NATS. A request is a YAML game
// snapshot; the reply names the move the engine would play from it.
package bot

import (
	"bytes"
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	aibot "github.com/domino14/tenfall/ai/bot"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/equity"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
)

// Response is the YAML reply to one request. Exactly one of Action and
// Error is set.
type Response struct {
	Action  string `yaml:"action,omitempty"`
	Mode    string `yaml:"mode,omitempty"`
	Plan    string `yaml:"plan,omitempty"`
	Details string `yaml:"details,omitempty"`
	Error   string `yaml:"error,omitempty"`
}

type Bot struct {
	config *config.Config
	cache  *equity.Cache
}

func NewBot(cfg *config.Config, cache *equity.Cache) *Bot {
	return &Bot{config: cfg, cache: cache}
}

func errorResponse(message string, err error) *Response {
	msg := message
	if err != nil {
		msg = fmt.Sprintf("%s: %s", msg, err.Error())
	}
	return &Response{Error: msg}
}

// Deserialize reads a request.
func (bot *Bot) Deserialize(data []byte) (*game.Snapshot, error) {
	return game.ReadSnapshot(bytes.NewReader(data))
}

// handle answers one request. Each request gets a fresh session, so a
// snapshot is judged on its own without any plan left from another game.
func (bot *Bot) handle(ctx context.Context, data []byte) *Response {
	snap, err := bot.Deserialize(data)
	if err != nil {
		return errorResponse("could not parse request", err)
	}
	ctx, cancel := context.WithTimeout(ctx, bot.config.GetDuration(config.ConfigBotTimeout))
	defer cancel()

	session := aibot.NewSession(aibot.NewConfig(bot.config), bot.cache)
	a, err := session.BestAction(ctx, snap)
	if err != nil {
		return errorResponse("search failed", err)
	}
	zerolog.Ctx(ctx).Info().Int("turn", snap.Turn).Stringer("action", a).Msg("generated-action")
	resp := &Response{
		Action:  a.String(),
		Mode:    session.Mode().String(),
		Details: session.BestActionDetails(),
	}
	if lb := session.LastBeam(); lb.Found() {
		resp.Plan = move.JoinActions(lb.Actions)
	}
	return resp
}

func (bot *Bot) reply(ctx context.Context, data []byte) []byte {
	out, err := yaml.Marshal(bot.handle(ctx, data))
	if err != nil {
		// Should never happen, but the requester still needs an answer.
		return []byte("error: " + err.Error() + "\n")
	}
	return out
}

// Serve subscribes the bot to channel on nc and waits until the server has
// seen the subscription, so requests sent after it returns are answered.
func Serve(ctx context.Context, nc *nats.Conn, channel string, bot *Bot) (*nats.Subscription, error) {
	sub, err := nc.Subscribe(channel, func(m *nats.Msg) {
		log.Info().Msgf("RECV: %d bytes", len(m.Data))
		if err := m.Respond(bot.reply(ctx, m.Data)); err != nil {
			log.Err(err).Msg("respond")
		}
	})
	if err != nil {
		return nil, fmt.Errorf("subscribing to %s: %w", channel, err)
	}
	if err := nc.Flush(); err != nil {
		return nil, err
	}
	if err := nc.LastError(); err != nil {
		return nil, err
	}
	return sub, nil
}

// Main answers requests on channel until ctx is done, then drains the
// connection.
func Main(ctx context.Context, url, channel string, bot *Bot) error {
	nc, err := nats.Connect(url, nats.Name("tenfall-bot"))
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", url, err)
	}
	if _, err := Serve(ctx, nc, channel, bot); err != nil {
		nc.Close()
		return err
	}
	log.Info().Msgf("Listening on [%s]", channel)

	<-ctx.Done()
	return nc.Drain()
}
