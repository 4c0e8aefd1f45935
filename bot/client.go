package bot

import (
	"bytes"
	"errors"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
)

type Client struct {
	// NATS connection
	nc      *nats.Conn
	channel string
	timeout time.Duration
}

func NewClient(nc *nats.Conn, channel string, timeout time.Duration) *Client {
	return &Client{nc: nc, channel: channel, timeout: timeout}
}

// MakeRequest encodes a snapshot for the bot.
func MakeRequest(snap *game.Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := game.WriteSnapshot(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseResponse decodes the bot's reply into the action it chose.
func ParseResponse(data []byte) (move.Action, *Response, error) {
	resp := &Response{}
	if err := yaml.Unmarshal(data, resp); err != nil {
		return move.NoAction, nil, err
	}
	if resp.Error != "" {
		return move.NoAction, resp, errors.New("bot returned: " + resp.Error)
	}
	a, err := move.Parse(resp.Action)
	if err != nil {
		return move.NoAction, resp, err
	}
	return a, resp, nil
}

// RequestAction sends a snapshot to the bot and gets an action back.
func (c *Client) RequestAction(snap *game.Snapshot) (move.Action, *Response, error) {
	data, err := MakeRequest(snap)
	if err != nil {
		return move.NoAction, nil, err
	}
	res, err := c.nc.Request(c.channel, data, c.timeout)
	if err != nil {
		if c.nc.LastError() != nil {
			log.Error().Msgf("%v for request", c.nc.LastError())
		}
		log.Error().Msgf("%v for request", err)
		return move.NoAction, nil, err
	}
	log.Debug().Msgf("res: %v", string(res.Data))
	return ParseResponse(res.Data)
}
