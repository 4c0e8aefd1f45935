package bot

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/matryer/is"
	"github.com/nats-io/nats-server/v2/server"
	natsserver "github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/tile"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.Disabled)
	tile.Init()
	board.Init()
	os.Exit(m.Run())
}

func smallBot(t *testing.T) *Bot {
	cfg := &config.Config{}
	err := cfg.Load([]string{
		"--beam-width-first", "20", "--beam-width", "20", "--beam-late-width", "20",
		"--beam-workers", "2",
		"--dfs-parallel=false", "--dfs-depth", "1", "--opponent-depth", "1",
	})
	if err != nil {
		t.Fatal(err)
	}
	return NewBot(cfg, nil)
}

func newSnapshot(timeLeft int) *game.Snapshot {
	snap := &game.Snapshot{Turn: 3, Tiles: tile.RandomSequence(tile.MaxTurns)}
	snap.Me().TimeLeftMs = timeLeft
	snap.Opponent().TimeLeftMs = timeLeft
	return snap
}

func request(t *testing.T, timeLeft int) []byte {
	data, err := MakeRequest(newSnapshot(timeLeft))
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestHandle(t *testing.T) {
	is := is.New(t)
	bot := smallBot(t)
	resp := bot.handle(context.Background(), request(t, 30000))
	is.Equal(resp.Error, "")
	is.True(resp.Action != "")
	is.True(strings.Contains(resp.Details, "search"))
}

func TestReplyRoundTrip(t *testing.T) {
	is := is.New(t)
	bot := smallBot(t)
	a, resp, err := ParseResponse(bot.reply(context.Background(), request(t, 30000)))
	is.NoErr(err)
	is.True(a.IsDrop())
	is.Equal(resp.Mode, "chain")
}

func TestBadRequest(t *testing.T) {
	is := is.New(t)
	bot := smallBot(t)
	resp := bot.handle(context.Background(), []byte("turn: [1, 2"))
	is.True(strings.HasPrefix(resp.Error, "could not parse request"))
	is.Equal(resp.Action, "")

	_, _, err := ParseResponse(bot.reply(context.Background(), []byte("turn: 9999\n")))
	is.True(err != nil)
}

func TestParseResponse(t *testing.T) {
	is := is.New(t)
	a, resp, err := ParseResponse([]byte("action: S\nmode: skill\n"))
	is.NoErr(err)
	is.True(a.IsSkill())
	is.Equal(resp.Mode, "skill")

	_, _, err = ParseResponse([]byte("action: 12 0\n"))
	is.True(err != nil)
}

func runServer(t *testing.T) *server.Server {
	opts := natsserver.DefaultTestOptions
	opts.Port = -1
	s := natsserver.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s
}

func TestClientGetsActionFromServedBot(t *testing.T) {
	is := is.New(t)
	srv := runServer(t)
	nc, err := nats.Connect(srv.ClientURL())
	is.NoErr(err)
	defer nc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sub, err := Serve(ctx, nc, "tenfall.test", smallBot(t))
	is.NoErr(err)
	defer sub.Unsubscribe()

	client := NewClient(nc, "tenfall.test", 30*time.Second)
	a, resp, err := client.RequestAction(newSnapshot(30000))
	is.NoErr(err)
	is.True(a.IsDrop())
	is.Equal(resp.Mode, "chain")
	is.True(strings.Contains(resp.Details, "chain search"))

	// nobody answers on another subject
	other := NewClient(nc, "tenfall.nobody", time.Second)
	_, _, err = other.RequestAction(newSnapshot(30000))
	is.True(err != nil)
}
