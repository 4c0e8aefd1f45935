// Package protocol speaks the game server's text protocol over a pair of
// streams. The server sends the whole tile sequence once, then one block
// per turn; the engine answers each turn with a single line.
package protocol

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/game"
	"github.com/domino14/tenfall/move"
	"github.com/domino14/tenfall/tile"
)

const endToken = "END"

var ErrMalformedInput = errors.New("malformed input")

// Reader tokenizes server input. Line breaks carry no meaning; every value
// is a whitespace-separated word.
type Reader struct {
	sc *bufio.Scanner
}

func NewReader(r io.Reader) *Reader {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	return &Reader{sc: sc}
}

func (r *Reader) word() (string, error) {
	if !r.sc.Scan() {
		if err := r.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.sc.Text(), nil
}

func (r *Reader) number() (int, error) {
	w, err := r.word()
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(w)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedInput, w)
	}
	return n, nil
}

func (r *Reader) end() error {
	w, err := r.word()
	if err != nil {
		return err
	}
	if w != endToken {
		return fmt.Errorf("%w: expected %s, got %q", ErrMalformedInput, endToken, w)
	}
	return nil
}

// unexpected turns a clean EOF in the middle of a block into an error.
func unexpected(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}
	return err
}

// ReadTiles reads the opening block: MaxTurns tiles, each given as upper
// left, upper right, lower left and lower right followed by END.
func (r *Reader) ReadTiles() (tile.Sequence, error) {
	seq := make(tile.Sequence, tile.MaxTurns)
	for i := range seq {
		var cells [4]int
		for j := range cells {
			v, err := r.number()
			if err != nil {
				return nil, fmt.Errorf("tile %d: %w", i, unexpected(err))
			}
			if v < 0 || v > tile.MaxValue {
				return nil, fmt.Errorf("tile %d: %w: cell value %d", i, ErrMalformedInput, v)
			}
			cells[j] = v
		}
		if err := r.end(); err != nil {
			return nil, fmt.Errorf("tile %d: %w", i, unexpected(err))
		}
		seq[i] = tile.New(cells[0], cells[1], cells[2], cells[3])
	}
	return seq, nil
}

// ReadTurn reads one turn block. It returns io.EOF, unwrapped, if the input
// ends cleanly before the block starts.
func (r *Reader) ReadTurn(tiles tile.Sequence) (*game.Snapshot, error) {
	turn, err := r.number()
	if err != nil {
		return nil, err
	}
	if turn < 0 || turn >= tile.MaxTurns {
		return nil, fmt.Errorf("%w: turn %d", ErrMalformedInput, turn)
	}
	snap := &game.Snapshot{Turn: turn, Tiles: tiles}
	for i := range snap.Players {
		if err := r.readPlayer(&snap.Players[i]); err != nil {
			return nil, fmt.Errorf("turn %d, player %d: %w", turn, i, unexpected(err))
		}
	}
	return snap, nil
}

func (r *Reader) readPlayer(p *game.PlayerState) error {
	for _, dst := range []*int{&p.TimeLeftMs, &p.GarbageStock, &p.Skill, &p.Score} {
		v, err := r.number()
		if err != nil {
			return err
		}
		*dst = v
	}
	rows := make([][]int, board.Height)
	for y := range rows {
		rows[y] = make([]int, board.Width)
		for x := range rows[y] {
			v, err := r.number()
			if err != nil {
				return err
			}
			rows[y][x] = v
		}
	}
	b, err := board.FromVisible(rows)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedInput, err)
	}
	p.Board = b
	return r.end()
}

// Writer sends the engine's replies. Every line is flushed immediately
// since the server waits on it.
type Writer struct {
	w *bufio.Writer
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

func (w *Writer) line(s string) error {
	if _, err := w.w.WriteString(s + "\n"); err != nil {
		return err
	}
	return w.w.Flush()
}

// WriteName announces the engine. It must be the first line sent.
func (w *Writer) WriteName(name string) error {
	return w.line(name)
}

func (w *Writer) WriteAction(a move.Action) error {
	return w.line(a.String())
}
