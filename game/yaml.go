package game

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/domino14/tenfall/board"
	"github.com/domino14/tenfall/tile"
)

var ErrBadSnapshot = errors.New("bad snapshot")

type yamlPlayer struct {
	TimeLeftMs   int     `yaml:"time_left_ms"`
	GarbageStock int     `yaml:"garbage_stock"`
	Skill        int     `yaml:"skill"`
	Score        int     `yaml:"score"`
	Field        [][]int `yaml:"field,flow"`
}

type yamlSnapshot struct {
	Turn  int        `yaml:"turn"`
	Me    yamlPlayer `yaml:"me"`
	Opp   yamlPlayer `yaml:"opponent"`
	Tiles [][]int    `yaml:"tiles,flow"`
}

func toYAMLPlayer(p *PlayerState) yamlPlayer {
	return yamlPlayer{
		TimeLeftMs:   p.TimeLeftMs,
		GarbageStock: p.GarbageStock,
		Skill:        p.Skill,
		Score:        p.Score,
		Field:        p.Board.Visible(),
	}
}

func fromYAMLPlayer(y yamlPlayer) (PlayerState, error) {
	b, err := board.FromVisible(y.Field)
	if err != nil {
		return PlayerState{}, err
	}
	return PlayerState{
		TimeLeftMs:   y.TimeLeftMs,
		GarbageStock: y.GarbageStock,
		Skill:        y.Skill,
		Score:        y.Score,
		Board:        b,
	}, nil
}

// MarshalYAML writes the snapshot in the format cmd/analyze reads. Fields
// are written as visible rows, tiles as [ul, ur, ll, lr].
func (s Snapshot) MarshalYAML() (interface{}, error) {
	ys := yamlSnapshot{
		Turn: s.Turn,
		Me:   toYAMLPlayer(&s.Players[Me]),
		Opp:  toYAMLPlayer(&s.Players[Opponent]),
	}
	for _, t := range s.Tiles {
		ys.Tiles = append(ys.Tiles, []int{t.UpperLeft(), t.UpperRight(), t.LowerLeft(), t.LowerRight()})
	}
	return ys, nil
}

func (s *Snapshot) UnmarshalYAML(value *yaml.Node) error {
	var ys yamlSnapshot
	if err := value.Decode(&ys); err != nil {
		return err
	}
	me, err := fromYAMLPlayer(ys.Me)
	if err != nil {
		return fmt.Errorf("%w: my field: %w", ErrBadSnapshot, err)
	}
	opp, err := fromYAMLPlayer(ys.Opp)
	if err != nil {
		return fmt.Errorf("%w: opponent field: %w", ErrBadSnapshot, err)
	}
	if ys.Turn < 0 || ys.Turn >= tile.MaxTurns {
		return fmt.Errorf("%w: turn %d", ErrBadSnapshot, ys.Turn)
	}
	tiles := make(tile.Sequence, len(ys.Tiles))
	for i, t := range ys.Tiles {
		if len(t) != 4 {
			return fmt.Errorf("%w: tile %d has %d cells", ErrBadSnapshot, i, len(t))
		}
		for _, v := range t {
			if v < 0 || v > tile.MaxValue {
				return fmt.Errorf("%w: tile %d has value %d", ErrBadSnapshot, i, v)
			}
		}
		tiles[i] = tile.New(t[0], t[1], t[2], t[3])
	}
	*s = Snapshot{Turn: ys.Turn, Players: [2]PlayerState{me, opp}, Tiles: tiles}
	return nil
}

// ReadSnapshot decodes one YAML snapshot.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	s := &Snapshot{}
	if err := yaml.NewDecoder(r).Decode(s); err != nil {
		return nil, err
	}
	return s, nil
}

// LoadSnapshot reads a YAML snapshot from a file.
func LoadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadSnapshot(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return s, nil
}

// WriteSnapshot encodes s as YAML.
func WriteSnapshot(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
