package bot

import (
	"time"

	"github.com/domino14/tenfall/config"
	"github.com/domino14/tenfall/search/beam"
)

// Mode is the session's strategy. Chain mode builds one large chain, skill
// mode charges the meter and sets up an explosion.
type Mode int

const (
	ChainMode Mode = iota
	SkillMode
)

func (m Mode) String() string {
	if m == SkillMode {
		return "skill"
	}
	return "chain"
}

// Config holds the knobs of a session. NewConfig fills it from the
// application config.
type Config struct {
	BeamWidthFirst int
	BeamWidth      int
	BeamLateWidth  int
	BeamWorkers    int
	BeamCutoff     time.Duration

	DFSParallel bool
	Threads     int
	// DFSDepth is used while there is time to spare, DFSDepthLowTime after.
	DFSDepth        int
	DFSDepthLowTime int
	OpponentDepth   int

	// ServerMode keeps fewer beam moves back and never switches modes
	// after the depth-first search.
	ServerMode bool
}

const (
	defaultDFSDepth      = 4
	lowTimeDFSDepth      = 3
	defaultOpponentDepth = 4
)

// DefaultConfig is what a session uses without any configuration.
func DefaultConfig() Config {
	return Config{
		BeamWidthFirst:  30000,
		BeamWidth:       50000,
		BeamLateWidth:   beam.DefaultLateWidth,
		BeamWorkers:     beam.DefaultWorkers,
		BeamCutoff:      beam.DefaultCutoff,
		DFSParallel:     true,
		DFSDepth:        defaultDFSDepth,
		DFSDepthLowTime: lowTimeDFSDepth,
		OpponentDepth:   defaultOpponentDepth,
	}
}

// NewConfig reads the session settings out of cfg.
func NewConfig(cfg *config.Config) Config {
	c := DefaultConfig()
	c.BeamWidthFirst = cfg.GetInt(config.ConfigBeamWidthFirst)
	c.BeamWidth = cfg.GetInt(config.ConfigBeamWidth)
	c.BeamLateWidth = cfg.GetInt(config.ConfigBeamLateWidth)
	c.BeamWorkers = cfg.GetInt(config.ConfigBeamWorkers)
	c.BeamCutoff = cfg.GetDuration(config.ConfigBeamCutoff)
	c.DFSParallel = cfg.GetBool(config.ConfigDFSParallel)
	c.Threads = cfg.GetInt(config.ConfigThreads)
	c.DFSDepth = max(1, cfg.GetInt(config.ConfigDFSDepth))
	c.DFSDepthLowTime = max(1, c.DFSDepth-1)
	c.OpponentDepth = max(1, cfg.GetInt(config.ConfigOpponentDepth))
	c.ServerMode = cfg.GetBool(config.ConfigServerMode)
	if c.ServerMode {
		// the low-time search is no shallower
		c.DFSDepthLowTime = c.DFSDepth
	}
	return c
}
