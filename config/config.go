package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	ConfigDebug             = "debug"
	ConfigThreads           = "threads"
	ConfigBeamWorkers       = "beam-workers"
	ConfigBeamWidthFirst    = "beam-width-first"
	ConfigBeamWidth         = "beam-width"
	ConfigBeamLateWidth     = "beam-late-width"
	ConfigBeamCutoff        = "beam-cutoff"
	ConfigDFSParallel       = "dfs-parallel"
	ConfigDFSDepth          = "dfs-depth"
	ConfigOpponentDepth     = "opponent-depth"
	ConfigEvalCacheFraction = "eval-cache-fraction"
	ConfigCPUProfile        = "cpu-profile"
	ConfigServerMode        = "server-mode"
	ConfigFile              = "config"
	ConfigNatsURL           = "nats-url"
	ConfigBotChannel        = "bot-channel"
	ConfigBotTimeout        = "bot-timeout"
	ConfigRemote            = "remote"
)

// Settings forced by server mode, where only one core is available.
const (
	ServerBeamWidth    = 6000
	ServerThreads      = 1
	ServerBeamWorkers  = 1
	ServerSearchDepth  = 3
	defaultBeamWidth   = 50000
	defaultFirstWidth  = 30000
	defaultLateWidth   = 5000
	defaultBeamWorkers = 16
	defaultCutoff      = 18 * time.Second
	defaultBotTimeout  = 30 * time.Second
)

type Config struct {
	*viper.Viper
	args []string
}

// Args returns the arguments left after the flags.
func (c *Config) Args() []string {
	return c.args
}

// Load reads flags, then TENFALL_* environment variables, then an optional
// config file. Flags win over the environment, which wins over the file.
func (c *Config) Load(args []string) error {
	c.Viper = viper.New()

	fs := pflag.NewFlagSet("tenfall", pflag.ContinueOnError)
	fs.Bool(ConfigDebug, false, "log at debug level")
	fs.Int(ConfigThreads, 0, "goroutines for the depth-first root fan-out; 0 means one per move")
	fs.Int(ConfigBeamWorkers, defaultBeamWorkers, "goroutines expanding the beam")
	fs.Int(ConfigBeamWidthFirst, defaultFirstWidth, "beam width on the first turn")
	fs.Int(ConfigBeamWidth, defaultBeamWidth, "beam width after the first turn")
	fs.Int(ConfigBeamLateWidth, defaultLateWidth, "beam width of the last plies of every search")
	fs.Duration(ConfigBeamCutoff, defaultCutoff, "time limit for one beam search")
	fs.Bool(ConfigDFSParallel, true, "fan the depth-first root moves out over goroutines")
	fs.Int(ConfigDFSDepth, 4, "plies for the depth-first search; one less when short of time")
	fs.Int(ConfigOpponentDepth, 4, "plies searched for the opponent's chains")
	fs.Float64(ConfigEvalCacheFraction, 0.05, "fraction of system memory for the evaluation cache")
	fs.String(ConfigCPUProfile, "", "write a CPU profile to this path")
	fs.Bool(ConfigServerMode, false, "single-threaded settings with smaller searches")
	fs.String(ConfigFile, "", "path to a YAML config file")
	fs.String(ConfigNatsURL, "nats://localhost:4222", "NATS server for the analysis worker")
	fs.String(ConfigBotChannel, "tenfall.bot", "subject the analysis worker answers on")
	fs.Duration(ConfigBotTimeout, defaultBotTimeout, "time limit for one analysis request")
	fs.Bool(ConfigRemote, false, "ask the analysis worker at nats-url instead of searching locally")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parsing flags: %w", err)
	}
	c.args = fs.Args()
	if err := c.BindPFlags(fs); err != nil {
		return fmt.Errorf("binding flags: %w", err)
	}

	c.SetEnvPrefix("tenfall")
	c.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.AutomaticEnv()

	if path := c.GetString(ConfigFile); path != "" {
		c.SetConfigFile(path)
		if err := c.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config file %s: %w", path, err)
		}
	}
	if c.GetBool(ConfigServerMode) {
		c.Set(ConfigThreads, ServerThreads)
		c.Set(ConfigBeamWorkers, ServerBeamWorkers)
		c.Set(ConfigBeamWidthFirst, ServerBeamWidth)
		c.Set(ConfigBeamWidth, ServerBeamWidth)
		c.Set(ConfigDFSParallel, false)
		c.Set(ConfigDFSDepth, ServerSearchDepth)
		c.Set(ConfigOpponentDepth, ServerSearchDepth)
	}
	return nil
}
