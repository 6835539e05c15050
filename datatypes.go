package puctstep

import (
	"os"

	"github.com/gorgonia/puctstep/mcts"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config configures a Runner.
type Config struct {
	Name   string      `yaml:"name"`
	Search mcts.Config `yaml:"search"`
	Trials int         `yaml:"trials"` // number of episodes played by Trials when asked for 0

	// extensions
	OutputEncoder OutputEncoder `yaml:"-"`
}

// DefaultConfig returns the configuration the CLI starts from.
func DefaultConfig() Config {
	return Config{
		Name:   "puctstep",
		Search: mcts.DefaultConfig(),
		Trials: 100,
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Fields missing from the file keep their
// default values.
func LoadConfig(filename string) (Config, error) {
	conf := DefaultConfig()
	b, err := os.ReadFile(filename)
	if err != nil {
		return conf, errors.WithStack(err)
	}
	if err := yaml.Unmarshal(b, &conf); err != nil {
		return conf, errors.Wrapf(err, "parse %v", filename)
	}
	if err := conf.Validate(); err != nil {
		return conf, errors.WithMessagef(err, "config %v", filename)
	}
	return conf, nil
}

func (c Config) Validate() error {
	if c.Trials < 0 {
		return errors.Wrapf(mcts.ErrInvalidConfig, "trials %d is negative", c.Trials)
	}
	return c.Search.Validate()
}

func (c Config) IsValid() bool { return c.Validate() == nil }

// OutputEncoder receives an Event after every completed search and every root advancement.
//
// An example OutputEncoder is the websocket feed of the CLI. Another example would be a logger.
type OutputEncoder interface {
	Encode(ev Event) error
	Flush() error
}

// EventKind says what just happened.
type EventKind string

const (
	SearchFinished EventKind = "search"
	RootAdvanced   EventKind = "advance"
	EpisodeEnded   EventKind = "episode"
)

// Event is a snapshot of the search, taken right after a search or a root advancement.
type Event struct {
	Kind      EventKind `json:"kind"`
	Name      string    `json:"name"`
	Episode   int       `json:"episode"`
	Iteration int       `json:"iteration"`
	Nodes     int       `json:"nodes"`

	Root       string  `json:"root"`
	RootDepth  int     `json:"root_depth"`
	RootVisits int     `json:"root_visits"`
	RootValue  float64 `json:"root_value"`
	RootReturn float64 `json:"root_return"`
	MaxReturn  float64 `json:"max_return"`
}
