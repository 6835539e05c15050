package mcts

import (
	"math"
	"math/rand/v2"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// Config configures the search.
type Config struct {
	Gamma               float64 `yaml:"gamma"`                // discount factor, in (0, 1]
	MaxTreeDepth        int     `yaml:"max_tree_depth"`       // nodes at this depth are always leaves
	ExplorationConstant float64 `yaml:"exploration_constant"` // c in the PUCT formula
	MaxIterations       int     `yaml:"max_iterations"`       // iteration budget of a search

	// mean and standard deviation of the rewards that are assigned to newly created nodes.
	RewardMean float64 `yaml:"reward_mean"`
	RewardStd  float64 `yaml:"reward_std"`

	// BonusReward is added to the first node of an episode that is created at
	// MaxTreeDepth. It makes one trajectory clearly dominant.
	BonusReward float64 `yaml:"bonus_reward"`

	Seed uint64 `yaml:"seed"`
}

func DefaultConfig() Config {
	return Config{
		Gamma:               0.8,
		MaxTreeDepth:        3,
		ExplorationConstant: 1,
		MaxIterations:       20000,
		RewardMean:          0,
		RewardStd:           0.2,
		Seed:                23,
	}
}

// Validate returns an error wrapping ErrInvalidConfig describing the first problem found.
func (c Config) Validate() error {
	switch {
	case !(c.Gamma > 0 && c.Gamma <= 1):
		return errors.Wrapf(ErrInvalidConfig, "gamma %v is not in (0, 1]", c.Gamma)
	case c.MaxTreeDepth < 0:
		return errors.Wrapf(ErrInvalidConfig, "max tree depth %d is negative", c.MaxTreeDepth)
	case !(c.ExplorationConstant >= 0) || math.IsInf(c.ExplorationConstant, 0):
		return errors.Wrapf(ErrInvalidConfig, "exploration constant %v must be a non-negative number", c.ExplorationConstant)
	case c.MaxIterations < 1:
		return errors.Wrapf(ErrInvalidConfig, "max iterations %d must be at least 1", c.MaxIterations)
	case !isFinite(c.RewardMean):
		return errors.Wrapf(ErrInvalidConfig, "reward mean %v is not finite", c.RewardMean)
	case !(c.RewardStd >= 0) || math.IsInf(c.RewardStd, 0):
		return errors.Wrapf(ErrInvalidConfig, "reward std %v must be a non-negative number", c.RewardStd)
	case !isFinite(c.BonusReward):
		return errors.Wrapf(ErrInvalidConfig, "bonus reward %v is not finite", c.BonusReward)
	}
	return nil
}

func (c Config) IsValid() bool { return c.Validate() == nil }

// Option configures an MCTS.
type Option func(t *MCTS)

// WithEvaluator replaces the UniformEvaluator.
func WithEvaluator(e Evaluator) Option {
	return func(t *MCTS) {
		if e != nil {
			t.eval = e
		}
	}
}

// WithRewardSource replaces the |N(RewardMean, RewardStd)| reward source.
func WithRewardSource(r RewardSource) Option {
	return func(t *MCTS) {
		if r != nil {
			t.rewards = r
		}
	}
}

// WithRand replaces the generator seeded from Config.Seed. Unless a reward
// source is also given, rewards are drawn from the same generator.
func WithRand(r *rand.Rand) Option {
	return func(t *MCTS) {
		if r != nil {
			t.rand = r
		}
	}
}

// WithLogger sets the logger. The default logger discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(t *MCTS) {
		t.logger = l
	}
}

// MCTS owns the node arena and the state of the step state machine. All
// exported methods are safe to call from multiple goroutines, although a
// search is meant to be driven from a single one.
type MCTS struct {
	sync.RWMutex
	Config

	eval    Evaluator
	rewards RewardSource
	rand    *rand.Rand
	logger  zerolog.Logger

	// memory related fields
	nodes    []Node
	children [][]NodeID

	searchState
	lumberjack
}

// New creates a search with a tree consisting of a single absolute root.
func New(conf Config, opts ...Option) (*MCTS, error) {
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	retVal := &MCTS{
		Config:     conf,
		logger:     zerolog.Nop(),
		nodes:      make([]Node, 0, 1024),
		children:   make([][]NodeID, 0, 1024),
		lumberjack: makeLumberJack(),
	}
	for _, opt := range opts {
		opt(retVal)
	}
	if retVal.rand == nil {
		retVal.rand = rand.New(rand.NewPCG(conf.Seed, conf.Seed))
	}
	if retVal.eval == nil {
		retVal.eval = UniformEvaluator{Mean: conf.RewardMean, Gamma: conf.Gamma}
	}
	if retVal.rewards == nil {
		retVal.rewards = NewAbsGaussian(conf.RewardMean, conf.RewardStd, retVal.rand)
	}
	retVal.Reset()
	return retVal, nil
}

// Reset discards the whole tree and starts a new episode with a single absolute root.
func (t *MCTS) Reset() {
	t.Lock()
	defer t.Unlock()

	t.nodes = t.nodes[:0]
	t.children = t.children[:0]
	t.searchState = makeSearchState()
	t.resetLog()

	root := t.newNode(Nil, 0)
	t.absRoot, t.root, t.current = root, root, root
	t.logger.Debug().
		Float64("reward", t.nodes[root].reward).
		Int("max_tree_depth", t.MaxTreeDepth).
		Msg("reset tree")
}

// alloc appends a zeroed node to the arena. Pointers obtained from
// nodeFromID before a call to alloc must not be used after it.
func (t *MCTS) alloc() NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, Node{id: id, parent: Nil})
	t.children = append(t.children, nil)
	return id
}

// newNode creates a node and attaches it to its parent.
func (t *MCTS) newNode(parent NodeID, action int) NodeID {
	id := t.alloc()
	n := t.nodeFromID(id)
	n.parent = parent
	n.action = action
	n.reward = t.rewards.SampleReward()
	n.path = rootPath
	if parent.isValid() {
		p := t.nodeFromID(parent)
		n.depth = p.depth + 1
		n.path = p.path + "." + strconv.Itoa(action)
	}

	// only the first node created at the maximum depth gets the bonus
	if n.depth == t.MaxTreeDepth && !t.bonusConsumed {
		n.reward += t.BonusReward
		t.bonusConsumed = true
	}

	n.ret = n.reward
	if parent.isValid() {
		n.ret += t.nodeFromID(parent).ret
		t.children[parent] = append(t.children[parent], id)
	}
	t.trackReturn(n.ret)
	return id
}

// expand adds k children to the node.
func (t *MCTS) expand(of NodeID, k int) {
	for i := 0; i < k; i++ {
		t.newNode(of, len(t.children[of]))
	}
	t.nodeFromID(of).expanded = true
}

func (t *MCTS) nodeFromID(id NodeID) *Node { return &t.nodes[int(id)] }

// Node returns a copy of the node with the given ID.
func (t *MCTS) Node(id NodeID) (Node, bool) {
	t.RLock()
	defer t.RUnlock()
	if !id.isValid() || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	return t.nodes[int(id)], true
}

// Nodes returns a copy of every node in the arena, ordered by ID.
func (t *MCTS) Nodes() []Node {
	t.RLock()
	defer t.RUnlock()
	retVal := make([]Node, len(t.nodes))
	copy(retVal, t.nodes)
	return retVal
}

// Children returns the IDs of the children of a node, ordered by action.
func (t *MCTS) Children(of NodeID) []NodeID {
	t.RLock()
	defer t.RUnlock()
	if !of.isValid() || int(of) >= len(t.children) {
		return nil
	}
	retVal := make([]NodeID, len(t.children[of]))
	copy(retVal, t.children[of])
	return retVal
}

// Len returns the number of nodes in the tree.
func (t *MCTS) Len() int {
	t.RLock()
	defer t.RUnlock()
	return len(t.nodes)
}
