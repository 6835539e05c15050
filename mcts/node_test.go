package mcts

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMCTS(t testing.TB, conf Config, opts ...Option) *MCTS {
	t.Helper()
	m, err := New(conf, opts...)
	require.NoError(t, err)
	return m
}

func TestArgmaxTies(t *testing.T) {
	cases := []struct {
		name string
		in   []float64
		want []int
	}{
		{"empty", nil, nil},
		{"single", []float64{3}, []int{0}},
		{"distinct", []float64{0.1, 0.7, 0.2}, []int{1}},
		{"tied", []float64{1, 1, 0.5}, []int{0, 1}},
		{"late max", []float64{1, 1, 2}, []int{2}},
		{"all equal", []float64{-1, -1, -1}, []int{0, 1, 2}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, argmaxTies(c.in))
		})
	}
	assert.Equal(t, []int{1, 3}, argmaxTies([]int{0, 4, 2, 4}))
}

func TestValidatePolicy(t *testing.T) {
	cases := []struct {
		name     string
		policy   []float64
		children int
		ok       bool
	}{
		{"uniform", []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}, 3, true},
		{"no children", nil, 0, true},
		{"empty policy for empty leaf", []float64{}, 0, true},
		{"too short", []float64{1}, 2, false},
		{"too long", []float64{0.5, 0.5}, 1, false},
		{"does not sum to one", []float64{0.5, 0.4}, 2, false},
		{"negative entry", []float64{1.5, -0.5}, 2, false},
		{"nan entry", []float64{math.NaN(), 1}, 2, false},
		{"inf entry", []float64{math.Inf(1), 1}, 2, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.ok, validatePolicy(c.policy, c.children))
		})
	}
}

func TestNodeUpdate(t *testing.T) {
	n := &Node{reward: 0.5}
	up := n.update(2, 0.5)
	assert.Equal(t, 1, n.visits)
	assert.Equal(t, 2.0, n.value)
	assert.Equal(t, 1.5, up)

	up = n.update(1, 0.5)
	assert.Equal(t, 2, n.visits)
	assert.Equal(t, 1.5, n.value)
	assert.Equal(t, 1.0, up)
}

// tiedTree builds a root with three children whose PUCT scores are 1, 1 and 0.5.
func tiedTree(t *testing.T, seed uint64) *MCTS {
	conf := DefaultConfig()
	conf.ExplorationConstant = 0
	conf.MaxTreeDepth = 5
	conf.Seed = seed
	m := newTestMCTS(t, conf)

	m.expand(m.root, 3)
	root := m.nodeFromID(m.root)
	root.policy = []float64{1.0 / 3, 1.0 / 3, 1.0 / 3}
	for i, r := range []float64{1, 1, 0.5} {
		m.nodeFromID(m.children[m.root][i]).reward = r
	}
	return m
}

func TestSelectBestChild(t *testing.T) {
	m := tiedTree(t, 1337)
	kids := m.children[m.root]

	const trials = 10000
	counts := make(map[NodeID]int)
	for i := 0; i < trials; i++ {
		best, err := m.selectBestChild(m.root)
		require.NoError(t, err)
		counts[best]++
	}

	assert.Zero(t, counts[kids[2]], "the child with the lower score must never be selected")
	assert.Equal(t, trials, counts[kids[0]]+counts[kids[1]])
	assert.InDelta(t, 0.5, float64(counts[kids[0]])/trials, 0.03)
	assert.InDelta(t, 0.5, float64(counts[kids[1]])/trials, 0.03)

	// scores are recorded on the children
	assert.Equal(t, 1.0, m.nodes[kids[0]].PUCT())
	assert.Equal(t, 1.0, m.nodes[kids[1]].PUCT())
	assert.Equal(t, 0.5, m.nodes[kids[2]].PUCT())
}

func TestSelectBestChildNoChildren(t *testing.T) {
	m := newTestMCTS(t, DefaultConfig())
	_, err := m.selectBestChild(m.root)
	assert.ErrorIs(t, err, ErrInvalidSelection)

	_, err = m.mostVisitedChild(m.root)
	assert.ErrorIs(t, err, ErrInvalidSelection)
}

func TestMostVisitedChild(t *testing.T) {
	m := tiedTree(t, 7)
	kids := m.children[m.root]
	m.nodeFromID(kids[0]).visits = 3
	m.nodeFromID(kids[1]).visits = 5
	m.nodeFromID(kids[2]).visits = 5

	seen := make(map[NodeID]bool)
	for i := 0; i < 200; i++ {
		best, err := m.mostVisitedChild(m.root)
		require.NoError(t, err)
		assert.Equal(t, 5, m.nodes[best].visits)
		seen[best] = true
	}
	assert.False(t, seen[kids[0]])
	assert.True(t, seen[kids[1]])
	assert.True(t, seen[kids[2]])
}

func TestScores(t *testing.T) {
	conf := DefaultConfig()
	conf.Gamma = 0.5
	conf.ExplorationConstant = 2
	m := newTestMCTS(t, conf)
	m.expand(m.root, 2)

	root := m.nodeFromID(m.root)
	root.policy = []float64{0.25, 0.75}
	root.visits = 4
	kid := m.nodeFromID(m.children[m.root][1])
	kid.reward = 1
	kid.value = 2
	kid.visits = 1

	s, ok := m.Scores(kid.id)
	require.True(t, ok)
	assert.Equal(t, 0.75, s.Prior)
	assert.InDelta(t, 2.0, s.Q, 1e-12)          // 1 + 0.5*2
	assert.InDelta(t, 2*0.75*2/2.0, s.U, 1e-12) // c * P * sqrt(4) / (1+1)
	assert.InDelta(t, s.Q+s.U, s.PUCT, 1e-12)

	s, ok = m.Scores(m.root)
	require.True(t, ok)
	assert.Zero(t, s.U)
	assert.Zero(t, s.Prior)

	_, ok = m.Scores(NodeID(1000))
	assert.False(t, ok)
}
