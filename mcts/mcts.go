// Package mcts implements a PUCT Monte-Carlo Tree Search that is driven one
// step at a time. Each call to StepSelection descends one level or evaluates
// a leaf, and each call to StepBackprop moves one level back up towards the
// search root, so a caller may inspect or animate every intermediate state.
package mcts

// Evaluator is the stand-in for a policy/value network.
//
// The returned policy must have exactly leaf.NumChildren entries that are
// non-negative and sum to 1. The value must be finite.
type Evaluator interface {
	Evaluate(leaf Leaf) (policy []float64, value float64)
}

// RewardSource draws the immediate reward of a freshly created node.
type RewardSource interface {
	SampleReward() float64
}

// Leaf describes the node being evaluated.
type Leaf struct {
	ID          NodeID
	Depth       int
	NumChildren int
	Reward      float64
	Return      float64
	Path        string
}

// Phase is the state of the step state machine.
type Phase int

const (
	Selecting Phase = iota
	BackPropagating
)

func (p Phase) String() string {
	switch p {
	case Selecting:
		return "selection"
	case BackPropagating:
		return "backprop"
	}
	return "UNKNOWN PHASE"
}

const (
	// policyTolerance is how far the sum of a policy may stray from 1.
	policyTolerance = 1e-9

	// rootPath is the debug path of the absolute root.
	rootPath = "r"

	// maxChildren is the exclusive upper bound of the uniform draw deciding
	// how many children an expansion adds (1 + floor(U[0, maxChildren))).
	maxChildren = 3
)
