package mcts

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

// Node is a vertex of the search tree. Nodes live in the arena of an MCTS
// and refer to each other by NodeID.
type Node struct {
	id     NodeID
	parent NodeID
	action int
	depth  int

	expanded  bool
	evaluated bool      // a leaf evaluation has been cached on the node
	policy    []float64 // prior over the children, indexed by action
	leafValue float64   // cached evaluator value for leaves at the maximum depth

	value  float64 // running mean of the backed up values
	reward float64 // r(s, a) for reaching this node
	ret    float64 // sum of rewards from the absolute root
	visits int
	puct   float64 // last computed PUCT score, diagnostic only

	path string
}

func (n Node) Format(s fmt.State, c rune) {
	fmt.Fprintf(s, "{Path: %v Depth: %d Visits: %d Value: %.4f Reward: %.4f Return: %.4f PUCT: %.4f Expanded: %t}",
		n.path, n.depth, n.visits, n.value, n.reward, n.ret, n.puct, n.expanded)
}

func (n Node) ID() NodeID       { return n.id }
func (n Node) Parent() NodeID   { return n.parent }
func (n Node) Action() int      { return n.action }
func (n Node) Depth() int       { return n.depth }
func (n Node) IsExpanded() bool { return n.expanded }
func (n Node) IsRoot() bool     { return !n.parent.isValid() }

// Value is the running mean of the Bellman-backed-up values seen through this node.
func (n Node) Value() float64 { return n.value }

// Reward is the immediate reward attributed to reaching this node.
func (n Node) Reward() float64 { return n.reward }

// Return is the cumulative reward from the absolute root to this node.
func (n Node) Return() float64 { return n.ret }

// Visits returns the number of backprop updates applied to the node - N(s, a) in the literature.
func (n Node) Visits() int { return n.visits }

// PUCT returns the score computed for the node the last time its parent was selected through.
func (n Node) PUCT() float64 { return n.puct }

// Path is the action trajectory from the absolute root, e.g. "r.0.2".
func (n Node) Path() string { return n.path }

// Policy returns a copy of the prior over the children.
func (n Node) Policy() []float64 {
	if n.policy == nil {
		return nil
	}
	retVal := make([]float64, len(n.policy))
	copy(retVal, n.policy)
	return retVal
}

// update applies one backprop update and returns the value to pass on to the parent.
func (n *Node) update(backprop, gamma float64) float64 {
	n.visits++
	n.value = (n.value*float64(n.visits-1) + backprop) / float64(n.visits)
	return n.reward + gamma*backprop
}

// u computes the exploration term of PUCT:
//	U(s, a) = c * P(s, a) * sqrt(N(s)) / (1 + N(s, a))
func (t *MCTS) u(n *Node) float64 {
	if !n.parent.isValid() {
		return 0
	}
	parent := t.nodeFromID(n.parent)
	prior := parent.policy[n.action]
	return t.ExplorationConstant * prior * math.Sqrt(float64(parent.visits)) / (1 + float64(n.visits))
}

// q computes the exploitation term of PUCT:
//	Q(s, a) = r(s, a) + γ * V(s')
func (t *MCTS) q(n *Node) float64 { return n.reward + t.Gamma*n.value }

func (t *MCTS) score(n *Node) float64 { return t.q(n) + t.u(n) }

// selectBestChild scores every child of the node, records the scores on the
// children and picks uniformly among the children that tie for the best score.
func (t *MCTS) selectBestChild(of NodeID) (NodeID, error) {
	children := t.children[of]
	if len(children) == 0 {
		return Nil, errors.Wrapf(ErrInvalidSelection, "select best child of %v", t.nodeFromID(of).path)
	}
	scores := make([]float64, len(children))
	for i, kid := range children {
		child := t.nodeFromID(kid)
		child.puct = t.score(child)
		scores[i] = child.puct
	}
	best := argmaxTies(scores)
	return children[best[t.rand.IntN(len(best))]], nil
}

// mostVisitedChild picks uniformly among the children with the most visits.
func (t *MCTS) mostVisitedChild(of NodeID) (NodeID, error) {
	children := t.children[of]
	if len(children) == 0 {
		return Nil, errors.Wrapf(ErrInvalidSelection, "most visited child of %v", t.nodeFromID(of).path)
	}
	visits := make([]int, len(children))
	for i, kid := range children {
		visits[i] = t.nodeFromID(kid).visits
	}
	best := argmaxTies(visits)
	return children[best[t.rand.IntN(len(best))]], nil
}
