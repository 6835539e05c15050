package mcts

import (
	"math"

	"github.com/pkg/errors"
)

/*
Here lies the step state machine, while node.go and tree.go handle the data structure stuff.

An iteration is a run of selection steps followed by a run of backprop steps:
	SELECT ... SELECT (EXPAND and EVALUATE), BACKPROP ... BACKPROP (until the search root).
The cursor (current) persists between steps, so a caller may stop after any step and
resume later. Every step either applies completely or returns an error without mutating
the tree.
*/

type searchState struct {
	absRoot NodeID // never moves within an episode
	root    NodeID // the search root, advanced by AdvanceRoot
	current NodeID // cursor of the state machine

	phase         Phase
	iteration     int
	backpropValue float64 // value being Bellman-propagated on the current backprop pass
	bonusConsumed bool

	// diagnostics
	maxReturn, secondMaxReturn float64
}

func makeSearchState() searchState {
	return searchState{
		absRoot:         Nil,
		root:            Nil,
		current:         Nil,
		phase:           Selecting,
		maxReturn:       math.Inf(-1),
		secondMaxReturn: math.Inf(-1),
	}
}

func (s *searchState) trackReturn(ret float64) {
	switch {
	case ret > s.maxReturn:
		s.secondMaxReturn = s.maxReturn
		s.maxReturn = ret
	case ret > s.secondMaxReturn:
		s.secondMaxReturn = ret
	}
}

func (s *searchState) beginBackprop(value float64) {
	s.backpropValue = value
	s.phase = BackPropagating
}

// Stats is a summary of the search state.
type Stats struct {
	Nodes           int
	Iteration       int
	Phase           Phase
	SearchRootDepth int
	MaxReturn       float64 // highest return of any node created in this episode
	SecondMaxReturn float64
}

// Scores are the PUCT terms of a node with respect to its parent.
type Scores struct {
	Prior float64 // P(s, a)
	Q     float64
	U     float64
	PUCT  float64
}

// StepSelection performs one selection step from the current node and returns the phase afterwards.
//
// If the current node sits at the maximum depth, or has not been expanded yet, it is treated as a
// leaf: it is expanded (unless at the maximum depth), evaluated, and the phase switches to
// BackPropagating with the cursor left on the leaf. Otherwise the cursor moves to the child with
// the best PUCT score.
func (t *MCTS) StepSelection() (Phase, error) {
	t.Lock()
	defer t.Unlock()
	err := t.stepSelection()
	return t.phase, err
}

// StepBackprop performs one backprop step on the current node. It returns true when the search
// root has been updated, which completes the iteration.
func (t *MCTS) StepBackprop() (done bool, err error) {
	t.Lock()
	defer t.Unlock()
	return t.stepBackprop()
}

// FinishIteration runs the remaining selection and backprop steps of the current iteration.
func (t *MCTS) FinishIteration() error {
	t.Lock()
	defer t.Unlock()
	return t.finishIteration()
}

// FinishSearch runs iterations until the iteration budget is consumed.
func (t *MCTS) FinishSearch() error {
	t.Lock()
	defer t.Unlock()
	for t.iteration < t.MaxIterations {
		if err := t.finishIteration(); err != nil {
			return errors.WithMessagef(err, "iteration %d", t.iteration)
		}
	}
	t.logger.Debug().
		Str("root", t.nodes[t.root].path).
		Int("visits", t.nodes[t.root].visits).
		Int("nodes", len(t.nodes)).
		Msg("search finished")
	return nil
}

// AdvanceRoot makes the most visited child of the search root the new search root and resets the
// iteration counter. Siblings of the new root stay in the tree but are never searched again.
func (t *MCTS) AdvanceRoot() (Node, error) {
	t.Lock()
	defer t.Unlock()

	if t.phase != Selecting {
		return Node{}, errors.Wrap(ErrBackpropPending, "advance root")
	}
	root := t.nodeFromID(t.root)
	if root.depth >= t.MaxTreeDepth {
		return Node{}, errors.Wrapf(ErrSearchExhausted, "advance root %v at depth %d", root.path, root.depth)
	}
	next, err := t.mostVisitedChild(t.root)
	if err != nil {
		return Node{}, err
	}

	t.root, t.current = next, next
	t.iteration = 0
	n := t.nodes[next]
	t.log("ADVANCE ROOT %v", n)
	t.logger.Debug().
		Str("root", n.path).
		Int("depth", n.depth).
		Int("visits", n.visits).
		Float64("return", n.ret).
		Msg("advanced root")
	return n, nil
}

func (t *MCTS) finishIteration() error {
	for t.phase == Selecting {
		if err := t.stepSelection(); err != nil {
			return err
		}
	}
	for t.phase == BackPropagating {
		if _, err := t.stepBackprop(); err != nil {
			return err
		}
	}
	return nil
}

func (t *MCTS) stepSelection() error {
	if t.phase != Selecting {
		return errors.Wrap(ErrBackpropPending, "selection step")
	}

	n := t.nodeFromID(t.current)
	switch {
	case n.depth >= t.MaxTreeDepth:
		// leaf regardless of expansion. Never expanded, evaluated once.
		if !n.evaluated {
			policy, value, err := t.evaluate(t.current, len(t.children[t.current]))
			if err != nil {
				return err
			}
			n.policy, n.leafValue, n.evaluated = policy, value, true
		}
		t.log("\tLEAF (max depth) %v", n)
		t.beginBackprop(n.leafValue)
	case !n.expanded:
		k := 1 + int(math.Floor(t.rand.Float64()*maxChildren))
		policy, value, err := t.evaluate(t.current, len(t.children[t.current])+k)
		if err != nil {
			return err
		}
		t.expand(t.current, k)
		n = t.nodeFromID(t.current) // the arena may have moved
		n.policy, n.evaluated = policy, true
		t.log("\tEXPAND %v: %d children", n, k)
		t.beginBackprop(value)
	default:
		next, err := t.selectBestChild(t.current)
		if err != nil {
			return err
		}
		t.log("\tSELECT %v", t.nodes[next])
		t.current = next
	}
	return nil
}

func (t *MCTS) stepBackprop() (bool, error) {
	if t.phase != BackPropagating {
		return false, errors.Wrap(ErrBackpropOnUnvisitedChain, "backprop step")
	}
	n := t.nodeFromID(t.current)
	t.backpropValue = n.update(t.backpropValue, t.Gamma)
	t.log("\tBACKPROP %v", n)

	if t.current == t.root {
		t.phase = Selecting
		t.iteration++
		return true, nil
	}
	t.current = n.parent
	return false, nil
}

// evaluate asks the Evaluator for the policy and value of a leaf that has (or is about to have)
// numChildren children, and checks the result.
func (t *MCTS) evaluate(id NodeID, numChildren int) ([]float64, float64, error) {
	n := t.nodeFromID(id)
	leaf := Leaf{
		ID:          id,
		Depth:       n.depth,
		NumChildren: numChildren,
		Reward:      n.reward,
		Return:      n.ret,
		Path:        n.path,
	}
	policy, value := t.eval.Evaluate(leaf)
	if !validatePolicy(policy, numChildren) {
		t.logger.Error().Str("path", n.path).Int("children", numChildren).Floats64("policy", policy).Msg("rejected policy")
		return nil, 0, errors.Wrapf(ErrPolicyShapeMismatch, "leaf %v has %d children, got policy %v", n.path, numChildren, policy)
	}
	if !isFinite(value) {
		t.logger.Error().Str("path", n.path).Float64("value", value).Msg("rejected value")
		return nil, 0, errors.Wrapf(ErrNonFiniteValue, "leaf %v got value %v", n.path, value)
	}
	retVal := make([]float64, len(policy))
	copy(retVal, policy)
	return retVal, value, nil
}

// Phase returns the phase the next step will run in.
func (t *MCTS) Phase() Phase {
	t.RLock()
	defer t.RUnlock()
	return t.phase
}

// Iteration returns the number of completed iterations since the last root advancement.
func (t *MCTS) Iteration() int {
	t.RLock()
	defer t.RUnlock()
	return t.iteration
}

// CurrentNode returns the node under the cursor.
func (t *MCTS) CurrentNode() Node {
	t.RLock()
	defer t.RUnlock()
	return t.nodes[t.current]
}

// SearchRoot returns the node the current search treats as its root.
func (t *MCTS) SearchRoot() Node {
	t.RLock()
	defer t.RUnlock()
	return t.nodes[t.root]
}

// AbsoluteRoot returns the root of the whole tree.
func (t *MCTS) AbsoluteRoot() Node {
	t.RLock()
	defer t.RUnlock()
	return t.nodes[t.absRoot]
}

// Exhausted returns true when the search root sits at the maximum depth, so no further
// root advancement is possible.
func (t *MCTS) Exhausted() bool {
	t.RLock()
	defer t.RUnlock()
	return t.nodes[t.root].depth >= t.MaxTreeDepth
}

// Stats returns a summary of the search state.
func (t *MCTS) Stats() Stats {
	t.RLock()
	defer t.RUnlock()
	return Stats{
		Nodes:           len(t.nodes),
		Iteration:       t.iteration,
		Phase:           t.phase,
		SearchRootDepth: t.nodes[t.root].depth,
		MaxReturn:       t.maxReturn,
		SecondMaxReturn: t.secondMaxReturn,
	}
}

// Scores computes the PUCT terms of a node with respect to its parent. The root has no prior and no
// exploration term.
func (t *MCTS) Scores(id NodeID) (Scores, bool) {
	t.RLock()
	defer t.RUnlock()
	if !id.isValid() || int(id) >= len(t.nodes) {
		return Scores{}, false
	}
	return t.scores(t.nodeFromID(id)), true
}

func (t *MCTS) scores(n *Node) Scores {
	var retVal Scores
	if n.parent.isValid() {
		retVal.Prior = t.nodes[n.parent].policy[n.action]
	}
	retVal.Q = t.q(n)
	retVal.U = t.u(n)
	retVal.PUCT = retVal.Q + retVal.U
	return retVal
}
