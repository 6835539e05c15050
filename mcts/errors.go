package mcts

import "github.com/pkg/errors"

var (
	// ErrInvalidSelection is returned when a child has to be picked from a node without children.
	ErrInvalidSelection = errors.New("cannot select a child of a node with no children")

	// ErrPolicyShapeMismatch is returned when an Evaluator produces a policy that does not fit the leaf.
	ErrPolicyShapeMismatch = errors.New("policy does not match the children of the leaf")

	// ErrNonFiniteValue is returned when an Evaluator produces NaN or ±Inf as the value.
	ErrNonFiniteValue = errors.New("evaluated value is not finite")

	// ErrBackpropOnUnvisitedChain is returned when a backprop step is requested without a pending value.
	ErrBackpropOnUnvisitedChain = errors.New("no pending value to backpropagate")

	// ErrBackpropPending is returned when selection or root advancement is requested in the middle of a backprop pass.
	ErrBackpropPending = errors.New("a backpropagation pass is pending")

	// ErrSearchExhausted is returned when the search root already sits at the maximum tree depth.
	ErrSearchExhausted = errors.New("search root is at the maximum tree depth")

	// ErrInvalidConfig is returned by Config.Validate.
	ErrInvalidConfig = errors.New("invalid config")
)
