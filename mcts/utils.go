package mcts

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

type number interface {
	~int | ~float64
}

// argmaxTies returns the indices of every element equal to the maximum, in order.
// A nil slice is returned for empty input.
func argmaxTies[T number](a []T) []int {
	var retVal []int
	for i, v := range a {
		switch {
		case len(retVal) == 0 || v > a[retVal[0]]:
			retVal = append(retVal[:0], i)
		case v == a[retVal[0]]:
			retVal = append(retVal, i)
		}
	}
	return retVal
}

// validatePolicy checks the Evaluator contract for a leaf with the given number of children.
func validatePolicy(policy []float64, numChildren int) bool {
	if len(policy) != numChildren {
		return false
	}
	if numChildren == 0 {
		return true
	}
	if slices.ContainsFunc(policy, func(p float64) bool { return p < 0 || math.IsNaN(p) || math.IsInf(p, 0) }) {
		return false
	}
	return math.Abs(floats.Sum(policy)-1) <= policyTolerance
}

func isFinite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
