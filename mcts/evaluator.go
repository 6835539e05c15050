package mcts

// UniformEvaluator is the placeholder for a real policy/value network. It
// assumes every future step yields the mean reward forever.
type UniformEvaluator struct {
	Mean  float64 // mean reward
	Gamma float64 // discount factor
}

// Evaluate returns a uniform prior over the children and the discounted
// value of an infinite stream of mean rewards: Mean / (1 - Gamma).
func (e UniformEvaluator) Evaluate(leaf Leaf) (policy []float64, value float64) {
	policy = make([]float64, leaf.NumChildren)
	for i := range policy {
		policy[i] = 1 / float64(leaf.NumChildren)
	}
	return policy, e.Mean / (1 - e.Gamma)
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(leaf Leaf) ([]float64, float64)

func (f EvaluatorFunc) Evaluate(leaf Leaf) ([]float64, float64) { return f(leaf) }
