package mcts

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"
)

// AbsGaussian draws |N(Mean, Std)|.
type AbsGaussian struct {
	dist distuv.Normal
}

// NewAbsGaussian creates a reward source that draws from src. A nil src
// falls back to the global generator, which is not reproducible.
func NewAbsGaussian(mean, std float64, src rand.Source) AbsGaussian {
	return AbsGaussian{dist: distuv.Normal{Mu: mean, Sigma: std, Src: src}}
}

func (g AbsGaussian) SampleReward() float64 { return math.Abs(g.dist.Rand()) }
