package chart

import (
	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/lattice"
)

// result is the outcome of scoring one rule application.
type result struct {
	transition float64
	// score adds the antecedents' best scores to the transition.
	score float64
	// estimate adds future cost estimates to score; pruning compares it.
	estimate float64
	states   []ff.State
}

// compute runs every feature function over a rule applied to ants at [i,j).
func (c *Chart) compute(r *grammar.Rule, ants []*hypergraph.Node, i, j int, path lattice.Path) result {
	c.stats.NodesComputed++
	res := result{states: make([]ff.State, len(c.features))}
	future := 0.0
	for k, f := range c.features {
		antStates := make([]ff.State, len(ants))
		for a, ant := range ants {
			antStates[a] = ant.State(k)
		}
		score, st := f.Compute(r, antStates, i, j, path, c.sentID)
		res.transition += score
		res.states[k] = st
		if fe, ok := f.(ff.FutureEstimator); ok && st != nil {
			future += fe.EstimateFuture(st)
		}
	}
	res.score = res.transition
	for _, ant := range ants {
		res.score += ant.Score
	}
	res.estimate = res.score + future
	return res
}

// final scores the transition of a full-span node into the goal.
func (c *Chart) final(n *hypergraph.Node) float64 {
	total := 0.0
	for k, f := range c.features {
		total += f.Final(n.State(k), c.sourceLength, c.sentID)
	}
	return total
}
