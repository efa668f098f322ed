package chart

import (
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
)

// applicable is a dot node whose rules survived constraint filtering.
type applicable struct {
	dot   *DotNode
	rules []*grammar.Rule
	arity int
}

// combiner turns the applicable rules of a span into cell entries.
type combiner interface {
	name() string
	complete(c *Chart, cell *Cell, work []applicable)
}

// exhaustive scores every rule against every antecedent combination.
type exhaustive struct{}

func (exhaustive) name() string { return "exhaustive" }

func (exhaustive) complete(c *Chart, cell *Cell, work []applicable) {
	for _, w := range work {
		if w.arity == 0 {
			c.addAxioms(cell, w)
			continue
		}
		ants := make([]*hypergraph.Node, len(w.dot.Ants))
		var combine func(k int)
		combine = func(k int) {
			if k == len(ants) {
				for _, r := range w.rules {
					tuple := append([]*hypergraph.Node(nil), ants...)
					res := c.compute(r, tuple, cell.I, cell.J, w.dot.Path)
					c.insert(cell, res, r, tuple, w.dot.Path)
				}
				return
			}
			for _, n := range w.dot.Ants[k].Nodes {
				ants[k] = n
				combine(k + 1)
			}
		}
		combine(0)
	}
}
