package decoder

import (
	"fmt"

	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/vocab"
)

// synchronousGrammar reads a grammar off a forest by turning every edge
// around: the edge's target side becomes the new source side, its source
// side the new target. Every node gets a label of its own, so the second
// pass can only rebuild derivations present in the forest.
func synchronousGrammar(v *vocab.Vocabulary, forests []*hypergraph.HyperGraph) *grammar.MemoryGrammar {
	g := grammar.NewMemoryGrammar("synchronous", -1)
	for _, hg := range forests {
		hg.Walk(func(n *hypergraph.Node) {
			for _, e := range n.Edges {
				r := invertEdge(v, n, e)
				if r != nil && !g.Contains(r) {
					g.AddRule(r)
				}
			}
		})
	}
	return g
}

// nodeLabel names a node by its symbol and span, as [X_0_3].
func nodeLabel(v *vocab.Vocabulary, n *hypergraph.Node) int {
	return v.Nonterminal(fmt.Sprintf("%s_%d_%d", v.Label(n.LHS), n.I, n.J))
}

// invertEdge builds the rule for one edge. It returns nil when a source
// nonterminal is missing from the target side.
func invertEdge(v *vocab.Vocabulary, n *hypergraph.Node, e *hypergraph.Edge) *grammar.Rule {
	var source []int
	// position of each old source nonterminal in the new source side
	position := make(map[int]int)
	for _, t := range e.Rule.Target {
		if t > 0 {
			source = append(source, t)
			continue
		}
		k := -t
		if k > len(e.Ants) {
			return nil
		}
		position[k] = len(position) + 1
		source = append(source, nodeLabel(v, e.Ants[k-1]))
	}

	var target []int
	m := 0
	for _, s := range e.Rule.Source {
		if !vocab.IsNonterminalID(s) {
			target = append(target, s)
			continue
		}
		m++
		p, ok := position[m]
		if !ok {
			return nil
		}
		target = append(target, -p)
	}
	return grammar.NewRule(nodeLabel(v, n), source, target, e.Rule.Features, e.Rule.Owner)
}
