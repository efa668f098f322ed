package hypergraph

import (
	"strconv"
	"strings"

	"github.com/dhamidi/hiero/vocab"
)

// Walk calls fn once for every node reachable from root, antecedents before
// the nodes that use them. Edges are followed in insertion order.
func Walk(root *Node, fn func(*Node)) {
	if root == nil {
		return
	}
	seen := make(map[*Node]bool)
	var visit func(*Node)
	visit = func(n *Node) {
		if seen[n] {
			return
		}
		seen[n] = true
		for _, e := range n.Edges {
			for _, ant := range e.Ants {
				visit(ant)
			}
		}
		fn(n)
	}
	visit(root)
}

// Walk visits every node of the forest.
func (hg *HyperGraph) Walk(fn func(*Node)) {
	Walk(hg.Root, fn)
}

// NumNodes counts the reachable nodes.
func (hg *HyperGraph) NumNodes() int {
	n := 0
	hg.Walk(func(*Node) { n++ })
	return n
}

// NumEdges counts the hyperedges of reachable nodes.
func (hg *HyperGraph) NumEdges() int {
	n := 0
	hg.Walk(func(node *Node) { n += len(node.Edges) })
	return n
}

// Yield returns the target words of the best derivation.
func (hg *HyperGraph) Yield() []int {
	var out []int
	var visit func(*Node)
	visit = func(n *Node) {
		e := n.Best
		for _, t := range e.Rule.Target {
			if t > 0 {
				out = append(out, t)
				continue
			}
			if k := -t - 1; k < len(e.Ants) {
				visit(e.Ants[k])
			}
		}
	}
	if hg.Root != nil {
		visit(hg.Root)
	}
	return out
}

// Translation renders the best derivation's target string.
func (hg *HyperGraph) Translation(v *vocab.Vocabulary) string {
	return v.Words(hg.Yield())
}

// Tree renders the best derivation as a bracketed tree over target words,
// each node annotated with its source span.
func (hg *HyperGraph) Tree(v *vocab.Vocabulary) string {
	var b strings.Builder
	var visit func(*Node)
	visit = func(n *Node) {
		e := n.Best
		b.WriteString("(")
		b.WriteString(v.Label(n.LHS))
		b.WriteString("{")
		b.WriteString(spanString(n.I, n.J))
		b.WriteString("}")
		for _, t := range e.Rule.Target {
			b.WriteString(" ")
			if t > 0 {
				b.WriteString(v.Word(t))
				continue
			}
			if k := -t - 1; k < len(e.Ants) {
				visit(e.Ants[k])
			}
		}
		b.WriteString(")")
	}
	if hg.Root != nil {
		visit(hg.Root)
	}
	return b.String()
}

func spanString(i, j int) string {
	return strconv.Itoa(i) + "-" + strconv.Itoa(j)
}
