package chart

import (
	"math"
	"sort"

	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/lattice"
)

// SuperNode groups the nodes of one cell that share a left-hand symbol.
// Nodes are best first once the cell is sorted.
type SuperNode struct {
	LHS   int
	Nodes []*hypergraph.Node
}

// Cell stores every node built over one span.
type Cell struct {
	I, J int

	supers       map[int]*SuperNode
	superOrder   []*SuperNode
	bySignature  map[string]*hypergraph.Node
	nodes        []*hypergraph.Node
	sorted       bool
	bestEstimate float64
}

func newCell(i, j int) *Cell {
	return &Cell{
		I:            i,
		J:            j,
		supers:       make(map[int]*SuperNode),
		bySignature:  make(map[string]*hypergraph.Node),
		bestEstimate: math.Inf(-1),
	}
}

// Len returns the number of distinct nodes.
func (c *Cell) Len() int {
	return len(c.nodes)
}

// SuperNodes returns the groups in order of first appearance.
func (c *Cell) SuperNodes() []*SuperNode {
	return c.superOrder
}

// SuperNode returns the group for lhs, or nil.
func (c *Cell) SuperNode(lhs int) *SuperNode {
	return c.supers[lhs]
}

// SortedNodes returns every node, best score first. It sorts the cell if
// that has not happened yet.
func (c *Cell) SortedNodes() []*hypergraph.Node {
	c.sort()
	return c.nodes
}

// Best returns the best node, or nil for an empty cell.
func (c *Cell) Best() *hypergraph.Node {
	if len(c.nodes) == 0 {
		return nil
	}
	return c.SortedNodes()[0]
}

// add inserts the derivation described by res, merging it into an existing
// node with the same signature. It reports whether a new node was created.
func (c *Cell) add(res result, r *grammar.Rule, ants []*hypergraph.Node, path lattice.Path) (*hypergraph.Node, bool) {
	if c.sorted {
		panic("chart: add to a sorted cell")
	}
	e := &hypergraph.Edge{
		Rule:       r,
		Ants:       ants,
		Transition: res.transition,
		Score:      res.score,
		Path:       path,
	}
	if res.estimate > c.bestEstimate {
		c.bestEstimate = res.estimate
	}
	sig := hypergraph.Signature(r.LHS, res.states)
	if n, ok := c.bySignature[sig]; ok {
		n.AddEdge(e)
		return n, false
	}
	n := hypergraph.NewNode(c.I, c.J, r.LHS, res.states, e)
	c.bySignature[sig] = n
	c.nodes = append(c.nodes, n)
	sn, ok := c.supers[r.LHS]
	if !ok {
		sn = &SuperNode{LHS: r.LHS}
		c.supers[r.LHS] = sn
		c.superOrder = append(c.superOrder, sn)
	}
	sn.Nodes = append(sn.Nodes, n)
	return n, true
}

// cutoff is the lowest estimate the threshold still admits.
func (c *Cell) cutoff(threshold float64) float64 {
	return c.bestEstimate - threshold
}

// sort orders the nodes best first, ties in insertion order. It runs once;
// the cell is read-only afterwards.
func (c *Cell) sort() {
	if c.sorted {
		return
	}
	byScore := func(nodes []*hypergraph.Node) {
		sort.SliceStable(nodes, func(a, b int) bool {
			return nodes[a].Score > nodes[b].Score
		})
	}
	byScore(c.nodes)
	for _, sn := range c.superOrder {
		byScore(sn.Nodes)
	}
	c.sorted = true
}
