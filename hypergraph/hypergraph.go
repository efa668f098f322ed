// Package hypergraph holds the packed forest a parse produces: nodes are
// derivation equivalence classes over a span, hyperedges are the scored rule
// applications that build them.
package hypergraph

import (
	"strconv"
	"strings"

	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/lattice"
)

// Edge is one rule application. Ants are in source order.
type Edge struct {
	Rule       *grammar.Rule
	Ants       []*Node
	Transition float64
	// Score is the best derivation score through this edge.
	Score float64
	Path  lattice.Path
}

// Node is an "or" node: every derivation of LHS over [I,J) that the feature
// functions cannot tell apart.
type Node struct {
	I, J   int
	LHS    int
	Score  float64
	States []ff.State
	Edges  []*Edge
	Best   *Edge

	signature string
}

// NewNode creates a node from its first incoming edge.
func NewNode(i, j, lhs int, states []ff.State, e *Edge) *Node {
	return &Node{
		I:         i,
		J:         j,
		LHS:       lhs,
		Score:     e.Score,
		States:    states,
		Edges:     []*Edge{e},
		Best:      e,
		signature: Signature(lhs, states),
	}
}

// Signature is the recombination key of a node within one span.
func Signature(lhs int, states []ff.State) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(lhs))
	for _, s := range states {
		b.WriteByte('|')
		if s != nil {
			b.WriteString(s.Signature())
		}
	}
	return b.String()
}

func (n *Node) Signature() string {
	return n.signature
}

// State returns the state feature function k assigned to this node.
func (n *Node) State(k int) ff.State {
	if k < len(n.States) {
		return n.States[k]
	}
	return nil
}

// AddEdge merges another derivation into n and reports whether it became
// the best one.
func (n *Node) AddEdge(e *Edge) bool {
	n.Edges = append(n.Edges, e)
	if e.Score > n.Score {
		n.Score = e.Score
		n.Best = e
		return true
	}
	return false
}

// HyperGraph is a forest rooted at one node.
type HyperGraph struct {
	Root         *Node
	SentID       int
	SourceLength int
	// Score is the root's score plus the goal transition.
	Score float64
}

// New wraps a root node. The goal score defaults to the root's own score.
func New(root *Node, sentID, sourceLength int) *HyperGraph {
	return &HyperGraph{
		Root:         root,
		SentID:       sentID,
		SourceLength: sourceLength,
		Score:        root.Score,
	}
}
