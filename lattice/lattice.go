// Package lattice represents weighted source input as a directed acyclic graph.
//
// Nodes are numbered 0..n in topological order; every arc goes from a lower
// to a higher numbered node. A plain sentence is a chain with one arc per word.
package lattice

import (
	"fmt"
	"math"
	"strings"
)

// Arc is a labeled, weighted transition between two lattice nodes.
type Arc struct {
	Tail  int
	Head  int
	Label int
	Cost  float64
}

// Lattice is a word lattice over integer-coded symbols.
type Lattice struct {
	outgoing [][]Arc
	incoming [][]Arc
	dist     [][]float64
}

// New creates a lattice from a node count and its arcs.
func New(numNodes int, arcs []Arc) (*Lattice, error) {
	if numNodes < 1 {
		return nil, fmt.Errorf("lattice needs at least one node, got %d", numNodes)
	}
	l := &Lattice{
		outgoing: make([][]Arc, numNodes),
		incoming: make([][]Arc, numNodes),
	}
	for _, a := range arcs {
		if a.Tail < 0 || a.Head >= numNodes || a.Tail >= a.Head {
			return nil, fmt.Errorf("invalid arc %d->%d in lattice of %d nodes", a.Tail, a.Head, numNodes)
		}
		l.outgoing[a.Tail] = append(l.outgoing[a.Tail], a)
		l.incoming[a.Head] = append(l.incoming[a.Head], a)
	}
	l.computeDistances()
	return l, nil
}

// FromTokens builds a linear chain lattice, one zero-cost arc per token.
func FromTokens(ids []int) *Lattice {
	arcs := make([]Arc, len(ids))
	for i, id := range ids {
		arcs[i] = Arc{Tail: i, Head: i + 1, Label: id}
	}
	l, _ := New(len(ids)+1, arcs)
	return l
}

// computeDistances fills the all-pairs table of arc counts on the shortest
// path. Nodes are topologically ordered, so one forward pass per source
// node suffices.
func (l *Lattice) computeDistances() {
	n := len(l.outgoing)
	l.dist = make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, n)
		for j := range row {
			row[j] = math.Inf(1)
		}
		row[i] = 0
		for k := i; k < n; k++ {
			if math.IsInf(row[k], 1) {
				continue
			}
			for _, a := range l.outgoing[k] {
				if d := row[k] + 1; d < row[a.Head] {
					row[a.Head] = d
				}
			}
		}
		l.dist[i] = row
	}
}

// Size returns the number of nodes. The source length is Size()-1.
func (l *Lattice) Size() int {
	return len(l.outgoing)
}

// Distance returns the number of arcs on the shortest path from i to j, or
// +Inf when no path connects them.
func (l *Lattice) Distance(i, j int) float64 {
	if i < 0 || j < 0 || i >= len(l.dist) || j >= len(l.dist) {
		return math.Inf(1)
	}
	return l.dist[i][j]
}

// Reachable reports whether some path leads from i to j.
func (l *Lattice) Reachable(i, j int) bool {
	return !math.IsInf(l.Distance(i, j), 1)
}

// Outgoing returns the arcs leaving node i.
func (l *Lattice) Outgoing(i int) []Arc {
	return l.outgoing[i]
}

// Incoming returns the arcs entering node j.
func (l *Lattice) Incoming(j int) []Arc {
	return l.incoming[j]
}

// Arcs returns every arc, ordered by tail node.
func (l *Lattice) Arcs() []Arc {
	var arcs []Arc
	for _, out := range l.outgoing {
		arcs = append(arcs, out...)
	}
	return arcs
}

func (l *Lattice) String() string {
	var b strings.Builder
	for _, a := range l.Arcs() {
		fmt.Fprintf(&b, "%d-%d:%d(%g) ", a.Tail, a.Head, a.Label, a.Cost)
	}
	return strings.TrimSpace(b.String())
}

// Path is the accumulated cost of the lattice arcs a derivation consumed.
type Path struct {
	Cost float64
}

// Extend returns the path after consuming a.
func (p Path) Extend(a Arc) Path {
	return Path{Cost: p.Cost + a.Cost}
}
