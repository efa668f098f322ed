// Package chart implements CKY-style chart parsing over a source lattice
// with weighted synchronous grammars, producing a packed hypergraph of
// translation derivations.
//
// # Overview
//
// A Chart decodes exactly one sentence. It owns a grid of cells, one per
// span [i,j), a dot chart per grammar, and a private grammar holding the
// pass-through rules synthesized for out-of-vocabulary words.
//
//	┌────────────┐   ┌────────────┐   ┌────────────┐   ┌────────────┐
//	│  dot chart │──▶│  combiner  │──▶│    cell    │──▶│ hypergraph │
//	│ (matching) │   │ (scoring)  │   │ (recombine)│   │   (root)   │
//	└────────────┘   └────────────┘   └────────────┘   └────────────┘
//
// # Span order
//
// Spans are visited by increasing width. For every reachable span the chart
//
//  1. advances each dot chart by the cells and lattice arcs that end at j,
//  2. lets the combiner turn applicable rules into scored nodes,
//  3. closes the cell under unary rules,
//  4. starts new dot nodes from the symbols just completed, and
//  5. sorts the cell, after which it is never modified again.
//
// No entry of [i,j) depends on anything but strictly narrower spans, so a
// single pass suffices. Afterwards the entries of [0,n) carrying the goal
// symbol compete for the root of the hypergraph.
//
// # Combination
//
// Two strategies exist. The exhaustive combiner scores the full cross
// product of rules and antecedents. The cube pruner enumerates the same grid
// lazily, best first, either under a pop limit shared by the whole span or,
// without one, under a beam and a score threshold per dot node.
//
// # Recombination
//
// Two derivations over the same span that agree on left-hand symbol and on
// every feature function state become a single node. The node keeps every
// incoming edge and the best score among them.
package chart
