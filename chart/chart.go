package chart

import (
	"errors"
	"fmt"
	"math"

	"github.com/tliron/commonlog"

	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/lattice"
	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/vocab"
)

var (
	// ErrNoDerivation means no goal entry spans the whole input.
	ErrNoDerivation = errors.New("no complete derivation")
	// ErrExhausted means the parse outgrew its node budget.
	ErrExhausted = errors.New("chart node budget exhausted")
)

var log = commonlog.GetLogger("hiero.chart")

// Chart parses one sentence. It is not safe for concurrent use.
type Chart struct {
	vocab        *vocab.Vocabulary
	sentence     *segment.Sentence
	lattice      *lattice.Lattice
	sourceLength int
	sentID       int

	features  ff.Set
	grammars  []grammar.Grammar
	dotCharts []*dotChart
	cells     [][]*Cell

	goalSymbol int
	opts       options
	combiner   combiner
	filter     *constraintFilter
	targets    *stateConstraint

	stats  Stats
	lastID int
}

// New prepares a chart for sent. Grammars that are not sorted yet are sorted
// with the features' estimates, and a grammar of pass-through rules for the
// sentence's words is appended. Sentence-dependent features receive sent.
func New(v *vocab.Vocabulary, sent *segment.Sentence, features ff.Set, grammars []grammar.Grammar, opts ...Option) *Chart {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	n := sent.Length()
	c := &Chart{
		vocab:        v,
		sentence:     sent,
		lattice:      sent.Lattice,
		sourceLength: n,
		sentID:       sent.ID,
		features:     features,
		goalSymbol:   v.Nonterminal(o.goalSymbol),
		opts:         o,
	}
	features.SetSource(sent)

	switch {
	case o.popLimit > 0:
		c.combiner = &cubePruner{popLimit: o.popLimit}
	case o.beamAndThreshold:
		c.combiner = &cubePruner{beamSize: o.beamSize, threshold: o.relativeThreshold}
	default:
		c.combiner = exhaustive{}
	}

	tree := sent.Tree
	if !o.constrainParse {
		tree = nil
	}
	c.filter = newConstraintFilter(v, sent.Constraints, tree, c.goalSymbol)
	if sent.HasTarget() {
		c.targets = newStateConstraint(v, sent.Target)
	}

	for _, g := range grammars {
		if !g.IsSorted() {
			g.Sort(features)
		}
		c.grammars = append(c.grammars, g)
	}
	c.grammars = append(c.grammars, c.oovGrammar())

	c.cells = make([][]*Cell, n+1)
	for i := range c.cells {
		c.cells[i] = make([]*Cell, n+1)
	}
	for _, g := range c.grammars {
		c.dotCharts = append(c.dotCharts, newDotChart(c, g))
	}
	c.seedManualRules()
	return c
}

// SetGoalSymbol changes the symbol the full-span entry must carry.
func (c *Chart) SetGoalSymbol(sym int) {
	c.goalSymbol = sym
	c.filter.goal = sym
}

// GoalSymbol returns the symbol the full-span entry must carry.
func (c *Chart) GoalSymbol() int {
	return c.goalSymbol
}

// Strategy names the combination strategy in use.
func (c *Chart) Strategy() string {
	return c.combiner.name()
}

// Stats returns the counters accumulated so far.
func (c *Chart) Stats() Stats {
	return c.stats
}

// SourceLength is the number of chart positions.
func (c *Chart) SourceLength() int {
	return c.sourceLength
}

// Cell returns the cell over [i,j), or nil if nothing was built there.
func (c *Chart) Cell(i, j int) *Cell {
	if i < 0 || j > c.sourceLength || i >= j {
		return nil
	}
	return c.cells[i][j]
}

// Expand fills the chart and returns the forest rooted at the best goal
// entry over the whole input.
func (c *Chart) Expand() (*hypergraph.HyperGraph, Stats, error) {
	n := c.sourceLength
	log.Debugf("sentence %d: parsing %d positions with %d grammars, %s", c.sentID, n, len(c.grammars), c.Strategy())
	for width := 1; width <= n; width++ {
		for i := 0; i+width <= n; i++ {
			j := i + width
			if !c.lattice.Reachable(i, j) {
				c.stats.SpansSkipped++
				continue
			}
			for _, d := range c.dotCharts {
				d.expand(i, j)
			}
			c.completeSpan(i, j)
			c.addUnaryNodes(i, j)
			for _, d := range c.dotCharts {
				d.startDotItems(i, j)
			}
			if cell := c.cells[i][j]; cell != nil {
				cell.sort()
			}
			if c.opts.maxNodes > 0 && c.stats.Added > c.opts.maxNodes {
				log.Warningf("sentence %d: %d nodes exceed the budget of %d at span (%d, %d)", c.sentID, c.stats.Added, c.opts.maxNodes, i, j)
				return nil, c.stats, fmt.Errorf("sentence %d: %w", c.sentID, ErrExhausted)
			}
		}
	}
	log.Debugf("sentence %d: %s", c.sentID, c.stats)

	root, score, ok := c.goalTransition()
	if !ok {
		log.Errorf("sentence %d: no complete item in cell [0, %d] for goal symbol %s", c.sentID, n, c.vocab.Word(c.goalSymbol))
		return nil, c.stats, fmt.Errorf("sentence %d: %w", c.sentID, ErrNoDerivation)
	}
	hg := hypergraph.New(root, c.sentID, n)
	hg.Score = score
	return hg, c.stats, nil
}

// completeSpan collects the applicable rules of every grammar over [i,j)
// and hands them to the combiner.
func (c *Chart) completeSpan(i, j int) {
	var work []applicable
	for _, d := range c.dotCharts {
		if !d.applies(i, j) {
			continue
		}
		for _, dot := range d.at(i, j) {
			rc := dot.Rules()
			if rc == nil {
				continue
			}
			rules := c.filter.filter(i, j, rc.SortedRules())
			if len(rules) == 0 {
				continue
			}
			work = append(work, applicable{dot: dot, rules: rules, arity: rc.Arity()})
		}
	}
	if len(work) == 0 {
		return
	}
	c.combiner.complete(c, c.cellAt(i, j), work)
}

// addUnaryNodes closes the cell over [i,j) under unary rules. Each symbol
// triggers expansion at most once, so the closure terminates.
func (c *Chart) addUnaryNodes(i, j int) {
	cell := c.cells[i][j]
	if cell == nil {
		return
	}
	var agenda []int
	queued := make(map[int]bool)
	for _, sn := range cell.SuperNodes() {
		agenda = append(agenda, sn.LHS)
		queued[sn.LHS] = true
	}
	dist := c.lattice.Distance(i, j)
	for len(agenda) > 0 {
		sym := agenda[0]
		agenda = agenda[1:]
		nodes := append([]*hypergraph.Node(nil), cell.SuperNode(sym).Nodes...)
		for _, g := range c.grammars {
			if !g.HasRuleForSpan(i, j, dist) {
				continue
			}
			t := g.Root().Match(sym)
			if t == nil {
				continue
			}
			rc := t.RuleCollection()
			if rc == nil || rc.Arity() != 1 {
				continue
			}
			rules := c.filter.filter(i, j, rc.SortedRules())
			for _, node := range nodes {
				for _, r := range rules {
					ants := []*hypergraph.Node{node}
					res := c.compute(r, ants, i, j, lattice.Path{})
					n, created := c.insert(cell, res, r, ants, lattice.Path{})
					if !created {
						continue
					}
					c.stats.UnaryAdded++
					if !queued[n.LHS] {
						queued[n.LHS] = true
						agenda = append(agenda, n.LHS)
					}
				}
			}
		}
	}
}

// addAxioms inserts the terminal-only rules of w.
func (c *Chart) addAxioms(cell *Cell, w applicable) {
	for _, r := range w.rules {
		res := c.compute(r, nil, cell.I, cell.J, w.dot.Path)
		c.insert(cell, res, r, nil, w.dot.Path)
	}
}

// seedManualRules places constraint rules into their cells up front.
func (c *Chart) seedManualRules() {
	for _, m := range c.filter.manual {
		if m.i < 0 || m.j > c.sourceLength || m.i >= m.j || !c.lattice.Reachable(m.i, m.j) {
			log.Warningf("sentence %d: dropping manual rule over unreachable span (%d, %d)", c.sentID, m.i, m.j)
			continue
		}
		cell := c.cellAt(m.i, m.j)
		res := c.compute(m.rule, nil, m.i, m.j, lattice.Path{})
		c.insert(cell, res, m.rule, nil, lattice.Path{})
	}
}

// insert adds a scored derivation unless the target constraint vetoes it.
func (c *Chart) insert(cell *Cell, res result, r *grammar.Rule, ants []*hypergraph.Node, path lattice.Path) (*hypergraph.Node, bool) {
	if !c.targets.legal(res.states) {
		c.stats.Rejected++
		return nil, false
	}
	n, created := cell.add(res, r, ants, path)
	if created {
		c.stats.Added++
	} else {
		c.stats.Merged++
	}
	return n, created
}

func (c *Chart) cellAt(i, j int) *Cell {
	if c.cells[i][j] == nil {
		c.cells[i][j] = newCell(i, j)
	}
	return c.cells[i][j]
}

func (c *Chart) nextID() int {
	c.lastID++
	return c.lastID
}

// goalTransition picks the full-span goal entry with the best score after
// the final feature transitions.
func (c *Chart) goalTransition() (*hypergraph.Node, float64, bool) {
	cell := c.Cell(0, c.sourceLength)
	if cell == nil {
		return nil, 0, false
	}
	var best *hypergraph.Node
	bestScore := math.Inf(-1)
	for _, n := range cell.SortedNodes() {
		if n.LHS != c.goalSymbol {
			continue
		}
		if s := n.Score + c.final(n); best == nil || s > bestScore {
			best, bestScore = n, s
		}
	}
	return best, bestScore, best != nil
}

// RootedAtLongestCompleteSpan returns the forest of the best entry in the
// widest non-empty cell, leftmost first. It is the fallback when Expand
// finds no derivation.
func (c *Chart) RootedAtLongestCompleteSpan() *hypergraph.HyperGraph {
	for width := c.sourceLength; width > 0; width-- {
		for i := 0; i+width <= c.sourceLength; i++ {
			if hg := c.RootedAtCell(i, i+width); hg != nil {
				log.Infof("sentence %d: rooting forest at longest complete span (%d, %d)", c.sentID, i, i+width)
				return hg
			}
		}
	}
	return nil
}

// RootedAtCell returns the forest of the best entry over [i,j), or nil.
func (c *Chart) RootedAtCell(i, j int) *hypergraph.HyperGraph {
	cell := c.Cell(i, j)
	if cell == nil || cell.Len() == 0 {
		return nil
	}
	return hypergraph.New(cell.Best(), c.sentID, c.sourceLength)
}

// RootedAtSymbol returns the forests of every cell whose best entry carries
// sym, widest cells first.
func (c *Chart) RootedAtSymbol(sym int) []*hypergraph.HyperGraph {
	var out []*hypergraph.HyperGraph
	for width := c.sourceLength; width > 0; width-- {
		for i := 0; i+width <= c.sourceLength; i++ {
			cell := c.Cell(i, i+width)
			if cell == nil || cell.Len() == 0 || cell.Best().LHS != sym {
				continue
			}
			out = append(out, hypergraph.New(cell.Best(), c.sentID, c.sourceLength))
		}
	}
	return out
}

// Forests returns the forest of the best entry of every non-empty cell,
// widest cells first.
func (c *Chart) Forests() []*hypergraph.HyperGraph {
	var out []*hypergraph.HyperGraph
	for width := c.sourceLength; width > 0; width-- {
		for i := 0; i+width <= c.sourceLength; i++ {
			if hg := c.RootedAtCell(i, i+width); hg != nil {
				out = append(out, hg)
			}
		}
	}
	return out
}
