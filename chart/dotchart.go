package chart

import (
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/lattice"
)

// DotNode is a partially matched rule source side over [I,J).
type DotNode struct {
	I, J int
	// Ants are the cells' symbol groups matched for each nonterminal so far.
	Ants []*SuperNode
	Path lattice.Path

	id   int
	trie grammar.Trie
}

// Rules returns the rules whose source side is fully matched, or nil.
func (d *DotNode) Rules() grammar.RuleCollection {
	return d.trie.RuleCollection()
}

// dotChart tracks rule matching progress for one grammar.
type dotChart struct {
	chart   *Chart
	grammar grammar.Grammar
	cells   [][][]*DotNode
}

func newDotChart(c *Chart, g grammar.Grammar) *dotChart {
	n := c.sourceLength
	d := &dotChart{
		chart:   c,
		grammar: g,
		cells:   make([][][]*DotNode, n+1),
	}
	for i := range d.cells {
		d.cells[i] = make([][]*DotNode, n+1)
	}
	root := g.Root()
	for i := 0; i < n; i++ {
		d.cells[i][i] = []*DotNode{{I: i, J: i, id: c.nextID(), trie: root}}
	}
	return d
}

// at returns the dot nodes over [i,j).
func (d *dotChart) at(i, j int) []*DotNode {
	return d.cells[i][j]
}

func (d *dotChart) applies(i, j int) bool {
	return d.grammar.HasRuleForSpan(i, j, d.chart.lattice.Distance(i, j))
}

// expand fills [i,j) by extending narrower dot nodes with a completed narrower
// cell or with a lattice arc ending at j.
func (d *dotChart) expand(i, j int) {
	if !d.applies(i, j) {
		return
	}
	for k := i + 1; k < j; k++ {
		cell := d.chart.cells[k][j]
		if cell == nil || cell.Len() == 0 {
			continue
		}
		for _, dot := range d.cells[i][k] {
			for _, sn := range cell.SuperNodes() {
				if child := dot.trie.Match(sn.LHS); child != nil {
					d.add(child, i, j, appendSuper(dot.Ants, sn), dot.Path)
				}
			}
		}
	}
	for _, arc := range d.chart.lattice.Incoming(j) {
		if arc.Tail < i {
			continue
		}
		for _, dot := range d.cells[i][arc.Tail] {
			if child := dot.trie.Match(arc.Label); child != nil {
				d.add(child, i, j, dot.Ants, dot.Path.Extend(arc))
			}
		}
	}
}

// startDotItems lets rules begin with a symbol completed over [i,j).
func (d *dotChart) startDotItems(i, j int) {
	cell := d.chart.cells[i][j]
	if cell == nil || cell.Len() == 0 || !d.applies(i, j) {
		return
	}
	root := d.cells[i][i][0]
	for _, sn := range cell.SuperNodes() {
		if child := root.trie.Match(sn.LHS); child != nil {
			d.add(child, i, j, []*SuperNode{sn}, lattice.Path{})
		}
	}
}

func (d *dotChart) add(t grammar.Trie, i, j int, ants []*SuperNode, path lattice.Path) {
	if !t.HasExtensions() && t.RuleCollection() == nil {
		return
	}
	d.cells[i][j] = append(d.cells[i][j], &DotNode{
		I:    i,
		J:    j,
		Ants: ants,
		Path: path,
		id:   d.chart.nextID(),
		trie: t,
	})
	d.chart.stats.DotItemsAdded++
}

// appendSuper copies ants so sibling dot nodes never share a backing array.
func appendSuper(ants []*SuperNode, sn *SuperNode) []*SuperNode {
	out := make([]*SuperNode, len(ants)+1)
	copy(out, ants)
	out[len(ants)] = sn
	return out
}
