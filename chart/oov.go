package chart

import (
	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/vocab"
)

// oovGrammar builds pass-through rules copying every lattice word to the
// target side, so every sentence has at least one derivation.
func (c *Chart) oovGrammar() *grammar.MemoryGrammar {
	g := grammar.NewMemoryGrammar(ff.OOVOwner, -1)
	start := c.vocab.ID(vocab.StartSym)
	stop := c.vocab.ID(vocab.StopSym)
	defaultNT := c.vocab.Nonterminal(c.opts.defaultNonterminal)
	tree := c.sentence.Tree
	for _, arc := range c.lattice.Arcs() {
		w := arc.Label
		if w == start || w == stop {
			continue
		}
		if c.opts.trueOOVsOnly && c.known(w) {
			continue
		}
		target := w
		if c.opts.markOOVs {
			target = c.vocab.ID(c.vocab.Word(w) + "_OOV")
		}
		labels := []int{defaultNT}
		if tree != nil && (c.opts.constrainParse || c.opts.usePOSLabels) {
			if ls := tree.ConstituentLabels(arc.Tail, arc.Head); len(ls) > 0 {
				labels = ls
			}
		}
		for _, lhs := range labels {
			r := grammar.NewRule(lhs, []int{w}, []int{target}, nil, ff.OOVOwner)
			if !g.Contains(r) {
				g.AddRule(r)
			}
		}
	}
	g.Sort(c.features)
	return g
}

// known reports whether any grammar has a rule whose source side is w alone.
func (c *Chart) known(w int) bool {
	for _, g := range c.grammars {
		if t := g.Root().Match(w); t != nil && t.RuleCollection() != nil {
			return true
		}
	}
	return false
}
