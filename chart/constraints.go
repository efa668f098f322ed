package chart

import (
	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/syntax"
	"github.com/dhamidi/hiero/vocab"
)

// ManualOwner owns the rules supplied by span constraints.
const ManualOwner = "manual"

type span struct{ i, j int }

// manualRule is a rule a constraint places directly into a cell.
type manualRule struct {
	span
	rule *grammar.Rule
}

// constraintFilter decides which rules may build entries over a span.
type constraintFilter struct {
	hard []span
	lhs  map[span]map[int]bool
	// tree restricts left-hand sides to reference labels when set.
	tree   *syntax.Tree
	goal   int
	manual []manualRule
}

func newConstraintFilter(v *vocab.Vocabulary, constraints []segment.Constraint, tree *syntax.Tree, goal int) *constraintFilter {
	f := &constraintFilter{
		lhs:  make(map[span]map[int]bool),
		tree: tree,
		goal: goal,
	}
	for _, con := range constraints {
		s := span{con.Start, con.End}
		switch con.Type {
		case segment.RuleConstraint:
			if con.Hard {
				f.hard = append(f.hard, s)
			}
			for _, cr := range con.Rules {
				r := grammar.NewRule(v.Nonterminal(cr.LHS), wordIDs(v, cr.Source), wordIDs(v, cr.Target), cr.Features, ManualOwner)
				f.manual = append(f.manual, manualRule{span: s, rule: r})
			}
		case segment.LHSConstraint:
			allowed, ok := f.lhs[s]
			if !ok {
				allowed = make(map[int]bool)
				f.lhs[s] = allowed
			}
			for _, l := range con.LHS {
				allowed[v.Nonterminal(l)] = true
			}
		}
	}
	return f
}

func wordIDs(v *vocab.Vocabulary, words []string) []int {
	ids := make([]int, len(words))
	for k, w := range words {
		ids[k] = v.ID(w)
	}
	return ids
}

// blocked reports whether a hard constraint covers [i,j).
func (f *constraintFilter) blocked(i, j int) bool {
	for _, s := range f.hard {
		if s.i <= i && j <= s.j {
			return true
		}
	}
	return false
}

// filter returns the rules allowed over [i,j), in their original order. The
// input slice is returned as is when nothing applies.
func (f *constraintFilter) filter(i, j int, rules []*grammar.Rule) []*grammar.Rule {
	if f.blocked(i, j) {
		return nil
	}
	allowed := f.lhs[span{i, j}]
	var labels map[int]bool
	if f.tree != nil {
		labels = f.tree.AllLabels(i, j)
	}
	if allowed == nil && labels == nil {
		return rules
	}
	var out []*grammar.Rule
	for _, r := range rules {
		if allowed != nil && !allowed[r.LHS] {
			continue
		}
		if labels != nil && r.LHS != f.goal && !labels[r.LHS] {
			continue
		}
		out = append(out, r)
	}
	return out
}

// stateConstraint only admits entries whose target fragments occur in a
// fixed target string.
type stateConstraint struct {
	target []int
}

func newStateConstraint(v *vocab.Vocabulary, target string) *stateConstraint {
	ids := []int{v.ID(vocab.StartSym)}
	ids = append(ids, v.IDs(target)...)
	ids = append(ids, v.ID(vocab.StopSym))
	return &stateConstraint{target: ids}
}

// legal reports whether every fragment of every state occurs contiguously
// in the target. A nil constraint admits everything.
func (sc *stateConstraint) legal(states []ff.State) bool {
	if sc == nil {
		return true
	}
	for _, st := range states {
		fr, ok := st.(ff.Fragmenter)
		if !ok {
			continue
		}
		for _, frag := range fr.Fragments() {
			if !containsRun(sc.target, frag) {
				return false
			}
		}
	}
	return true
}

func containsRun(seq, run []int) bool {
	if len(run) == 0 {
		return true
	}
	for start := 0; start+len(run) <= len(seq); start++ {
		match := true
		for k, w := range run {
			if seq[start+k] != w {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
