// Package grammar holds synchronous rules and the trie structure the chart
// walks to find the rules matching a span.
package grammar

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dhamidi/hiero/vocab"
)

// Rule is one synchronous production.
//
// Source holds terminal ids and nonterminal ids (negative) in left-to-right
// order. Target nonterminals are written -k, meaning the k-th nonterminal
// of the source side, so Target {-2, w, -1} swaps two antecedents.
type Rule struct {
	LHS      int
	Source   []int
	Target   []int
	Features []float64
	Arity    int
	Owner    string

	estimate float64
}

// NewRule builds a rule and derives its arity from the source side.
func NewRule(lhs int, source, target []int, features []float64, owner string) *Rule {
	arity := 0
	for _, s := range source {
		if vocab.IsNonterminalID(s) {
			arity++
		}
	}
	return &Rule{
		LHS:      lhs,
		Source:   source,
		Target:   target,
		Features: features,
		Arity:    arity,
		Owner:    owner,
	}
}

// Estimate returns the score estimate computed when the grammar was sorted.
func (r *Rule) Estimate() float64 {
	return r.estimate
}

// TargetWords counts the terminals on the target side.
func (r *Rule) TargetWords() int {
	n := 0
	for _, t := range r.Target {
		if t > 0 {
			n++
		}
	}
	return n
}

// Equal reports whether two rules are the same production.
func (r *Rule) Equal(o *Rule) bool {
	return r.LHS == o.LHS && r.Owner == o.Owner &&
		intsEqual(r.Source, o.Source) && intsEqual(r.Target, o.Target)
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Format renders the rule in the text grammar format.
func (r *Rule) Format(v *vocab.Vocabulary) string {
	var src []string
	k := 0
	for _, s := range r.Source {
		if vocab.IsNonterminalID(s) {
			k++
			src = append(src, fmt.Sprintf("[%s,%d]", v.Label(s), k))
		} else {
			src = append(src, v.Word(s))
		}
	}
	nts := r.sourceNonterminals()
	var tgt []string
	for _, t := range r.Target {
		if t < 0 {
			label := "X"
			if -t <= len(nts) {
				label = v.Label(nts[-t-1])
			}
			tgt = append(tgt, fmt.Sprintf("[%s,%d]", label, -t))
		} else {
			tgt = append(tgt, v.Word(t))
		}
	}
	feats := make([]string, len(r.Features))
	for i, f := range r.Features {
		feats[i] = strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("%s ||| %s ||| %s ||| %s", v.Word(r.LHS),
		strings.Join(src, " "), strings.Join(tgt, " "), strings.Join(feats, " "))
}

func (r *Rule) sourceNonterminals() []int {
	var nts []int
	for _, s := range r.Source {
		if vocab.IsNonterminalID(s) {
			nts = append(nts, s)
		}
	}
	return nts
}

// Estimator scores a rule before any antecedents are known.
type Estimator interface {
	EstimateRule(r *Rule) float64
}
