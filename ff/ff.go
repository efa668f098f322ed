// Package ff defines the feature functions that score rule applications.
//
// A feature function sees a rule, the states its antecedents carried for
// that same function, and the span being built. It returns a weighted score
// contribution and, if it is stateful, a new state. Two chart entries are
// only interchangeable when every function assigned them equal states.
package ff

import (
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/lattice"
	"github.com/dhamidi/hiero/segment"
)

// State is the opaque dynamic-programming state one feature function keeps
// per chart entry.
type State interface {
	// Signature identifies the state for recombination.
	Signature() string
}

// FeatureFunction scores rule applications. Implementations shared between
// concurrent parses must not mutate themselves.
type FeatureFunction interface {
	Name() string
	// EstimateRule scores a rule on its own, used to sort rule collections.
	EstimateRule(r *grammar.Rule) float64
	// Compute scores applying r over [i,j). ants holds the state this
	// function assigned to each antecedent, in source order.
	Compute(r *grammar.Rule, ants []State, i, j int, path lattice.Path, sentID int) (float64, State)
	// Final scores the transition of a full-span entry into the goal.
	Final(s State, sourceLength, sentID int) float64
}

// FutureEstimator is implemented by stateful functions that can estimate the
// part of an entry's score not yet known, such as unscored boundary words.
type FutureEstimator interface {
	EstimateFuture(s State) float64
}

// SourceDependent functions must see the sentence before scoring it. Each
// worker gets its own clone.
type SourceDependent interface {
	FeatureFunction
	SetSource(s *segment.Sentence)
	Clone() SourceDependent
}

// Fragmenter is implemented by states that carry target-side word
// sequences, so a target string can veto them.
type Fragmenter interface {
	Fragments() [][]int
}

// Set is an ordered list of feature functions. State slot k of every chart
// entry belongs to function k.
type Set []FeatureFunction

// EstimateRule sums the estimates of every function.
func (s Set) EstimateRule(r *grammar.Rule) float64 {
	total := 0.0
	for _, f := range s {
		total += f.EstimateRule(r)
	}
	return total
}

// ForWorker returns a copy of s whose sentence-dependent functions are
// private clones.
func (s Set) ForWorker() Set {
	out := make(Set, len(s))
	for i, f := range s {
		if sd, ok := f.(SourceDependent); ok {
			out[i] = sd.Clone()
		} else {
			out[i] = f
		}
	}
	return out
}

// SetSource hands the sentence to every sentence-dependent function.
func (s Set) SetSource(sent *segment.Sentence) {
	for _, f := range s {
		if sd, ok := f.(SourceDependent); ok {
			sd.SetSource(sent)
		}
	}
}

var _ grammar.Estimator = Set(nil)
