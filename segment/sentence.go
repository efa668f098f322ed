// Package segment describes one unit of decoder input: a source sentence or
// lattice, plus whatever the caller knows about it (a target to force, a
// reference parse, manual span constraints).
package segment

import (
	"fmt"
	"strings"

	"github.com/dhamidi/hiero/lattice"
	"github.com/dhamidi/hiero/syntax"
	"github.com/dhamidi/hiero/vocab"
)

// ConstraintType names what a manual constraint restricts.
type ConstraintType int

const (
	// RuleConstraint supplies explicit rules for the span.
	RuleConstraint ConstraintType = iota
	// LHSConstraint restricts the left-hand symbols allowed for the span.
	LHSConstraint
)

// ConstraintRule is a manually supplied rule, in surface form.
type ConstraintRule struct {
	LHS      string
	Source   []string
	Target   []string
	Features []float64
}

// Constraint restricts decoding over the span [Start, End).
type Constraint struct {
	Start int
	End   int
	Type  ConstraintType
	// Hard rule constraints block every other rule inside the span.
	Hard  bool
	Rules []ConstraintRule
	LHS   []string
}

// Sentence is one decoder input.
type Sentence struct {
	ID          int
	Source      string
	Target      string
	Lattice     *lattice.Lattice
	Tree        *syntax.Tree
	Constraints []Constraint
}

// New builds a sentence whose lattice is the linear chain of source words.
func New(v *vocab.Vocabulary, id int, source string) *Sentence {
	source = strings.TrimSpace(source)
	return &Sentence{
		ID:      id,
		Source:  source,
		Lattice: lattice.FromTokens(v.IDs(source)),
	}
}

// Parse reads a line of the form "source" or "source ||| target".
func Parse(v *vocab.Vocabulary, id int, line string) *Sentence {
	source, target, found := strings.Cut(line, "|||")
	s := New(v, id, source)
	if found {
		s.Target = strings.TrimSpace(target)
	}
	return s
}

// WithTree attaches a reference parse. The parse must cover the source words.
func (s *Sentence) WithTree(v *vocab.Vocabulary, bracketed string) error {
	tree, err := syntax.Parse(v, bracketed)
	if err != nil {
		return fmt.Errorf("sentence %d: %w", s.ID, err)
	}
	if tree.Len() != s.Length() {
		return fmt.Errorf("sentence %d: parse covers %d words, sentence has %d", s.ID, tree.Len(), s.Length())
	}
	s.Tree = tree
	return nil
}

// Length is the number of positions the chart spans.
func (s *Sentence) Length() int {
	return s.Lattice.Size() - 1
}

// IsEmpty reports whether there is nothing to decode.
func (s *Sentence) IsEmpty() bool {
	return s.Length() == 0
}

// HasTarget reports whether decoding is constrained to a fixed target string.
func (s *Sentence) HasTarget() bool {
	return s.Target != ""
}
