package ff

import (
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/lattice"
)

// PhraseModel weights the dense feature vector of rules from one grammar.
type PhraseModel struct {
	Owner   string
	Weights []float64
}

func (p *PhraseModel) Name() string { return "tm_" + p.Owner }

func (p *PhraseModel) EstimateRule(r *grammar.Rule) float64 {
	if r.Owner != p.Owner {
		return 0
	}
	score := 0.0
	for i, f := range r.Features {
		if i >= len(p.Weights) {
			break
		}
		score += p.Weights[i] * f
	}
	return score
}

func (p *PhraseModel) Compute(r *grammar.Rule, _ []State, _, _ int, _ lattice.Path, _ int) (float64, State) {
	return p.EstimateRule(r), nil
}

func (p *PhraseModel) Final(State, int, int) float64 { return 0 }

// WordPenalty charges for every target word produced.
type WordPenalty struct {
	Weight float64
}

func (w *WordPenalty) Name() string { return "WordPenalty" }

func (w *WordPenalty) EstimateRule(r *grammar.Rule) float64 {
	return -w.Weight * float64(r.TargetWords())
}

func (w *WordPenalty) Compute(r *grammar.Rule, _ []State, _, _ int, _ lattice.Path, _ int) (float64, State) {
	return w.EstimateRule(r), nil
}

func (w *WordPenalty) Final(State, int, int) float64 { return 0 }

// OOVOwner is the owner name of synthesized pass-through rules.
const OOVOwner = "oov"

// OOVPenalty fires once per synthesized out-of-vocabulary rule.
type OOVPenalty struct {
	Weight float64
}

func (o *OOVPenalty) Name() string { return "OOVPenalty" }

func (o *OOVPenalty) EstimateRule(r *grammar.Rule) float64 {
	if r.Owner == OOVOwner {
		return o.Weight
	}
	return 0
}

func (o *OOVPenalty) Compute(r *grammar.Rule, _ []State, _, _ int, _ lattice.Path, _ int) (float64, State) {
	return o.EstimateRule(r), nil
}

func (o *OOVPenalty) Final(State, int, int) float64 { return 0 }

// SourcePath charges the cost of the lattice arcs a rule consumed.
type SourcePath struct {
	Weight float64
}

func (s *SourcePath) Name() string { return "SourcePath" }

func (s *SourcePath) EstimateRule(*grammar.Rule) float64 { return 0 }

func (s *SourcePath) Compute(_ *grammar.Rule, _ []State, _, _ int, path lattice.Path, _ int) (float64, State) {
	return -s.Weight * path.Cost, nil
}

func (s *SourcePath) Final(State, int, int) float64 { return 0 }
