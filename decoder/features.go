package decoder

import (
	"fmt"

	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/vocab"
)

// LoadGrammars reads every configured grammar, in order.
func LoadGrammars(cfg Config, v *vocab.Vocabulary) ([]grammar.Grammar, error) {
	var grammars []grammar.Grammar
	for _, gc := range cfg.Grammars {
		g, err := grammar.Load(gc.Path, v, gc.Owner, gc.SpanLimit)
		if err != nil {
			return nil, fmt.Errorf("load grammar %s: %w", gc.Owner, err)
		}
		log.Infof("loaded %d rules from %s (owner %s)", g.NumRules(), gc.Path, gc.Owner)
		grammars = append(grammars, g)
	}
	return grammars, nil
}

// BuildFeatures assembles the feature set: one phrase model per grammar
// owner, the penalties, and the language model when one is configured.
func BuildFeatures(cfg Config, v *vocab.Vocabulary) (ff.Set, error) {
	var set ff.Set
	seen := make(map[string]bool)
	for _, gc := range cfg.Grammars {
		if seen[gc.Owner] {
			continue
		}
		seen[gc.Owner] = true
		set = append(set, &ff.PhraseModel{Owner: gc.Owner, Weights: cfg.Weights.Phrase})
	}
	if w := cfg.Weights.WordPenalty; w != 0 {
		set = append(set, &ff.WordPenalty{Weight: w})
	}
	set = append(set, &ff.OOVPenalty{Weight: cfg.Weights.OOVPenalty})
	if w := cfg.Weights.SourcePath; w != 0 {
		set = append(set, &ff.SourcePath{Weight: w})
	}
	if lmc := cfg.LanguageModel; lmc != nil {
		m, err := ff.LoadARPA(lmc.Path, v)
		if err != nil {
			return nil, fmt.Errorf("load language model: %w", err)
		}
		set = append(set, &ff.LanguageModel{Model: m, Weight: lmc.Weight})
	}
	return set, nil
}
