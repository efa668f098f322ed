package decoder

import (
	"fmt"
	"time"

	"github.com/dhamidi/hiero/chart"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/vocab"
)

// Translation is the decoder's output for one sentence.
type Translation struct {
	SentID int
	Source string
	Text   string
	// Tree is the best derivation, bracketed, with source spans.
	Tree  string
	Score float64
	Stats chart.Stats
	// FellBack is set when no goal entry covered the input and the forest
	// was rooted at the longest complete span instead.
	FellBack bool
	Blank    bool
	Duration time.Duration
	Forest   *hypergraph.HyperGraph
	Err      error
}

func newTranslation(v *vocab.Vocabulary, sent *segment.Sentence, hg *hypergraph.HyperGraph, stats chart.Stats, fellBack bool, d time.Duration) *Translation {
	return &Translation{
		SentID:   sent.ID,
		Source:   sent.Source,
		Text:     hg.Translation(v),
		Tree:     hg.Tree(v),
		Score:    hg.Score,
		Stats:    stats,
		FellBack: fellBack,
		Duration: d,
		Forest:   hg,
	}
}

// String renders the translation as "id ||| text ||| score".
func (t *Translation) String() string {
	return fmt.Sprintf("%d ||| %s ||| %.3f", t.SentID, t.Text, t.Score)
}
