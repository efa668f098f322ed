// Package decoder translates sentences with the chart parser: it owns the
// grammars and feature functions, spreads sentences over workers, and runs
// the second pass of synchronous parsing.
package decoder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tliron/commonlog"
	"golang.org/x/sync/errgroup"

	"github.com/dhamidi/hiero/chart"
	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/vocab"
)

// ErrPanic wraps a panic recovered while decoding one sentence.
var ErrPanic = errors.New("decoder panic")

var log = commonlog.GetLogger("hiero.decoder")

// Decoder translates sentences. It is safe for concurrent use once built.
type Decoder struct {
	vocab    *vocab.Vocabulary
	grammars []grammar.Grammar
	features ff.Set
	cfg      Config
	metrics  *Metrics
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithMetrics records every sentence on m.
func WithMetrics(m *Metrics) Option {
	return func(d *Decoder) {
		d.metrics = m
	}
}

// New creates a decoder. Grammars are sorted here, before any worker can
// share them.
func New(cfg Config, v *vocab.Vocabulary, grammars []grammar.Grammar, features ff.Set, opts ...Option) *Decoder {
	for _, g := range grammars {
		if !g.IsSorted() {
			g.Sort(features)
		}
	}
	d := &Decoder{
		vocab:    v,
		grammars: grammars,
		features: features,
		cfg:      cfg,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Translate decodes a single sentence.
func (d *Decoder) Translate(sent *segment.Sentence) (*Translation, error) {
	return d.translate(d.features.ForWorker(), sent)
}

// TranslateAll decodes sentences on cfg.NumThreads workers and returns the
// translations in input order. A sentence that fails yields a Translation
// carrying the error; only cancellation aborts the batch.
func (d *Decoder) TranslateAll(ctx context.Context, sents []*segment.Sentence) ([]*Translation, error) {
	out := make([]*Translation, len(sents))
	jobs := make(chan int)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for i := range sents {
			select {
			case jobs <- i:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return nil
	})

	for w := 0; w < max(1, d.cfg.NumThreads); w++ {
		features := d.features.ForWorker()
		g.Go(func() error {
			for i := range jobs {
				t, err := d.translate(features, sents[i])
				if err != nil {
					log.Errorf("sentence %d: %s", sents[i].ID, err)
					t = &Translation{SentID: sents[i].ID, Source: sents[i].Source, Err: err}
				}
				out[i] = t
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Decoder) translate(features ff.Set, sent *segment.Sentence) (t *Translation, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			t, err = nil, fmt.Errorf("sentence %d: %w: %v", sent.ID, ErrPanic, r)
		}
		d.metrics.observe(t, err, time.Since(start))
	}()

	if sent.IsEmpty() {
		log.Infof("sentence %d: blank", sent.ID)
		return &Translation{SentID: sent.ID, Blank: true}, nil
	}

	c := chart.New(d.vocab, sent, features, d.grammars, d.cfg.ChartOptions()...)
	hg, stats, fellBack, err := expand(c)
	if err != nil {
		return nil, err
	}

	if d.cfg.Parse && sent.HasTarget() {
		forests := []*hypergraph.HyperGraph{hg}
		if fellBack {
			forests = c.Forests()
		}
		var second chart.Stats
		hg, second, fellBack, err = d.parseTarget(features, sent, forests)
		stats.Add(second)
		if err != nil {
			return nil, err
		}
	}

	t = newTranslation(d.vocab, sent, hg, stats, fellBack, time.Since(start))
	log.Infof("sentence %d: %d words in %s", sent.ID, sent.Length(), t.Duration)
	log.Debugf("sentence %d: %s", sent.ID, stats)
	return t, nil
}

// parseTarget runs the second pass: the target string is parsed with the
// grammar read off the first pass's forests.
func (d *Decoder) parseTarget(features ff.Set, sent *segment.Sentence, forests []*hypergraph.HyperGraph) (*hypergraph.HyperGraph, chart.Stats, bool, error) {
	g := synchronousGrammar(d.vocab, forests)
	g.Sort(features)
	log.Debugf("sentence %d: synchronous grammar has %d rules", sent.ID, g.NumRules())

	target := segment.New(d.vocab, sent.ID, sent.Target)
	c := chart.New(d.vocab, target, features, []grammar.Grammar{g}, d.cfg.ChartOptions()...)
	c.SetGoalSymbol(nodeLabel(d.vocab, forests[0].Root))
	return expand(c)
}

// expand parses c, falling back to the longest complete span when no goal
// entry covers the input.
func expand(c *chart.Chart) (*hypergraph.HyperGraph, chart.Stats, bool, error) {
	hg, stats, err := c.Expand()
	if errors.Is(err, chart.ErrNoDerivation) {
		if hg := c.RootedAtLongestCompleteSpan(); hg != nil {
			return hg, stats, true, nil
		}
	}
	return hg, stats, false, err
}
