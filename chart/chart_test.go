package chart

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/hypergraph"
	"github.com/dhamidi/hiero/lattice"
	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/vocab"
)

func stateless() ff.Set {
	return ff.Set{
		&ff.PhraseModel{Owner: "tm", Weights: []float64{1}},
		&ff.OOVPenalty{Weight: -100},
	}
}

// withLM adds a bigram model so entries carry their boundary words as state.
func withLM(v *vocab.Vocabulary, weight float64) ff.Set {
	return append(stateless(), &ff.LanguageModel{Model: ff.NewBigram(v), Weight: weight})
}

func readGrammar(t *testing.T, v *vocab.Vocabulary, rules string) grammar.Grammar {
	t.Helper()
	g, err := grammar.Read(strings.NewReader(rules), v, "tm", -1)
	require.NoError(t, err)
	return g
}

func newChart(t *testing.T, v *vocab.Vocabulary, rules string, sent *segment.Sentence, features ff.Set, opts ...Option) *Chart {
	t.Helper()
	return New(v, sent, features, []grammar.Grammar{readGrammar(t, v, rules)}, opts...)
}

const reorderGrammar = `
[X] ||| a ||| A ||| -1
[X] ||| b ||| B ||| -1
[X] ||| c ||| C ||| -1
[GOAL] ||| [X,1] [X,2] [X,3] ||| [X,3] [X,2] [X,1] ||| -0.5
`

func TestExpand_EndToEnd(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, reorderGrammar, segment.New(v, 1, "a b c"), stateless())

	hg, stats, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "C B A", hg.Translation(v))
	assert.InDelta(t, -3.5, hg.Score, 1e-9)
	assert.Equal(t, 4, hg.NumNodes())
	// every leaf also has its pass-through edge
	assert.Equal(t, 7, hg.NumEdges())
	assert.Equal(t, 0, hg.Root.I)
	assert.Equal(t, 3, hg.Root.J)
	assert.Equal(t, v.Nonterminal("GOAL"), hg.Root.LHS)
	assert.Equal(t, 3, stats.Merged)
	assert.Equal(t, "exhaustive", c.Strategy())
}

func TestExpand_Recombination(t *testing.T) {
	v := vocab.New()
	rules := `
[X] ||| a ||| A ||| -1
[X] ||| b ||| B ||| -1
[X] ||| a b ||| A B ||| -1.5
[X] ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0
`
	c := newChart(t, v, rules, segment.New(v, 1, "a b"), withLM(v, 0), WithGoalSymbol("[X]"))
	hg, stats, err := c.Expand()
	require.NoError(t, err)

	cell := c.Cell(0, 2)
	require.NotNil(t, cell)
	assert.Equal(t, 4, cell.Len())
	assert.GreaterOrEqual(t, stats.Merged, 1)

	var merged *hypergraph.Node
	for _, n := range cell.SortedNodes() {
		if hypergraph.New(n, 1, 2).Translation(v) == "A B" {
			merged = n
		}
	}
	require.NotNil(t, merged)
	assert.Len(t, merged.Edges, 2)
	assert.InDelta(t, -1.5, merged.Score, 1e-9)
	assert.Equal(t, 0, merged.Best.Rule.Arity)
	assert.Same(t, merged, hg.Root)
}

func TestExpand_StrategiesAgree(t *testing.T) {
	v := vocab.New()
	rules := `
[X] ||| a ||| A ||| -1
[X] ||| a ||| A2 ||| -1.2
[X] ||| b ||| B ||| -1
[X] ||| b ||| B2 ||| -0.8
[X] ||| [X,1] [X,2] ||| [X,1] [X,2] ||| -0.1
[X] ||| [X,1] [X,2] ||| [X,2] [X,1] ||| -0.3
[GOAL] ||| [X,1] ||| [X,1] ||| 0
`
	features := func() ff.Set {
		set := withLM(v, 1)
		lm := set[len(set)-1].(*ff.LanguageModel)
		for _, w := range []string{"A", "A2", "B", "B2", vocab.StopSym} {
			lm.Model.SetUnigram(v.ID(w), -1, -0.5)
		}
		lm.Model.SetBigram(v.ID("B"), v.ID("A"), -0.1)
		return set
	}

	// Translations may differ between strategies on exact ties, scores may not.
	type outcome struct {
		score float64
		added int
		full  int
	}
	run := func(opts ...Option) outcome {
		sent := segment.New(v, 1, "a b a b")
		c := New(v, sent, features(), []grammar.Grammar{readGrammar(t, v, rules)}, opts...)
		hg, stats, err := c.Expand()
		require.NoError(t, err)
		return outcome{hg.Score, stats.Added, c.Cell(0, 4).Len()}
	}

	want := run()
	assert.Equal(t, want, run(WithPopLimit(1_000_000)))
	assert.Equal(t, want, run(WithBeamAndThreshold(true, 1_000_000, 1e9)))
}

func TestExpand_PassThroughRules(t *testing.T) {
	v := vocab.New()
	rules := `
[X] ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0
[GOAL] ||| [X,1] ||| [X,1] ||| 0
`
	c := newChart(t, v, rules, segment.New(v, 1, "x y"), stateless())
	hg, _, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "x y", hg.Translation(v))
	assert.InDelta(t, -200, hg.Score, 1e-9)

	c = newChart(t, v, rules, segment.New(v, 1, "x y"), stateless(), WithMarkOOVs(true))
	hg, _, err = c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "x_OOV y_OOV", hg.Translation(v))
}

func TestOOVGrammar_TrueOOVsOnly(t *testing.T) {
	v := vocab.New()
	rules := `[X] ||| a ||| A ||| -1`
	sent := segment.New(v, 1, "a x x")

	c := newChart(t, v, rules, sent, stateless())
	assert.Equal(t, 2, c.grammars[len(c.grammars)-1].NumRules())

	c = newChart(t, v, rules, sent, stateless(), WithTrueOOVsOnly(true), WithDefaultNonterminal("[UNK]"))
	oov := c.grammars[len(c.grammars)-1].(*grammar.MemoryGrammar)
	require.Equal(t, 1, oov.NumRules())
	r := oov.Rules()[0]
	assert.Equal(t, v.Nonterminal("UNK"), r.LHS)
	assert.Equal(t, []int{v.ID("x")}, r.Source)
	assert.Equal(t, ff.OOVOwner, r.Owner)
}

// oovEdges counts the edges over [i,j) built from pass-through rules.
func oovEdges(c *Chart, i, j int) int {
	n := 0
	for _, node := range c.Cell(i, j).SortedNodes() {
		for _, e := range node.Edges {
			if e.Rule.Owner == ff.OOVOwner {
				n++
			}
		}
	}
	return n
}

func TestOOVGrammar_OneApplicationPerUnknownArc(t *testing.T) {
	v := vocab.New()
	rules := `[X] ||| a ||| A ||| -1`
	sent := segment.New(v, 1, "a x x")

	c := newChart(t, v, rules, sent, stateless(), WithTrueOOVsOnly(true))
	_, _, err := c.Expand()
	require.ErrorIs(t, err, ErrNoDerivation)
	assert.Equal(t, 0, oovEdges(c, 0, 1))
	assert.Equal(t, 1, oovEdges(c, 1, 2))
	assert.Equal(t, 1, oovEdges(c, 2, 3))

	c = newChart(t, v, rules, sent, stateless())
	_, _, err = c.Expand()
	require.ErrorIs(t, err, ErrNoDerivation)
	assert.Equal(t, 1, oovEdges(c, 0, 1))
	assert.Equal(t, 1, oovEdges(c, 1, 2))
	assert.Equal(t, 1, oovEdges(c, 2, 3))
}

func TestOOVGrammar_SkipsBoundarySymbols(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, ``, segment.New(v, 1, "<s> a </s>"), stateless())
	oov := c.grammars[len(c.grammars)-1].(*grammar.MemoryGrammar)
	require.Equal(t, 1, oov.NumRules())
	assert.Equal(t, []int{v.ID("a")}, oov.Rules()[0].Source)
}

func TestAddUnaryNodes_TerminatesOnCycles(t *testing.T) {
	v := vocab.New()
	rules := `
[Y] ||| a ||| A ||| -1
[X] ||| [Y,1] ||| [Y,1] ||| 0
[Y] ||| [X,1] ||| [X,1] ||| 0
`
	c := newChart(t, v, rules, segment.New(v, 1, "a"), stateless(), WithGoalSymbol("[X]"))
	hg, stats, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "A", hg.Translation(v))
	assert.InDelta(t, -1, hg.Score, 1e-9)
	assert.Equal(t, 2, hg.NumNodes())
	// both unary applications land on entries that already exist
	assert.Equal(t, 0, stats.UnaryAdded)
	assert.Equal(t, 2, stats.Merged)
}

func TestAddUnaryNodes_CountsOnlyNewEntries(t *testing.T) {
	v := vocab.New()
	rules := `
[Y] ||| a ||| A ||| -1
[X] ||| a ||| A ||| -1
[X] ||| [Y,1] ||| [Y,1] ||| 0
`
	c := newChart(t, v, rules, segment.New(v, 1, "a"), stateless(), WithGoalSymbol("[X]"))
	_, stats, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Cell(0, 1).Len())
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 2, stats.Merged)
	assert.Equal(t, 0, stats.UnaryAdded)

	rules = `
[Y] ||| a ||| A ||| -1
[X] ||| [Y,1] ||| [Y,1] ||| 0
`
	c = newChart(t, v, rules, segment.New(v, 1, "a"), stateless(), WithGoalSymbol("[X]"), WithTrueOOVsOnly(true))
	_, stats, err = c.Expand()
	require.NoError(t, err)
	assert.Equal(t, 2, c.Cell(0, 1).Len())
	assert.Equal(t, 2, stats.Added)
	assert.Equal(t, 0, stats.Merged)
	assert.Equal(t, 1, stats.UnaryAdded)
}

// spanRecorder is a zero-weight feature that logs every span it scores.
type spanRecorder struct {
	spans [][2]int
}

func (r *spanRecorder) Name() string {
	return "spans"
}

func (r *spanRecorder) EstimateRule(*grammar.Rule) float64 {
	return 0
}

func (r *spanRecorder) Final(ff.State, int, int) float64 {
	return 0
}

func (r *spanRecorder) Compute(_ *grammar.Rule, _ []ff.State, i, j int, _ lattice.Path, _ int) (float64, ff.State) {
	r.spans = append(r.spans, [2]int{i, j})
	return 0, nil
}

func TestExpand_NarrowerSpansCompleteFirst(t *testing.T) {
	v := vocab.New()
	rec := &spanRecorder{}
	c := newChart(t, v, reorderGrammar, segment.New(v, 1, "a b c"), append(stateless(), rec))
	_, _, err := c.Expand()
	require.NoError(t, err)

	require.NotEmpty(t, rec.spans)
	width := 0
	for _, s := range rec.spans {
		w := s[1] - s[0]
		assert.GreaterOrEqual(t, w, width, "span %v scored after a span of width %d", s, width)
		width = w
	}
	assert.Equal(t, [2]int{0, 3}, rec.spans[len(rec.spans)-1])
}

func TestExpand_UnreachableSpansAreNeverScored(t *testing.T) {
	v := vocab.New()
	lat, err := lattice.New(4, []lattice.Arc{
		{Tail: 0, Head: 1, Label: v.ID("a")},
		{Tail: 1, Head: 3, Label: v.ID("bc")},
	})
	require.NoError(t, err)
	rules := `
[X] ||| bc ||| BC ||| -1
[GOAL] ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0
`
	rec := &spanRecorder{}
	c := newChart(t, v, rules, &segment.Sentence{ID: 1, Lattice: lat}, append(stateless(), rec))
	_, _, err = c.Expand()
	require.NoError(t, err)

	seen := make(map[[2]int]bool)
	width := 0
	for _, s := range rec.spans {
		seen[s] = true
		assert.GreaterOrEqual(t, s[1]-s[0], width)
		width = s[1] - s[0]
	}
	assert.True(t, seen[[2]int{0, 1}])
	assert.True(t, seen[[2]int{1, 3}])
	assert.True(t, seen[[2]int{0, 3}])
	for _, s := range [][2]int{{0, 2}, {1, 2}, {2, 3}} {
		assert.False(t, seen[s], "unreachable span %v was scored", s)
	}
}

func TestExpand_NoDerivation(t *testing.T) {
	v := vocab.New()
	rules := `
[X] ||| a ||| A ||| -1
[X] ||| [X,1] [X,2] ||| [X,2] [X,1] ||| 0
`
	c := newChart(t, v, rules, segment.New(v, 1, "a b c"), stateless())
	hg, _, err := c.Expand()
	assert.Nil(t, hg)
	assert.True(t, errors.Is(err, ErrNoDerivation))

	fallback := c.RootedAtLongestCompleteSpan()
	require.NotNil(t, fallback)
	assert.Equal(t, 0, fallback.Root.I)
	assert.Equal(t, 3, fallback.Root.J)
	assert.Equal(t, "c b A", fallback.Translation(v))

	rooted := c.RootedAtSymbol(v.Nonterminal("X"))
	require.Len(t, rooted, 6)
	assert.Same(t, fallback.Root, rooted[0].Root)
	assert.Len(t, c.Forests(), 6)
	assert.Nil(t, c.RootedAtCell(2, 1))
}

func TestExpand_LongestSpanFallbackWithoutFullCell(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, `[X] ||| a ||| A ||| -1`, segment.New(v, 1, "a b"), stateless())
	_, _, err := c.Expand()
	require.ErrorIs(t, err, ErrNoDerivation)

	fallback := c.RootedAtLongestCompleteSpan()
	require.NotNil(t, fallback)
	assert.Equal(t, 0, fallback.Root.I)
	assert.Equal(t, 1, fallback.Root.J)
	assert.Equal(t, "A", fallback.Translation(v))
}

func TestExpand_EmptySentence(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, reorderGrammar, segment.New(v, 1, "  "), stateless())
	_, _, err := c.Expand()
	assert.ErrorIs(t, err, ErrNoDerivation)
	assert.Nil(t, c.RootedAtLongestCompleteSpan())
}

func TestExpand_LatticeSkipsUnreachableSpans(t *testing.T) {
	v := vocab.New()
	lat, err := lattice.New(4, []lattice.Arc{
		{Tail: 0, Head: 1, Label: v.ID("a")},
		{Tail: 1, Head: 3, Label: v.ID("bc"), Cost: 2},
	})
	require.NoError(t, err)
	sent := &segment.Sentence{ID: 7, Source: "a bc", Lattice: lat}
	rules := `
[X] ||| bc ||| BC ||| -1
[GOAL] ||| [X,1] [X,2] ||| [X,1] [X,2] ||| 0
`
	features := append(stateless(), &ff.SourcePath{Weight: 1})
	c := newChart(t, v, rules, sent, features)

	hg, stats, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "a BC", hg.Translation(v))
	assert.InDelta(t, -103, hg.Score, 1e-9)
	assert.Equal(t, 3, stats.SpansSkipped)
	assert.Nil(t, c.Cell(1, 2))
	assert.Equal(t, 7, hg.SentID)
}

func TestExpand_NodeBudget(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, reorderGrammar, segment.New(v, 1, "a b c"), stateless(), WithMaxNodes(1))
	hg, stats, err := c.Expand()
	assert.Nil(t, hg)
	assert.True(t, errors.Is(err, ErrExhausted))
	assert.Greater(t, stats.Added, 1)
}

func TestNew_StrategySelection(t *testing.T) {
	v := vocab.New()
	sent := segment.New(v, 1, "a")
	for _, tc := range []struct {
		opts []Option
		want string
	}{
		{nil, "exhaustive"},
		{[]Option{WithPopLimit(10)}, "cube-pruning"},
		{[]Option{WithBeamAndThreshold(true, 5, 3)}, "beam-and-threshold"},
		{[]Option{WithPopLimit(10), WithBeamAndThreshold(true, 5, 3)}, "cube-pruning"},
		{[]Option{WithBeamAndThreshold(false, 5, 3)}, "exhaustive"},
	} {
		c := newChart(t, v, reorderGrammar, sent, stateless(), tc.opts...)
		assert.Equal(t, tc.want, c.Strategy())
	}
}

func TestSetGoalSymbol(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, `[X] ||| a ||| A ||| -1`, segment.New(v, 1, "a"), stateless())
	_, _, err := c.Expand()
	require.ErrorIs(t, err, ErrNoDerivation)

	c = newChart(t, v, `[X] ||| a ||| A ||| -1`, segment.New(v, 1, "a"), stateless())
	c.SetGoalSymbol(v.Nonterminal("X"))
	assert.Equal(t, v.Nonterminal("X"), c.GoalSymbol())
	hg, _, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "A", hg.Translation(v))
}

func TestCell_SortedIsFinal(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, reorderGrammar, segment.New(v, 1, "a b c"), stateless())
	_, _, err := c.Expand()
	require.NoError(t, err)

	cell := c.Cell(0, 1)
	require.NotNil(t, cell)
	best := cell.Best()
	assert.Equal(t, cell.SortedNodes()[0], best)
	assert.Panics(t, func() {
		cell.add(result{}, best.Best.Rule, nil, lattice.Path{})
	})
}
