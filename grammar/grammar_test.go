package grammar

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/hiero/vocab"
)

type firstFeature struct{}

func (firstFeature) EstimateRule(r *Rule) float64 {
	if len(r.Features) == 0 {
		return 0
	}
	return r.Features[0]
}

const testGrammar = `
# a tiny hiero grammar
[X] ||| la ||| the ||| -1
[X] ||| la ||| her ||| -3
[X] ||| casa ||| house ||| -0.5
[X] ||| [X,1] verde ||| green [X,1] ||| -0.2
[X] ||| [X,1] de [X,2] ||| [X,2] of [X,1] ||| p=-0.7
[S] ||| [X,1] ||| [X,1] ||| 0
`

func TestRead_ParsesRules(t *testing.T) {
	v := vocab.New()
	g, err := Read(strings.NewReader(testGrammar), v, "tm", 10)
	require.NoError(t, err)
	assert.Equal(t, 6, g.NumRules())

	trie := g.Root().Match(v.ID("la"))
	require.NotNil(t, trie)
	rc := trie.RuleCollection()
	require.NotNil(t, rc)
	assert.Equal(t, 0, rc.Arity())
	assert.Len(t, rc.SortedRules(), 2)

	swap := g.Root().Match(v.Nonterminal("X")).Match(v.ID("de")).Match(v.Nonterminal("X"))
	require.NotNil(t, swap)
	r := swap.RuleCollection().SortedRules()[0]
	assert.Equal(t, 2, r.Arity)
	assert.Equal(t, []int{-2, v.ID("of"), -1}, r.Target)
	assert.Equal(t, []float64{-0.7}, r.Features)
	assert.Equal(t, "[X] ||| [X,1] de [X,2] ||| [X,2] of [X,1] ||| -0.7", r.Format(v))
}

func TestMemoryGrammar_Sort(t *testing.T) {
	v := vocab.New()
	g, err := Read(strings.NewReader(testGrammar), v, "tm", -1)
	require.NoError(t, err)
	require.False(t, g.IsSorted())

	g.Sort(firstFeature{})
	assert.True(t, g.IsSorted())

	rules := g.Root().Match(v.ID("la")).RuleCollection().SortedRules()
	assert.Equal(t, v.ID("the"), rules[0].Target[0])
	assert.Equal(t, -1.0, rules[0].Estimate())
	assert.Equal(t, v.ID("her"), rules[1].Target[0])
}

func TestMemoryGrammar_SpanLimit(t *testing.T) {
	g := NewMemoryGrammar("tm", 2)
	assert.True(t, g.HasRuleForSpan(0, 2, 2))
	assert.False(t, g.HasRuleForSpan(0, 3, 3))
	assert.False(t, g.HasRuleForSpan(0, 1, math.Inf(1)))

	glue := NewMemoryGrammar("glue", -1)
	assert.True(t, glue.HasRuleForSpan(0, 50, 50))
}

func TestMemoryGrammar_Contains(t *testing.T) {
	v := vocab.New()
	g := NewMemoryGrammar("oov", -1)
	r := NewRule(v.Nonterminal("X"), []int{v.ID("zorp")}, []int{v.ID("zorp")}, nil, "oov")
	assert.False(t, g.Contains(r))
	g.AddRule(r)
	assert.True(t, g.Contains(NewRule(r.LHS, r.Source, r.Target, nil, "oov")))
	assert.Len(t, g.Rules(), 1)
}

func TestParseRule_Errors(t *testing.T) {
	v := vocab.New()
	for _, line := range []string{
		"X ||| a ||| b",
		"[X] ||| a",
		"[X] ||| [X,2] a [X,1] ||| b",
		"[X] ||| a ||| [X,1]",
		"[X] ||| a ||| b ||| nope",
	} {
		_, err := ParseRule(v, line, "tm")
		assert.Error(t, err, line)
	}
}
