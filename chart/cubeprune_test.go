package chart

import (
	"container/heap"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/hiero/segment"
	"github.com/dhamidi/hiero/vocab"
)

const pruneGrammar = `
[X] ||| a ||| A ||| -1
[X] ||| a ||| A2 ||| -20
[X] ||| [X,1] b ||| [X,1] B ||| 0
[GOAL] ||| [X,1] ||| [X,1] ||| 0
`

func TestCubeQueue_OrdersByEstimateThenSeq(t *testing.T) {
	q := &cubeQueue{}
	for seq, est := range []float64{-3, -1, -1, -2} {
		heap.Push(q, &cubeState{res: result{estimate: est}, seq: seq})
	}
	var seqs []int
	for q.Len() > 0 {
		seqs = append(seqs, heap.Pop(q).(*cubeState).seq)
	}
	assert.Equal(t, []int{1, 2, 3, 0}, seqs)
}

func TestCubePruning_PopLimit(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, pruneGrammar, segment.New(v, 1, "a b"), withLM(v, 0), WithPopLimit(1))
	hg, stats, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "A B", hg.Translation(v))

	// axioms bypass pruning
	assert.Len(t, c.Cell(0, 1).SuperNode(v.Nonterminal("X")).Nodes, 3)
	assert.Len(t, c.Cell(0, 2).SuperNode(v.Nonterminal("X")).Nodes, 1)
	assert.Greater(t, stats.Pruned, 0)
}

func TestCubePruning_BeamAndThreshold(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, pruneGrammar, segment.New(v, 1, "a b"), withLM(v, 0), WithBeamAndThreshold(true, 10, 5))
	hg, stats, err := c.Expand()
	require.NoError(t, err)
	assert.Equal(t, "A B", hg.Translation(v))
	assert.Len(t, c.Cell(0, 2).SuperNode(v.Nonterminal("X")).Nodes, 1)
	assert.Greater(t, stats.PrePruned, 0)

	c = newChart(t, v, pruneGrammar, segment.New(v, 1, "a b"), withLM(v, 0))
	_, _, err = c.Expand()
	require.NoError(t, err)
	assert.Len(t, c.Cell(0, 2).SuperNode(v.Nonterminal("X")).Nodes, 3)
}

func TestCubePruning_BeamSizeCapsPops(t *testing.T) {
	v := vocab.New()
	c := newChart(t, v, pruneGrammar, segment.New(v, 1, "a b"), withLM(v, 0), WithBeamAndThreshold(true, 2, 1000))
	_, _, err := c.Expand()
	require.NoError(t, err)
	assert.Len(t, c.Cell(0, 2).SuperNode(v.Nonterminal("X")).Nodes, 2)
}

func TestCubeState_KeyIdentifiesCoordinates(t *testing.T) {
	w := &applicable{dot: &DotNode{id: 4}}
	a := &cubeState{work: w, ranks: []int{1, 2}}
	b := &cubeState{work: w, ranks: []int{2, 1}}
	assert.Equal(t, "4:1:2", a.key())
	assert.NotEqual(t, a.key(), b.key())
}
