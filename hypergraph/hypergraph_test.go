package hypergraph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhamidi/hiero/ff"
	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/vocab"
)

type sig string

func (s sig) Signature() string { return string(s) }

func leaf(v *vocab.Vocabulary, i int, src, tgt string, score float64) *Node {
	x := v.Nonterminal("X")
	r := grammar.NewRule(x, []int{v.ID(src)}, []int{v.ID(tgt)}, nil, "tm")
	return NewNode(i, i+1, x, nil, &Edge{Rule: r, Score: score, Transition: score})
}

func TestNode_AddEdgeKeepsMax(t *testing.T) {
	v := vocab.New()
	n := leaf(v, 0, "la", "the", -2)
	r := n.Best.Rule

	better := &Edge{Rule: r, Score: -1}
	worse := &Edge{Rule: r, Score: -3}
	assert.True(t, n.AddEdge(better))
	assert.False(t, n.AddEdge(worse))
	assert.Equal(t, -1.0, n.Score)
	assert.Same(t, better, n.Best)
	assert.Len(t, n.Edges, 3)
}

func TestSignature_DependsOnStates(t *testing.T) {
	a := Signature(-1, nil)
	b := Signature(-1, []ff.State{sig("x")})
	c := Signature(-1, []ff.State{sig("y")})
	assert.NotEqual(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Equal(t, b, Signature(-1, []ff.State{sig("x")}))
}

func TestHyperGraph_WalkAndYield(t *testing.T) {
	v := vocab.New()
	x := v.Nonterminal("X")
	la := leaf(v, 0, "la", "the", -1)
	casa := leaf(v, 1, "casa", "house", -1)

	swap := grammar.NewRule(x, []int{x, x}, []int{-2, v.ID("of"), -1}, nil, "tm")
	root := NewNode(0, 2, x, nil, &Edge{Rule: swap, Ants: []*Node{la, casa}, Score: -2.5})
	hg := New(root, 3, 2)

	var order []*Node
	hg.Walk(func(n *Node) { order = append(order, n) })
	require.Len(t, order, 3)
	assert.Same(t, root, order[2])

	assert.Equal(t, 3, hg.NumNodes())
	assert.Equal(t, 3, hg.NumEdges())
	assert.Equal(t, "house of the", hg.Translation(v))
	assert.Equal(t, "(X{0-2} (X{1-2} house) of (X{0-1} the))", hg.Tree(v))
	assert.Equal(t, -2.5, hg.Score)
}

func TestWalk_SharedAntecedentVisitedOnce(t *testing.T) {
	v := vocab.New()
	x := v.Nonterminal("X")
	la := leaf(v, 0, "la", "the", -1)
	unary := grammar.NewRule(x, []int{x}, []int{-1}, nil, "tm")
	mid := NewNode(0, 1, v.Nonterminal("Y"), nil, &Edge{Rule: unary, Ants: []*Node{la}})
	root := NewNode(0, 1, v.Nonterminal("S"), nil, &Edge{Rule: unary, Ants: []*Node{la}})
	root.AddEdge(&Edge{Rule: unary, Ants: []*Node{mid}})

	count := 0
	Walk(root, func(*Node) { count++ })
	assert.Equal(t, 3, count)
	Walk(nil, func(*Node) { t.Fatal("walked a nil root") })
}
