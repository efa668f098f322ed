package grammar

import (
	"math"
	"sort"
)

// Trie is a position in a grammar's source-side prefix tree.
type Trie interface {
	// Match follows the edge labeled sym, returning nil if there is none.
	Match(sym int) Trie
	HasExtensions() bool
	// RuleCollection returns the rules whose source side ends here, or nil.
	RuleCollection() RuleCollection
}

// RuleCollection is the set of rules sharing one source side.
type RuleCollection interface {
	// SortedRules returns the rules best-estimate first once the grammar is sorted.
	SortedRules() []*Rule
	Arity() int
	SourceSide() []int
}

// Grammar is a rule store the chart can query by source symbols.
type Grammar interface {
	Root() Trie
	// HasRuleForSpan reports whether rules may apply to [i,j), given the
	// lattice path length between the two positions.
	HasRuleForSpan(i, j int, pathLength float64) bool
	Sort(e Estimator)
	IsSorted() bool
	NumRules() int
	Owner() string
}

// MemoryGrammar is a trie-backed in-memory grammar.
type MemoryGrammar struct {
	owner     string
	spanLimit int
	root      *trieNode
	numRules  int
	sorted    bool
}

var _ Grammar = (*MemoryGrammar)(nil)

// NewMemoryGrammar creates an empty grammar. A negative spanLimit means rules
// apply to spans of any length.
func NewMemoryGrammar(owner string, spanLimit int) *MemoryGrammar {
	return &MemoryGrammar{
		owner:     owner,
		spanLimit: spanLimit,
		root:      newTrieNode(),
	}
}

func (g *MemoryGrammar) Owner() string { return g.owner }

func (g *MemoryGrammar) Root() Trie { return g.root }

func (g *MemoryGrammar) NumRules() int { return g.numRules }

func (g *MemoryGrammar) IsSorted() bool { return g.sorted }

func (g *MemoryGrammar) HasRuleForSpan(i, j int, pathLength float64) bool {
	if math.IsInf(pathLength, 1) {
		return false
	}
	return g.spanLimit < 0 || pathLength <= float64(g.spanLimit)
}

// AddRule inserts r under its source side.
func (g *MemoryGrammar) AddRule(r *Rule) {
	n := g.root
	for _, sym := range r.Source {
		child, ok := n.children[sym]
		if !ok {
			child = newTrieNode()
			n.children[sym] = child
		}
		n = child
	}
	if n.rules == nil {
		n.rules = &ruleCollection{arity: r.Arity, source: r.Source}
	}
	n.rules.rules = append(n.rules.rules, r)
	g.numRules++
	g.sorted = false
}

// Contains reports whether an equal rule is already present.
func (g *MemoryGrammar) Contains(r *Rule) bool {
	n := g.root
	for _, sym := range r.Source {
		child, ok := n.children[sym]
		if !ok {
			return false
		}
		n = child
	}
	if n.rules == nil {
		return false
	}
	for _, other := range n.rules.rules {
		if other.Equal(r) {
			return true
		}
	}
	return false
}

// Sort caches every rule's estimate and orders each collection best first.
// It must run before the grammar is shared between goroutines.
func (g *MemoryGrammar) Sort(e Estimator) {
	g.root.walk(func(n *trieNode) {
		if n.rules == nil {
			return
		}
		for _, r := range n.rules.rules {
			r.estimate = e.EstimateRule(r)
		}
		sort.SliceStable(n.rules.rules, func(a, b int) bool {
			return n.rules.rules[a].estimate > n.rules.rules[b].estimate
		})
	})
	g.sorted = true
}

// Rules returns every rule, in trie order. Children are visited by symbol id
// so the order is deterministic.
func (g *MemoryGrammar) Rules() []*Rule {
	var rules []*Rule
	g.root.walk(func(n *trieNode) {
		if n.rules != nil {
			rules = append(rules, n.rules.rules...)
		}
	})
	return rules
}

type trieNode struct {
	children map[int]*trieNode
	rules    *ruleCollection
}

func newTrieNode() *trieNode {
	return &trieNode{children: make(map[int]*trieNode)}
}

func (n *trieNode) Match(sym int) Trie {
	child, ok := n.children[sym]
	if !ok {
		return nil
	}
	return child
}

func (n *trieNode) HasExtensions() bool {
	return len(n.children) > 0
}

func (n *trieNode) RuleCollection() RuleCollection {
	if n.rules == nil || len(n.rules.rules) == 0 {
		return nil
	}
	return n.rules
}

func (n *trieNode) walk(fn func(*trieNode)) {
	fn(n)
	keys := make([]int, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	for _, k := range keys {
		n.children[k].walk(fn)
	}
}

type ruleCollection struct {
	rules  []*Rule
	arity  int
	source []int
}

func (c *ruleCollection) SortedRules() []*Rule { return c.rules }

func (c *ruleCollection) Arity() int { return c.arity }

func (c *ruleCollection) SourceSide() []int { return c.source }
