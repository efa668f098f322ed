// Package syntax holds a reference parse of the source sentence and answers
// which labels cover a given span. Label sets drive parse-constrained
// decoding and the labeling of out-of-vocabulary rules.
package syntax

import (
	"fmt"
	"strings"

	"github.com/dhamidi/hiero/vocab"
)

type span struct{ i, j int }

// Tree is a bracketed constituency parse, indexed by span.
type Tree struct {
	vocab  *vocab.Vocabulary
	length int
	labels map[span][]string
	// starts[i] lists the constituents starting at i, ends[j] those ending at j.
	starts map[int][]span
	ends   map[int][]span
}

// Parse reads a Penn-style bracketing such as "(S (NP (DT the) (NN cat)) (VP sat))".
func Parse(v *vocab.Vocabulary, text string) (*Tree, error) {
	t := &Tree{
		vocab:  v,
		labels: make(map[span][]string),
		starts: make(map[int][]span),
		ends:   make(map[int][]span),
	}
	toks := tokenize(text)
	pos := 0
	for pos < len(toks) {
		next, err := t.parseNode(toks, pos)
		if err != nil {
			return nil, err
		}
		pos = next
	}
	return t, nil
}

func tokenize(text string) []string {
	text = strings.ReplaceAll(text, "(", " ( ")
	text = strings.ReplaceAll(text, ")", " ) ")
	return strings.Fields(text)
}

// parseNode consumes one bracketed node starting at toks[pos] and returns the
// position after it.
func (t *Tree) parseNode(toks []string, pos int) (int, error) {
	if toks[pos] != "(" {
		// bare leaf
		t.length++
		return pos + 1, nil
	}
	if pos+1 >= len(toks) || toks[pos+1] == "(" || toks[pos+1] == ")" {
		return 0, fmt.Errorf("syntax: missing label at token %d", pos)
	}
	label := toks[pos+1]
	start := t.length
	pos += 2
	for pos < len(toks) && toks[pos] != ")" {
		next, err := t.parseNode(toks, pos)
		if err != nil {
			return 0, err
		}
		pos = next
	}
	if pos >= len(toks) {
		return 0, fmt.Errorf("syntax: unbalanced brackets in %q node", label)
	}
	if t.length > start {
		t.add(span{start, t.length}, label)
	}
	return pos + 1, nil
}

func (t *Tree) add(s span, label string) {
	for _, l := range t.labels[s] {
		if l == label {
			return
		}
	}
	if _, ok := t.labels[s]; !ok {
		t.starts[s.i] = append(t.starts[s.i], s)
		t.ends[s.j] = append(t.ends[s.j], s)
	}
	t.labels[s] = append(t.labels[s], label)
}

// Len returns the number of leaves.
func (t *Tree) Len() int {
	return t.length
}

// ConstituentLabels returns the nonterminal ids of constituents spanning [i,j).
func (t *Tree) ConstituentLabels(i, j int) []int {
	var ids []int
	for _, l := range t.labels[span{i, j}] {
		ids = append(ids, t.vocab.Nonterminal(l))
	}
	return ids
}

// ConcatenatedLabels returns A+B for every split k where A spans [i,k) and B spans [k,j).
func (t *Tree) ConcatenatedLabels(i, j int) []int {
	var ids []int
	for k := i + 1; k < j; k++ {
		for _, a := range t.labels[span{i, k}] {
			for _, b := range t.labels[span{k, j}] {
				ids = append(ids, t.vocab.Nonterminal(a+"+"+b))
			}
		}
	}
	return ids
}

// CcgLabels returns categorial labels for [i,j): A/B when A spans [i,k) and B
// spans [j,k), A\B when A spans [h,j) and B spans [h,i).
func (t *Tree) CcgLabels(i, j int) []int {
	var ids []int
	for _, outer := range t.starts[i] {
		if outer.j <= j {
			continue
		}
		for _, b := range t.labels[span{j, outer.j}] {
			for _, a := range t.labels[outer] {
				ids = append(ids, t.vocab.Nonterminal(a+"/"+b))
			}
		}
	}
	for _, outer := range t.ends[j] {
		if outer.i >= i {
			continue
		}
		for _, b := range t.labels[span{outer.i, i}] {
			for _, a := range t.labels[outer] {
				ids = append(ids, t.vocab.Nonterminal(a+`\`+b))
			}
		}
	}
	return ids
}

// AllLabels is the union used for parse-constrained decoding.
func (t *Tree) AllLabels(i, j int) map[int]bool {
	set := make(map[int]bool)
	for _, ids := range [][]int{t.ConstituentLabels(i, j), t.ConcatenatedLabels(i, j), t.CcgLabels(i, j)} {
		for _, id := range ids {
			set[id] = true
		}
	}
	return set
}
