// Package vocab maps words and nonterminal labels to integer ids.
//
// Terminal words get positive ids, nonterminals (symbols written in square
// brackets, such as "[X]" or "[NP]") get negative ids. Id 0 is never assigned.
package vocab

import (
	"strings"
	"sync"
)

const (
	StartSym = "<s>"
	StopSym  = "</s>"
	UnkSym   = "<unk>"
)

// Vocabulary is a bidirectional symbol table. It is safe for concurrent use,
// since OOV handling and grammar extraction intern new symbols while other
// sentences are being decoded.
type Vocabulary struct {
	mu        sync.RWMutex
	ids       map[string]int
	terminals []string
	nonterms  []string
}

// New returns a vocabulary that already knows the sentence boundary and
// unknown-word symbols.
func New() *Vocabulary {
	v := &Vocabulary{
		ids:       make(map[string]int),
		terminals: []string{""},
		nonterms:  []string{""},
	}
	v.ID(StartSym)
	v.ID(StopSym)
	v.ID(UnkSym)
	return v
}

// IsNonterminal reports whether a symbol string denotes a nonterminal.
func IsNonterminal(sym string) bool {
	return len(sym) > 2 && sym[0] == '[' && sym[len(sym)-1] == ']'
}

// IsNonterminalID reports whether id refers to a nonterminal.
func IsNonterminalID(id int) bool {
	return id < 0
}

// ID returns the id of sym, assigning one if sym has not been seen before.
func (v *Vocabulary) ID(sym string) int {
	v.mu.RLock()
	id, ok := v.ids[sym]
	v.mu.RUnlock()
	if ok {
		return id
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if id, ok := v.ids[sym]; ok {
		return id
	}
	if IsNonterminal(sym) {
		v.nonterms = append(v.nonterms, sym)
		id = -(len(v.nonterms) - 1)
	} else {
		v.terminals = append(v.terminals, sym)
		id = len(v.terminals) - 1
	}
	v.ids[sym] = id
	return id
}

// Nonterminal returns the id of a nonterminal label. The brackets are added
// when missing, so "X" and "[X]" name the same symbol.
func (v *Vocabulary) Nonterminal(label string) int {
	if !IsNonterminal(label) {
		label = "[" + label + "]"
	}
	return v.ID(label)
}

// Lookup returns the id of sym without interning it.
func (v *Vocabulary) Lookup(sym string) (int, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	id, ok := v.ids[sym]
	return id, ok
}

// Word returns the string for id, or UnkSym if the id was never assigned.
func (v *Vocabulary) Word(id int) string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if id < 0 {
		if -id < len(v.nonterms) {
			return v.nonterms[-id]
		}
		return UnkSym
	}
	if id > 0 && id < len(v.terminals) {
		return v.terminals[id]
	}
	return UnkSym
}

// Label returns a nonterminal's label without its brackets.
func (v *Vocabulary) Label(id int) string {
	return strings.TrimSuffix(strings.TrimPrefix(v.Word(id), "["), "]")
}

// IDs interns every word of a whitespace separated string.
func (v *Vocabulary) IDs(text string) []int {
	fields := strings.Fields(text)
	ids := make([]int, len(fields))
	for i, f := range fields {
		ids[i] = v.ID(f)
	}
	return ids
}

// Words renders a sequence of ids back to a space separated string.
func (v *Vocabulary) Words(ids []int) string {
	words := make([]string, len(ids))
	for i, id := range ids {
		words[i] = v.Word(id)
	}
	return strings.Join(words, " ")
}

// Size returns the number of symbols known, terminals and nonterminals together.
func (v *Vocabulary) Size() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.ids)
}
