package grammar

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dhamidi/hiero/vocab"
)

// Read parses a grammar in the text format
//
//	[X] ||| [X,1] de [X,2] ||| [X,2] of [X,1] ||| 0.3 1.2
//
// one rule per line. Blank lines and lines starting with '#' are skipped.
func Read(r io.Reader, v *vocab.Vocabulary, owner string, spanLimit int) (*MemoryGrammar, error) {
	g := NewMemoryGrammar(owner, spanLimit)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		rule, err := ParseRule(v, line, owner)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		g.AddRule(rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read grammar: %w", err)
	}
	return g, nil
}

// Load reads a grammar file.
func Load(path string, v *vocab.Vocabulary, owner string, spanLimit int) (*MemoryGrammar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open grammar: %w", err)
	}
	defer f.Close()

	g, err := Read(f, v, owner, spanLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// ParseRule parses a single rule line.
func ParseRule(v *vocab.Vocabulary, line, owner string) (*Rule, error) {
	fields := strings.Split(line, "|||")
	if len(fields) < 3 {
		return nil, fmt.Errorf("expected at least 3 fields separated by |||, got %d", len(fields))
	}
	lhs := strings.TrimSpace(fields[0])
	if !vocab.IsNonterminal(lhs) {
		return nil, fmt.Errorf("left-hand side %q is not a nonterminal", lhs)
	}

	var source []int
	arity := 0
	for _, tok := range strings.Fields(fields[1]) {
		if !vocab.IsNonterminal(tok) {
			source = append(source, v.ID(tok))
			continue
		}
		label, index, err := splitNonterminal(tok)
		if err != nil {
			return nil, err
		}
		arity++
		if index != 0 && index != arity {
			return nil, fmt.Errorf("source nonterminal %s out of order", tok)
		}
		source = append(source, v.Nonterminal(label))
	}

	var target []int
	next := 0
	for _, tok := range strings.Fields(fields[2]) {
		if !vocab.IsNonterminal(tok) {
			target = append(target, v.ID(tok))
			continue
		}
		_, index, err := splitNonterminal(tok)
		if err != nil {
			return nil, err
		}
		next++
		if index == 0 {
			index = next
		}
		if index > arity {
			return nil, fmt.Errorf("target nonterminal %s has no source counterpart", tok)
		}
		target = append(target, -index)
	}

	var features []float64
	if len(fields) > 3 {
		for _, f := range strings.Fields(fields[3]) {
			if _, value, ok := strings.Cut(f, "="); ok {
				f = value
			}
			x, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("feature %q: %w", f, err)
			}
			features = append(features, x)
		}
	}

	return NewRule(v.ID(lhs), source, target, features, owner), nil
}

// splitNonterminal splits "[X,2]" into ("X", 2); a bare "[X]" has index 0.
func splitNonterminal(tok string) (string, int, error) {
	inner := tok[1 : len(tok)-1]
	label, idx, found := strings.Cut(inner, ",")
	if !found {
		return label, 0, nil
	}
	index, err := strconv.Atoi(idx)
	if err != nil || index < 1 {
		return "", 0, fmt.Errorf("bad nonterminal index in %s", tok)
	}
	return label, index, nil
}
