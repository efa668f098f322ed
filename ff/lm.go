package ff

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/dhamidi/hiero/grammar"
	"github.com/dhamidi/hiero/lattice"
	"github.com/dhamidi/hiero/vocab"
)

// unknownLogProb is used for words the model has never seen and which the
// model gives no <unk> entry.
const unknownLogProb = -100.0

type bigram struct{ prev, word int }

// Bigram is a backoff bigram model with log10 probabilities.
type Bigram struct {
	unigrams map[int]float64
	backoffs map[int]float64
	bigrams  map[bigram]float64
	unk      float64
	start    int
	stop     int
}

// NewBigram returns an empty model.
func NewBigram(v *vocab.Vocabulary) *Bigram {
	return &Bigram{
		unigrams: make(map[int]float64),
		backoffs: make(map[int]float64),
		bigrams:  make(map[bigram]float64),
		unk:      unknownLogProb,
		start:    v.ID(vocab.StartSym),
		stop:     v.ID(vocab.StopSym),
	}
}

// SetUnigram sets log10 p(w) and the backoff weight of w as a history.
func (m *Bigram) SetUnigram(w int, logp, backoff float64) {
	m.unigrams[w] = logp
	m.backoffs[w] = backoff
}

// SetBigram sets log10 p(w | prev).
func (m *Bigram) SetBigram(prev, w int, logp float64) {
	m.bigrams[bigram{prev, w}] = logp
}

// Unigram returns log10 p(w).
func (m *Bigram) Unigram(w int) float64 {
	if p, ok := m.unigrams[w]; ok {
		return p
	}
	return m.unk
}

// LogProb returns log10 p(w | prev), backing off to the unigram.
func (m *Bigram) LogProb(prev, w int) float64 {
	if p, ok := m.bigrams[bigram{prev, w}]; ok {
		return p
	}
	return m.backoffs[prev] + m.Unigram(w)
}

// ReadARPA loads the unigram and bigram sections of an ARPA file. Higher
// order sections are skipped.
func ReadARPA(r io.Reader, v *vocab.Vocabulary) (*Bigram, error) {
	m := NewBigram(v)
	scanner := bufio.NewScanner(r)
	order := 0
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "" || line == `\data\` || strings.HasPrefix(line, "ngram "):
			continue
		case line == `\end\`:
			if id, ok := v.Lookup(vocab.UnkSym); ok {
				if p, ok := m.unigrams[id]; ok {
					m.unk = p
				}
			}
			return m, nil
		case strings.HasPrefix(line, `\`) && strings.HasSuffix(line, "-grams:"):
			n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(line, `\`), "-grams:"))
			if err != nil {
				return nil, fmt.Errorf("line %d: bad section header %q", lineNo, line)
			}
			order = n
			continue
		}
		if order < 1 || order > 2 {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < order+1 {
			return nil, fmt.Errorf("line %d: expected %d words", lineNo, order)
		}
		logp, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		backoff := 0.0
		if len(fields) > order+1 {
			if backoff, err = strconv.ParseFloat(fields[order+1], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
		}
		if order == 1 {
			m.SetUnigram(v.ID(fields[1]), logp, backoff)
		} else {
			m.SetBigram(v.ID(fields[1]), v.ID(fields[2]), logp)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return nil, fmt.Errorf(`missing \end\ marker`)
}

// LoadARPA reads an ARPA model from disk.
func LoadARPA(path string, v *vocab.Vocabulary) (*Bigram, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open language model: %w", err)
	}
	defer f.Close()
	m, err := ReadARPA(f, v)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// lmState keeps the boundary words of an entry's target yield. The left
// word has not been scored yet; it still lacks context.
type lmState struct {
	left, right int
	empty       bool
}

func (s lmState) Signature() string {
	if s.empty {
		return "-"
	}
	return strconv.Itoa(s.left) + " " + strconv.Itoa(s.right)
}

func (s lmState) Fragments() [][]int {
	if s.empty {
		return nil
	}
	return [][]int{{s.left}, {s.right}}
}

// LanguageModel scores target yields with a bigram model.
type LanguageModel struct {
	Model  *Bigram
	Weight float64
}

var (
	_ FeatureFunction = (*LanguageModel)(nil)
	_ FutureEstimator = (*LanguageModel)(nil)
)

func (lm *LanguageModel) Name() string { return "LanguageModel" }

// EstimateRule scores the terminal runs of the target side on their own.
func (lm *LanguageModel) EstimateRule(r *grammar.Rule) float64 {
	score := 0.0
	prev := 0
	for _, t := range r.Target {
		if t < 0 {
			prev = 0
			continue
		}
		if prev == 0 {
			score += lm.Model.Unigram(t)
		} else {
			score += lm.Model.LogProb(prev, t)
		}
		prev = t
	}
	return lm.Weight * score
}

func (lm *LanguageModel) Compute(r *grammar.Rule, ants []State, _, _ int, _ lattice.Path, _ int) (float64, State) {
	score := 0.0
	first, prev := 0, 0
	visit := func(left, right int) {
		if prev == 0 {
			first = left
		} else {
			score += lm.Model.LogProb(prev, left)
		}
		prev = right
	}
	for _, t := range r.Target {
		if t > 0 {
			visit(t, t)
			continue
		}
		k := -t - 1
		if k >= len(ants) {
			continue
		}
		s, ok := ants[k].(lmState)
		if !ok || s.empty {
			continue
		}
		visit(s.left, s.right)
		// the antecedent's inner bigrams were scored when it was built
	}
	if prev == 0 {
		return lm.Weight * score, lmState{empty: true}
	}
	return lm.Weight * score, lmState{left: first, right: prev}
}

func (lm *LanguageModel) Final(s State, _, _ int) float64 {
	st, ok := s.(lmState)
	if !ok || st.empty {
		return lm.Weight * lm.Model.LogProb(lm.Model.start, lm.Model.stop)
	}
	return lm.Weight * (lm.Model.LogProb(lm.Model.start, st.left) + lm.Model.LogProb(st.right, lm.Model.stop))
}

// EstimateFuture charges the unscored left word its unigram probability.
func (lm *LanguageModel) EstimateFuture(s State) float64 {
	st, ok := s.(lmState)
	if !ok || st.empty {
		return 0
	}
	return lm.Weight * lm.Model.Unigram(st.left)
}
