package matching

import (
	"fmt"
	"strings"
	"unicode"
)

// Mode selects how a vocabulary term is located in free text.
type Mode string

// The mode applies to both extraction and ATS scoring, so the two never
// disagree on whether a skill is present.
const (
	// ModeSubstring matches a term anywhere in the lowercased text, so
	// "java" is found inside "javascript". It is the default.
	ModeSubstring Mode = "substring"
	// ModeToken matches a term only when its tokens appear as whole,
	// contiguous tokens of the text.
	ModeToken Mode = "token"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeSubstring:
		return ModeSubstring, nil
	case ModeToken:
		return ModeToken, nil
	default:
		return "", fmt.Errorf("unknown skill match mode %q", s)
	}
}

type vocabTerm struct {
	term   string
	tokens []string
}

// Extractor finds vocabulary terms in text. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	vocab Vocabulary
	mode  Mode
	terms []vocabTerm
}

func NewExtractor(vocab Vocabulary, mode Mode) *Extractor {
	if mode == "" {
		mode = ModeSubstring
	}

	terms := make([]vocabTerm, 0, vocab.Len())
	for _, t := range vocab.terms {
		terms = append(terms, vocabTerm{term: t, tokens: Tokens(t)})
	}
	return &Extractor{vocab: vocab, mode: mode, terms: terms}
}

func (e *Extractor) Mode() Mode {
	return e.mode
}

func (e *Extractor) Vocabulary() Vocabulary {
	return e.vocab
}

// Extract returns the vocabulary terms present in text.
func (e *Extractor) Extract(text string) SkillSet {
	found := make(SkillSet)
	if e == nil || strings.TrimSpace(text) == "" {
		return found
	}

	f := newFinder(e.mode, text)
	for _, vt := range e.terms {
		if f.has(vt.term, vt.tokens) {
			found[vt.term] = struct{}{}
		}
	}
	return found
}

// finder answers presence queries against one text under one mode.
type finder struct {
	mode      Mode
	lower     string
	toks      []string
	positions map[string][]int
}

func newFinder(mode Mode, text string) finder {
	f := finder{mode: mode}
	if mode != ModeToken {
		f.lower = strings.ToLower(text)
		return f
	}
	f.toks = Tokens(text)
	f.positions = make(map[string][]int, len(f.toks))
	for i, tok := range f.toks {
		f.positions[tok] = append(f.positions[tok], i)
	}
	return f
}

// has reports whether term occurs. termTokens is Tokens(term), passed in so
// callers can precompute it.
func (f finder) has(term string, termTokens []string) bool {
	if f.mode != ModeToken {
		return strings.Contains(f.lower, strings.ToLower(term))
	}
	if len(termTokens) == 0 {
		return false
	}
	return containsPhrase(f.toks, f.positions, termTokens)
}

func containsPhrase(toks []string, positions map[string][]int, phrase []string) bool {
	starts, ok := positions[phrase[0]]
	if !ok {
		return false
	}
	if len(phrase) == 1 {
		return true
	}

	for _, start := range starts {
		if start+len(phrase) > len(toks) {
			break
		}
		matched := true
		for j := 1; j < len(phrase); j++ {
			if toks[start+j] != phrase[j] {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

// Tokens lowercases text and splits it into runs of letters and digits that
// may carry '+' and '-' inside. Leading '+'/'-' and trailing '-' are dropped,
// trailing '+' is kept so "c++" survives.
func Tokens(text string) []string {
	lower := strings.ToLower(text)
	out := make([]string, 0, len(lower)/6+1)

	var word strings.Builder
	flush := func() {
		w := strings.TrimLeft(word.String(), "+-")
		w = strings.TrimRight(w, "-")
		word.Reset()
		if w != "" {
			out = append(out, w)
		}
	}

	for _, r := range lower {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '-' {
			word.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return out
}
