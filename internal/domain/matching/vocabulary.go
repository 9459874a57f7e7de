package matching

import (
	"bufio"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

//go:embed data/skills_seed.txt
var defaultSkillsSeed string

// Vocabulary is the fixed, ordered list of lowercase skill terms the
// extractor looks for. It is built once at startup and never mutated, so a
// single value can be shared by any number of goroutines.
type Vocabulary struct {
	terms   []string
	index   map[string]struct{}
	version string
}

func NewVocabulary(terms []string) Vocabulary {
	out := make([]string, 0, len(terms))
	index := make(map[string]struct{}, len(terms))
	for _, t := range terms {
		t = normalizeTerm(t)
		if t == "" {
			continue
		}
		if _, ok := index[t]; ok {
			continue
		}
		index[t] = struct{}{}
		out = append(out, t)
	}

	sum := sha256.Sum256([]byte(strings.Join(out, "\n")))
	return Vocabulary{terms: out, index: index, version: hex.EncodeToString(sum[:8])}
}

// LoadVocabulary reads a line-delimited list of skill terms.
func LoadVocabulary(r io.Reader) (Vocabulary, error) {
	if r == nil {
		return Vocabulary{}, fmt.Errorf("load vocabulary: nil reader")
	}

	var terms []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		terms = append(terms, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return Vocabulary{}, fmt.Errorf("load vocabulary: %w", err)
	}
	return NewVocabulary(terms), nil
}

func LoadVocabularyFile(path string) (Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return Vocabulary{}, fmt.Errorf("open skills file: %w", err)
	}
	defer f.Close()

	return LoadVocabulary(f)
}

// DefaultVocabulary returns the skill list compiled into the binary.
func DefaultVocabulary() Vocabulary {
	v, _ := LoadVocabulary(strings.NewReader(defaultSkillsSeed))
	return v
}

func (v Vocabulary) Terms() []string {
	out := make([]string, len(v.terms))
	copy(out, v.terms)
	return out
}

func (v Vocabulary) Len() int {
	return len(v.terms)
}

func (v Vocabulary) Contains(term string) bool {
	_, ok := v.index[normalizeTerm(term)]
	return ok
}

// Version identifies the term list; two vocabularies with the same terms in
// the same order share a version.
func (v Vocabulary) Version() string {
	return v.version
}

func normalizeTerm(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
