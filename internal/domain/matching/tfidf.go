package matching

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^a-z0-9\s+\-]`)
	wordRe       = regexp.MustCompile(`[a-z0-9]{2,}`)
)

// CleanText lowercases s, collapses whitespace runs to one space and strips
// every character outside [a-z0-9 +-].
func CleanText(s string) string {
	s = strings.ToLower(s)
	s = whitespaceRe.ReplaceAllString(s, " ")
	s = disallowedRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// TextSimilarity is the cosine similarity, in [0,1], of the TF-IDF vectors of
// a and b. Term weights are fit on exactly these two documents, so values are
// only comparable within one pair.
func TextSimilarity(a, b string) float64 {
	ca, cb := CleanText(a), CleanText(b)
	if ca == "" || cb == "" {
		return 0
	}

	ta, tb := termCounts(ca), termCounts(cb)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	terms := unionTerms(ta, tb)
	va := make([]float64, len(terms))
	vb := make([]float64, len(terms))
	for i, term := range terms {
		w := idf(term, ta, tb)
		va[i] = float64(ta[term]) * w
		vb[i] = float64(tb[term]) * w
	}

	sim := cosine(va, vb)
	if sim > 1 {
		sim = 1
	}
	if sim < 0 {
		sim = 0
	}
	return sim
}

// termCounts counts unigrams and bigrams of a cleaned document. Tokens are
// runs of at least two alphanumerics.
func termCounts(doc string) map[string]int {
	words := wordRe.FindAllString(doc, -1)
	counts := make(map[string]int, len(words)*2)
	for i, w := range words {
		counts[w]++
		if i > 0 {
			counts[words[i-1]+" "+w]++
		}
	}
	return counts
}

func unionTerms(a, b map[string]int) []string {
	out := make([]string, 0, len(a)+len(b))
	for t := range a {
		out = append(out, t)
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// idf is the smoothed inverse document frequency over the two-document
// corpus: ln((1+n)/(1+df)) + 1.
func idf(term string, a, b map[string]int) float64 {
	const n = 2.0
	df := 0.0
	if a[term] > 0 {
		df++
	}
	if b[term] > 0 {
		df++
	}
	return math.Log((1+n)/(1+df)) + 1
}

func cosine(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
