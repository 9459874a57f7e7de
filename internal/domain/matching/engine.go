package matching

import (
	"errors"
	"math"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidWeights = errors.New("matching weights must be in [0,1] and sum to 1")
	ErrMalformedInput = errors.New("matching input is not valid utf-8 text")
)

type Weights struct {
	Text  float64 `json:"text_weight"`
	Skill float64 `json:"skill_weight"`
}

func DefaultWeights() Weights {
	return Weights{Text: 0.6, Skill: 0.4}
}

func (w Weights) Validate() error {
	if math.IsNaN(w.Text) || math.IsNaN(w.Skill) {
		return ErrInvalidWeights
	}
	if w.Text < 0 || w.Text > 1 || w.Skill < 0 || w.Skill > 1 {
		return ErrInvalidWeights
	}
	if math.Abs(w.Text+w.Skill-1) > 1e-9 {
		return ErrInvalidWeights
	}
	return nil
}

// Result is one match outcome. MatchedSkills and MissingSkills are nil, not
// empty, when there is nothing to list.
type Result struct {
	MatchScore     float64  `json:"match_score"`
	TextSimilarity float64  `json:"text_similarity"`
	SkillCoverage  float64  `json:"skill_coverage"`
	ATSScore       float64  `json:"ats_score"`
	MatchedSkills  []string `json:"matched_skills"`
	MissingSkills  []string `json:"missing_skills"`
}

func (r Result) HasMatched() bool { return r.MatchedSkills != nil }

func (r Result) HasMissing() bool { return r.MissingSkills != nil }

// Scorer computes a Result. ATS presence uses the same Mode as extraction;
// NewScorer uses ModeSubstring.
type Scorer struct {
	weights Weights
	mode    Mode
}

func NewScorer(w Weights) (*Scorer, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &Scorer{weights: w, mode: ModeSubstring}, nil
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

func (s *Scorer) Score(resumeText, jdText string, resumeSkills, jdSkills SkillSet) (Result, error) {
	if !utf8.ValidString(resumeText) || !utf8.ValidString(jdText) {
		return Result{}, ErrMalformedInput
	}

	rs := resumeSkills.normalized()
	js := jdSkills.normalized()

	textPct := round1(TextSimilarity(resumeText, jdText) * 100)

	matched := rs.Intersect(js)
	missing := js.Difference(rs)

	skillPct := 0.0
	if js.Len() > 0 {
		skillPct = round1(float64(matched.Len()) / float64(js.Len()) * 100)
	}

	final := round1(s.weights.Text*textPct + s.weights.Skill*skillPct)

	return Result{
		MatchScore:     clampPct(final),
		TextSimilarity: clampPct(textPct),
		SkillCoverage:  clampPct(skillPct),
		ATSScore:       atsScore(s.mode, resumeText, js),
		MatchedSkills:  sortedOrNil(matched),
		MissingSkills:  sortedOrNil(missing),
	}, nil
}

// ATSScore is the share of JD skills found as a raw substring of the
// lowercased resume. A blank resume or an empty JD skill set scores 100.
func ATSScore(resumeText string, jdSkills SkillSet) float64 {
	return atsScore(ModeSubstring, resumeText, jdSkills)
}

func atsScore(mode Mode, resumeText string, jdSkills SkillSet) float64 {
	if jdSkills.Len() == 0 || strings.TrimSpace(resumeText) == "" {
		return 100
	}

	f := newFinder(mode, resumeText)
	hits := 0
	for skill := range jdSkills {
		if f.has(skill, Tokens(skill)) {
			hits++
		}
	}
	return clampPct(round1(float64(hits) / float64(jdSkills.Len()) * 100))
}

func sortedOrNil(s SkillSet) []string {
	if s.Len() == 0 {
		return nil
	}
	return s.Sorted()
}

// round1 rounds half away from zero to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clampPct(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
