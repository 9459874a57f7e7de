package matching

// Analysis is a Result plus the skill sets it was computed from. JDSkills
// feeds the suggested keywords section of the report.
type Analysis struct {
	Result       Result   `json:"result"`
	ResumeSkills []string `json:"resume_skills"`
	JDSkills     []string `json:"jd_skills"`
}

// Matcher runs extraction on both texts and scores them with one shared
// vocabulary.
type Matcher struct {
	extractor *Extractor
	scorer    *Scorer
}

func NewMatcher(vocab Vocabulary, mode Mode, w Weights) (*Matcher, error) {
	scorer, err := NewScorer(w)
	if err != nil {
		return nil, err
	}
	ex := NewExtractor(vocab, mode)
	scorer.mode = ex.Mode()
	return &Matcher{extractor: ex, scorer: scorer}, nil
}

func (m *Matcher) Vocabulary() Vocabulary { return m.extractor.Vocabulary() }

func (m *Matcher) Mode() Mode { return m.extractor.Mode() }

func (m *Matcher) Weights() Weights { return m.scorer.Weights() }

func (m *Matcher) Extract(text string) SkillSet {
	return m.extractor.Extract(text)
}

func (m *Matcher) Match(resumeText, jdText string) (Analysis, error) {
	rs := m.extractor.Extract(resumeText)
	js := m.extractor.Extract(jdText)

	res, err := m.scorer.Score(resumeText, jdText, rs, js)
	if err != nil {
		return Analysis{}, err
	}

	return Analysis{
		Result:       res,
		ResumeSkills: rs.Sorted(),
		JDSkills:     js.Sorted(),
	}, nil
}
