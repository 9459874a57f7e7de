package matching

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMatcher(t *testing.T, terms ...string) *Matcher {
	t.Helper()
	m, err := NewMatcher(NewVocabulary(terms), "", DefaultWeights())
	require.NoError(t, err)
	return m
}

func TestMatch_PythonSQLAgainstPythonJava(t *testing.T) {
	m := newTestMatcher(t, "python", "sql", "java")

	a, err := m.Match("I know Python and SQL", "Looking for Python and Java developer")
	require.NoError(t, err)

	assert.Equal(t, []string{"python", "sql"}, a.ResumeSkills)
	assert.Equal(t, []string{"java", "python"}, a.JDSkills)
	assert.Equal(t, []string{"python"}, a.Result.MatchedSkills)
	assert.Equal(t, []string{"java"}, a.Result.MissingSkills)
	assert.Equal(t, 50.0, a.Result.SkillCoverage)
	assert.Equal(t, 50.0, a.Result.ATSScore)
}

func TestMatch_BlankResumeGetsFullATS(t *testing.T) {
	m := newTestMatcher(t, "docker", "python")

	a, err := m.Match("", "Need Docker skills")
	require.NoError(t, err)

	assert.Equal(t, []string{"docker"}, a.JDSkills)
	assert.Empty(t, a.ResumeSkills)
	assert.Equal(t, 0.0, a.Result.TextSimilarity)
	assert.Equal(t, 0.0, a.Result.SkillCoverage)
	assert.Equal(t, 100.0, a.Result.ATSScore)
	assert.Equal(t, 0.0, a.Result.MatchScore)
	assert.False(t, a.Result.HasMatched())
	assert.Equal(t, []string{"docker"}, a.Result.MissingSkills)
}

func TestScore_EmptyJDSkills(t *testing.T) {
	s, err := NewScorer(DefaultWeights())
	require.NoError(t, err)

	res, err := s.Score("Go developer with ten years of Kubernetes", "We like people", NewSkillSet("go", "kubernetes"), NewSkillSet())
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.SkillCoverage)
	assert.Equal(t, 100.0, res.ATSScore)
	assert.Nil(t, res.MatchedSkills)
	assert.Nil(t, res.MissingSkills)
	assert.False(t, res.HasMatched())
	assert.False(t, res.HasMissing())

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"matched_skills":null`)
	assert.Contains(t, string(b), `"missing_skills":null`)
}

var similarityPairs = []struct {
	a, b string
}{
	{"Senior Go engineer, distributed systems", "We hire a Go engineer for distributed systems work"},
	{"python developer", "python engineer"},
	{"I know Python and SQL", "Looking for Python and Java developer"},
	{"Kubernetes, Docker, Terraform and AWS", "react native mobile"},
	{"same text here", "same text here"},
	{"", "anything"},
	{"!!! ###", "c++ developer"},
}

func TestTextSimilarity_Symmetric(t *testing.T) {
	for _, p := range similarityPairs {
		assert.Equal(t, TextSimilarity(p.a, p.b), TextSimilarity(p.b, p.a), "pair %q / %q", p.a, p.b)
	}
}

func TestTextSimilarity_EmptySideIsZero(t *testing.T) {
	for _, other := range []string{"", "python developer", "a", "   "} {
		assert.Equal(t, 0.0, TextSimilarity("", other))
		assert.Equal(t, 0.0, TextSimilarity(other, ""))
	}
	// cleans to nothing
	assert.Equal(t, 0.0, TextSimilarity("@@@ ###", "python developer"))
	// single-character words produce no terms
	assert.Equal(t, 0.0, TextSimilarity("a b c", "a b c"))
}

func TestTextSimilarity_Values(t *testing.T) {
	assert.InDelta(t, 1.0, TextSimilarity("same text here", "same text here"), 1e-9)
	assert.Equal(t, 0.0, TextSimilarity("kubernetes docker", "react native"))
	// idf(python)=1, idf(other terms)=ln(1.5)+1; cos = 1/(1+2*(ln(1.5)+1)^2)
	want := 1 / (1 + 2*math.Pow(math.Log(1.5)+1, 2))
	assert.InDelta(t, want, TextSimilarity("python developer", "python engineer"), 1e-12)
	assert.InDelta(t, 0.202, TextSimilarity("Python Developer!", "python   engineer"), 1e-3)
}

func TestCleanText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hello,   World!", "hello world"},
		{"C++ / Node.js\n\tdev-ops", "c++  nodejs dev-ops"},
		{"  ", ""},
		{"Ünïcode café", "ncode caf"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanText(tt.in))
		})
	}
}

func TestScore_MatchedMissingPartitionJD(t *testing.T) {
	s, err := NewScorer(DefaultWeights())
	require.NoError(t, err)

	cases := []struct {
		resume, jd SkillSet
	}{
		{NewSkillSet("go", "sql"), NewSkillSet("go", "docker", "aws")},
		{NewSkillSet(), NewSkillSet("go")},
		{NewSkillSet("go", "docker"), NewSkillSet("go", "docker")},
		{NewSkillSet("rust"), NewSkillSet("python", "java")},
		{NewSkillSet("Go", "SQL"), NewSkillSet("go")},
	}

	for _, c := range cases {
		res, err := s.Score("resume text", "jd text", c.resume, c.jd)
		require.NoError(t, err)

		union := NewSkillSet(append(append([]string{}, res.MatchedSkills...), res.MissingSkills...)...)
		assert.ElementsMatch(t, c.jd.normalized().Sorted(), union.Sorted())

		inter := NewSkillSet(res.MatchedSkills...).Intersect(NewSkillSet(res.MissingSkills...))
		assert.Zero(t, inter.Len())
	}
}

func TestScore_FinalScoreIsWeightedPercentages(t *testing.T) {
	m := newTestMatcher(t, DefaultVocabulary().Terms()...)

	for _, p := range similarityPairs {
		a, err := m.Match(p.a, p.b)
		require.NoError(t, err)

		r := a.Result
		want := math.Round((0.6*r.TextSimilarity+0.4*r.SkillCoverage)*10) / 10
		assert.Equal(t, want, r.MatchScore)
		assert.GreaterOrEqual(t, r.MatchScore, 0.0)
		assert.LessOrEqual(t, r.MatchScore, 100.0)
	}
}

func TestScore_EdgeWeights(t *testing.T) {
	textOnly, err := NewScorer(Weights{Text: 1, Skill: 0})
	require.NoError(t, err)
	skillOnly, err := NewScorer(Weights{Text: 0, Skill: 1})
	require.NoError(t, err)

	rs, js := NewSkillSet("python"), NewSkillSet("python", "java")

	r1, err := textOnly.Score("python developer", "python engineer", rs, js)
	require.NoError(t, err)
	assert.Equal(t, r1.TextSimilarity, r1.MatchScore)

	r2, err := skillOnly.Score("python developer", "python engineer", rs, js)
	require.NoError(t, err)
	assert.Equal(t, 50.0, r2.MatchScore)
}

func TestWeights_Validate(t *testing.T) {
	assert.NoError(t, DefaultWeights().Validate())
	assert.NoError(t, Weights{Text: 0.7, Skill: 0.3}.Validate())

	for _, w := range []Weights{
		{Text: 0.5, Skill: 0.6},
		{Text: -0.1, Skill: 1.1},
		{Text: 0, Skill: 0},
		{Text: math.NaN(), Skill: 0.4},
	} {
		assert.ErrorIs(t, w.Validate(), ErrInvalidWeights)
	}

	_, err := NewMatcher(DefaultVocabulary(), ModeToken, Weights{Text: 2})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestScore_MalformedInput(t *testing.T) {
	s, err := NewScorer(DefaultWeights())
	require.NoError(t, err)

	_, err = s.Score("ok", "bad \xff bytes", NewSkillSet(), NewSkillSet())
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestATSScore_SubstringSemantics(t *testing.T) {
	// substring containment: "java" is found inside "javascript"
	assert.Equal(t, 100.0, ATSScore("JavaScript expert", NewSkillSet("java")))
	assert.Equal(t, 33.3, ATSScore("go and rust", NewSkillSet("go", "python", "java")))
	assert.Equal(t, 100.0, ATSScore("   \n", NewSkillSet("go")))
}

func TestExtract_TokenMode(t *testing.T) {
	e := NewExtractor(NewVocabulary([]string{"java", "c++", "machine learning", "node.js", "ci/cd", "go"}), ModeToken)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"java not in javascript", "JavaScript and TypeScript", []string{}},
		{"c plus plus", "Modern C++ (17/20)", []string{"c++"}},
		{"phrase", "Applied Machine  Learning at scale", []string{"machine learning"}},
		{"phrase split by other word", "machine vision learning", []string{}},
		{"dotted", "backend in Node.js, CI/CD pipelines", []string{"ci/cd", "node.js"}},
		{"case and punctuation", "JAVA, go; Go!", []string{"go", "java"}},
		{"leading dash trimmed", "-java- --go", []string{"go", "java"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text).Sorted())
		})
	}
}

func TestExtract_SubstringMode(t *testing.T) {
	e := NewExtractor(NewVocabulary([]string{"java", "sql"}), ModeSubstring)
	assert.Equal(t, []string{"java", "sql"}, e.Extract("JavaScript, PostgreSQL").Sorted())
	assert.Equal(t, ModeSubstring, e.Mode())
	assert.Equal(t, ModeSubstring, NewExtractor(NewVocabulary([]string{"go"}), "").Mode())
}

func TestMatch_CoverageAndATSAgree(t *testing.T) {
	vocab := NewVocabulary([]string{"java", "javascript"})
	tests := []struct {
		mode         Mode
		wantMatched  []string
		wantMissing  []string
		wantCoverage float64
	}{
		{"", []string{"java", "javascript"}, nil, 100},
		{ModeToken, []string{"javascript"}, []string{"java"}, 50},
	}
	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			m, err := NewMatcher(vocab, tt.mode, DefaultWeights())
			require.NoError(t, err)

			a, err := m.Match("JavaScript developer", "We need Java and JavaScript")
			require.NoError(t, err)
			assert.Equal(t, tt.wantMatched, a.Result.MatchedSkills)
			assert.Equal(t, tt.wantMissing, a.Result.MissingSkills)
			assert.Equal(t, tt.wantCoverage, a.Result.SkillCoverage)
			assert.Equal(t, a.Result.SkillCoverage, a.Result.ATSScore)
		})
	}
}

func TestExtract_Idempotent(t *testing.T) {
	e := NewExtractor(DefaultVocabulary(), ModeToken)
	texts := []string{
		"Python, SQL, machine learning with PyTorch and scikit-learn; Docker + Kubernetes on AWS",
		"C++ and Node.js services, CI/CD with GitHub, Power BI dashboards",
		"nothing relevant here",
	}
	for _, text := range texts {
		first := e.Extract(text)
		second := e.Extract(strings.Join(first.Sorted(), " "))
		for skill := range first {
			assert.True(t, second.Has(skill), "lost %q on second pass", skill)
		}
	}
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"c++", "c", "go-lang", "x"}, Tokens("C++, c#, go-lang -x-"))
	assert.Empty(t, Tokens(" .,;"))
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeSubstring, m)

	m, err = ParseMode(" Token ")
	require.NoError(t, err)
	assert.Equal(t, ModeToken, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}
