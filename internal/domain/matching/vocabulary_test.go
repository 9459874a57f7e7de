package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewVocabulary_Normalizes(t *testing.T) {
	v := NewVocabulary([]string{" Python ", "SQL", "", "python", "  ", "Machine Learning"})

	assert.Equal(t, []string{"python", "sql", "machine learning"}, v.Terms())
	assert.Equal(t, 3, v.Len())
	assert.True(t, v.Contains("PYTHON"))
	assert.False(t, v.Contains("java"))
}

func TestVocabulary_TermsIsACopy(t *testing.T) {
	v := NewVocabulary([]string{"go"})
	terms := v.Terms()
	terms[0] = "rust"
	assert.Equal(t, []string{"go"}, v.Terms())
}

func TestVocabulary_Version(t *testing.T) {
	a := NewVocabulary([]string{"go", "rust"})
	b := NewVocabulary([]string{"GO", "rust", "go"})
	c := NewVocabulary([]string{"rust", "go"})

	assert.Len(t, a.Version(), 16)
	assert.Equal(t, a.Version(), b.Version())
	assert.NotEqual(t, a.Version(), c.Version())
}

func TestLoadVocabulary(t *testing.T) {
	v, err := LoadVocabulary(strings.NewReader("python\n\nsql\r\njava\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"python", "sql", "java"}, v.Terms())

	_, err = LoadVocabulary(nil)
	assert.Error(t, err)

	_, err = LoadVocabularyFile("/definitely/not/here.txt")
	assert.Error(t, err)
}

func TestDefaultVocabulary(t *testing.T) {
	v := DefaultVocabulary()
	assert.Greater(t, v.Len(), 20)
	assert.True(t, v.Contains("python"))
	assert.True(t, v.Contains("c++"))
	assert.True(t, v.Contains("machine learning"))
}
