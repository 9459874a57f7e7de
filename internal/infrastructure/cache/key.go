package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"skillmatch/internal/domain/matching"
)

type matchKeyInput struct {
	Vocabulary string           `json:"vocabulary"`
	Mode       matching.Mode    `json:"mode"`
	Weights    matching.Weights `json:"weights"`
	Resume     string           `json:"resume"`
	Job        string           `json:"job"`
}

// MatchKey identifies one analysis. Texts are hashed as given; anything that
// changes the outcome (vocabulary, mode, weights) is part of the key.
func MatchKey(vocabVersion string, mode matching.Mode, w matching.Weights, resume, job string) string {
	b, _ := json.Marshal(matchKeyInput{
		Vocabulary: vocabVersion,
		Mode:       mode,
		Weights:    w,
		Resume:     resume,
		Job:        job,
	})
	sum := sha256.Sum256(b)
	return "match:analysis:" + hex.EncodeToString(sum[:])
}
