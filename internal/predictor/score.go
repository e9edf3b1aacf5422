package predictor

import (
	"math"
	"strings"

	"github.com/Skufu/symptomatch/internal/disease"
	"github.com/Skufu/symptomatch/internal/similarity"
)

// Tier is how an input symptom relates to a catalog symptom.
type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierSubstring
	TierFuzzy
)

var tierWeight = map[Tier]int{
	TierNone:      0,
	TierExact:     10,
	TierSubstring: 5,
	TierFuzzy:     3,
}

const (
	maxConfidence    = 95.0
	severityBoost    = 1.1
	lowSignalPenalty = 0.7
	lowSignalScore   = 15
)

// Weight is the score contribution of a pair classified into t.
func (t Tier) Weight() int {
	return tierWeight[t]
}

// Classify places a normalized (input, catalog symptom) pair into exactly one
// tier. Exact wins over substring, substring over fuzzy.
func Classify(input, symptom string) Tier {
	switch {
	case input == symptom:
		return TierExact
	case strings.Contains(symptom, input) || strings.Contains(input, symptom):
		return TierSubstring
	case similarity.Similar(input, symptom):
		return TierFuzzy
	default:
		return TierNone
	}
}

// Match is the transient per-disease scoring result.
type Match struct {
	Record          disease.Record
	Score           int
	ExactMatches    int
	MatchedSymptoms []string
	Confidence      float64
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// scoreRecord evaluates every (input, catalog symptom) pair. inputs must already
// be normalized. The second return is false when nothing matched.
func scoreRecord(inputs []string, rec disease.Record) (Match, bool) {
	m := Match{Record: rec}
	seen := make(map[string]struct{}, len(rec.Symptoms))

	normalized := make([]string, len(rec.Symptoms))
	for i, s := range rec.Symptoms {
		normalized[i] = normalize(s)
	}

	for _, in := range inputs {
		for i, symptom := range normalized {
			// An empty symptom is a substring of everything.
			if symptom == "" {
				continue
			}
			tier := Classify(in, symptom)
			if tier == TierNone {
				continue
			}
			m.Score += tier.Weight()
			if tier == TierExact {
				m.ExactMatches++
			}
			catalogSymptom := rec.Symptoms[i]
			if _, ok := seen[catalogSymptom]; !ok {
				seen[catalogSymptom] = struct{}{}
				m.MatchedSymptoms = append(m.MatchedSymptoms, catalogSymptom)
			}
		}
	}

	if m.Score == 0 {
		return Match{}, false
	}
	m.Confidence = confidence(m.Score, m.ExactMatches, len(inputs), rec.Severity)
	return m, true
}

// confidence applies base -> severity boost -> low-signal penalty -> clamp.
func confidence(score, exactMatches, inputCount int, severity disease.Severity) float64 {
	ceiling := float64(inputCount * TierExact.Weight())
	c := math.Min(float64(score)/ceiling*100, 100)

	if severity.Boosted() {
		c *= severityBoost
	}
	if exactMatches == 0 && score < lowSignalScore {
		c *= lowSignalPenalty
	}
	return math.Min(c, maxConfidence)
}
