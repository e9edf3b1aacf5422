package predictor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skufu/symptomatch/internal/apperrors"
	"github.com/Skufu/symptomatch/internal/disease"
)

type fakeCatalog struct {
	records []disease.Record
	err     error
	calls   int
}

func (f *fakeCatalog) FetchAll(ctx context.Context) ([]disease.Record, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func rec(name string, severity disease.Severity, symptoms ...string) disease.Record {
	return disease.Record{
		ID:       "id-" + name,
		Name:     name,
		Symptoms: symptoms,
		Severity: severity,
		Category: "Respiratory",
	}
}

func referenceCatalog() []disease.Record {
	return []disease.Record{
		rec("Common Cold", disease.SeverityLow, "runny nose", "sneezing", "cough", "sore throat", "congestion", "mild headache"),
		rec("Influenza", disease.SeverityMedium, "fever", "chills", "muscle aches", "cough", "congestion", "runny nose", "headache", "fatigue"),
		rec("Migraine", disease.SeverityMedium, "severe headache", "nausea", "vomiting", "sensitivity to light", "sensitivity to sound", "visual disturbances"),
		rec("Hypertension", disease.SeverityHigh, "headache", "dizziness", "shortness of breath", "chest pain", "visual changes", "fatigue"),
		rec("Pneumonia", disease.SeverityHigh, "chest pain", "fever", "chills", "cough", "shortness of breath", "fatigue", "confusion"),
	}
}

func TestPredict_ExactTripleRanksFirst(t *testing.T) {
	engine := New(&fakeCatalog{records: referenceCatalog()})

	matches, err := engine.Matches(context.Background(), []string{"Fever", " CHILLS ", "muscle aches"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	top := matches[0]
	assert.Equal(t, "Influenza", top.Record.Name)
	assert.Equal(t, 30, top.Score)
	assert.Equal(t, 3, top.ExactMatches)
	assert.Equal(t, 95.0, top.Confidence)
	assert.ElementsMatch(t, []string{"fever", "chills", "muscle aches"}, top.MatchedSymptoms)

	// Pneumonia matches fever and chills exactly: 20/30*100*1.1.
	require.Len(t, matches, 2)
	assert.Equal(t, "Pneumonia", matches[1].Record.Name)
	assert.Equal(t, 20, matches[1].Score)
	assert.InDelta(t, 73.333, matches[1].Confidence, 0.001)
}

func TestPredict_OutputShape(t *testing.T) {
	records := []disease.Record{{
		ID:          "flu",
		Name:        "Influenza",
		Description: "A viral infection",
		Symptoms:    []string{"Fever", "Chills", "Muscle Aches"},
		Causes:      []string{"Influenza A virus"},
		Severity:    disease.SeverityCritical,
	}}
	engine := New(&fakeCatalog{records: records})

	preds, err := engine.Predict(context.Background(), []string{"fever", "chills", "muscle aches"})
	require.NoError(t, err)
	require.Len(t, preds, 1)

	p := preds[0]
	assert.Equal(t, "flu", p.ID)
	assert.Equal(t, 95, p.Confidence)
	assert.Equal(t, "critical", p.Severity)
	assert.Equal(t, disease.DefaultCategory, p.Category)
	assert.Equal(t, []string{"Fever", "Chills", "Muscle Aches"}, p.Symptoms)
	assert.Equal(t, []string{"Influenza A virus"}, p.Causes)
	assert.Equal(t, []string{}, p.Precautions)
	assert.Equal(t, []string{}, p.Medicines)
	assert.ElementsMatch(t, []string{"Fever", "Chills", "Muscle Aches"}, p.MatchedSymptoms)
	assert.Equal(t, 95, TopConfidence(preds))
}

func TestPredict_ZeroSignalIsEmptyNotError(t *testing.T) {
	catalog := []disease.Record{
		rec("Asthma", disease.SeverityMedium, "wheezing", "chest tightness", "cough"),
		rec("Depression", disease.SeverityMedium, "persistent sadness", "loss of interest"),
	}
	engine := New(&fakeCatalog{records: catalog})

	preds, err := engine.Predict(context.Background(), []string{"xylophone", "quartz", "zebra"})
	require.NoError(t, err)
	assert.NotNil(t, preds)
	assert.Empty(t, preds)
	assert.Equal(t, 0, TopConfidence(preds))
}

func TestPredict_TierWeights(t *testing.T) {
	tests := []struct {
		name       string
		severity   disease.Severity
		symptoms   []string
		inputs     []string
		score      int
		confidence float64
	}{
		{
			name:       "single fuzzy gets penalty",
			severity:   disease.SeverityLow,
			symptoms:   []string{"nausea"},
			inputs:     []string{"nausae", "xylophone", "quartz"},
			score:      3,
			confidence: 10 * 0.7,
		},
		{
			name:       "single substring on boosted severity gets boost and penalty",
			severity:   disease.SeverityHigh,
			symptoms:   []string{"severe headache"},
			inputs:     []string{"headache", "xylophone", "quartz"},
			score:      5,
			confidence: 5.0 / 30 * 100 * 1.1 * 0.7,
		},
		{
			name:       "three substrings reach the penalty threshold",
			severity:   disease.SeverityMedium,
			symptoms:   []string{"severe headache", "persistent nausea", "sudden dizziness"},
			inputs:     []string{"headache", "nausea", "dizziness"},
			score:      15,
			confidence: 50,
		},
		{
			name:       "substring plus substring plus fuzzy stays under threshold",
			severity:   disease.SeverityMedium,
			symptoms:   []string{"severe headache", "persistent nausea", "fatigue"},
			inputs:     []string{"headache", "nausea", "fatique"},
			score:      13,
			confidence: 13.0 / 30 * 100 * 0.7,
		},
		{
			name:       "one exact match avoids the penalty",
			severity:   disease.SeverityLow,
			symptoms:   []string{"cough"},
			inputs:     []string{"cough", "xylophone", "quartz"},
			score:      10,
			confidence: 10.0 / 30 * 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := New(&fakeCatalog{records: []disease.Record{rec("D", tt.severity, tt.symptoms...)}})
			matches, err := engine.Matches(context.Background(), tt.inputs)
			require.NoError(t, err)
			require.Len(t, matches, 1)
			assert.Equal(t, tt.score, matches[0].Score)
			assert.InDelta(t, tt.confidence, matches[0].Confidence, 1e-9)
		})
	}
}

func TestPredict_BoostThenClampAtCeiling(t *testing.T) {
	// "pain" is a substring of every symptom, so the score overshoots 30: the base
	// caps at 100, the boost lifts it to 110 and the clamp brings it back to 95.
	catalog := []disease.Record{
		rec("Cardiac", disease.SeverityCritical, "chest pain", "arm pain", "jaw pain", "back pain"),
	}
	engine := New(&fakeCatalog{records: catalog})

	matches, err := engine.Matches(context.Background(), []string{"chest pain", "pain", "back pain"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Greater(t, matches[0].Score, 30)
	assert.Equal(t, 95.0, matches[0].Confidence)

	// Just under the ceiling the boost is visible: 25/30*100*1.1 = 91.67.
	catalog = []disease.Record{
		rec("Pneumonia", disease.SeverityHigh, "fever", "chills", "persistent cough"),
	}
	engine = New(&fakeCatalog{records: catalog})
	matches, err = engine.Matches(context.Background(), []string{"fever", "chills", "cough"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 25, matches[0].Score)
	assert.InDelta(t, 25.0/30*100*1.1, matches[0].Confidence, 1e-9)
}

func TestConfidence_PipelineOrder(t *testing.T) {
	tests := []struct {
		name     string
		score    int
		exact    int
		severity disease.Severity
		want     float64
	}{
		{"penalty only", 10, 0, disease.SeverityLow, 10.0 / 30 * 100 * 0.7},
		{"boost and penalty", 10, 0, disease.SeverityHigh, 10.0 / 30 * 100 * 1.1 * 0.7},
		{"exact match lifts penalty", 10, 1, disease.SeverityLow, 10.0 / 30 * 100},
		{"penalty threshold is exclusive", 15, 0, disease.SeverityLow, 50},
		{"clamp comes last", 40, 0, disease.SeverityHigh, 95},
		{"exact triple", 30, 3, disease.SeverityCritical, 95},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := confidence(tt.score, tt.exact, RequiredSymptoms, tt.severity)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestPredict_MatchedSymptomsDeduplicatedAndOwned(t *testing.T) {
	catalog := []disease.Record{
		rec("Influenza", disease.SeverityMedium, "Fever", "Chills"),
		rec("Other", disease.SeverityMedium, "fevers and sweats"),
	}
	engine := New(&fakeCatalog{records: catalog})

	matches, err := engine.Matches(context.Background(), []string{"fever", "fevers", "FEVER"})
	require.NoError(t, err)
	require.NotEmpty(t, matches)

	for _, m := range matches {
		for _, s := range m.MatchedSymptoms {
			assert.Contains(t, m.Record.Symptoms, s)
		}
	}

	flu := matches[0]
	require.Equal(t, "Influenza", flu.Record.Name)
	// exact + substring + exact on the same catalog symptom.
	assert.Equal(t, 25, flu.Score)
	assert.Equal(t, 2, flu.ExactMatches)
	assert.Equal(t, []string{"Fever"}, flu.MatchedSymptoms)
}

func TestPredict_RankingTieBreaksOnConfidence(t *testing.T) {
	catalog := []disease.Record{
		rec("Mild", disease.SeverityLow, "fever", "chills"),
		rec("Severe", disease.SeverityHigh, "fever", "chills"),
		rec("Weak", disease.SeverityCritical, "fever"),
	}
	engine := New(&fakeCatalog{records: catalog})

	matches, err := engine.Matches(context.Background(), []string{"fever", "chills", "rash"})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	assert.Equal(t, "Severe", matches[0].Record.Name)
	assert.Equal(t, "Mild", matches[1].Record.Name)
	assert.Equal(t, "Weak", matches[2].Record.Name)
	assert.Equal(t, matches[0].Score, matches[1].Score)
	assert.GreaterOrEqual(t, matches[0].Confidence, matches[1].Confidence)
}

func TestPredict_TruncatesToThreeAndIsSorted(t *testing.T) {
	var catalog []disease.Record
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		catalog = append(catalog, rec(name, disease.SeverityMedium, "cough"))
	}
	catalog = append(catalog, rec("F", disease.SeverityMedium, "cough", "fever"))
	engine := New(&fakeCatalog{records: catalog})

	matches, err := engine.Matches(context.Background(), []string{"cough", "fever", "rash"})
	require.NoError(t, err)
	require.Len(t, matches, MaxResults)
	assert.Equal(t, "F", matches[0].Record.Name)
	// Full ties keep catalog order.
	assert.Equal(t, "A", matches[1].Record.Name)
	assert.Equal(t, "B", matches[2].Record.Name)

	for i := 1; i < len(matches); i++ {
		prev, cur := matches[i-1], matches[i]
		assert.True(t, prev.Score > cur.Score || (prev.Score == cur.Score && prev.Confidence >= cur.Confidence))
	}
}

func TestPredict_ConfidenceAlwaysInRange(t *testing.T) {
	engine := New(&fakeCatalog{records: referenceCatalog()})
	inputs := [][]string{
		{"fever", "chills", "muscle aches"},
		{"headache", "fatigue", "chest pain"},
		{"cough", "congestion", "runny nose"},
		{"nausae", "vomitting", "dizzyness"},
		{"pain", "ache", "a"},
	}
	for _, in := range inputs {
		preds, err := engine.Predict(context.Background(), in)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(preds), MaxResults)
		for _, p := range preds {
			assert.GreaterOrEqual(t, p.Confidence, 0)
			assert.LessOrEqual(t, p.Confidence, 95)
		}
	}
}

func TestPredict_SeverityBoostIsMonotonic(t *testing.T) {
	for _, score := range []int{3, 5, 10, 13, 15, 20, 25, 30, 40} {
		for _, exact := range []int{0, 1, 2} {
			low := confidence(score, exact, RequiredSymptoms, disease.SeverityLow)
			medium := confidence(score, exact, RequiredSymptoms, disease.SeverityMedium)
			high := confidence(score, exact, RequiredSymptoms, disease.SeverityHigh)
			critical := confidence(score, exact, RequiredSymptoms, disease.SeverityCritical)
			assert.GreaterOrEqual(t, high, low)
			assert.GreaterOrEqual(t, high, medium)
			assert.Equal(t, high, critical)
		}
	}
}

func TestPredict_Idempotent(t *testing.T) {
	engine := New(&fakeCatalog{records: referenceCatalog()})
	in := []string{"headache", "fatigue", "fever"}

	first, err := engine.Predict(context.Background(), in)
	require.NoError(t, err)
	second, err := engine.Predict(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestPredict_SkipsRecordsWithoutSymptoms(t *testing.T) {
	catalog := []disease.Record{
		{Name: "Empty", Severity: disease.SeverityHigh},
		rec("Cold", disease.SeverityLow, "cough"),
	}
	engine := New(&fakeCatalog{records: catalog})

	preds, err := engine.Predict(context.Background(), []string{"cough", "a", "b"})
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, "Cold", preds[0].Name)
}

func TestPredict_BlankCatalogSymptomsNeverMatch(t *testing.T) {
	catalog := []disease.Record{
		rec("Junk", disease.SeverityCritical, "   "),
		rec("Empty String", disease.SeverityHigh, ""),
	}
	engine := New(&fakeCatalog{records: catalog})

	preds, err := engine.Predict(context.Background(), []string{"xylophone", "quartz", "zebra"})
	require.NoError(t, err)
	assert.Empty(t, preds)

	catalog = []disease.Record{rec("Cold", disease.SeverityLow, "   ", "cough")}
	engine = New(&fakeCatalog{records: catalog})
	matches, err := engine.Matches(context.Background(), []string{"cough", "a", "b"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, 10, matches[0].Score)
	assert.Equal(t, []string{"cough"}, matches[0].MatchedSymptoms)
}

func TestPredict_InvalidInput(t *testing.T) {
	cases := [][]string{
		nil,
		{"fever", "chills"},
		{"fever", "chills", "cough", "rash"},
		{"fever", "   ", "cough"},
		{"", "chills", "cough"},
	}
	for _, in := range cases {
		cat := &fakeCatalog{records: referenceCatalog()}
		_, err := New(cat).Predict(context.Background(), in)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ErrorTypeInvalidInput), "input %q", in)
		assert.Zero(t, cat.calls, "catalog must not be queried for invalid input")
	}
}

func TestPredict_CatalogUnavailable(t *testing.T) {
	engine := New(&fakeCatalog{err: errors.New("connection refused")})

	_, err := engine.Predict(context.Background(), []string{"fever", "chills", "cough"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeCatalogUnavailable))
}

func TestPredict_CanceledContextFailsAtomically(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	engine := New(&fakeCatalog{records: referenceCatalog()})

	preds, err := engine.Predict(ctx, []string{"fever", "chills", "cough"})
	require.Error(t, err)
	assert.Nil(t, preds)
	assert.True(t, apperrors.Is(err, apperrors.ErrorTypeCatalogUnavailable))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify_Precedence(t *testing.T) {
	assert.Equal(t, TierExact, Classify("cough", "cough"))
	assert.Equal(t, TierSubstring, Classify("cough", "dry cough"))
	assert.Equal(t, TierSubstring, Classify("dry cough at night", "dry cough"))
	assert.Equal(t, TierFuzzy, Classify("nausae", "nausea"))
	assert.Equal(t, TierNone, Classify("fever", "rash"))
	assert.Equal(t, 10, TierExact.Weight())
	assert.Equal(t, 5, TierSubstring.Weight())
	assert.Equal(t, 3, TierFuzzy.Weight())
	assert.Equal(t, 0, TierNone.Weight())
}
