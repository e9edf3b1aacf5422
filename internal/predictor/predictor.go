// Package predictor ranks catalog diseases against a fixed-size set of free-text
// symptoms using exact, substring and fuzzy lexical matching.
package predictor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/Skufu/symptomatch/internal/apperrors"
	"github.com/Skufu/symptomatch/internal/disease"
	"github.com/Skufu/symptomatch/internal/metrics"
	"github.com/Skufu/symptomatch/internal/observability"
)

const (
	// RequiredSymptoms is the exact number of symptoms a query must carry.
	RequiredSymptoms = 3

	// MaxResults caps the ranked shortlist.
	MaxResults = 3
)

// Catalog supplies the full set of disease records for a scoring pass.
type Catalog interface {
	FetchAll(ctx context.Context) ([]disease.Record, error)
}

// Prediction is the caller-facing view of a ranked match.
type Prediction struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	Symptoms        []string `json:"symptoms"`
	Causes          []string `json:"causes"`
	Precautions     []string `json:"precautions"`
	Medicines       []string `json:"medicines"`
	Severity        string   `json:"severity"`
	Category        string   `json:"category"`
	Confidence      int      `json:"confidence"`
	MatchedSymptoms []string `json:"matchedSymptoms"`
}

// Engine scores a catalog against symptom sets. It keeps no per-request state
// and is safe for concurrent use.
type Engine struct {
	catalog Catalog
}

func New(catalog Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// ValidateSymptoms enforces the arity and non-empty preconditions.
func ValidateSymptoms(symptoms []string) error {
	if len(symptoms) != RequiredSymptoms {
		return apperrors.NewInvalidInputError(fmt.Sprintf("exactly %d symptoms are required", RequiredSymptoms))
	}
	for _, s := range symptoms {
		if strings.TrimSpace(s) == "" {
			return apperrors.NewInvalidInputError(fmt.Sprintf("all %d symptoms must be non-empty strings", RequiredSymptoms))
		}
	}
	return nil
}

// Predict returns up to MaxResults predictions ordered best-first. An empty slice
// with a nil error means nothing matched.
func (e *Engine) Predict(ctx context.Context, symptoms []string) ([]Prediction, error) {
	start := time.Now()

	matches, err := e.Matches(ctx, symptoms)
	if err != nil {
		metrics.RecordPrediction(outcomeFor(err), time.Since(start).Seconds())
		return nil, err
	}

	predictions := make([]Prediction, 0, len(matches))
	for _, m := range matches {
		predictions = append(predictions, m.Prediction())
	}

	outcome := "matched"
	if len(predictions) == 0 {
		outcome = "empty"
	}
	metrics.RecordPrediction(outcome, time.Since(start).Seconds())
	return predictions, nil
}

// Matches runs the scoring pass and returns the ranked, truncated matches with
// their raw scores.
func (e *Engine) Matches(ctx context.Context, symptoms []string) ([]Match, error) {
	if err := ValidateSymptoms(symptoms); err != nil {
		return nil, err
	}

	records, err := e.catalog.FetchAll(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrorTypeCatalogUnavailable) {
			return nil, err
		}
		return nil, apperrors.NewCatalogUnavailableError("fetch disease catalog", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, apperrors.NewCatalogUnavailableError("fetch disease catalog", err)
	}

	inputs := make([]string, len(symptoms))
	for i, s := range symptoms {
		inputs[i] = normalize(s)
	}

	var matches []Match
	for _, rec := range records {
		if len(rec.Symptoms) == 0 {
			continue
		}
		if m, ok := scoreRecord(inputs, rec); ok {
			matches = append(matches, m)
		}
	}

	ranked := Rank(matches)
	observability.LoggerFromContext(ctx).Debug().
		Int("catalog_size", len(records)).
		Int("candidates", len(matches)).
		Int("returned", len(ranked)).
		Msg("symptoms scored")
	return ranked, nil
}

// Rank orders matches by score then confidence, both descending, keeping
// catalog order for full ties, and truncates to MaxResults.
func Rank(matches []Match) []Match {
	sorted := make([]Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].Confidence > sorted[j].Confidence
	})
	if len(sorted) > MaxResults {
		sorted = sorted[:MaxResults]
	}
	return sorted
}

// Prediction denormalizes the matched record for output, rounding confidence.
func (m Match) Prediction() Prediction {
	rec := m.Record
	category := rec.Category
	if category == "" {
		category = disease.DefaultCategory
	}
	return Prediction{
		ID:              rec.ID,
		Name:            rec.Name,
		Description:     rec.Description,
		Symptoms:        nonNil(rec.Symptoms),
		Causes:          nonNil(rec.Causes),
		Precautions:     nonNil(rec.Precautions),
		Medicines:       nonNil(rec.Medicines),
		Severity:        string(rec.Severity),
		Category:        category,
		Confidence:      int(math.Round(m.Confidence)),
		MatchedSymptoms: nonNil(m.MatchedSymptoms),
	}
}

// TopConfidence is the confidence of the best prediction, or 0 for none.
func TopConfidence(predictions []Prediction) int {
	if len(predictions) == 0 {
		return 0
	}
	return predictions[0].Confidence
}

func outcomeFor(err error) string {
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeInvalidInput:
		return "invalid_input"
	case apperrors.ErrorTypeCatalogUnavailable:
		return "catalog_unavailable"
	default:
		if errors.Is(err, context.Canceled) {
			return "canceled"
		}
		return "error"
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
