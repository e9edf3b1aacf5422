// Package history keeps the append-only log of prediction queries.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/Skufu/symptomatch/internal/predictor"
)

// AnonymousUser is recorded when a caller does not identify itself.
const AnonymousUser = "anonymous"

// QueryRecord is one logged prediction.
type QueryRecord struct {
	ID          string                 `json:"id"`
	UserID      string                 `json:"userId"`
	Symptoms    []string               `json:"symptoms"`
	Predictions []predictor.Prediction `json:"predictions"`
	Confidence  int                    `json:"confidence"`
	CreatedAt   time.Time              `json:"createdAt"`
}

// Recorder persists prediction queries.
type Recorder interface {
	Record(ctx context.Context, userID string, symptoms []string, predictions []predictor.Prediction) error
}

// NewQueryRecord stamps a query with a fresh id and the top-1 confidence.
func NewQueryRecord(userID string, symptoms []string, predictions []predictor.Prediction, now time.Time) QueryRecord {
	if userID == "" {
		userID = AnonymousUser
	}
	if predictions == nil {
		predictions = []predictor.Prediction{}
	}
	return QueryRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Symptoms:    append([]string(nil), symptoms...),
		Predictions: predictions,
		Confidence:  predictor.TopConfidence(predictions),
		CreatedAt:   now.UTC(),
	}
}

// Nop discards every query. Used when no database is configured.
type Nop struct{}

func (Nop) Record(context.Context, string, []string, []predictor.Prediction) error {
	return nil
}
