package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"

	"github.com/Skufu/symptomatch/internal/apperrors"
	"github.com/Skufu/symptomatch/internal/database"
	"github.com/Skufu/symptomatch/internal/predictor"
)

const queriesTable = "disease_queries"

// DefaultListLimit and MaxListLimit bound ListByUser.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Postgres writes query records to the disease_queries table.
type Postgres struct {
	db  database.DB
	now func() time.Time
}

func NewPostgres(db database.DB) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

func (p *Postgres) Record(ctx context.Context, userID string, symptoms []string, predictions []predictor.Prediction) error {
	rec := NewQueryRecord(userID, symptoms, predictions, p.now())

	query, args, err := insertSQL(rec)
	if err != nil {
		return apperrors.NewLogWriteFailedError("build query log insert", err)
	}
	if _, err := p.db.Exec(ctx, query, args...); err != nil {
		return apperrors.NewLogWriteFailedError("insert query log", err)
	}
	return nil
}

// ListByUser returns the user's most recent queries, newest first. limit is
// clamped to [1, MaxListLimit]; zero or less means DefaultListLimit.
func (p *Postgres) ListByUser(ctx context.Context, userID string, limit int) ([]QueryRecord, error) {
	query, args, err := listSQL(userID, ClampLimit(limit))
	if err != nil {
		return nil, apperrors.NewInternalError("build history query", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	return collect(rows)
}

// ClampLimit normalises a caller supplied page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collect(rows rowScanner) ([]QueryRecord, error) {
	records := []QueryRecord{}
	for rows.Next() {
		var (
			rec         QueryRecord
			symptoms    string
			predictions string
		)
		if err := rows.Scan(&rec.ID, &rec.UserID, &symptoms, &predictions, &rec.Confidence, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := json.Unmarshal([]byte(symptoms), &rec.Symptoms); err != nil {
			return nil, fmt.Errorf("history %s symptoms: %w", rec.ID, err)
		}
		if err := json.Unmarshal([]byte(predictions), &rec.Predictions); err != nil {
			return nil, fmt.Errorf("history %s predictions: %w", rec.ID, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func insertSQL(rec QueryRecord) (string, []any, error) {
	symptoms, err := json.Marshal(rec.Symptoms)
	if err != nil {
		return "", nil, err
	}
	predictions, err := json.Marshal(rec.Predictions)
	if err != nil {
		return "", nil, err
	}

	return database.Dialect.Insert(queriesTable).
		Prepared(true).
		Rows(goqu.Record{
			"id":          rec.ID,
			"user_id":     rec.UserID,
			"symptoms":    string(symptoms),
			"predictions": string(predictions),
			"confidence":  rec.Confidence,
			"created_at":  rec.CreatedAt,
		}).
		ToSQL()
}

func listSQL(userID string, limit int) (string, []any, error) {
	return database.Dialect.From(queriesTable).
		Prepared(true).
		Select("id", "user_id", "symptoms", "predictions", "confidence", "created_at").
		Where(goqu.C("user_id").Eq(userID)).
		Order(goqu.C("created_at").Desc()).
		Limit(uint(limit)).
		ToSQL()
}
