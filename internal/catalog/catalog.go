// Package catalog provides the disease catalog accessors: Postgres-backed, an
// in-memory snapshot, and a Redis snapshot cache in front of either.
package catalog

import (
	"context"
	"slices"

	"github.com/Skufu/symptomatch/internal/disease"
)

// Source returns the full disease catalog.
type Source interface {
	FetchAll(ctx context.Context) ([]disease.Record, error)
}

// Memory serves a fixed catalog snapshot.
type Memory struct {
	records []disease.Record
}

func NewMemory(records ...disease.Record) *Memory {
	return &Memory{records: cloneAll(records)}
}

// FetchAll returns a deep copy so callers cannot mutate the snapshot.
func (m *Memory) FetchAll(ctx context.Context) ([]disease.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return cloneAll(m.records), nil
}

func cloneAll(records []disease.Record) []disease.Record {
	out := make([]disease.Record, len(records))
	for i, r := range records {
		r.Symptoms = slices.Clone(r.Symptoms)
		r.Causes = slices.Clone(r.Causes)
		r.Precautions = slices.Clone(r.Precautions)
		r.Medicines = slices.Clone(r.Medicines)
		out[i] = r
	}
	return out
}
