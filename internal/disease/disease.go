// Package disease holds the catalog record type shared by the catalog accessors,
// the prediction engine and the query history.
package disease

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DefaultCategory is reported for records stored without a category.
const DefaultCategory = "General"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseSeverity accepts the closed set low|medium|high|critical, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(strings.ToLower(strings.TrimSpace(s))); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity %q", s)
	}
}

// Boosted reports whether matches against this severity get the confidence boost.
func (s Severity) Boosted() bool {
	return s == SeverityHigh || s == SeverityCritical
}

// Record is an immutable catalog entry.
type Record struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Symptoms    []string `json:"symptoms" yaml:"symptoms"`
	Causes      []string `json:"causes" yaml:"causes"`
	Precautions []string `json:"precautions" yaml:"precautions"`
	Medicines   []string `json:"medicines" yaml:"medicines"`
	Severity    Severity `json:"severity" yaml:"severity"`
	Category    string   `json:"category" yaml:"category"`
}

// Row is the storage shape of a Record: list fields are JSON-encoded text.
// Every column except the keys is nullable so a bad row still scans and is
// rejected by Decode instead.
type Row struct {
	ID          string  `db:"id"`
	Name        string  `db:"name"`
	Description *string `db:"description"`
	Symptoms    *string `db:"symptoms"`
	Causes      *string `db:"causes"`
	Precautions *string `db:"precautions"`
	Medicines   *string `db:"medicines"`
	Severity    *string `db:"severity"`
	Category    *string `db:"category"`
}

// Decode turns a stored row into a Record. A missing or blank symptom, any list
// column that is not a JSON string array, or a severity outside the closed set
// fails the whole row.
func Decode(row Row) (Record, error) {
	rec := Record{
		ID:          row.ID,
		Name:        row.Name,
		Description: deref(row.Description),
		Category:    deref(row.Category),
	}
	if rec.Category == "" {
		rec.Category = DefaultCategory
	}

	if row.Symptoms == nil {
		return Record{}, fmt.Errorf("symptoms: missing")
	}
	var err error
	if rec.Symptoms, err = decodeList("symptoms", *row.Symptoms); err != nil {
		return Record{}, err
	}
	if err := CheckSymptoms(rec.Symptoms); err != nil {
		return Record{}, err
	}
	if rec.Causes, err = decodeList("causes", deref(row.Causes)); err != nil {
		return Record{}, err
	}
	if rec.Precautions, err = decodeList("precautions", deref(row.Precautions)); err != nil {
		return Record{}, err
	}
	if rec.Medicines, err = decodeList("medicines", deref(row.Medicines)); err != nil {
		return Record{}, err
	}
	if rec.Severity, err = ParseSeverity(deref(row.Severity)); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Encode is the inverse of Decode.
func Encode(rec Record) (Row, error) {
	symptoms, err := encodeList(rec.Symptoms)
	if err != nil {
		return Row{}, fmt.Errorf("encode %s symptoms: %w", rec.Name, err)
	}
	causes, err := encodeList(rec.Causes)
	if err != nil {
		return Row{}, fmt.Errorf("encode %s causes: %w", rec.Name, err)
	}
	precautions, err := encodeList(rec.Precautions)
	if err != nil {
		return Row{}, fmt.Errorf("encode %s precautions: %w", rec.Name, err)
	}
	medicines, err := encodeList(rec.Medicines)
	if err != nil {
		return Row{}, fmt.Errorf("encode %s medicines: %w", rec.Name, err)
	}

	description, category, severity := rec.Description, rec.Category, string(rec.Severity)
	return Row{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: &description,
		Symptoms:    &symptoms,
		Causes:      &causes,
		Precautions: &precautions,
		Medicines:   &medicines,
		Severity:    &severity,
		Category:    &category,
	}, nil
}

// CheckSymptoms rejects blank entries. A blank catalog symptom would be a
// substring of every input.
func CheckSymptoms(symptoms []string) error {
	for i, s := range symptoms {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("symptoms: entry %d is blank", i)
		}
	}
	return nil
}

func encodeList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func decodeList(field, raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return []string{}, nil
	}
	var out []string
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
