package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/Skufu/symptomatch/internal/disease"
)

//go:embed seed/diseases.yaml
var seedYAML []byte

// seedNamespace derives stable ids for seeded diseases from their names.
var seedNamespace = uuid.MustParse("6f1d2a0e-5b8c-4c3e-9a57-2f4d8e1b7c90")

// LoadSeed parses the reference catalog bundled with the binary.
func LoadSeed() ([]disease.Record, error) {
	return ParseSeed(seedYAML)
}

// ParseSeed decodes a YAML list of diseases. Missing ids are derived from the
// name, missing categories default, and every record must have a name, at least
// one symptom and a known severity.
func ParseSeed(data []byte) ([]disease.Record, error) {
	var raw []disease.Record
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(raw))
	records := make([]disease.Record, 0, len(raw))
	for i, rec := range raw {
		rec.Name = strings.TrimSpace(rec.Name)
		if rec.Name == "" {
			return nil, fmt.Errorf("seed entry %d: name is required", i)
		}
		if _, dup := seen[rec.Name]; dup {
			return nil, fmt.Errorf("seed entry %d: duplicate name %q", i, rec.Name)
		}
		seen[rec.Name] = struct{}{}

		if len(rec.Symptoms) == 0 {
			return nil, fmt.Errorf("seed entry %q: at least one symptom is required", rec.Name)
		}
		if err := disease.CheckSymptoms(rec.Symptoms); err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", rec.Name, err)
		}
		sev, err := disease.ParseSeverity(string(rec.Severity))
		if err != nil {
			return nil, fmt.Errorf("seed entry %q: %w", rec.Name, err)
		}
		rec.Severity = sev

		if rec.ID == "" {
			rec.ID = uuid.NewSHA1(seedNamespace, []byte(rec.Name)).String()
		}
		if rec.Category == "" {
			rec.Category = disease.DefaultCategory
		}
		records = append(records, rec)
	}
	return records, nil
}
