package catalog

import (
	"context"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/rs/zerolog/log"

	"github.com/Skufu/symptomatch/internal/apperrors"
	"github.com/Skufu/symptomatch/internal/database"
	"github.com/Skufu/symptomatch/internal/disease"
	"github.com/Skufu/symptomatch/internal/metrics"
)

const diseasesTable = "diseases"

var diseaseColumns = []any{"id", "name", "description", "symptoms", "causes", "precautions", "medicines", "severity", "category"}

// Postgres reads the catalog from the diseases table.
type Postgres struct {
	db database.DB
}

func NewPostgres(db database.DB) *Postgres {
	return &Postgres{db: db}
}

// FetchAll loads every disease ordered by name. Every value column is scanned
// as nullable text, so bad data surfaces in Decode and the row is skipped and
// reported. A failed query is CatalogUnavailable.
func (p *Postgres) FetchAll(ctx context.Context) ([]disease.Record, error) {
	query, args, err := fetchAllSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("build catalog query", err)
	}

	rows, err := p.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError("query diseases", err)
	}
	defer rows.Close()

	records, err := collect(rows)
	if err != nil {
		return nil, apperrors.NewCatalogUnavailableError("read diseases", err)
	}
	return records, nil
}

// Upsert inserts records or updates them in place, keyed by name. Existing ids
// are kept.
func (p *Postgres) Upsert(ctx context.Context, records []disease.Record) error {
	for _, rec := range records {
		query, args, err := upsertSQL(rec)
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert %s: %w", rec.Name, err)
		}
	}
	return nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func collect(rows rowScanner) ([]disease.Record, error) {
	records := []disease.Record{}
	for rows.Next() {
		var row disease.Row
		if err := rows.Scan(
			&row.ID,
			&row.Name,
			&row.Description,
			&row.Symptoms,
			&row.Causes,
			&row.Precautions,
			&row.Medicines,
			&row.Severity,
			&row.Category,
		); err != nil {
			// pgx closes the result set on a scan error, so the fetch cannot
			// continue past it.
			return nil, fmt.Errorf("scan disease row: %w", err)
		}

		rec, err := disease.Decode(row)
		if err != nil {
			skipMalformed(row.Name, err)
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

func skipMalformed(name string, err error) {
	metrics.RecordMalformedEntry()
	log.Warn().Err(apperrors.NewMalformedCatalogEntryError(name, err)).
		Str("disease", name).
		Msg("skipping malformed catalog entry")
}

func fetchAllSQL() (string, []any, error) {
	return database.Dialect.From(diseasesTable).
		Prepared(true).
		Select(diseaseColumns...).
		Order(goqu.I("name").Asc()).
		ToSQL()
}

func upsertSQL(rec disease.Record) (string, []any, error) {
	row, err := disease.Encode(rec)
	if err != nil {
		return "", nil, err
	}

	record := goqu.Record{
		"id":          row.ID,
		"name":        row.Name,
		"description": *row.Description,
		"symptoms":    *row.Symptoms,
		"causes":      *row.Causes,
		"precautions": *row.Precautions,
		"medicines":   *row.Medicines,
		"severity":    *row.Severity,
		"category":    *row.Category,
	}
	update := goqu.Record{
		"description": goqu.I("excluded.description"),
		"symptoms":    goqu.I("excluded.symptoms"),
		"causes":      goqu.I("excluded.causes"),
		"precautions": goqu.I("excluded.precautions"),
		"medicines":   goqu.I("excluded.medicines"),
		"severity":    goqu.I("excluded.severity"),
		"category":    goqu.I("excluded.category"),
		"updated_at":  goqu.L("NOW()"),
	}

	query, args, err := database.Dialect.Insert(diseasesTable).
		Prepared(true).
		Rows(record).
		OnConflict(goqu.DoUpdate("name", update)).
		ToSQL()
	if err != nil {
		return "", nil, fmt.Errorf("build upsert for %s: %w", rec.Name, err)
	}
	return query, args, nil
}
