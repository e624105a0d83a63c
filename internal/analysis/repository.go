package analysis

import (
	"context"
	"database/sql"
	"fmt"
)

type postgresRepo struct {
	db *sql.DB
}

// NewRepository returns a Postgres-backed history repository.
func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Save(ctx context.Context, rec Record) error {
	query := `
		INSERT INTO analysis_records
			(id, category, mode, urgency, schema_recognized, missing_sections, filename, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Category, rec.Mode, rec.Urgency,
		rec.SchemaRecognized, rec.MissingSections, rec.Filename, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save analysis record: %w", err)
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context, limit int) ([]Record, error) {
	query := `
		SELECT id, category, mode, urgency, schema_recognized, missing_sections, filename, created_at
		FROM analysis_records
		ORDER BY created_at DESC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list analysis records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.Category, &rec.Mode, &rec.Urgency,
			&rec.SchemaRecognized, &rec.MissingSections, &rec.Filename, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
