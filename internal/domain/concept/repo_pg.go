package concept

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

// NewRepoPG creates the PostgreSQL-backed concept repository.
func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const conceptCols = `uuid, display_name, concept_class_display, is_set, created_by, created_at, updated_at`

func scanRecord(row pgx.Row) (*LocalConceptRecord, error) {
	var rec LocalConceptRecord
	err := row.Scan(&rec.UUID, &rec.DisplayName, &rec.ConceptClassDisplay,
		&rec.IsSet, &rec.CreatedBy, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repoPG) Upsert(ctx context.Context, rec *LocalConceptRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO synced_concepts (uuid, display_name, concept_class_display, is_set, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (uuid) DO UPDATE SET
			display_name = EXCLUDED.display_name,
			concept_class_display = EXCLUDED.concept_class_display,
			is_set = EXCLUDED.is_set,
			created_by = EXCLUDED.created_by,
			updated_at = NOW()`,
		rec.UUID, rec.DisplayName, rec.ConceptClassDisplay, rec.IsSet, rec.CreatedBy)
	return err
}

func (r *repoPG) GetByUUID(ctx context.Context, uuid string) (*LocalConceptRecord, error) {
	return scanRecord(r.pool.QueryRow(ctx,
		`SELECT `+conceptCols+` FROM synced_concepts WHERE uuid = $1`, uuid))
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*LocalConceptRecord, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM synced_concepts`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+conceptCols+` FROM synced_concepts
		ORDER BY display_name
		LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var records []*LocalConceptRecord
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	return records, total, rows.Err()
}
