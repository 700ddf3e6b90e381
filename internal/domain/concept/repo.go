package concept

import "context"

// Repository persists synced concept records.
type Repository interface {
	// Upsert inserts or updates a record keyed by uuid. Re-running a
	// sync with unchanged upstream data produces no observable delta.
	Upsert(ctx context.Context, rec *LocalConceptRecord) error
	GetByUUID(ctx context.Context, uuid string) (*LocalConceptRecord, error)
	List(ctx context.Context, limit, offset int) ([]*LocalConceptRecord, int, error)
}
