package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type priceRepoPG struct{ pool *pgxpool.Pool }

// NewPriceRepoPG creates the PostgreSQL-backed price lookup. The
// concept_prices table is populated by billing; this repository only
// reads it.
func NewPriceRepoPG(pool *pgxpool.Pool) PriceRepository { return &priceRepoPG{pool: pool} }

func (r *priceRepoPG) AmountFor(ctx context.Context, conceptUUID string) (float64, bool, error) {
	var amount float64
	err := r.pool.QueryRow(ctx,
		`SELECT amount FROM concept_prices WHERE concept_uuid = $1`, conceptUUID).Scan(&amount)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return amount, true, nil
}
