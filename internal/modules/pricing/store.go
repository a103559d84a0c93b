// README: Pricing store backed by PostgreSQL; falls back to built-in rates.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

// GetRate returns the newest active rate row, or the built-in default when
// none is configured.
func (s *Store) GetRate(ctx context.Context) (Rate, error) {
	row := s.db.QueryRow(ctx, `
		SELECT base_fare, per_km, currency
		FROM pricing_rates
		WHERE active
		ORDER BY created_at DESC
		LIMIT 1`,
	)
	var r Rate
	err := row.Scan(&r.BaseFare, &r.PerKm, &r.Currency)
	if errors.Is(err, pgx.ErrNoRows) {
		return defaultRate, nil
	}
	if err != nil {
		return Rate{}, fmt.Errorf("get pricing rate: %w", err)
	}
	return r, nil
}
