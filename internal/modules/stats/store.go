// README: Read-only aggregate queries over delivery orders.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

func (s *Store) CountActiveDeliveries(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM delivery_orders
		WHERE status IN ('assigned','pickup_in_progress','picked_up','delivery_in_progress')`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count active deliveries: %w", err)
	}
	return n, nil
}

// ListOutcomes returns terminal orders that ended at or after the cutoff.
// Cancellations and failures carry no delivered_at; the aggregator treats
// them as misses.
func (s *Store) ListOutcomes(ctx context.Context, since time.Time) ([]Outcome, error) {
	rows, err := s.db.Query(ctx, `
		SELECT status, assigned_at, delivered_at
		FROM delivery_orders
		WHERE (delivered_at >= $1 OR cancelled_at >= $1 OR failed_at >= $1)`,
		since,
	)
	if err != nil {
		return nil, fmt.Errorf("list outcomes: %w", err)
	}
	defer rows.Close()

	var out []Outcome
	for rows.Next() {
		var o Outcome
		var assigned, delivered sql.NullTime
		if err := rows.Scan(&o.Status, &assigned, &delivered); err != nil {
			return nil, fmt.Errorf("list outcomes: %w", err)
		}
		if assigned.Valid {
			t := assigned.Time
			o.AssignedAt = &t
		}
		if delivered.Valid {
			t := delivered.Time
			o.DeliveredAt = &t
		}
		out = append(out, o)
	}
	return out, rows.Err()
}
