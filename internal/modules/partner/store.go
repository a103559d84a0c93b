// README: Partner store backed by PostgreSQL, with a Redis GEO mirror of positions.
package partner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"dray/internal/types"
)

var (
	ErrNotFound = errors.New("partner not found")
	// ErrConflict means the partner already carries an assignment; the caller
	// should rerun matching against a fresh candidate pool.
	ErrConflict = errors.New("partner assignment conflict")
	// ErrNoIndex means no Redis client is configured; callers treat the geo
	// index as absent and fall back to exact filtering.
	ErrNoIndex = errors.New("partner geo index not configured")
)

const geoKey = "dray:partners:geo"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

const partnerColumns = `
	id, name, phone, vehicle_type,
	position_lat, position_lng, position_at,
	online, active, approved,
	verification_tier, average_rating,
	total_deliveries, completed_deliveries, cancelled_deliveries, on_time_rate,
	service_areas, specializations, commission_rate,
	current_order_id, created_at`

func (s *Store) Get(ctx context.Context, id types.ID) (*DispatchPartner, error) {
	row := s.db.QueryRow(ctx, `SELECT`+partnerColumns+` FROM partners WHERE id = $1`, string(id))
	p, err := scanPartner(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get partner: %w", err)
	}
	return p, nil
}

// ListEligible returns partners that are approved, active, online, and meet the
// rating floor. Vehicle filtering is pushed into SQL when requested.
func (s *Store) ListEligible(ctx context.Context, f EligibilityFilter) ([]DispatchPartner, error) {
	q := `SELECT` + partnerColumns + `
		FROM partners
		WHERE approved AND active AND online AND average_rating >= $1`
	args := []any{f.MinRating}
	if f.VehicleType != "" {
		q += ` AND vehicle_type = $2`
		args = append(args, string(f.VehicleType))
	}

	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list eligible partners: %w", err)
	}
	defer rows.Close()

	var out []DispatchPartner
	for rows.Next() {
		p, err := scanPartner(rows)
		if err != nil {
			return nil, fmt.Errorf("list eligible partners: %w", err)
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// UpdateLocation applies a position report with last-write-wins semantics: a
// report older than the stored one is dropped and reported as not applied.
// Applied positions are mirrored into the Redis GEO index best-effort.
func (s *Store) UpdateLocation(ctx context.Context, id types.ID, pos types.Point, at time.Time) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE partners
		SET position_lat = $1, position_lng = $2, position_at = $3
		WHERE id = $4 AND (position_at IS NULL OR position_at <= $3)`,
		pos.Lat, pos.Lng, at, string(id),
	)
	if err != nil {
		return false, fmt.Errorf("update partner location: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either stale or unknown; distinguish for the caller.
		var exists bool
		if err := s.db.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1)`, string(id),
		).Scan(&exists); err != nil {
			return false, fmt.Errorf("update partner location: %w", err)
		}
		if !exists {
			return false, ErrNotFound
		}
		return false, nil
	}

	if s.redis != nil {
		_ = s.redis.GeoAdd(ctx, geoKey, &redis.GeoLocation{
			Name:      string(id),
			Longitude: pos.Lng,
			Latitude:  pos.Lat,
		}).Err()
	}
	return true, nil
}

// NearbyIDs queries the Redis GEO index for partner IDs within radiusKm of p,
// nearest first. Returns ErrNoIndex when no Redis client is configured.
func (s *Store) NearbyIDs(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error) {
	if s.redis == nil {
		return nil, ErrNoIndex
	}
	results, err := s.redis.GeoSearch(ctx, geoKey, &redis.GeoSearchQuery{
		Longitude:  p.Lng,
		Latitude:   p.Lat,
		Radius:     radiusKm,
		RadiusUnit: "km",
		Sort:       "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("nearby partners: %w", err)
	}
	ids := make([]types.ID, len(results))
	for i, r := range results {
		ids[i] = types.ID(r)
	}
	return ids, nil
}

// SetAssignment atomically claims a partner for an order. The claim succeeds
// only while the partner has no current order.
func (s *Store) SetAssignment(ctx context.Context, partnerID, orderID types.ID) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE partners
		SET current_order_id = $1
		WHERE id = $2 AND current_order_id IS NULL`,
		string(orderID), string(partnerID),
	)
	if err != nil {
		return fmt.Errorf("set assignment: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM partners WHERE id = $1)`, string(partnerID),
	).Scan(&exists); err != nil {
		return fmt.Errorf("set assignment: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

// ClearAssignment releases a partner once the named order reaches a terminal
// state. Clearing an assignment that was already released is a no-op.
func (s *Store) ClearAssignment(ctx context.Context, partnerID, orderID types.ID) error {
	_, err := s.db.Exec(ctx, `
		UPDATE partners
		SET current_order_id = NULL
		WHERE id = $1 AND current_order_id = $2`,
		string(partnerID), string(orderID),
	)
	if err != nil {
		return fmt.Errorf("clear assignment: %w", err)
	}
	return nil
}

// RecordOutcome bumps the partner's delivery counters after a terminal
// transition and folds the on-time flag into the running rate.
func (s *Store) RecordOutcome(ctx context.Context, partnerID types.ID, completed, onTime bool) error {
	var q string
	if completed {
		q = `
		UPDATE partners
		SET total_deliveries = total_deliveries + 1,
		    completed_deliveries = completed_deliveries + 1,
		    on_time_rate = (on_time_rate * total_deliveries + CASE WHEN $2 THEN 100.0 ELSE 0.0 END)
		                   / (total_deliveries + 1)
		WHERE id = $1`
	} else {
		q = `
		UPDATE partners
		SET total_deliveries = total_deliveries + 1,
		    cancelled_deliveries = cancelled_deliveries + 1,
		    on_time_rate = (on_time_rate * total_deliveries + CASE WHEN $2 THEN 100.0 ELSE 0.0 END)
		                   / (total_deliveries + 1)
		WHERE id = $1`
	}
	tag, err := s.db.Exec(ctx, q, string(partnerID), onTime)
	if err != nil {
		return fmt.Errorf("record outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) CountOnline(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM partners WHERE online AND active`,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count online partners: %w", err)
	}
	return n, nil
}

func scanPartner(row pgx.Row) (*DispatchPartner, error) {
	var p DispatchPartner
	var lat, lng sql.NullFloat64
	var positionAt sql.NullTime
	var serviceAreas []byte
	var currentOrderID sql.NullString

	err := row.Scan(
		&p.ID, &p.Name, &p.Phone, &p.VehicleType,
		&lat, &lng, &positionAt,
		&p.Online, &p.Active, &p.Approved,
		&p.VerificationTier, &p.AverageRating,
		&p.TotalDeliveries, &p.CompletedDeliveries, &p.CancelledDeliveries, &p.OnTimeRate,
		&serviceAreas, &p.Specializations, &p.CommissionRate,
		&currentOrderID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if lat.Valid && lng.Valid {
		p.Position = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
	}
	if positionAt.Valid {
		t := positionAt.Time
		p.PositionAt = &t
	}
	if len(serviceAreas) > 0 {
		if err := json.Unmarshal(serviceAreas, &p.ServiceAreas); err != nil {
			return nil, fmt.Errorf("decode service areas: %w", err)
		}
	}
	if currentOrderID.Valid {
		id := types.ID(currentOrderID.String)
		p.CurrentOrderID = &id
	}
	return &p, nil
}
