// README: Order store backed by PostgreSQL with optimistic status updates.
package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dray/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const orderColumns = `
	id, marketplace_order_id, customer_id, partner_id,
	pickup_label, pickup_contact, pickup_phone, pickup_lat, pickup_lng,
	dropoff_label, dropoff_contact, dropoff_phone, dropoff_lat, dropoff_lng,
	pickup_window_start, pickup_window_end, delivery_window_start, delivery_window_end,
	package, delivery_type, priority, vehicle_type,
	status, status_version,
	delivery_fee, partner_earnings, platform_commission, tip, currency,
	created_at, assigned_at, picked_up_at, delivered_at, cancelled_at, failed_at, cancel_reason`

func (s *Store) Create(ctx context.Context, o *DeliveryOrder) error {
	pkg, err := json.Marshal(o.Package)
	if err != nil {
		return fmt.Errorf("encode package details: %w", err)
	}
	_, err = s.db.Exec(ctx, `
		INSERT INTO delivery_orders (
			id, marketplace_order_id, customer_id, partner_id,
			pickup_label, pickup_contact, pickup_phone, pickup_lat, pickup_lng,
			dropoff_label, dropoff_contact, dropoff_phone, dropoff_lat, dropoff_lng,
			pickup_window_start, pickup_window_end, delivery_window_start, delivery_window_end,
			package, delivery_type, priority, vehicle_type,
			status, status_version,
			delivery_fee, partner_earnings, platform_commission, tip, currency,
			created_at
		) VALUES (
			$1, $2, $3, $4,
			$5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14,
			$15, $16, $17, $18,
			$19, $20, $21, $22,
			$23, $24,
			$25, $26, $27, $28, $29,
			$30
		)`,
		string(o.ID), string(o.MarketplaceOrderID), string(o.CustomerID), toStringPtr(o.PartnerID),
		o.Pickup.Label, o.Pickup.Contact, o.Pickup.Phone, o.Pickup.Point.Lat, o.Pickup.Point.Lng,
		o.Dropoff.Label, o.Dropoff.Contact, o.Dropoff.Phone, o.Dropoff.Point.Lat, o.Dropoff.Point.Lng,
		toWindowPtr(o.PickupWindow.Start), toWindowPtr(o.PickupWindow.End),
		toWindowPtr(o.DeliveryWindow.Start), toWindowPtr(o.DeliveryWindow.End),
		pkg, o.DeliveryType, string(o.Priority), string(o.VehicleType),
		string(o.Status), o.StatusVersion,
		o.Fees.DeliveryFee.Amount, o.Fees.PartnerEarnings.Amount, o.Fees.PlatformCommission.Amount,
		o.Fees.Tip.Amount, o.Fees.DeliveryFee.Currency,
		o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id types.ID) (*DeliveryOrder, error) {
	row := s.db.QueryRow(ctx, `SELECT`+orderColumns+` FROM delivery_orders WHERE id = $1`, string(id))
	o, err := scanOrder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// GetByIDs loads a batch of orders; missing IDs are simply absent from the
// result, the caller decides whether that is an error.
func (s *Store) GetByIDs(ctx context.Context, ids []types.ID) ([]DeliveryOrder, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}
	rows, err := s.db.Query(ctx, `SELECT`+orderColumns+` FROM delivery_orders WHERE id = ANY($1)`, raw)
	if err != nil {
		return nil, fmt.Errorf("get orders by ids: %w", err)
	}
	defer rows.Close()

	var out []DeliveryOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("get orders by ids: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

// UpdateStatus applies an optimistic, conditional transition: the row must
// still hold the expected status and version. Status timestamps are stamped
// in the same statement.
func (s *Store) UpdateStatus(ctx context.Context, id types.ID, from, to Status, version int, partnerID *types.ID) (bool, error) {
	tag, err := s.db.Exec(ctx, `
		UPDATE delivery_orders
		SET status = $1,
		    status_version = status_version + 1,
		    partner_id = COALESCE($2, partner_id),
		    assigned_at = CASE WHEN $1 = 'assigned' THEN NOW() ELSE assigned_at END,
		    picked_up_at = CASE WHEN $1 = 'picked_up' THEN NOW() ELSE picked_up_at END,
		    delivered_at = CASE WHEN $1 = 'delivered' THEN NOW() ELSE delivered_at END,
		    cancelled_at = CASE WHEN $1 = 'cancelled' THEN NOW() ELSE cancelled_at END,
		    failed_at = CASE WHEN $1 = 'failed' THEN NOW() ELSE failed_at END
		WHERE id = $3 AND status = $4 AND status_version = $5`,
		string(to),
		toStringPtr(partnerID),
		string(id),
		string(from),
		version,
	)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *Store) FinalizeFees(ctx context.Context, id types.ID, fees FeeBreakdown) error {
	_, err := s.db.Exec(ctx, `
		UPDATE delivery_orders
		SET partner_earnings = $1, platform_commission = $2, tip = $3
		WHERE id = $4`,
		fees.PartnerEarnings.Amount, fees.PlatformCommission.Amount, fees.Tip.Amount, string(id),
	)
	if err != nil {
		return fmt.Errorf("finalize fees: %w", err)
	}
	return nil
}

func (s *Store) AppendEvent(ctx context.Context, e *TrackingEvent) error {
	var lat, lng *float64
	if e.Position != nil {
		lat, lng = &e.Position.Lat, &e.Position.Lng
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO order_tracking_events (id, order_id, status, lat, lng, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		string(e.ID), string(e.OrderID), string(e.Status), lat, lng, e.Note, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append tracking event: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, orderID types.ID) ([]TrackingEvent, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, order_id, status, lat, lng, note, created_at
		FROM order_tracking_events
		WHERE order_id = $1
		ORDER BY created_at, id`,
		string(orderID),
	)
	if err != nil {
		return nil, fmt.Errorf("list tracking events: %w", err)
	}
	defer rows.Close()

	var out []TrackingEvent
	for rows.Next() {
		var e TrackingEvent
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&e.ID, &e.OrderID, &e.Status, &lat, &lng, &e.Note, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("list tracking events: %w", err)
		}
		if lat.Valid && lng.Valid {
			e.Position = &types.Point{Lat: lat.Float64, Lng: lng.Float64}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ListActiveForPartner returns the partner's orders in active statuses whose
// pickup or delivery window touches the given window.
func (s *Store) ListActiveForPartner(ctx context.Context, partnerID types.ID, window TimeWindow) ([]DeliveryOrder, error) {
	rows, err := s.db.Query(ctx, `
		SELECT`+orderColumns+`
		FROM delivery_orders
		WHERE partner_id = $1
		  AND status IN ('assigned','pickup_in_progress','picked_up','delivery_in_progress')
		  AND (
			(pickup_window_start < $3 AND pickup_window_end > $2)
			OR (delivery_window_start < $3 AND delivery_window_end > $2)
		  )`,
		string(partnerID), window.Start, window.End,
	)
	if err != nil {
		return nil, fmt.Errorf("list active orders: %w", err)
	}
	defer rows.Close()

	var out []DeliveryOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("list active orders: %w", err)
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanOrder(row pgx.Row) (*DeliveryOrder, error) {
	var o DeliveryOrder
	var partnerID, cancelReason sql.NullString
	var pwStart, pwEnd, dwStart, dwEnd sql.NullTime
	var pkg []byte
	var earnings, commission, tip int64
	var currency string
	var assignedAt, pickedUpAt, deliveredAt, cancelledAt, failedAt sql.NullTime

	err := row.Scan(
		&o.ID, &o.MarketplaceOrderID, &o.CustomerID, &partnerID,
		&o.Pickup.Label, &o.Pickup.Contact, &o.Pickup.Phone, &o.Pickup.Point.Lat, &o.Pickup.Point.Lng,
		&o.Dropoff.Label, &o.Dropoff.Contact, &o.Dropoff.Phone, &o.Dropoff.Point.Lat, &o.Dropoff.Point.Lng,
		&pwStart, &pwEnd, &dwStart, &dwEnd,
		&pkg, &o.DeliveryType, &o.Priority, &o.VehicleType,
		&o.Status, &o.StatusVersion,
		&o.Fees.DeliveryFee.Amount, &earnings, &commission, &tip, &currency,
		&o.CreatedAt, &assignedAt, &pickedUpAt, &deliveredAt, &cancelledAt, &failedAt, &cancelReason,
	)
	if err != nil {
		return nil, err
	}

	if partnerID.Valid {
		id := types.ID(partnerID.String)
		o.PartnerID = &id
	}
	if pwStart.Valid && pwEnd.Valid {
		o.PickupWindow = TimeWindow{Start: pwStart.Time, End: pwEnd.Time}
	}
	if dwStart.Valid && dwEnd.Valid {
		o.DeliveryWindow = TimeWindow{Start: dwStart.Time, End: dwEnd.Time}
	}
	if len(pkg) > 0 {
		if err := json.Unmarshal(pkg, &o.Package); err != nil {
			return nil, fmt.Errorf("decode package details: %w", err)
		}
	}
	o.Fees.DeliveryFee.Currency = currency
	o.Fees.PartnerEarnings = types.Money{Amount: earnings, Currency: currency}
	o.Fees.PlatformCommission = types.Money{Amount: commission, Currency: currency}
	o.Fees.Tip = types.Money{Amount: tip, Currency: currency}
	o.AssignedAt = toTimePtr(assignedAt)
	o.PickedUpAt = toTimePtr(pickedUpAt)
	o.DeliveredAt = toTimePtr(deliveredAt)
	o.CancelledAt = toTimePtr(cancelledAt)
	o.FailedAt = toTimePtr(failedAt)
	if cancelReason.Valid {
		o.CancelReason = &cancelReason.String
	}
	return &o, nil
}

func toStringPtr(v *types.ID) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}

func toWindowPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toTimePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}
