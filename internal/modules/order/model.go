// README: Delivery order aggregate, status state machine, and tracking events.
package order

import (
	"time"

	"dray/internal/types"
)

type Status string

const (
	StatusPending            Status = "pending"
	StatusAssigned           Status = "assigned"
	StatusPickupInProgress   Status = "pickup_in_progress"
	StatusPickedUp           Status = "picked_up"
	StatusDeliveryInProgress Status = "delivery_in_progress"
	StatusDelivered          Status = "delivered"
	StatusCancelled          Status = "cancelled"
	StatusFailed             Status = "failed"
)

// AllowedTransitions represents the delivery state flow (diagram) as code.
// Cancelled and failed are reachable from every non-terminal state; backward
// edges do not exist.
var AllowedTransitions = map[Status][]Status{
	StatusPending:            {StatusAssigned, StatusCancelled, StatusFailed},
	StatusAssigned:           {StatusPickupInProgress, StatusCancelled, StatusFailed},
	StatusPickupInProgress:   {StatusPickedUp, StatusCancelled, StatusFailed},
	StatusPickedUp:           {StatusDeliveryInProgress, StatusCancelled, StatusFailed},
	StatusDeliveryInProgress: {StatusDelivered, StatusCancelled, StatusFailed},
}

func CanTransition(from, to Status) bool {
	next, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range next {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions exist.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled || s == StatusFailed
}

// Active reports whether the order occupies the assigned partner's schedule.
func (s Status) Active() bool {
	switch s {
	case StatusAssigned, StatusPickupInProgress, StatusPickedUp, StatusDeliveryInProgress:
		return true
	}
	return false
}

// TimeWindow is a half-open interval [Start, End).
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w TimeWindow) Valid() bool {
	return !w.Start.IsZero() && w.End.After(w.Start)
}

func (w TimeWindow) Zero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

func (w TimeWindow) Overlaps(o TimeWindow) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

// Address is a stop with contact info and a resolved coordinate.
type Address struct {
	Label   string      `json:"label"`
	Contact string      `json:"contact"`
	Phone   string      `json:"phone"`
	Point   types.Point `json:"point"`
}

type PackageDetails struct {
	WeightKg          float64 `json:"weight_kg"`
	LengthCm          float64 `json:"length_cm"`
	WidthCm           float64 `json:"width_cm"`
	HeightCm          float64 `json:"height_cm"`
	DeclaredValue     int64   `json:"declared_value"`
	Fragile           bool    `json:"fragile"`
	SignatureRequired bool    `json:"signature_required"`
}

type FeeBreakdown struct {
	DeliveryFee        types.Money `json:"delivery_fee"`
	PartnerEarnings    types.Money `json:"partner_earnings"`
	PlatformCommission types.Money `json:"platform_commission"`
	Tip                types.Money `json:"tip"`
}

// TrackingEvent is one entry of the append-only delivery audit trail.
type TrackingEvent struct {
	ID        types.ID     `json:"id"`
	OrderID   types.ID     `json:"order_id"`
	Status    Status       `json:"status"`
	Position  *types.Point `json:"location,omitempty"`
	Note      string       `json:"note,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type DeliveryOrder struct {
	ID                 types.ID
	MarketplaceOrderID types.ID
	CustomerID         types.ID
	PartnerID          *types.ID

	Pickup         Address
	Dropoff        Address
	PickupWindow   TimeWindow
	DeliveryWindow TimeWindow
	Package        PackageDetails

	DeliveryType string
	Priority     types.Priority
	VehicleType  types.VehicleType

	Status        Status
	StatusVersion int
	Fees          FeeBreakdown

	CreatedAt    time.Time
	AssignedAt   *time.Time
	PickedUpAt   *time.Time
	DeliveredAt  *time.Time
	CancelledAt  *time.Time
	FailedAt     *time.Time
	CancelReason *string
}
