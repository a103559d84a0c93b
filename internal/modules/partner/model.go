// README: Dispatch partner aggregate: identity, vehicle, standing, and coverage.
package partner

import (
	"time"

	"dray/internal/types"
)

type VerificationTier string

const (
	TierNone     VerificationTier = "none"
	TierBasic    VerificationTier = "basic"
	TierStandard VerificationTier = "standard"
	TierPremium  VerificationTier = "premium"
)

// ServiceArea is a named coverage zone with a radius in kilometres.
type ServiceArea struct {
	Name     string  `json:"name"`
	RadiusKm float64 `json:"radius_km"`
}

type DispatchPartner struct {
	ID          types.ID          `json:"id"`
	Name        string            `json:"name"`
	Phone       string            `json:"phone,omitempty"`
	VehicleType types.VehicleType `json:"vehicle_type"`

	// Position is nil until the partner reports a first location.
	Position   *types.Point `json:"position,omitempty"`
	PositionAt *time.Time   `json:"position_at,omitempty"`

	Online   bool `json:"online"`
	Active   bool `json:"active"`
	Approved bool `json:"approved"`

	VerificationTier    VerificationTier `json:"verification_tier"`
	AverageRating       float64          `json:"average_rating"` // 0..5
	TotalDeliveries     int              `json:"total_deliveries"`
	CompletedDeliveries int              `json:"completed_deliveries"`
	CancelledDeliveries int              `json:"cancelled_deliveries"`
	OnTimeRate          float64          `json:"on_time_rate"` // 0..100

	ServiceAreas    []ServiceArea `json:"service_areas,omitempty"`
	Specializations []string      `json:"specializations,omitempty"`
	CommissionRate  float64       `json:"-"`

	// CurrentOrderID is set while an order is assigned; assignment is
	// conditional on it being empty.
	CurrentOrderID *types.ID `json:"current_order_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// CoversDistance reports whether any declared service area reaches the given
// distance. Partners with no declared areas cover everything.
func (p *DispatchPartner) CoversDistance(km float64) bool {
	if len(p.ServiceAreas) == 0 {
		return true
	}
	for _, a := range p.ServiceAreas {
		if a.RadiusKm >= km {
			return true
		}
	}
	return false
}

// EligibilityFilter narrows the partner set fetched for matching.
type EligibilityFilter struct {
	MinRating   float64
	VehicleType types.VehicleType // empty means any
}

// LocationUpdate is a single position report from a partner device.
type LocationUpdate struct {
	PartnerID types.ID    `json:"partner_id"`
	Position  types.Point `json:"location"`
	Timestamp time.Time   `json:"timestamp"`
}
