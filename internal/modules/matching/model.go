// README: Matching criteria and result types; ephemeral, never persisted.
package matching

import (
	"dray/internal/modules/partner"
	"dray/internal/types"
)

// Criteria describes one "find partners for this request" call.
type Criteria struct {
	Location        types.Point       `json:"location"`
	DeliveryType    string            `json:"delivery_type"`
	Priority        types.Priority    `json:"priority"`
	VehicleType     types.VehicleType `json:"vehicle_type,omitempty"`
	MaxDistanceKm   float64           `json:"max_distance"`
	RequiredRating  float64           `json:"required_rating"`
	Specializations []string          `json:"specializations,omitempty"`
}

// Match is one ranked candidate.
type Match struct {
	Partner          partner.DispatchPartner `json:"partner"`
	DistanceKm       float64                 `json:"distance"`
	EstimatedMinutes int                     `json:"estimated_time"`
	Score            int                     `json:"score"`
	Cost             types.Money             `json:"cost"`
}

const (
	// fallbackRadiusKm applies when neither the criteria nor the config set a
	// search radius.
	fallbackRadiusKm = 20.0
	// fallbackMaxResults caps the ranked result list.
	fallbackMaxResults = 10
	// tieBreakBand is the score gap below which ascending distance, not score,
	// decides ranking order.
	tieBreakBand = 5
)
