// README: Route plan types for multi-delivery partner runs.
package routing

import "dray/internal/types"

// Stop is one delivery on a planned run: drive to the pickup, then to the
// dropoff.
type Stop struct {
	OrderID    types.ID    `json:"order_id"`
	Pickup     types.Point `json:"pickup"`
	Dropoff    types.Point `json:"dropoff"`
	LegKm      float64     `json:"leg_km"`
	LegMinutes int         `json:"leg_minutes"`
}

// Plan is an ordered visiting sequence over a set of deliveries. Stops always
// hold exactly the requested orders, reordered.
type Plan struct {
	PartnerID        types.ID `json:"partner_id"`
	Stops            []Stop   `json:"stops"`
	TotalDistanceKm  float64  `json:"total_distance_km"`
	EstimatedMinutes int      `json:"estimated_minutes"`
}
