// README: Operational dashboard snapshot types.
package stats

import "time"

// Outcome is the slice of a terminal order the aggregator needs: what it
// ended as and how long the delivery leg took.
type Outcome struct {
	Status      string
	AssignedAt  *time.Time
	DeliveredAt *time.Time
}

// Snapshot is a point-in-time view of marketplace health. AverageDeliveryMinutes
// and CompletionRate cover the trailing window; zero values mean no data, not
// a perfect score.
type Snapshot struct {
	ActiveDeliveries       int       `json:"active_deliveries"`
	OnlinePartners         int       `json:"online_partners"`
	AverageDeliveryMinutes float64   `json:"average_delivery_minutes"`
	CompletionRate         float64   `json:"completion_rate"`
	WindowStart            time.Time `json:"window_start"`
	GeneratedAt            time.Time `json:"generated_at"`
}
