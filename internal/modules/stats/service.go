// README: Statistics aggregator for the operations dashboard.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/zoobzio/clockz"
)

// trailingWindow is how far back delivery-time and completion figures look.
const trailingWindow = 7 * 24 * time.Hour

type orderMetrics interface {
	CountActiveDeliveries(ctx context.Context) (int, error)
	ListOutcomes(ctx context.Context, since time.Time) ([]Outcome, error)
}

type partnerMetrics interface {
	CountOnline(ctx context.Context) (int, error)
}

type Service struct {
	orders   orderMetrics
	partners partnerMetrics
	clock    clockz.Clock
}

func NewService(orders orderMetrics, partners partnerMetrics, clock clockz.Clock) *Service {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{orders: orders, partners: partners, clock: clock}
}

// Snapshot aggregates live counts with trailing-window figures. Delivery time
// averages only orders with both assignment and delivery stamps; completion
// rate is delivered over all terminal outcomes in the window.
func (s *Service) Snapshot(ctx context.Context) (*Snapshot, error) {
	now := s.clock.Now()
	since := now.Add(-trailingWindow)

	active, err := s.orders.CountActiveDeliveries(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats snapshot: %w", err)
	}
	online, err := s.partners.CountOnline(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats snapshot: %w", err)
	}
	outcomes, err := s.orders.ListOutcomes(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("stats snapshot: %w", err)
	}

	var (
		delivered    int
		timedSamples int
		totalMinutes float64
	)
	for _, o := range outcomes {
		if o.Status == "delivered" {
			delivered++
			if o.AssignedAt != nil && o.DeliveredAt != nil && o.DeliveredAt.After(*o.AssignedAt) {
				timedSamples++
				totalMinutes += o.DeliveredAt.Sub(*o.AssignedAt).Minutes()
			}
		}
	}

	snap := &Snapshot{
		ActiveDeliveries: active,
		OnlinePartners:   online,
		WindowStart:      since,
		GeneratedAt:      now,
	}
	if timedSamples > 0 {
		snap.AverageDeliveryMinutes = totalMinutes / float64(timedSamples)
	}
	if len(outcomes) > 0 {
		snap.CompletionRate = float64(delivered) / float64(len(outcomes))
	}
	return snap, nil
}
