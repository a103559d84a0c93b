// README: Greedy nearest-neighbor route optimizer for batched deliveries.
package routing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"dray/internal/geo"
	"dray/internal/modules/order"
	"dray/internal/modules/partner"
	"dray/internal/types"
)

var (
	ErrInvalidInput = errors.New("invalid route request")
	ErrNotFound     = errors.New("route input not found")
)

type partnerSource interface {
	Get(ctx context.Context, id types.ID) (*partner.DispatchPartner, error)
}

type orderSource interface {
	GetByIDs(ctx context.Context, ids []types.ID) ([]order.DeliveryOrder, error)
}

type Service struct {
	partners partnerSource
	orders   orderSource
}

func NewService(partners partnerSource, orders orderSource) *Service {
	return &Service{partners: partners, orders: orders}
}

// Optimize plans a visiting order for the partner's pending deliveries using
// nearest-neighbor: from the current position, always drive to the closest
// unvisited pickup, drop the package, repeat from the dropoff. The result is
// a permutation of the requested orders; greedy is not globally optimal but
// never worse than visiting in request order for the next-leg choice.
func (s *Service) Optimize(ctx context.Context, partnerID types.ID, orderIDs []types.ID) (*Plan, error) {
	if partnerID == "" {
		return nil, fmt.Errorf("%w: missing partner id", ErrInvalidInput)
	}
	if len(orderIDs) == 0 {
		return nil, fmt.Errorf("%w: no orders to route", ErrInvalidInput)
	}
	if hasDuplicates(orderIDs) {
		return nil, fmt.Errorf("%w: duplicate order ids", ErrInvalidInput)
	}

	p, err := s.partners.Get(ctx, partnerID)
	if errors.Is(err, partner.ErrNotFound) {
		return nil, fmt.Errorf("%w: partner %s", ErrNotFound, partnerID)
	}
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	if p.Position == nil {
		return nil, fmt.Errorf("%w: partner %s has no known position", ErrInvalidInput, partnerID)
	}

	orders, err := s.orders.GetByIDs(ctx, orderIDs)
	if err != nil {
		return nil, fmt.Errorf("optimize route: %w", err)
	}
	if len(orders) != len(orderIDs) {
		return nil, fmt.Errorf("%w: %d of %d orders unknown", ErrNotFound, len(orderIDs)-len(orders), len(orderIDs))
	}

	stops, totalKm := planNearestNeighbor(*p.Position, orders)

	minutes := 0
	for i := range stops {
		stops[i].LegMinutes = int(math.Round(geo.TravelTimeMinutes(stops[i].LegKm, p.VehicleType)))
		minutes += stops[i].LegMinutes
	}

	return &Plan{
		PartnerID:        partnerID,
		Stops:            stops,
		TotalDistanceKm:  totalKm,
		EstimatedMinutes: minutes,
	}, nil
}

// planNearestNeighbor orders deliveries greedily by pickup proximity. Ties on
// distance break by order ID so plans are deterministic.
func planNearestNeighbor(start types.Point, orders []order.DeliveryOrder) ([]Stop, float64) {
	remaining := make([]order.DeliveryOrder, len(orders))
	copy(remaining, orders)

	stops := make([]Stop, 0, len(remaining))
	at := start
	total := 0.0

	for len(remaining) > 0 {
		best := 0
		bestDist := geo.DistanceKm(at, remaining[0].Pickup.Point)
		for i := 1; i < len(remaining); i++ {
			d := geo.DistanceKm(at, remaining[i].Pickup.Point)
			if d < bestDist || (d == bestDist && remaining[i].ID < remaining[best].ID) {
				best, bestDist = i, d
			}
		}

		o := remaining[best]
		remaining = append(remaining[:best], remaining[best+1:]...)

		legKm := bestDist + geo.DistanceKm(o.Pickup.Point, o.Dropoff.Point)
		stops = append(stops, Stop{
			OrderID: o.ID,
			Pickup:  o.Pickup.Point,
			Dropoff: o.Dropoff.Point,
			LegKm:   legKm,
		})
		total += legKm
		at = o.Dropoff.Point
	}
	return stops, total
}

func hasDuplicates(ids []types.ID) bool {
	seen := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return true
		}
		seen[id] = true
	}
	return false
}
