// README: Matching orchestrator: eligibility, filtering, scoring, ranking, pricing.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"dray/internal/config"
	"dray/internal/geo"
	"dray/internal/modules/partner"
	"dray/internal/types"
)

var ErrInvalidInput = errors.New("invalid matching criteria")

type partnerSource interface {
	ListEligible(ctx context.Context, f partner.EligibilityFilter) ([]partner.DispatchPartner, error)
}

type nearbyIndex interface {
	NearbyIDs(ctx context.Context, p types.Point, radiusKm float64) ([]types.ID, error)
}

type quoter interface {
	Quote(ctx context.Context, distanceKm float64, vehicle types.VehicleType, priority types.Priority) (types.Money, error)
}

type Service struct {
	partners partnerSource
	pricing  quoter
	index    nearbyIndex
	cfg      config.MatchingConfig
}

func NewService(partners partnerSource, pricing quoter, cfg config.MatchingConfig) *Service {
	return &Service{partners: partners, pricing: pricing, cfg: cfg}
}

// WithNearbyIndex attaches a geo index used as a best-effort radius prefilter.
// Matching still works without one; the index only shrinks the candidate pool
// before exact distance computation.
func (s *Service) WithNearbyIndex(idx nearbyIndex) *Service {
	s.index = idx
	return s
}

// FindNearestPartners returns up to the configured number of ranked
// candidates. An empty list is a valid outcome, not an error: the caller
// should broaden criteria or queue the request.
func (s *Service) FindNearestPartners(ctx context.Context, c Criteria) ([]Match, error) {
	if err := validateCriteria(c); err != nil {
		return nil, err
	}

	maxDist := c.MaxDistanceKm
	if maxDist <= 0 {
		maxDist = s.cfg.DefaultRadiusKm
	}
	if maxDist <= 0 {
		maxDist = fallbackRadiusKm
	}

	candidates, err := s.partners.ListEligible(ctx, partner.EligibilityFilter{
		MinRating:   c.RequiredRating,
		VehicleType: c.VehicleType,
	})
	if err != nil {
		return nil, fmt.Errorf("find partners: %w", err)
	}

	candidates = s.prefilterNearby(ctx, candidates, c.Location, maxDist)

	matches := make([]Match, 0, len(candidates))
	for i := range candidates {
		p := &candidates[i]
		if p.Position == nil {
			continue
		}
		d := geo.DistanceKm(*p.Position, c.Location)
		if d > maxDist {
			continue
		}
		if c.VehicleType != "" && p.VehicleType != c.VehicleType {
			continue
		}
		if !p.CoversDistance(d) {
			continue
		}

		cost, err := s.pricing.Quote(ctx, d, p.VehicleType, c.Priority)
		if err != nil {
			return nil, fmt.Errorf("find partners: price candidate %s: %w", p.ID, err)
		}

		matches = append(matches, Match{
			Partner:          *p,
			DistanceKm:       d,
			EstimatedMinutes: int(math.Round(geo.TravelTimeMinutes(d, p.VehicleType))),
			Score:            Score(p, c, d),
			Cost:             cost,
		})
	}

	rankMatches(matches)

	limit := s.cfg.MaxResults
	if limit <= 0 {
		limit = fallbackMaxResults
	}
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// prefilterNearby intersects candidates with the geo index when one is
// configured and answering. Any index failure falls back to the full pool so
// that a Redis outage never blocks matching.
func (s *Service) prefilterNearby(ctx context.Context, candidates []partner.DispatchPartner, at types.Point, radiusKm float64) []partner.DispatchPartner {
	if s.index == nil || len(candidates) == 0 {
		return candidates
	}
	ids, err := s.index.NearbyIDs(ctx, at, radiusKm)
	if err != nil {
		return candidates
	}
	near := make(map[types.ID]bool, len(ids))
	for _, id := range ids {
		near[id] = true
	}
	kept := candidates[:0]
	for _, p := range candidates {
		// Partners absent from the index have never reported a position via
		// the hot path; keep them and let the exact filter decide.
		if p.Position == nil || near[p.ID] {
			kept = append(kept, p)
		}
	}
	return kept
}

// rankMatches sorts by descending score; inside a tie band of tieBreakBand
// points the closer candidate wins.
func rankMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		di := matches[i].Score - matches[j].Score
		if di < 0 {
			di = -di
		}
		if di < tieBreakBand {
			return matches[i].DistanceKm < matches[j].DistanceKm
		}
		return matches[i].Score > matches[j].Score
	})
}

func validateCriteria(c Criteria) error {
	if !c.Location.Valid() {
		return fmt.Errorf("%w: coordinates out of range", ErrInvalidInput)
	}
	if c.MaxDistanceKm < 0 {
		return fmt.Errorf("%w: negative max distance", ErrInvalidInput)
	}
	if c.RequiredRating < 0 || c.RequiredRating > 5 {
		return fmt.Errorf("%w: required rating outside 0..5", ErrInvalidInput)
	}
	if c.VehicleType != "" && !c.VehicleType.Known() {
		return fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, c.VehicleType)
	}
	if c.Priority != "" && !c.Priority.Known() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidInput, c.Priority)
	}
	return nil
}
