// README: Matching unit tests: scoring bounds, filtering, ranking, tie-breaks.
package matching

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"dray/internal/config"
	"dray/internal/modules/partner"
	"dray/internal/types"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakePartnerSource struct {
	partners   []partner.DispatchPartner
	err        error
	lastFilter partner.EligibilityFilter
}

func (f *fakePartnerSource) ListEligible(_ context.Context, filter partner.EligibilityFilter) ([]partner.DispatchPartner, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	cp := make([]partner.DispatchPartner, len(f.partners))
	copy(cp, f.partners)
	return cp, nil
}

type fakeQuoter struct{}

func (fakeQuoter) Quote(_ context.Context, distanceKm float64, _ types.VehicleType, _ types.Priority) (types.Money, error) {
	return types.NGN(500 + int64(math.Round(100*distanceKm))), nil
}

type fakeIndex struct {
	ids []types.ID
	err error
}

func (f *fakeIndex) NearbyIDs(_ context.Context, _ types.Point, _ float64) ([]types.ID, error) {
	return f.ids, f.err
}

func testCfg() config.MatchingConfig {
	return config.MatchingConfig{DefaultRadiusKm: 20, MaxResults: 10}
}

func pointAt(lat, lng float64) *types.Point {
	return &types.Point{Lat: lat, Lng: lng}
}

// eligiblePartner builds a partner that passes every filter by default.
func eligiblePartner(id string, pos *types.Point) partner.DispatchPartner {
	return partner.DispatchPartner{
		ID:               types.ID(id),
		Name:             "Partner " + id,
		VehicleType:      types.VehicleMotorcycle,
		Position:         pos,
		Online:           true,
		Active:           true,
		Approved:         true,
		VerificationTier: partner.TierStandard,
		AverageRating:    4.5,
		TotalDeliveries:  50,
		OnTimeRate:       90,
	}
}

// ---------------------------------------------------------------------------
// Scoring
// ---------------------------------------------------------------------------

// Score must stay an integer in [0, 100] across the whole input space,
// including hostile values outside documented ranges.
func TestScore_Bounds(t *testing.T) {
	ratings := []float64{-1, 0, 2.5, 5, 7}
	totals := []int{0, 50, 100, 100000}
	onTimes := []float64{-5, 0, 55, 100, 150}
	tiers := []partner.VerificationTier{partner.TierNone, partner.TierBasic, partner.TierStandard, partner.TierPremium, "gold"}
	distances := []float64{0, 5, 19.9, 20, 35}

	c := Criteria{
		Location:        types.Point{Lat: 6.53, Lng: 3.38},
		VehicleType:     types.VehicleMotorcycle,
		Specializations: []string{"fragile", "cold_chain"},
	}

	for _, r := range ratings {
		for _, tot := range totals {
			for _, ot := range onTimes {
				for _, tier := range tiers {
					for _, d := range distances {
						p := eligiblePartner("p", pointAt(6.52, 3.37))
						p.AverageRating = r
						p.TotalDeliveries = tot
						p.OnTimeRate = ot
						p.VerificationTier = tier
						p.Specializations = []string{"fragile", "cold_chain", "oversize"}

						got := Score(&p, c, d)
						if got < 0 || got > 100 {
							t.Fatalf("Score out of bounds: %d (rating=%v total=%d onTime=%v tier=%s d=%v)",
								got, r, tot, ot, tier, d)
						}
					}
				}
			}
		}
	}
}

func TestScore_Terms(t *testing.T) {
	c := Criteria{Location: types.Point{Lat: 6.53, Lng: 3.38}, MaxDistanceKm: 20}

	tests := []struct {
		name  string
		mut   func(*partner.DispatchPartner)
		crit  Criteria
		dist  float64
		want  int
	}{
		{
			name: "floor: offline unverified novice at the radius edge",
			mut: func(p *partner.DispatchPartner) {
				p.Online = false
				p.Approved = false
				p.AverageRating = 0
				p.TotalDeliveries = 0
				p.OnTimeRate = 0
			},
			crit: c, dist: 20,
			want: 0,
		},
		{
			name: "distance term decays linearly",
			mut: func(p *partner.DispatchPartner) {
				p.Online = false
				p.Approved = false
				p.AverageRating = 0
				p.TotalDeliveries = 0
				p.OnTimeRate = 0
			},
			crit: c, dist: 10,
			// half the radius left: 30 * 0.5
			want: 15,
		},
		{
			name: "rating term alone",
			mut: func(p *partner.DispatchPartner) {
				p.Online = false
				p.Approved = false
				p.AverageRating = 4
				p.TotalDeliveries = 0
				p.OnTimeRate = 0
			},
			crit: c, dist: 20,
			// 25 * 4/5
			want: 20,
		},
		{
			name: "experience saturates at 100 deliveries",
			mut: func(p *partner.DispatchPartner) {
				p.Online = false
				p.Approved = false
				p.AverageRating = 0
				p.TotalDeliveries = 5000
				p.OnTimeRate = 0
			},
			crit: c, dist: 20,
			want: 20,
		},
		{
			name: "vehicle match and specialization overlap",
			mut: func(p *partner.DispatchPartner) {
				p.Online = false
				p.Approved = false
				p.AverageRating = 0
				p.TotalDeliveries = 0
				p.OnTimeRate = 0
				p.VehicleType = types.VehicleVan
				p.Specializations = []string{"fragile", "cold_chain"}
			},
			crit: Criteria{
				Location:        c.Location,
				MaxDistanceKm:   20,
				VehicleType:     types.VehicleVan,
				Specializations: []string{"fragile", "cold_chain", "oversize"},
			},
			dist: 20,
			// +5 vehicle, +3 per overlapping tag
			want: 11,
		},
		{
			name: "premium verification and online bonuses",
			mut: func(p *partner.DispatchPartner) {
				p.AverageRating = 0
				p.TotalDeliveries = 0
				p.OnTimeRate = 0
				p.VerificationTier = partner.TierPremium
			},
			crit: c, dist: 20,
			// +10 premium, +5 online
			want: 15,
		},
		{
			name: "everything maxed clamps at 100",
			mut: func(p *partner.DispatchPartner) {
				p.AverageRating = 5
				p.TotalDeliveries = 100
				p.OnTimeRate = 100
				p.VerificationTier = partner.TierPremium
				p.Specializations = []string{"fragile"}
			},
			crit: Criteria{
				Location:        c.Location,
				MaxDistanceKm:   20,
				VehicleType:     types.VehicleMotorcycle,
				Specializations: []string{"fragile"},
			},
			dist: 0,
			want: 100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := eligiblePartner("p", pointAt(6.52, 3.37))
			tt.mut(&p)
			if got := Score(&p, tt.crit, tt.dist); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

// A partner roughly 600m from the request location must come back with its
// computed distance well under a kilometre.
func TestFindNearestPartners_NearbyPartnerIncluded(t *testing.T) {
	src := &fakePartnerSource{partners: []partner.DispatchPartner{
		eligiblePartner("p1", pointAt(6.5244, 3.3792)),
	}}
	svc := NewService(src, fakeQuoter{}, testCfg())

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location:      types.Point{Lat: 6.5300, Lng: 3.3800},
		Priority:      types.PriorityStandard,
		MaxDistanceKm: 20,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	m := matches[0]
	if m.DistanceKm <= 0 || m.DistanceKm > 1.0 {
		t.Errorf("distance = %f, want under 1km", m.DistanceKm)
	}
	if m.EstimatedMinutes <= 0 {
		t.Errorf("estimated minutes = %d, want positive", m.EstimatedMinutes)
	}
	if m.Cost.Amount <= 0 {
		t.Errorf("cost = %d, want positive", m.Cost.Amount)
	}
	if m.Score < 0 || m.Score > 100 {
		t.Errorf("score = %d, want within [0,100]", m.Score)
	}
}

func TestFindNearestPartners_Filters(t *testing.T) {
	lagos := types.Point{Lat: 6.5244, Lng: 3.3792}
	abuja := pointAt(9.0765, 7.3986) // far outside any sane radius

	noLocation := eligiblePartner("no-location", nil)

	tooFar := eligiblePartner("too-far", abuja)

	wrongVehicle := eligiblePartner("wrong-vehicle", pointAt(6.53, 3.38))
	wrongVehicle.VehicleType = types.VehicleTruck

	outOfArea := eligiblePartner("out-of-area", pointAt(6.6018, 3.3515)) // ~9km away
	outOfArea.ServiceAreas = []partner.ServiceArea{{Name: "Island", RadiusKm: 2}}

	keeper := eligiblePartner("keeper", pointAt(6.5300, 3.3800))

	src := &fakePartnerSource{partners: []partner.DispatchPartner{
		noLocation, tooFar, wrongVehicle, outOfArea, keeper,
	}}
	svc := NewService(src, fakeQuoter{}, testCfg())

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location:    lagos,
		VehicleType: types.VehicleMotorcycle,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Partner.ID != "keeper" {
		ids := make([]types.ID, len(matches))
		for i, m := range matches {
			ids[i] = m.Partner.ID
		}
		t.Fatalf("expected only keeper, got %v", ids)
	}
	for _, m := range matches {
		if m.DistanceKm > 20 {
			t.Errorf("match %s beyond max distance: %f", m.Partner.ID, m.DistanceKm)
		}
	}
}

func TestFindNearestPartners_EmptyPoolIsNotAnError(t *testing.T) {
	svc := NewService(&fakePartnerSource{}, fakeQuoter{}, testCfg())

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location: types.Point{Lat: 6.52, Lng: 3.38},
	})
	if err != nil {
		t.Fatalf("empty pool must not error, got %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected no matches, got %d", len(matches))
	}
}

func TestFindNearestPartners_StoreFailurePropagates(t *testing.T) {
	boom := errors.New("pool exhausted")
	svc := NewService(&fakePartnerSource{err: boom}, fakeQuoter{}, testCfg())

	_, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location: types.Point{Lat: 6.52, Lng: 3.38},
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected store failure to propagate, got %v", err)
	}
}

func TestFindNearestPartners_RankingByScore(t *testing.T) {
	// Strong partner further out, weak partner close by; gap far exceeds the
	// tie band so score order must win.
	strong := eligiblePartner("strong", pointAt(6.57, 3.38)) // ~5km
	strong.AverageRating = 5
	strong.TotalDeliveries = 100
	strong.OnTimeRate = 100
	strong.VerificationTier = partner.TierPremium

	weak := eligiblePartner("weak", pointAt(6.5300, 3.3800)) // <1km
	weak.AverageRating = 1
	weak.TotalDeliveries = 0
	weak.OnTimeRate = 10
	weak.Approved = true
	weak.VerificationTier = partner.TierNone
	weak.Online = false

	src := &fakePartnerSource{partners: []partner.DispatchPartner{weak, strong}}
	svc := NewService(src, fakeQuoter{}, testCfg())

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location: types.Point{Lat: 6.5244, Lng: 3.3792},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Partner.ID != "strong" {
		t.Errorf("expected strong first, got %s", matches[0].Partner.ID)
	}
	if matches[0].Score-matches[1].Score < tieBreakBand {
		t.Fatalf("test setup broken: gap %d inside the tie band", matches[0].Score-matches[1].Score)
	}
}

// Within the tie band the closer candidate outranks the higher score.
func TestFindNearestPartners_TieBandPrefersCloser(t *testing.T) {
	request := types.Point{Lat: 6.5244, Lng: 3.3792}

	higher := eligiblePartner("higher-score", pointAt(6.5514, 3.3792)) // ~3km
	higher.AverageRating = 4.8
	higher.TotalDeliveries = 100
	higher.OnTimeRate = 90

	closer := eligiblePartner("closer", pointAt(6.5334, 3.3792)) // ~1km
	closer.AverageRating = 4.6
	closer.TotalDeliveries = 90
	closer.OnTimeRate = 85
	closer.VerificationTier = partner.TierBasic

	c := Criteria{Location: request, MaxDistanceKm: 20}

	// Sanity-check the engineered scores: the farther partner scores higher,
	// but inside the tie band.
	sHigher := Score(&higher, c, 3.0)
	sCloser := Score(&closer, c, 1.0)
	if sHigher <= sCloser {
		t.Fatalf("test setup broken: farther partner must out-score closer (%d vs %d)", sHigher, sCloser)
	}
	if sHigher-sCloser >= tieBreakBand {
		t.Fatalf("test setup broken: gap %d not inside tie band", sHigher-sCloser)
	}

	src := &fakePartnerSource{partners: []partner.DispatchPartner{higher, closer}}
	svc := NewService(src, fakeQuoter{}, testCfg())

	matches, err := svc.FindNearestPartners(context.Background(), c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Partner.ID != "closer" {
		t.Errorf("expected closer partner first inside tie band, got %s", matches[0].Partner.ID)
	}
}

func TestFindNearestPartners_CapsResults(t *testing.T) {
	var pool []partner.DispatchPartner
	for i := 0; i < 15; i++ {
		p := eligiblePartner(fmt.Sprintf("p%02d", i), pointAt(6.5244+float64(i)*0.001, 3.3792))
		pool = append(pool, p)
	}
	src := &fakePartnerSource{partners: pool}
	svc := NewService(src, fakeQuoter{}, testCfg())

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location: types.Point{Lat: 6.5244, Lng: 3.3792},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 10 {
		t.Errorf("expected capped 10 results, got %d", len(matches))
	}
}

func TestFindNearestPartners_InvalidCriteria(t *testing.T) {
	svc := NewService(&fakePartnerSource{}, fakeQuoter{}, testCfg())

	cases := []struct {
		name string
		c    Criteria
	}{
		{"bad latitude", Criteria{Location: types.Point{Lat: 95, Lng: 3.38}}},
		{"negative max distance", Criteria{Location: types.Point{Lat: 6.52, Lng: 3.38}, MaxDistanceKm: -1}},
		{"rating above five", Criteria{Location: types.Point{Lat: 6.52, Lng: 3.38}, RequiredRating: 6}},
		{"unknown vehicle", Criteria{Location: types.Point{Lat: 6.52, Lng: 3.38}, VehicleType: "jetski"}},
		{"unknown priority", Criteria{Location: types.Point{Lat: 6.52, Lng: 3.38}, Priority: "yesterday"}},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.FindNearestPartners(context.Background(), tt.c); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestFindNearestPartners_RatingFilterPushedToStore(t *testing.T) {
	src := &fakePartnerSource{}
	svc := NewService(src, fakeQuoter{}, testCfg())

	_, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location:       types.Point{Lat: 6.52, Lng: 3.38},
		RequiredRating: 4.5,
		VehicleType:    types.VehicleVan,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if src.lastFilter.MinRating != 4.5 || src.lastFilter.VehicleType != types.VehicleVan {
		t.Errorf("filter not forwarded to store: %+v", src.lastFilter)
	}
}

func TestFindNearestPartners_NearbyIndexPrefilter(t *testing.T) {
	a := eligiblePartner("a", pointAt(6.5300, 3.3800))
	b := eligiblePartner("b", pointAt(6.5310, 3.3810))

	src := &fakePartnerSource{partners: []partner.DispatchPartner{a, b}}
	svc := NewService(src, fakeQuoter{}, testCfg()).
		WithNearbyIndex(&fakeIndex{ids: []types.ID{"a"}})

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location: types.Point{Lat: 6.5244, Lng: 3.3792},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 || matches[0].Partner.ID != "a" {
		t.Errorf("expected index to narrow pool to a, got %d matches", len(matches))
	}
}

func TestFindNearestPartners_IndexFailureFallsBack(t *testing.T) {
	a := eligiblePartner("a", pointAt(6.5300, 3.3800))
	src := &fakePartnerSource{partners: []partner.DispatchPartner{a}}
	svc := NewService(src, fakeQuoter{}, testCfg()).
		WithNearbyIndex(&fakeIndex{err: errors.New("redis down")})

	matches, err := svc.FindNearestPartners(context.Background(), Criteria{
		Location: types.Point{Lat: 6.5244, Lng: 3.3792},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(matches) != 1 {
		t.Errorf("index outage must not block matching, got %d matches", len(matches))
	}
}
