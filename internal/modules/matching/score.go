// README: Suitability scoring: weighted partner attributes into a bounded integer.
package matching

import (
	"math"

	"dray/internal/modules/partner"
)

// Term weights. Carried over from operations as tuned values; calibration
// inputs rather than hard business rules.
const (
	distanceWeight    = 30.0
	ratingWeight      = 25.0
	experienceWeight  = 20.0
	reliabilityWeight = 15.0

	premiumVerifiedBonus  = 10.0
	standardVerifiedBonus = 7.0
	baseVerifiedBonus     = 5.0

	vehicleMatchBonus   = 5.0
	specializationBonus = 3.0
	onlineBonus         = 5.0

	// experienceCeiling is the delivery count at which the experience term
	// saturates.
	experienceCeiling = 100.0
)

// Score rates how well a partner suits the request, as an integer in [0, 100].
// Absent optional attributes contribute their minimum; there are no failure
// modes.
func Score(p *partner.DispatchPartner, c Criteria, distanceKm float64) int {
	maxDist := c.MaxDistanceKm
	if maxDist <= 0 {
		maxDist = fallbackRadiusKm
	}

	var score float64

	if distanceKm < maxDist {
		score += distanceWeight * (1 - distanceKm/maxDist)
	}
	score += ratingWeight * clamp(p.AverageRating, 0, 5) / 5
	score += experienceWeight * math.Min(float64(p.TotalDeliveries), experienceCeiling) / experienceCeiling
	score += reliabilityWeight * clamp(p.OnTimeRate, 0, 100) / 100
	score += verificationBonus(p)
	if c.VehicleType != "" && c.VehicleType == p.VehicleType {
		score += vehicleMatchBonus
	}
	score += specializationBonus * float64(overlapCount(c.Specializations, p.Specializations))
	if p.Online {
		score += onlineBonus
	}

	n := int(math.Round(score))
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

func verificationBonus(p *partner.DispatchPartner) float64 {
	if !p.Approved {
		return 0
	}
	switch p.VerificationTier {
	case partner.TierPremium:
		return premiumVerifiedBonus
	case partner.TierStandard:
		return standardVerifiedBonus
	case partner.TierNone, partner.TierBasic:
		return baseVerifiedBonus
	default:
		return 0
	}
}

func overlapCount(want, have []string) int {
	if len(want) == 0 || len(have) == 0 {
		return 0
	}
	set := make(map[string]bool, len(have))
	for _, s := range have {
		set[s] = true
	}
	n := 0
	for _, s := range want {
		if set[s] {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
