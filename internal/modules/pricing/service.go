// README: Pricing service: static quotes and dynamic demand/supply pricing.
package pricing

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/zoobzio/clockz"

	"dray/internal/types"
)

var ErrInvalidInput = errors.New("invalid pricing input")

type rateSource interface {
	GetRate(ctx context.Context) (Rate, error)
}

type Service struct {
	store rateSource
	clock clockz.Clock
}

// NewService builds a pricing service. A nil store means built-in default
// rates; a nil clock means wall-clock time.
func NewService(store rateSource, clock clockz.Clock) *Service {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Service{store: store, clock: clock}
}

// Quote computes the static delivery fee: (base + per-km * distance) scaled by
// the vehicle and priority factors, rounded to the nearest whole unit.
func (s *Service) Quote(ctx context.Context, distanceKm float64, vehicle types.VehicleType, priority types.Priority) (types.Money, error) {
	if distanceKm < 0 || math.IsNaN(distanceKm) {
		return types.Money{}, fmt.Errorf("%w: negative distance", ErrInvalidInput)
	}
	vf, ok := vehicleFactors[vehicle]
	if !ok {
		return types.Money{}, fmt.Errorf("%w: unknown vehicle type %q", ErrInvalidInput, vehicle)
	}

	rate := defaultRate
	if s.store != nil {
		r, err := s.store.GetRate(ctx)
		if err != nil {
			return types.Money{}, err
		}
		rate = r
	}

	raw := (float64(rate.BaseFare) + float64(rate.PerKm)*distanceKm) * vf * priorityFactor(priority)
	return types.Money{Amount: int64(math.Round(raw)), Currency: rate.Currency}, nil
}

// DynamicPrice scales a base price by demand, supply, priority, and
// time-of-day factors. All factors compose multiplicatively, so the result is
// non-decreasing in demand and non-increasing in available partners.
// hourOfDay may be -1 to use the injected clock's current hour.
func (s *Service) DynamicPrice(basePrice types.Money, demand, availablePartners int, priority types.Priority, hourOfDay int) (types.Money, error) {
	if basePrice.Amount < 0 {
		return types.Money{}, fmt.Errorf("%w: negative base price", ErrInvalidInput)
	}
	if demand < 0 || availablePartners < 0 {
		return types.Money{}, fmt.Errorf("%w: negative demand or supply", ErrInvalidInput)
	}
	if hourOfDay == -1 {
		hourOfDay = s.clock.Now().Hour()
	}
	if hourOfDay < 0 || hourOfDay > 23 {
		return types.Money{}, fmt.Errorf("%w: hour %d out of range", ErrInvalidInput, hourOfDay)
	}

	demandFactor := math.Min(demandCap, 1.0+demandStep*float64(demand))
	supplyFactor := math.Max(supplyFloor, supplyBase-supplyStep*float64(availablePartners))

	price := float64(basePrice.Amount) * demandFactor * supplyFactor * priorityFactor(priority)
	if isPeakHour(hourOfDay) {
		price *= peakFactor
	}
	if isLateNight(hourOfDay) {
		price *= lateNightFactor
	}

	currency := basePrice.Currency
	if currency == "" {
		currency = types.DefaultCurrency
	}
	return types.Money{Amount: int64(math.Round(price)), Currency: currency}, nil
}
