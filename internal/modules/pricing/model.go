// README: Pricing rate definition and fixed multiplier tables.
package pricing

import "dray/internal/types"

// Rate is the linear fare component before multipliers.
type Rate struct {
	BaseFare int64
	PerKm    int64
	Currency string
}

// defaultRate applies when no rate row is configured.
var defaultRate = Rate{BaseFare: 500, PerKm: 100, Currency: types.DefaultCurrency}

// Multiplier tables. The weights are carried over from operations as tuned
// values; treat them as calibration inputs, not invariants.
var vehicleFactors = map[types.VehicleType]float64{
	types.VehicleBicycle:    0.8,
	types.VehicleMotorcycle: 1.0,
	types.VehicleCar:        1.2,
	types.VehicleVan:        1.5,
	types.VehicleTruck:      2.0,
}

var priorityFactors = map[types.Priority]float64{
	types.PriorityScheduled: 0.9,
	types.PriorityStandard:  1.0,
	types.PriorityExpress:   1.8,
}

const (
	// Demand multiplier grows 10% per unit of demand, capped.
	demandStep = 0.1
	demandCap  = 2.0

	// Supply multiplier shrinks as more partners are available, floored.
	supplyBase  = 1.5
	supplyStep  = 0.1
	supplyFloor = 0.8

	peakFactor      = 1.2
	lateNightFactor = 1.5
)

// Rush-hour windows (inclusive), local hours.
func isPeakHour(hour int) bool {
	return (hour >= 7 && hour <= 9) || (hour >= 17 && hour <= 20)
}

// Late night is anything outside 06:00-22:00.
func isLateNight(hour int) bool {
	return hour < 6 || hour >= 22
}

func priorityFactor(p types.Priority) float64 {
	if f, ok := priorityFactors[p]; ok {
		return f
	}
	return priorityFactors[types.PriorityStandard]
}
