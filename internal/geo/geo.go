// README: Pure geographic math: great-circle distance and static travel-time estimates.
package geo

import (
	"math"

	"dray/internal/types"
)

const earthRadiusKm = 6371.0

// handlingBufferMin covers pickup and drop-off overhead on top of travel time.
const handlingBufferMin = 12.0

// Average speeds in km/h per vehicle type. Static by design: the engine does
// not do traffic-aware ETA.
var vehicleSpeedKmh = map[types.VehicleType]float64{
	types.VehicleBicycle:    15,
	types.VehicleMotorcycle: 35,
	types.VehicleCar:        25,
	types.VehicleVan:        22,
	types.VehicleTruck:      18,
}

// DistanceKm returns the haversine distance in kilometres between two points
// given in decimal degrees.
func DistanceKm(a, b types.Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// TravelTimeMinutes estimates door-to-door minutes for a distance and vehicle.
// Unknown vehicle types fall back to the car speed.
func TravelTimeMinutes(distanceKm float64, v types.VehicleType) float64 {
	speed, ok := vehicleSpeedKmh[v]
	if !ok {
		speed = vehicleSpeedKmh[types.VehicleCar]
	}
	return distanceKm/speed*60 + handlingBufferMin
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
