// README: Shared identifiers, coordinates, and closed enums used across modules.
package types

type ID string

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// VehicleType is the closed set of vehicles a dispatch partner can register.
type VehicleType string

const (
	VehicleBicycle    VehicleType = "bicycle"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleCar        VehicleType = "car"
	VehicleVan        VehicleType = "van"
	VehicleTruck      VehicleType = "truck"
)

func (v VehicleType) Known() bool {
	switch v {
	case VehicleBicycle, VehicleMotorcycle, VehicleCar, VehicleVan, VehicleTruck:
		return true
	}
	return false
}

// Priority orders how urgently a delivery request should be served.
type Priority string

const (
	PriorityExpress   Priority = "express"
	PriorityStandard  Priority = "standard"
	PriorityScheduled Priority = "scheduled"
)

func (p Priority) Known() bool {
	switch p {
	case PriorityExpress, PriorityStandard, PriorityScheduled:
		return true
	}
	return false
}
