package geo

import (
	"math"
	"testing"

	"dray/internal/types"
)

func TestDistanceKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		a, b      types.Point
		wantKm    float64
		tolerance float64
	}{
		{
			name:      "same point",
			a:         types.Point{Lat: 6.5244, Lng: 3.3792},
			b:         types.Point{Lat: 6.5244, Lng: 3.3792},
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name:      "Yaba to Surulere (~0.6km)",
			a:         types.Point{Lat: 6.5244, Lng: 3.3792},
			b:         types.Point{Lat: 6.5300, Lng: 3.3800},
			wantKm:    0.63,
			tolerance: 0.05,
		},
		{
			name:      "Lagos Island to Ikeja (~16km)",
			a:         types.Point{Lat: 6.4541, Lng: 3.3947},
			b:         types.Point{Lat: 6.6018, Lng: 3.3515},
			wantKm:    17.1,
			tolerance: 1.5,
		},
		{
			name:      "New York to Los Angeles (~3944km)",
			a:         types.Point{Lat: 40.7128, Lng: -74.0060},
			b:         types.Point{Lat: 34.0522, Lng: -118.2437},
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DistanceKm(tt.a, tt.b)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("DistanceKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestDistanceKm_Symmetry(t *testing.T) {
	points := []types.Point{
		{Lat: 6.5, Lng: 3.4},
		{Lat: -33.9, Lng: 18.4},
		{Lat: 51.5, Lng: -0.1},
		{Lat: 0, Lng: 0},
	}
	for i, a := range points {
		for _, b := range points[i+1:] {
			d1 := DistanceKm(a, b)
			d2 := DistanceKm(b, a)
			if math.Abs(d1-d2) > 1e-9 {
				t.Errorf("asymmetric distance between %v and %v: %f vs %f", a, b, d1, d2)
			}
			if d1 < 0 {
				t.Errorf("negative distance between %v and %v: %f", a, b, d1)
			}
		}
	}
}

func TestTravelTimeMinutes(t *testing.T) {
	tests := []struct {
		name    string
		km      float64
		vehicle types.VehicleType
		want    float64
	}{
		{"bicycle 10km", 10, types.VehicleBicycle, 10.0/15*60 + 12},
		{"motorcycle 10km", 10, types.VehicleMotorcycle, 10.0/35*60 + 12},
		{"car 10km", 10, types.VehicleCar, 36},
		{"van 10km", 10, types.VehicleVan, 10.0/22*60 + 12},
		{"truck 10km", 10, types.VehicleTruck, 10.0/18*60 + 12},
		{"unknown vehicle falls back to car", 10, types.VehicleType("hoverboard"), 36},
		{"zero distance is handling only", 0, types.VehicleCar, 12},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TravelTimeMinutes(tt.km, tt.vehicle)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TravelTimeMinutes(%v, %s) = %f, want %f", tt.km, tt.vehicle, got, tt.want)
			}
		})
	}
}
