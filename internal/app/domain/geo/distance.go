package geo

import (
	"fmt"
	"math"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const earthRadiusKm = 6371.0

// DistanceKm calculates the great-circle distance between two coordinates using the Haversine formula
func DistanceKm(a, b models.Coordinate) float64 {
	if a == b {
		return 0
	}

	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Latitude))*math.Cos(toRadians(b.Latitude))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// FormatDistance renders a distance for display: "" when unknown,
// whole meters below one kilometer, one-decimal kilometers otherwise.
func FormatDistance(km *float64) string {
	if km == nil {
		return ""
	}
	if *km < 1 {
		return fmt.Sprintf("%dm away", int(math.Round(*km*1000)))
	}
	return fmt.Sprintf("%.1fkm away", *km)
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
