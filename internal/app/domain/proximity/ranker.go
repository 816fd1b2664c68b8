// Package proximity orders points of interest by distance from an origin.
package proximity

import (
	"sort"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/geo"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// Rank annotates every point with its distance from origin and returns a new slice
// sorted ascending by that distance. Equidistant points keep their input order.
// The input slice is left untouched.
func Rank(origin models.Coordinate, points []models.PointOfInterest) []models.RankedPoint {
	ranked := make([]models.RankedPoint, len(points))
	for i, p := range points {
		ranked[i] = models.RankedPoint{
			PointOfInterest: p,
			DistanceKm:      geo.DistanceKm(origin, p.Coordinate),
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].DistanceKm < ranked[j].DistanceKm
	})

	return ranked
}

// Nearest returns the first limit ranked points. A non-positive limit returns all of them.
func Nearest(origin models.Coordinate, points []models.PointOfInterest, limit int) []models.RankedPoint {
	ranked := Rank(origin, points)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

// Within returns the ranked points whose distance from origin is at most radiusKm.
func Within(origin models.Coordinate, points []models.PointOfInterest, radiusKm float64) []models.RankedPoint {
	ranked := Rank(origin, points)
	n := sort.Search(len(ranked), func(i int) bool {
		return ranked[i].DistanceKm > radiusKm
	})
	return ranked[:n]
}
