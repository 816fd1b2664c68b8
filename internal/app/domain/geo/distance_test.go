package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

var (
	tunis    = models.Coordinate{Latitude: 36.8065, Longitude: 10.1815}
	carthage = models.Coordinate{Latitude: 36.8528, Longitude: 10.3233}
	djerba   = models.Coordinate{Latitude: 33.8076, Longitude: 10.8451}
	paris    = models.Coordinate{Latitude: 48.8566, Longitude: 2.3522}
)

func TestDistanceKm(t *testing.T) {
	t.Run("zero for identical coordinates", func(t *testing.T) {
		assert.Equal(t, 0.0, DistanceKm(tunis, tunis))
		assert.Equal(t, 0.0, DistanceKm(djerba, djerba))
	})

	t.Run("symmetric", func(t *testing.T) {
		pairs := [][2]models.Coordinate{{tunis, carthage}, {tunis, djerba}, {carthage, djerba}, {tunis, paris}}
		for _, p := range pairs {
			assert.Equal(t, DistanceKm(p[0], p[1]), DistanceKm(p[1], p[0]))
		}
	})

	t.Run("known distances", func(t *testing.T) {
		assert.InDelta(t, 13.7, DistanceKm(tunis, carthage), 0.5)
		assert.InDelta(t, 341, DistanceKm(tunis, djerba), 5)
		assert.InDelta(t, 1484, DistanceKm(tunis, paris), 15)
	})

	t.Run("positive for distinct coordinates", func(t *testing.T) {
		a := models.Coordinate{Latitude: 36.80, Longitude: 10.18}
		b := models.Coordinate{Latitude: 36.80, Longitude: 10.1801}
		assert.Greater(t, DistanceKm(a, b), 0.0)
	})
}

func TestFormatDistance(t *testing.T) {
	km := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		in   *float64
		want string
	}{
		{"absent", nil, ""},
		{"meters", km(0.5), "500m away"},
		{"meters rounded", km(0.0374), "37m away"},
		{"zero", km(0), "0m away"},
		{"one kilometer", km(1), "1.0km away"},
		{"kilometers", km(2.345), "2.3km away"},
		{"far", km(341.26), "341.3km away"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDistance(tt.in))
		})
	}
}
