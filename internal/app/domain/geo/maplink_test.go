package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

func TestMapLinks(t *testing.T) {
	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&query=Brik+Traditional+Restaurants+Tunisia",
		SearchURL("Brik Traditional Restaurants Tunisia"))

	assert.Equal(t,
		"https://www.google.com/maps/search/?api=1&center=36.8687%2C10.3416&query=Sidi+Bou+Said",
		SearchNearURL("Sidi Bou Said", models.Coordinate{Latitude: 36.8687, Longitude: 10.3416}))

	assert.Equal(t,
		"https://www.google.com/maps/@36.8065,10.1815,15z",
		CenterURL(tunis, 15))
}

func TestListingLinks(t *testing.T) {
	food := models.Listing{ID: "brik", Title: "Brik", Location: "Street Food"}
	links := ListingLinks(food)
	assert.Len(t, links, 1)
	assert.Contains(t, links, "search")

	hotel := models.Listing{ID: "dar-el-jeld", Title: "Dar El Jeld", Location: "Medina, Tunis", Coordinate: &tunis}
	links = ListingLinks(hotel)
	assert.Len(t, links, 3)
	assert.Equal(t, "https://www.google.com/maps/@36.8065,10.1815,15z", links["center"])
}
