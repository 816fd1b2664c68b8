package geo

import (
	"fmt"
	"net/url"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const mapsBaseURL = "https://www.google.com/maps"

// SearchURL builds a maps deep link searching for a free-text place query.
func SearchURL(query string) string {
	v := url.Values{}
	v.Set("api", "1")
	v.Set("query", query)
	return mapsBaseURL + "/search/?" + v.Encode()
}

// SearchNearURL builds a place search deep link centred on a coordinate.
func SearchNearURL(query string, center models.Coordinate) string {
	v := url.Values{}
	v.Set("api", "1")
	v.Set("query", query)
	v.Set("center", fmt.Sprintf("%g,%g", center.Latitude, center.Longitude))
	return mapsBaseURL + "/search/?" + v.Encode()
}

// CenterURL builds a deep link that opens the map at a coordinate and zoom level.
func CenterURL(center models.Coordinate, zoom int) string {
	return fmt.Sprintf("%s/@%g,%g,%dz", mapsBaseURL, center.Latitude, center.Longitude, zoom)
}

// ListingLinks returns the deep links shown on a listing's detail view.
func ListingLinks(l models.Listing) map[string]string {
	query := l.Title + " " + l.Location + " Tunisia"
	links := map[string]string{"search": SearchURL(query)}
	if l.Coordinate != nil {
		links["search_near"] = SearchNearURL(l.Title, *l.Coordinate)
		links["center"] = CenterURL(*l.Coordinate, 15)
	}
	return links
}
