package models

// Category groups catalog listings the way the guide's tabs do.
type Category string

const (
	CategoryDestination Category = "destination"
	CategoryHotel       Category = "hotel"
	CategoryFood        Category = "food"
	CategoryShopping    Category = "shopping"
	CategoryTransport   Category = "transport"
)

// Categories lists every catalog category in display order.
var Categories = []Category{
	CategoryDestination,
	CategoryHotel,
	CategoryFood,
	CategoryShopping,
	CategoryTransport,
}

// ParseCategory accepts both singular and plural forms ("hotel", "hotels").
func ParseCategory(s string) (Category, bool) {
	switch s {
	case "destination", "destinations":
		return CategoryDestination, true
	case "hotel", "hotels":
		return CategoryHotel, true
	case "food", "foods":
		return CategoryFood, true
	case "shopping":
		return CategoryShopping, true
	case "transport", "transports":
		return CategoryTransport, true
	}
	return "", false
}

// Coordinate is an immutable WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"lat" yaml:"lat"`
	Longitude float64 `json:"lng" yaml:"lng"`
}

// Valid reports whether the coordinate lies inside the WGS84 ranges.
func (c Coordinate) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// PointOfInterest is the minimal rankable view of a listing.
type PointOfInterest struct {
	ID          string     `json:"id"`
	Coordinate  Coordinate `json:"coordinates"`
	DisplayName string     `json:"title"`
	BaseRating  float64    `json:"rating"`
}

// RankedPoint is a PointOfInterest annotated with its distance from an origin.
type RankedPoint struct {
	PointOfInterest
	DistanceKm float64 `json:"distance_km"`
}

// WikiRef names the encyclopedia article used to enrich a listing.
type WikiRef struct {
	Lang  string `json:"lang,omitempty" yaml:"lang"`
	Title string `json:"title" yaml:"title"`
}

// EditorialReview is seeded review content shipped with the catalog.
type EditorialReview struct {
	ID      string `json:"id" yaml:"id"`
	User    string `json:"user" yaml:"user"`
	Comment string `json:"comment" yaml:"comment"`
	Date    string `json:"date" yaml:"date"`
}

// TransportRoute is a fixed route served by a transport option.
type TransportRoute struct {
	From     string `json:"from" yaml:"from"`
	To       string `json:"to" yaml:"to"`
	Price    string `json:"price" yaml:"price"`
	Duration string `json:"duration" yaml:"duration"`
}

// Listing is a static catalog record: a destination, hotel, dish, shop or transport option.
type Listing struct {
	ID          string             `json:"id" yaml:"id"`
	Category    Category           `json:"category" yaml:"category"`
	Title       string             `json:"title" yaml:"title"`
	Location    string             `json:"location" yaml:"location"`
	Description string             `json:"description" yaml:"description"`
	Image       string             `json:"image,omitempty" yaml:"image"`
	Images      []string           `json:"images,omitempty" yaml:"images"`
	Coordinate  *Coordinate        `json:"coordinates,omitempty" yaml:"coordinates"`
	Rating      float64            `json:"rating" yaml:"rating"`
	Price       string             `json:"price,omitempty" yaml:"price"`
	Prices      map[string]float64 `json:"prices,omitempty" yaml:"prices"`
	Amenities   []string           `json:"amenities,omitempty" yaml:"amenities"`
	Types       []string           `json:"types,omitempty" yaml:"types"`
	OpenHours   string             `json:"open_hours,omitempty" yaml:"open_hours"`
	SafetyTips  []string           `json:"safety_tips,omitempty" yaml:"safety_tips"`
	Routes      []TransportRoute   `json:"routes,omitempty" yaml:"routes"`
	Reviews     []EditorialReview  `json:"reviews,omitempty" yaml:"reviews"`
	Wikipedia   *WikiRef           `json:"wikipedia,omitempty" yaml:"wikipedia"`
}

// Point converts a listing into a PointOfInterest. ok is false for listings without coordinates.
func (l Listing) Point() (PointOfInterest, bool) {
	if l.Coordinate == nil {
		return PointOfInterest{}, false
	}
	return PointOfInterest{
		ID:          l.ID,
		Coordinate:  *l.Coordinate,
		DisplayName: l.Title,
		BaseRating:  l.Rating,
	}, true
}

// WikiTitle returns the article reference for enrichment, defaulting to the listing title.
func (l Listing) WikiTitle() WikiRef {
	if l.Wikipedia != nil && l.Wikipedia.Title != "" {
		return *l.Wikipedia
	}
	return WikiRef{Title: l.Title}
}

// Enrichment is supplementary encyclopedia content for a listing.
type Enrichment struct {
	Extract          string   `json:"extract,omitempty"`
	Thumbnail        string   `json:"thumbnail,omitempty"`
	URL              string   `json:"url,omitempty"`
	AdditionalImages []string `json:"additional_images,omitempty"`
}
