package models

// LocationSource tells where a resolved coordinate came from.
type LocationSource string

const (
	LocationSourceDevice   LocationSource = "device"
	LocationSourceIP       LocationSource = "ip"
	LocationSourceFallback LocationSource = "fallback"
)

// LocationSnapshot is what the location header of the guide displays.
type LocationSnapshot struct {
	Coordinate  Coordinate     `json:"coordinates"`
	Source      LocationSource `json:"source"`
	Name        string         `json:"name"`
	Temperature int            `json:"temperature_c"`
}
