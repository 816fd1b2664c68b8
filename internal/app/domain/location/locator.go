// Package location resolves where the user is and what it is like there.
package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// DefaultCoordinate is Tunis city centre, used whenever no position is known.
var DefaultCoordinate = models.Coordinate{Latitude: 36.8065, Longitude: 10.1815}

const (
	DefaultName        = "Tunis"
	UnavailableName    = "Location unavailable"
	defaultLocateLimit = 5000 * time.Millisecond
)

// ParseCoordinate reads a lat/lng pair from query strings. Both empty yields
// (nil, nil); anything else must parse to a valid coordinate.
func ParseCoordinate(lat, lng string) (*models.Coordinate, error) {
	lat, lng = strings.TrimSpace(lat), strings.TrimSpace(lng)
	if lat == "" && lng == "" {
		return nil, nil
	}
	la, err := strconv.ParseFloat(lat, 64)
	if err != nil {
		return nil, models.NewValidationError("lat", fmt.Errorf("lat must be a number"))
	}
	lo, err := strconv.ParseFloat(lng, 64)
	if err != nil {
		return nil, models.NewValidationError("lng", fmt.Errorf("lng must be a number"))
	}
	c := models.Coordinate{Latitude: la, Longitude: lo}
	if !c.Valid() {
		return nil, models.NewValidationError("lat", fmt.Errorf("coordinates out of range"))
	}
	return &c, nil
}

// Locator picks the best available position: the device's, then IP geolocation,
// then DefaultCoordinate. IP lookups are a single attempt bounded by the locate
// timeout.
type Locator struct {
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewLocator(baseURL string, timeout time.Duration, logger *zap.Logger) *Locator {
	if timeout <= 0 {
		timeout = defaultLocateLimit
	}
	return &Locator{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    timeout,
		logger:     logger,
	}
}

type ipAPIResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
}

// Resolve returns the coordinate to use and where it came from.
func (l *Locator) Resolve(ctx context.Context, explicit *models.Coordinate, clientIP string) (models.Coordinate, models.LocationSource) {
	if explicit != nil && explicit.Valid() {
		return *explicit, models.LocationSourceDevice
	}

	c, err := l.lookupIP(ctx, clientIP)
	if err != nil {
		l.logger.Debug("IP geolocation unavailable, using fallback",
			zap.String("client_ip", clientIP),
			zap.Error(err))
		return DefaultCoordinate, models.LocationSourceFallback
	}
	return c, models.LocationSourceIP
}

func (l *Locator) lookupIP(ctx context.Context, clientIP string) (models.Coordinate, error) {
	if l.baseURL == "" {
		return models.Coordinate{}, fmt.Errorf("ip geolocation disabled")
	}
	ip := net.ParseIP(clientIP)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() {
		return models.Coordinate{}, fmt.Errorf("address %q is not routable", clientIP)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	endpoint := fmt.Sprintf("%s/json/%s?fields=status,message,lat,lon,city", l.baseURL, ip.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return models.Coordinate{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinate{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body ipAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.Coordinate{}, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Status != "success" {
		return models.Coordinate{}, fmt.Errorf("ip lookup failed: %s", body.Message)
	}

	c := models.Coordinate{Latitude: body.Lat, Longitude: body.Lon}
	if !c.Valid() {
		return models.Coordinate{}, fmt.Errorf("ip lookup returned invalid coordinates")
	}
	return c, nil
}
