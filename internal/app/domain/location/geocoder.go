package location

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const (
	geocodeTTL     = 30 * time.Minute
	geocodeCleanup = 10 * time.Minute
)

// Geocoder turns coordinates into a locality name through Nominatim reverse
// geocoding. Names are cached per ~100 m cell, as the Nominatim usage policy asks
// clients not to repeat identical queries.
type Geocoder struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      *cache.Cache
	logger     *zap.Logger
}

func NewGeocoder(baseURL, userAgent string, timeout time.Duration, logger *zap.Logger) *Geocoder {
	return &Geocoder{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		cache:      cache.New(geocodeTTL, geocodeCleanup),
		logger:     logger,
	}
}

type nominatimResponse struct {
	Address struct {
		City   string `json:"city"`
		Town   string `json:"town"`
		Suburb string `json:"suburb"`
	} `json:"address"`
}

// LocalityName returns city, town or suburb for c, or fallback when none is known.
func (g *Geocoder) LocalityName(ctx context.Context, c models.Coordinate, fallback string) string {
	key := cacheKey(c)
	if cached, found := g.cache.Get(key); found {
		return cached.(string)
	}

	name, err := g.reverse(ctx, c)
	if err != nil {
		g.logger.Warn("Reverse geocoding failed",
			zap.Float64("lat", c.Latitude),
			zap.Float64("lng", c.Longitude),
			zap.Error(err))
		return fallback
	}
	if name == "" {
		return fallback
	}

	g.cache.Set(key, name, cache.DefaultExpiration)
	return name
}

func (g *Geocoder) reverse(ctx context.Context, c models.Coordinate) (string, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", fmt.Sprintf("%f", c.Latitude))
	params.Set("lon", fmt.Sprintf("%f", c.Longitude))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	switch {
	case body.Address.City != "":
		return body.Address.City, nil
	case body.Address.Town != "":
		return body.Address.Town, nil
	default:
		return body.Address.Suburb, nil
	}
}

func cacheKey(c models.Coordinate) string {
	return fmt.Sprintf("%.3f,%.3f", c.Latitude, c.Longitude)
}
