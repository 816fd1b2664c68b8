package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// FallbackTemperature is shown when the weather provider cannot answer.
const FallbackTemperature = 25

// Weather reads the current temperature from weatherapi.com.
type Weather struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *zap.Logger
}

func NewWeather(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Weather {
	return &Weather{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger,
	}
}

type weatherResponse struct {
	Current *struct {
		TempC float64 `json:"temp_c"`
	} `json:"current"`
}

// CurrentTemperature returns the temperature at c in whole degrees Celsius.
func (w *Weather) CurrentTemperature(ctx context.Context, c models.Coordinate) int {
	if w.apiKey == "" {
		return FallbackTemperature
	}

	temp, err := w.current(ctx, c)
	if err != nil {
		w.logger.Warn("Weather lookup failed",
			zap.Float64("lat", c.Latitude),
			zap.Float64("lng", c.Longitude),
			zap.Error(err))
		return FallbackTemperature
	}
	return int(math.Round(temp))
}

func (w *Weather) current(ctx context.Context, c models.Coordinate) (float64, error) {
	params := url.Values{}
	params.Set("key", w.apiKey)
	params.Set("q", fmt.Sprintf("%f,%f", c.Latitude, c.Longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, w.baseURL+"/current.json?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", redactKey(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var body weatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("failed to decode response: %w", err)
	}
	if body.Current == nil {
		return 0, fmt.Errorf("response has no current conditions")
	}
	return body.Current.TempC, nil
}

// redactKey strips the API key from the URL that net/http puts in its errors.
func redactKey(err error) error {
	var urlErr *url.Error
	if !errors.As(err, &urlErr) {
		return err
	}
	redacted := "[invalid url]"
	if u, perr := url.Parse(urlErr.URL); perr == nil {
		q := u.Query()
		if q.Has("key") {
			q.Set("key", "REDACTED")
		}
		u.RawQuery = q.Encode()
		redacted = u.String()
	}
	return &url.Error{Op: urlErr.Op, URL: redacted, Err: urlErr.Err}
}
