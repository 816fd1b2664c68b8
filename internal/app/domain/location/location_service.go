package location

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/config"
)

type Service struct {
	locator  *Locator
	geocoder *Geocoder
	weather  *Weather
	logger   *zap.Logger
	tracer   trace.Tracer
}

func NewService(cfg config.ExternalConfig, logger *zap.Logger) *Service {
	return &Service{
		locator:  NewLocator(cfg.IPAPIBaseURL, cfg.LocateTimeout, logger),
		geocoder: NewGeocoder(cfg.NominatimBaseURL, cfg.UserAgent, cfg.RequestTimeout, logger),
		weather:  NewWeather(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.RequestTimeout, logger),
		logger:   logger,
		tracer:   otel.Tracer("LocationService"),
	}
}

// Resolve picks the origin for a request. See Locator.Resolve.
func (s *Service) Resolve(ctx context.Context, explicit *models.Coordinate, clientIP string) (models.Coordinate, models.LocationSource) {
	return s.locator.Resolve(ctx, explicit, clientIP)
}

// Snapshot looks up the locality name and temperature at origin concurrently.
// Both lookups degrade to fallbacks, so a snapshot is always complete.
func (s *Service) Snapshot(ctx context.Context, origin models.Coordinate, fallbackName string) models.LocationSnapshot {
	ctx, span := s.tracer.Start(ctx, "LocationService.Snapshot", trace.WithAttributes(
		attribute.Float64("location.lat", origin.Latitude),
		attribute.Float64("location.lng", origin.Longitude),
	))
	defer span.End()

	snap := models.LocationSnapshot{Coordinate: origin}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		snap.Name = s.geocoder.LocalityName(gctx, origin, fallbackName)
		return nil
	})
	g.Go(func() error {
		snap.Temperature = s.weather.CurrentTemperature(gctx, origin)
		return nil
	})
	_ = g.Wait()

	return snap
}
