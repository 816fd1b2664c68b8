package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tunisia-guide"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal      metric.Int64Counter
	HTTPRequestDuration    metric.Float64Histogram
	AuthRequestsTotal      metric.Int64Counter
	SearchRequestsTotal    metric.Int64Counter
	DBQueryDurationSeconds metric.Float64Histogram
	DBQueryErrorsTotal     metric.Int64Counter
	ActiveSessionsGauge    metric.Int64Gauge

	FavoritesToggledTotal   metric.Int64Counter
	RatingsTotal            metric.Int64Counter
	CommentsTotal           metric.Int64Counter
	AuthRequiredTotal       metric.Int64Counter
	RankingDuration         metric.Float64Histogram
	EnrichmentRequestsTotal metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Call it after the provider is installed so the instruments are exported.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		m := &AppMetrics{}

		m.HTTPRequestsTotal = counter(meter, "http_requests_total", "Total number of HTTP requests completed", "{request}")
		m.HTTPRequestDuration = histogram(meter, "http_request_duration_seconds", "Duration of HTTP requests in seconds")
		m.AuthRequestsTotal = counter(meter, "auth_requests_total", "Total number of authentication requests", "{request}")
		m.SearchRequestsTotal = counter(meter, "search_requests_total", "Total number of catalog search requests", "{request}")
		m.DBQueryDurationSeconds = histogram(meter, "db_query_duration_seconds", "Duration of database queries in seconds")
		m.DBQueryErrorsTotal = counter(meter, "db_query_errors_total", "Total number of database query errors", "{error}")

		var err error
		m.ActiveSessionsGauge, err = meter.Int64Gauge(
			"active_sessions_current",
			metric.WithDescription("Current number of live guide sessions"),
			metric.WithUnit("{session}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create active_sessions_current: %v", err)
		}

		m.FavoritesToggledTotal = counter(meter, "favorites_toggled_total", "Total number of favorite toggles", "{toggle}")
		m.RatingsTotal = counter(meter, "ratings_total", "Total number of ratings recorded", "{rating}")
		m.CommentsTotal = counter(meter, "comments_total", "Total number of comments added", "{comment}")
		m.AuthRequiredTotal = counter(meter, "auth_required_total", "Total number of actions rejected for missing authentication", "{event}")
		m.RankingDuration = histogram(meter, "ranking_duration_seconds", "Duration of proximity ranking in seconds")
		m.EnrichmentRequestsTotal = counter(meter, "enrichment_requests_total", "Total number of encyclopedia lookups by result", "{request}")

		log.Println("Application metrics instruments initialized.")
		appMetrics = m
	})
}

// Get returns the AppMetrics instance, initialising it against the current
// global MeterProvider on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func counter(meter metric.Meter, name, desc, unit string) metric.Int64Counter {
	c, err := meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return c
}

func histogram(meter metric.Meter, name, desc string) metric.Float64Histogram {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
	return h
}
