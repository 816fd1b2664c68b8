package interactions

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
)

// MetricsPublisher turns store events into counters.
type MetricsPublisher struct {
	m *metrics.AppMetrics
}

func NewMetricsPublisher(m *metrics.AppMetrics) *MetricsPublisher {
	return &MetricsPublisher{m: m}
}

func (p *MetricsPublisher) Publish(e Event) {
	ctx := context.Background()
	switch e.Type {
	case EventFavoriteToggled:
		p.m.FavoritesToggledTotal.Add(ctx, 1, metric.WithAttributes(attribute.Bool("favorite", e.Favorite)))
	case EventRatingUpserted:
		p.m.RatingsTotal.Add(ctx, 1)
	case EventCommentAdded:
		p.m.CommentsTotal.Add(ctx, 1)
	case EventAuthRequired:
		p.m.AuthRequiredTotal.Add(ctx, 1)
	}
}
