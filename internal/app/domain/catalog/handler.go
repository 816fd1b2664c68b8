package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/enrichment"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/geo"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/interactions"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/location"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/domain/proximity"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/handlers"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
)

var errUnknownCategory = errors.New("unknown category")

type Handler struct {
	*handlers.BaseHandler
	catalog   *Service
	decorator *enrichment.Decorator
}

func NewHandler(catalog *Service, decorator *enrichment.Decorator, logger *zap.Logger) *Handler {
	return &Handler{
		BaseHandler: handlers.NewBaseHandler(logger),
		catalog:     catalog,
		decorator:   decorator,
	}
}

type listingSummary struct {
	models.Listing
	Favorite bool `json:"favorite"`
}

type decoratedSummary struct {
	enrichment.Decorated
	Favorite bool `json:"favorite"`
}

type rankedSummary struct {
	models.RankedPoint
	DistanceLabel string `json:"distance_label"`
	Favorite      bool   `json:"favorite"`
}

type detailView struct {
	enrichment.Decorated
	DistanceKm    *float64          `json:"distance_km,omitempty"`
	DistanceLabel string            `json:"distance_label,omitempty"`
	MapLinks      map[string]string `json:"map_links"`
	Favorite      bool              `json:"favorite"`
	MyRating      *int              `json:"my_rating"`
	MyComments    []models.Comment  `json:"my_comments"`
}

// Search GET /api/catalog/:category?q=&enrich=
//
// With enrich=true every result carries its encyclopedia summary and images,
// the way the destination list cards show them.
func (h *Handler) Search(c *gin.Context) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		h.RespondError(c, models.ErrNotFound)
		return
	}

	enrich := false
	if raw := c.Query("enrich"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.RespondError(c, models.NewValidationError("enrich", errors.New("enrich must be true or false")))
			return
		}
		enrich = v
	}

	query := c.Query("q")
	listings, err := h.catalog.Search(c.Request.Context(), category, query)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	store := interactions.FromContext(c)
	var results any
	if enrich {
		decorated := h.decorator.DecorateAll(c.Request.Context(), listings)
		out := make([]decoratedSummary, len(decorated))
		for i, d := range decorated {
			out[i] = decoratedSummary{Decorated: d, Favorite: store.IsFavorite(d.ID)}
		}
		results = out
	} else {
		out := make([]listingSummary, len(listings))
		for i, l := range listings {
			out[i] = listingSummary{Listing: l, Favorite: store.IsFavorite(l.ID)}
		}
		results = out
	}

	c.JSON(http.StatusOK, gin.H{
		"category": category,
		"query":    query,
		"results":  results,
		"count":    len(listings),
	})
}

// Detail GET /api/catalog/:category/:id?lat&lng
func (h *Handler) Detail(c *gin.Context) {
	category, ok := models.ParseCategory(c.Param("category"))
	if !ok {
		h.RespondError(c, models.ErrNotFound)
		return
	}

	origin, err := location.ParseCoordinate(c.Query("lat"), c.Query("lng"))
	if err != nil {
		h.RespondError(c, err)
		return
	}

	listing, err := h.catalog.Get(category, c.Param("id"))
	if err != nil {
		h.RespondError(c, err)
		return
	}

	store := interactions.FromContext(c)
	view := detailView{
		Decorated:  h.decorator.Decorate(c.Request.Context(), listing),
		MapLinks:   geo.ListingLinks(listing),
		Favorite:   store.IsFavorite(listing.ID),
		MyComments: store.GetUserComments(listing.ID),
	}
	if rating, ok := store.GetRating(listing.ID); ok {
		view.MyRating = &rating
	}
	if origin != nil && listing.Coordinate != nil {
		km := geo.DistanceKm(*origin, *listing.Coordinate)
		view.DistanceKm = &km
		view.DistanceLabel = geo.FormatDistance(&km)
	}

	c.JSON(http.StatusOK, view)
}

// Nearby GET /api/nearby?lat&lng&category&limit&radius
//
// Without coordinates the ranking is done from DefaultCoordinate.
func (h *Handler) Nearby(c *gin.Context) {
	origin, err := location.ParseCoordinate(c.Query("lat"), c.Query("lng"))
	if err != nil {
		h.RespondError(c, err)
		return
	}
	if origin == nil {
		origin = &location.DefaultCoordinate
	}

	category := models.CategoryDestination
	if raw := c.Query("category"); raw != "" {
		if category, err = parseCategory(raw); err != nil {
			h.RespondError(c, err)
			return
		}
	}

	limit, err := queryInt(c, "limit")
	if err != nil {
		h.RespondError(c, err)
		return
	}
	radius, err := queryFloat(c, "radius")
	if err != nil {
		h.RespondError(c, err)
		return
	}

	points, err := h.catalog.Points(category)
	if err != nil {
		h.RespondError(c, err)
		return
	}

	ranked := RankPoints(c.Request.Context(), *origin, points, radius, limit)

	store := interactions.FromContext(c)
	results := make([]rankedSummary, len(ranked))
	for i, p := range ranked {
		results[i] = rankedSummary{
			RankedPoint:   p,
			DistanceLabel: geo.FormatDistance(&p.DistanceKm),
			Favorite:      store.IsFavorite(p.ID),
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"origin":   origin,
		"category": category,
		"results":  results,
		"count":    len(results),
	})
}

// RankPoints ranks points from origin, keeps those within radiusKm when positive,
// truncates to limit when positive, and records the ranking duration.
func RankPoints(ctx context.Context, origin models.Coordinate, points []models.PointOfInterest, radiusKm float64, limit int) []models.RankedPoint {
	start := time.Now()

	var ranked []models.RankedPoint
	if radiusKm > 0 {
		ranked = proximity.Within(origin, points, radiusKm)
		if limit > 0 && limit < len(ranked) {
			ranked = ranked[:limit]
		}
	} else {
		ranked = proximity.Nearest(origin, points, limit)
	}

	metrics.Get().RankingDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Int("points", len(points))))
	return ranked
}

func parseCategory(raw string) (models.Category, error) {
	category, ok := models.ParseCategory(raw)
	if !ok {
		return "", models.NewValidationError("category", errUnknownCategory)
	}
	return category, nil
}

func queryInt(c *gin.Context, key string) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, models.NewValidationError(key, fmt.Errorf("%s must be a non-negative number", key))
	}
	return v, nil
}

func queryFloat(c *gin.Context, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, models.NewValidationError(key, fmt.Errorf("%s must be a non-negative number", key))
	}
	return v, nil
}
