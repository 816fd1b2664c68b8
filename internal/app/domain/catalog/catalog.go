// Package catalog serves the guide's static listings: destinations, hotels, food,
// shopping and transport.
package catalog

import (
	"context"
	"embed"
	"fmt"
	"time"

	ahocorasick "github.com/petar-dambovaliev/aho-corasick"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/cache"
)

const patternTTL = 10 * time.Minute

//go:embed data/*.yaml
var seedData embed.FS

var seedFiles = map[models.Category]string{
	models.CategoryDestination: "data/destinations.yaml",
	models.CategoryHotel:       "data/hotels.yaml",
	models.CategoryFood:        "data/food.yaml",
	models.CategoryShopping:    "data/shopping.yaml",
	models.CategoryTransport:   "data/transport.yaml",
}

// SearchIndex is an external full-text index over the listings. It returns
// matching listing ids, best match first.
type SearchIndex interface {
	Search(ctx context.Context, category models.Category, query string) ([]string, error)
}

type Service struct {
	logger   *zap.Logger
	tracer   trace.Tracer
	index    SearchIndex
	listings map[models.Category][]models.Listing
	position map[models.Category]map[string]int
	matcher  map[models.Category]*matcher
	// patterns holds compiled query automata, shared by all categories.
	patterns *cache.UnifiedCache[ahocorasick.AhoCorasick]
}

type Option func(*Service)

// WithSearchIndex routes non-empty queries through idx, falling back to the
// in-memory matcher when idx fails.
func WithSearchIndex(idx SearchIndex) Option {
	return func(s *Service) {
		s.index = idx
	}
}

// NewService loads the embedded seed listings.
func NewService(logger *zap.Logger, opts ...Option) (*Service, error) {
	listings, err := LoadSeed()
	if err != nil {
		return nil, err
	}
	return NewServiceFromListings(listings, logger, opts...)
}

// NewServiceFromListings builds a catalog over listings, keeping their order
// within each category.
func NewServiceFromListings(listings []models.Listing, logger *zap.Logger, opts ...Option) (*Service, error) {
	s := &Service{
		logger:   logger,
		tracer:   otel.Tracer("CatalogService"),
		listings: make(map[models.Category][]models.Listing),
		position: make(map[models.Category]map[string]int),
		matcher:  make(map[models.Category]*matcher),
		patterns: cache.NewUnifiedCache[ahocorasick.AhoCorasick](patternTTL, "catalog-patterns", logger),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, l := range listings {
		if err := validateListing(l); err != nil {
			s.patterns.Close()
			return nil, err
		}
		if s.position[l.Category] == nil {
			s.position[l.Category] = make(map[string]int)
		}
		if _, dup := s.position[l.Category][l.ID]; dup {
			s.patterns.Close()
			return nil, fmt.Errorf("catalog: duplicate %s id %q: %w", l.Category, l.ID, models.ErrConflict)
		}
		s.position[l.Category][l.ID] = len(s.listings[l.Category])
		s.listings[l.Category] = append(s.listings[l.Category], l)
	}

	for cat, ls := range s.listings {
		s.matcher[cat] = newMatcher(ls)
	}

	logger.Info("Catalog loaded", zap.Int("listings", len(listings)))
	return s, nil
}

// LoadSeed decodes the embedded YAML files. Each file holds one category.
func LoadSeed() ([]models.Listing, error) {
	var all []models.Listing
	for _, cat := range models.Categories {
		raw, err := seedData.ReadFile(seedFiles[cat])
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", seedFiles[cat], err)
		}
		var listings []models.Listing
		if err := yaml.Unmarshal(raw, &listings); err != nil {
			return nil, fmt.Errorf("catalog: decode %s: %w", seedFiles[cat], err)
		}
		for i := range listings {
			listings[i].Category = cat
		}
		all = append(all, listings...)
	}
	return all, nil
}

func validateListing(l models.Listing) error {
	if l.ID == "" || l.Title == "" {
		return fmt.Errorf("catalog: listing without id or title: %w", models.ErrValidation)
	}
	if _, ok := models.ParseCategory(string(l.Category)); !ok {
		return fmt.Errorf("catalog: listing %q has unknown category %q: %w", l.ID, l.Category, models.ErrValidation)
	}
	if l.Rating < 0 || l.Rating > 5 {
		return fmt.Errorf("catalog: listing %q rating %.1f out of range: %w", l.ID, l.Rating, models.ErrValidation)
	}
	if l.Coordinate != nil && !l.Coordinate.Valid() {
		return fmt.Errorf("catalog: listing %q has invalid coordinates: %w", l.ID, models.ErrValidation)
	}
	return nil
}

// All returns the listings of category in catalog order.
func (s *Service) All(category models.Category) ([]models.Listing, error) {
	ls, ok := s.listings[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, models.ErrNotFound)
	}
	out := make([]models.Listing, len(ls))
	copy(out, ls)
	return out, nil
}

// Listings returns every listing, category by category.
func (s *Service) Listings() []models.Listing {
	var out []models.Listing
	for _, cat := range models.Categories {
		out = append(out, s.listings[cat]...)
	}
	return out
}

// Get returns one listing. Unknown ids yield models.ErrNotFound.
func (s *Service) Get(category models.Category, id string) (models.Listing, error) {
	idx, ok := s.position[category][id]
	if !ok {
		return models.Listing{}, fmt.Errorf("%s %q: %w", category, id, models.ErrNotFound)
	}
	return s.listings[category][idx], nil
}

// Search matches query case-insensitively against title, location and
// description. An empty query returns the whole category.
func (s *Service) Search(ctx context.Context, category models.Category, query string) ([]models.Listing, error) {
	ctx, span := s.tracer.Start(ctx, "CatalogService.Search", trace.WithAttributes(
		attribute.String("catalog.category", string(category)),
		attribute.String("catalog.query", query),
	))
	defer span.End()

	m, ok := s.matcher[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, models.ErrNotFound)
	}

	needle := needleOf(query)
	if needle == "" {
		return s.All(category)
	}

	if s.index != nil {
		ids, err := s.index.Search(ctx, category, query)
		if err == nil {
			span.SetAttributes(attribute.String("catalog.backend", "index"))
			return s.byIDs(category, ids), nil
		}
		s.logger.Warn("Search index unavailable, using in-memory matcher",
			zap.String("category", string(category)),
			zap.Error(err))
	}

	span.SetAttributes(attribute.String("catalog.backend", "memory"))
	ls := s.listings[category]
	var out []models.Listing
	ac, _ := s.patterns.GetOrCreate(needle, func() ahocorasick.AhoCorasick { return compile(needle) })
	for _, i := range m.match(ac) {
		out = append(out, ls[i])
	}
	if out == nil {
		out = []models.Listing{}
	}
	return out, nil
}

// Close stops the compiled pattern cache.
func (s *Service) Close() {
	s.patterns.Close()
}

// Points returns the listings of category that carry coordinates, ready for ranking.
func (s *Service) Points(category models.Category) ([]models.PointOfInterest, error) {
	ls, ok := s.listings[category]
	if !ok {
		return nil, fmt.Errorf("category %q: %w", category, models.ErrNotFound)
	}
	points := make([]models.PointOfInterest, 0, len(ls))
	for _, l := range ls {
		if p, ok := l.Point(); ok {
			points = append(points, p)
		}
	}
	return points, nil
}

func (s *Service) byIDs(category models.Category, ids []string) []models.Listing {
	out := make([]models.Listing, 0, len(ids))
	for _, id := range ids {
		if l, err := s.Get(category, id); err == nil {
			out = append(out, l)
		}
	}
	return out
}
