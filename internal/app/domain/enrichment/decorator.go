package enrichment

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

const (
	SourceEncyclopedia = "wikipedia"
	SourceStatic       = "static"

	decorateConcurrency = 4
)

// Decorated is a listing with the content to display for it. Summary, hero image
// and gallery come from the encyclopedia when available, otherwise from the
// static catalog record.
type Decorated struct {
	models.Listing
	Summary    string             `json:"summary"`
	HeroImage  string             `json:"hero_image,omitempty"`
	Gallery    []string           `json:"gallery,omitempty"`
	ArticleURL string             `json:"article_url,omitempty"`
	Source     string             `json:"content_source"`
	Enrichment *models.Enrichment `json:"enrichment,omitempty"`
}

type Decorator struct {
	looker Looker
	logger *zap.Logger
}

func NewDecorator(looker Looker, logger *zap.Logger) *Decorator {
	return &Decorator{looker: looker, logger: logger}
}

// Decorate looks up l and merges the result over its static content.
func (d *Decorator) Decorate(ctx context.Context, l models.Listing) Decorated {
	return Merge(l, d.looker.Lookup(ctx, l.WikiTitle()))
}

// DecorateAll decorates listings concurrently and keeps their order.
func (d *Decorator) DecorateAll(ctx context.Context, listings []models.Listing) []Decorated {
	out := make([]Decorated, len(listings))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(decorateConcurrency)
	for i, l := range listings {
		g.Go(func() error {
			out[i] = d.Decorate(gctx, l)
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Debug("Decorated listings", zap.Int("count", len(out)))
	return out
}

// Merge applies e over l. A nil e yields the static content.
func Merge(l models.Listing, e *models.Enrichment) Decorated {
	d := Decorated{
		Listing:   l,
		Summary:   l.Description,
		HeroImage: l.Image,
		Gallery:   l.Images,
		Source:    SourceStatic,
	}
	if e == nil {
		return d
	}

	d.Enrichment = e
	d.Source = SourceEncyclopedia
	d.ArticleURL = e.URL
	if e.Extract != "" {
		d.Summary = e.Extract
	}
	if e.Thumbnail != "" {
		d.HeroImage = e.Thumbnail
	}
	if len(e.AdditionalImages) > 0 {
		d.Gallery = e.AdditionalImages
	}
	return d
}
