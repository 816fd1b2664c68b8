// Package enrichment decorates catalog listings with encyclopedia content.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
	"github.com/FACorreiaa/go-tunisia-guide/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tunisia-guide/internal/pkg/config"
)

const (
	defaultLang     = "en"
	apiURLTemplate  = "https://%s.wikipedia.org/w/api.php"
	thumbnailSize   = "1000"
	pageImagesLimit = "50"
	maxImages       = 5
)

// Looker fetches enrichment for an article reference. A nil result means
// "nothing available" and callers fall back to static content.
type Looker interface {
	Lookup(ctx context.Context, ref models.WikiRef) *models.Enrichment
}

// Client talks to the MediaWiki action API.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	defaultLang string
	userAgent   string
	logger      *zap.Logger
	tracer      trace.Tracer
}

// NewClient builds a client from the external API settings. When
// WikipediaBaseURL is set it is used as the API endpoint for every language.
func NewClient(cfg config.ExternalConfig, logger *zap.Logger) *Client {
	lang := cfg.WikipediaLang
	if lang == "" {
		lang = defaultLang
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     cfg.WikipediaBaseURL,
		defaultLang: lang,
		userAgent:   cfg.UserAgent,
		logger:      logger,
		tracer:      otel.Tracer("EnrichmentClient"),
	}
}

type queryResponse struct {
	Query struct {
		Pages map[string]page `json:"pages"`
	} `json:"query"`
}

type page struct {
	Title     string  `json:"title"`
	Missing   *string `json:"missing,omitempty"`
	Extract   string  `json:"extract"`
	FullURL   string  `json:"fullurl"`
	Thumbnail *struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	Images []struct {
		Title string `json:"title"`
	} `json:"images"`
	ImageInfo []struct {
		URL string `json:"url"`
	} `json:"imageinfo"`
}

// firstPage returns one page of a single-title query.
func (r queryResponse) firstPage() (page, bool) {
	for _, p := range r.Query.Pages {
		return p, true
	}
	return page{}, false
}

// Lookup fetches the summary and the image list concurrently, then resolves up to
// five image URLs. Any failure is logged and reported as nil.
func (c *Client) Lookup(ctx context.Context, ref models.WikiRef) *models.Enrichment {
	ctx, span := c.tracer.Start(ctx, "EnrichmentClient.Lookup", trace.WithAttributes(
		attribute.String("wiki.title", ref.Title),
		attribute.String("wiki.lang", c.lang(ref)),
	))
	defer span.End()

	l := c.logger.With(zap.String("method", "Lookup"), zap.String("title", ref.Title))

	result, err := c.lookup(ctx, ref)
	if err != nil {
		l.Warn("Encyclopedia lookup failed", zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "lookup failed")
		c.record(ctx, "error")
		return nil
	}

	c.record(ctx, "ok")
	return result
}

func (c *Client) lookup(ctx context.Context, ref models.WikiRef) (*models.Enrichment, error) {
	if strings.TrimSpace(ref.Title) == "" {
		return nil, fmt.Errorf("empty title: %w", models.ErrBadRequest)
	}
	title := strings.ReplaceAll(ref.Title, " ", "_")
	endpoint := c.endpoint(ref)

	var summary, images queryResponse
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.get(gctx, endpoint, url.Values{
			"titles":      {title},
			"prop":        {"extracts|pageimages|info"},
			"exintro":     {"true"},
			"inprop":      {"url"},
			"pithumbsize": {thumbnailSize},
		}, &summary)
	})
	g.Go(func() error {
		return c.get(gctx, endpoint, url.Values{
			"titles":  {title},
			"prop":    {"images"},
			"imlimit": {pageImagesLimit},
		}, &images)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	p, ok := summary.firstPage()
	if !ok || p.Missing != nil {
		return nil, fmt.Errorf("article %q: %w", ref.Title, models.ErrNotFound)
	}

	var imageURLs []string
	if titles := imageTitles(images); len(titles) > 0 {
		var files queryResponse
		err := c.get(ctx, endpoint, url.Values{
			"titles": {strings.Join(titles, "|")},
			"prop":   {"imageinfo"},
			"iiprop": {"url"},
		}, &files)
		if err != nil {
			return nil, err
		}
		imageURLs = resolvedURLs(files, titles)
	}

	extract, err := plainText(p.Extract)
	if err != nil {
		return nil, fmt.Errorf("parse extract: %w", err)
	}

	result := &models.Enrichment{
		Extract: extract,
		URL:     p.FullURL,
	}
	if p.Thumbnail != nil && p.Thumbnail.Source != "" {
		result.Thumbnail = p.Thumbnail.Source
	} else if len(imageURLs) > 0 {
		result.Thumbnail = imageURLs[0]
	}
	if len(imageURLs) > 1 {
		result.AdditionalImages = imageURLs[1:]
	}
	return result, nil
}

func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	params.Set("action", "query")
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) lang(ref models.WikiRef) string {
	if ref.Lang != "" {
		return ref.Lang
	}
	return c.defaultLang
}

func (c *Client) endpoint(ref models.WikiRef) string {
	if c.baseURL != "" {
		return c.baseURL
	}
	return fmt.Sprintf(apiURLTemplate, url.PathEscape(c.lang(ref)))
}

func (c *Client) record(ctx context.Context, result string) {
	metrics.Get().EnrichmentRequestsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

// imageTitles keeps the first maxImages raster images of a page, in page order.
func imageTitles(r queryResponse) []string {
	p, ok := r.firstPage()
	if !ok {
		return nil
	}
	var titles []string
	for _, img := range p.Images {
		lower := strings.ToLower(img.Title)
		if strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg") || strings.HasSuffix(lower, ".png") {
			titles = append(titles, img.Title)
			if len(titles) == maxImages {
				break
			}
		}
	}
	return titles
}

// resolvedURLs maps file pages back to URLs in the order the titles were requested.
// Pages come back keyed by page id, so map iteration order cannot be used.
func resolvedURLs(r queryResponse, titles []string) []string {
	byTitle := make(map[string]string, len(r.Query.Pages))
	for _, p := range r.Query.Pages {
		if len(p.ImageInfo) > 0 && p.ImageInfo[0].URL != "" {
			byTitle[normalizeTitle(p.Title)] = p.ImageInfo[0].URL
		}
	}

	urls := make([]string, 0, len(titles))
	for _, t := range titles {
		if u, ok := byTitle[normalizeTitle(t)]; ok {
			urls = append(urls, u)
		}
	}
	return urls
}

func normalizeTitle(t string) string {
	return strings.ReplaceAll(t, "_", " ")
}

// plainText strips the markup MediaWiki returns in intro extracts.
func plainText(extract string) (string, error) {
	if extract == "" {
		return "", nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(extract))
	if err != nil {
		return "", err
	}

	var paragraphs []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if text := strings.TrimSpace(s.Text()); text != "" {
			paragraphs = append(paragraphs, text)
		}
	})
	if len(paragraphs) == 0 {
		return strings.TrimSpace(doc.Text()), nil
	}
	return strings.Join(paragraphs, "\n\n"), nil
}
