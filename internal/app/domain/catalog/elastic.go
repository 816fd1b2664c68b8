package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/olivere/elastic/v7"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tunisia-guide/internal/app/models"
)

// The raw subfields keep each field whole and lowercased for infix wildcard
// matching, so "arth" finds "Carthage" as the in-memory matcher does.
const listingMapping = `{
	"settings": {
		"analysis": {
			"normalizer": {
				"folded": {"type": "custom", "filter": ["lowercase"]}
			}
		}
	},
	"mappings": {
		"properties": {
			"category":    {"type": "keyword"},
			"title":       {"type": "text", "fields": {"raw": {"type": "keyword", "normalizer": "folded"}}},
			"location":    {"type": "text", "fields": {"raw": {"type": "keyword", "normalizer": "folded"}}},
			"description": {"type": "text", "fields": {"raw": {"type": "keyword", "normalizer": "folded", "ignore_above": 8191}}}
		}
	}
}`

var searchFields = []string{"title", "location", "description"}

// wildcardEscaper escapes the wildcard syntax characters of a user query.
var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

const maxSearchHits = 100

type listingDoc struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Title       string `json:"title"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

// ElasticIndex is a SearchIndex backed by Elasticsearch.
type ElasticIndex struct {
	client *elastic.Client
	index  string
	logger *zap.Logger
}

// NewElasticIndex connects to a single node. Sniffing and health checks are off
// so the client works behind proxies and in containers.
func NewElasticIndex(url, index string, logger *zap.Logger) (*ElasticIndex, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(url),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}
	return &ElasticIndex{client: client, index: index, logger: logger}, nil
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (e *ElasticIndex) EnsureIndex(ctx context.Context) error {
	exists, err := e.client.IndexExists(e.index).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to check index %s: %w", e.index, err)
	}
	if exists {
		return nil
	}

	created, err := e.client.CreateIndex(e.index).BodyString(listingMapping).Do(ctx)
	if err != nil {
		return fmt.Errorf("failed to create index %s: %w", e.index, err)
	}
	if !created.Acknowledged {
		e.logger.Warn("CreateIndex was not acknowledged", zap.String("index", e.index))
	}
	e.logger.Info("Search index created", zap.String("index", e.index))
	return nil
}

// IndexListings bulk-indexes listings keyed by category and id.
func (e *ElasticIndex) IndexListings(ctx context.Context, listings []models.Listing) error {
	if len(listings) == 0 {
		return nil
	}

	bulk := e.client.Bulk().Index(e.index).Refresh("true")
	for _, l := range listings {
		bulk.Add(elastic.NewBulkIndexRequest().
			Id(docID(l.Category, l.ID)).
			Doc(listingDoc{
				ID:          l.ID,
				Category:    string(l.Category),
				Title:       l.Title,
				Location:    l.Location,
				Description: l.Description,
			}))
	}

	res, err := bulk.Do(ctx)
	if err != nil {
		return fmt.Errorf("bulk index failed: %w", err)
	}
	if res.Errors {
		failed := res.Failed()
		for _, item := range failed {
			if item.Error != nil {
				e.logger.Warn("Failed to index listing", zap.String("id", item.Id), zap.String("reason", item.Error.Reason))
			}
		}
		return fmt.Errorf("bulk index: %d of %d documents failed", len(failed), len(listings))
	}

	e.logger.Info("Listings indexed", zap.String("index", e.index), zap.Int("count", len(listings)))
	return nil
}

// Search matches query as a substring of title, location or description within
// category. Phrase-prefix matches score highest; infix matches come from
// case-insensitive wildcards on the raw subfields.
func (e *ElasticIndex) Search(ctx context.Context, category models.Category, query string) ([]string, error) {
	text := strings.TrimSpace(query)
	pattern := "*" + wildcardEscaper.Replace(strings.ToLower(text)) + "*"

	match := elastic.NewBoolQuery().
		Should(elastic.NewMultiMatchQuery(text, searchFields...).Type("phrase_prefix").Boost(2)).
		MinimumNumberShouldMatch(1)
	for _, field := range searchFields {
		match.Should(elastic.NewWildcardQuery(field+".raw", pattern).CaseInsensitive(true))
	}

	q := elastic.NewBoolQuery().
		Filter(elastic.NewTermQuery("category", string(category))).
		Must(match)

	res, err := e.client.Search().
		Index(e.index).
		Query(q).
		FetchSourceContext(elastic.NewFetchSourceContext(true).Include("id")).
		Size(maxSearchHits).
		Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", e.index, err)
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		var doc listingDoc
		if err := json.Unmarshal(hit.Source, &doc); err != nil || doc.ID == "" {
			e.logger.Debug("Skipping search hit without id", zap.String("hit_id", hit.Id))
			continue
		}
		ids = append(ids, doc.ID)
	}
	return ids, nil
}

func docID(category models.Category, id string) string {
	return string(category) + ":" + id
}
