package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"golang.org/x/sync/errgroup"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/services"
	"vehicle-intel/pkg/storage"
)

// Index is the full-text index over published articles, keyed by slug.
type Index struct {
	index bleve.Index
}

type document struct {
	Slug        string
	Title       string
	Description string
	Content     string
	URL         string
	UpdatedAt   time.Time
}

type Hit struct {
	Slug      string              `json:"slug"`
	Title     string              `json:"title"`
	URL       string              `json:"url"`
	Score     float64             `json:"score"`
	Fragments map[string][]string `json:"fragments,omitempty"`
}

// Open opens or creates an on-disk index at path. An empty path gives an
// in-memory index.
func Open(path string) (*Index, error) {
	if path == "" {
		idx, err := bleve.NewMemOnly(buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		return &Index{index: idx}, nil
	}

	idx, err := bleve.Open(path)
	if errors.Is(err, bleve.ErrorIndexPathDoesNotExist) {
		idx, err = bleve.New(path, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Index{index: idx}, nil
}

func buildIndexMapping() mapping.IndexMapping {
	english := bleve.NewTextFieldMapping()
	english.Analyzer = "en"

	keyword := bleve.NewTextFieldMapping()
	keyword.Analyzer = "keyword"

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("Slug", keyword)
	docMapping.AddFieldMappingsAt("Title", english)
	docMapping.AddFieldMappingsAt("Description", english)
	docMapping.AddFieldMappingsAt("Content", english)
	docMapping.AddFieldMappingsAt("URL", keyword)
	docMapping.AddFieldMappingsAt("UpdatedAt", bleve.NewDateTimeFieldMapping())

	indexMapping := bleve.NewIndexMapping()
	// Unqualified queries run against _all and must stem like the fields.
	indexMapping.DefaultAnalyzer = "en"
	indexMapping.AddDocumentMapping("_default", docMapping)
	return indexMapping
}

func (i *Index) Close() error {
	return i.index.Close()
}

func toDocument(a *models.Article, url string) *document {
	doc := &document{
		Slug:        a.Slug,
		Title:       a.Title,
		Description: a.Description,
		Content:     a.BodyText(),
		URL:         url,
	}
	if a.UpdatedAt != nil {
		doc.UpdatedAt = *a.UpdatedAt
	}
	return doc
}

// Invalidate reindexes a freshly published article.
func (i *Index) Invalidate(_ context.Context, p services.Published) error {
	doc := toDocument(p.Article, p.URL)
	if err := i.index.Index(doc.Slug, doc); err != nil {
		return fmt.Errorf("index %s: %w", doc.Slug, err)
	}
	return nil
}

// Rebuild indexes every article in the store, reading with bounded
// parallelism. urlFor maps a slug to its public URL.
func (i *Index) Rebuild(ctx context.Context, store storage.Store, concurrency int, urlFor func(string) string) (int, error) {
	slugs, err := store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list articles: %w", err)
	}

	articles := make([]*models.Article, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	for n, slug := range slugs {
		g.Go(func() error {
			a, err := store.Get(gctx, slug)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("read %s: %w", slug, err)
			}
			articles[n] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	batch := i.index.NewBatch()
	count := 0
	for _, a := range articles {
		if a == nil {
			continue
		}
		doc := toDocument(a, urlFor(a.Slug))
		if err := batch.Index(doc.Slug, doc); err != nil {
			return 0, fmt.Errorf("batch index %s: %w", doc.Slug, err)
		}
		count++
	}
	if err := i.index.Batch(batch); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	return count, nil
}

func (i *Index) Search(queryStr string, limit int) ([]Hit, error) {
	query := bleve.NewQueryStringQuery(queryStr)
	req := bleve.NewSearchRequestOptions(query, limit, 0, false)
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Fields = []string{"Title", "URL"}

	results, err := i.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]Hit, 0, len(results.Hits))
	for _, h := range results.Hits {
		hit := Hit{Slug: h.ID, Score: h.Score, Fragments: h.Fragments}
		if title, ok := h.Fields["Title"].(string); ok {
			hit.Title = title
		}
		if url, ok := h.Fields["URL"].(string); ok {
			hit.URL = url
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func (i *Index) Count() (uint64, error) {
	return i.index.DocCount()
}
