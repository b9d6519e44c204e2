package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/storage"
)

type Summary struct {
	Slug      string     `json:"slug"`
	Title     string     `json:"title"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
}

// ArticleCache is the render cache in front of the store. Returned articles
// are shared and must not be modified.
type ArticleCache struct {
	store       storage.Store
	concurrency int

	mu         sync.Mutex
	articles   map[string]*models.Article
	list       []Summary
	listLoaded bool
	// epoch changes on every invalidation; a read that started in an older
	// epoch is returned but not cached.
	epoch uint64
}

func NewArticleCache(store storage.Store, concurrency int) *ArticleCache {
	if concurrency < 1 {
		concurrency = 1
	}
	return &ArticleCache{
		store:       store,
		concurrency: concurrency,
		articles:    map[string]*models.Article{},
	}
}

func (c *ArticleCache) Get(ctx context.Context, slug string) (*models.Article, error) {
	c.mu.Lock()
	if a, ok := c.articles[slug]; ok {
		c.mu.Unlock()
		return a, nil
	}
	epoch := c.epoch
	c.mu.Unlock()

	a, err := c.store.Get(ctx, slug)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.epoch == epoch {
		c.articles[slug] = a
	}
	c.mu.Unlock()
	return a, nil
}

// List returns summaries of every stored article, most recently updated
// first. The first call reads all articles with bounded parallelism.
func (c *ArticleCache) List(ctx context.Context) ([]Summary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.listLoaded {
		return c.list, nil
	}

	slugs, err := c.store.List(ctx)
	if err != nil {
		return nil, err
	}

	loaded := make([]*models.Article, len(slugs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, slug := range slugs {
		if a, ok := c.articles[slug]; ok {
			loaded[i] = a
			continue
		}
		g.Go(func() error {
			a, err := c.store.Get(gctx, slug)
			if errors.Is(err, storage.ErrNotFound) {
				return nil
			}
			loaded[i] = a
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	list := make([]Summary, 0, len(loaded))
	for _, a := range loaded {
		if a == nil {
			continue
		}
		c.articles[a.Slug] = a
		list = append(list, Summary{Slug: a.Slug, Title: a.Title, UpdatedAt: a.UpdatedAt})
	}
	sort.SliceStable(list, func(i, j int) bool {
		ti, tj := list[i].UpdatedAt, list[j].UpdatedAt
		if (ti == nil) != (tj == nil) {
			return ti != nil
		}
		if ti != nil && !ti.Equal(*tj) {
			return ti.After(*tj)
		}
		return list[i].Slug < list[j].Slug
	})

	c.list = list
	c.listLoaded = true
	return c.list, nil
}

// Invalidate drops the published slug and the list.
func (c *ArticleCache) Invalidate(_ context.Context, p Published) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.articles, p.Article.Slug)
	c.list = nil
	c.listLoaded = false
	c.epoch++
	return nil
}
