package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/storage"
)

var ErrEmptySlug = errors.New("article slug is empty")

// PublishError reports a failed durable write. Nothing was published.
type PublishError struct {
	Backend string
	Slug    string
	Err     error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("publish %q to %s: %v", e.Slug, e.Backend, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// Published describes a successful write, as handed to invalidators.
type Published struct {
	Article *models.Article
	URL     string
	Backend string
	Created bool
}

// Invalidator reacts to a published article. Errors are logged by the
// publisher and never fail the publish.
type Invalidator interface {
	Invalidate(ctx context.Context, p Published) error
}

type PublishResult struct {
	Slug    string `json:"slug"`
	URL     string `json:"url"`
	Created bool   `json:"created"`
}

type Publisher struct {
	store        storage.Store
	baseURL      string
	invalidators []Invalidator
	logger       *zap.Logger
	now          func() time.Time
}

func NewPublisher(store storage.Store, baseURL string, logger *zap.Logger, invalidators ...Invalidator) *Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Publisher{
		store:        store,
		baseURL:      strings.TrimRight(baseURL, "/"),
		invalidators: invalidators,
		logger:       logger,
		now:          time.Now,
	}
}

func (p *Publisher) Backend() string { return p.store.Name() }

// URLFor is the public address of a published article.
func (p *Publisher) URLFor(slug string) string {
	return p.baseURL + "/articles/" + slug
}

// Publish upserts a normalized article by slug. The caller's article is not
// modified; timestamps are stamped on the stored copy.
func (p *Publisher) Publish(ctx context.Context, a *models.Article) (PublishResult, error) {
	if a == nil || a.Slug == "" {
		return PublishResult{}, ErrEmptySlug
	}

	stored := a.Clone()
	now := p.now().UTC()
	stored.UpdatedAt = &now
	if stored.PublishedAt == nil {
		if prev, err := p.store.Get(ctx, stored.Slug); err == nil && prev.PublishedAt != nil {
			stored.PublishedAt = prev.PublishedAt
		} else {
			stored.PublishedAt = &now
		}
	}

	res, err := p.store.Put(ctx, stored)
	if err != nil {
		p.logger.Error("publish failed",
			zap.String("slug", stored.Slug),
			zap.String("backend", p.store.Name()),
			zap.Error(err))
		return PublishResult{}, &PublishError{Backend: p.store.Name(), Slug: stored.Slug, Err: err}
	}

	out := PublishResult{Slug: stored.Slug, URL: p.URLFor(stored.Slug), Created: res.Created}
	p.logger.Info("article published",
		zap.String("slug", out.Slug),
		zap.String("backend", p.store.Name()),
		zap.Bool("created", out.Created))

	event := Published{Article: stored, URL: out.URL, Backend: p.store.Name(), Created: out.Created}
	for _, inv := range p.invalidators {
		if err := inv.Invalidate(ctx, event); err != nil {
			p.logger.Warn("invalidation failed",
				zap.String("slug", out.Slug),
				zap.String("invalidator", fmt.Sprintf("%T", inv)),
				zap.Error(err))
		}
	}
	return out, nil
}
