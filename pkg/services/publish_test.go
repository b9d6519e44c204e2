package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/storage"
)

type recordingInvalidator struct {
	events []Published
	err    error
}

func (r *recordingInvalidator) Invalidate(_ context.Context, p Published) error {
	r.events = append(r.events, p)
	return r.err
}

type failingStore struct{}

func (failingStore) Name() string { return "broken" }

func (failingStore) Get(context.Context, string) (*models.Article, error) {
	return nil, storage.ErrNotFound
}

func (failingStore) Put(context.Context, *models.Article) (storage.PutResult, error) {
	return storage.PutResult{}, errors.New("disk full")
}

func (failingStore) List(context.Context) ([]string, error) { return []string{}, nil }

func fixedClock(t time.Time) func() time.Time { return func() time.Time { return t } }

func TestPublishUpsert(t *testing.T) {
	ctx := context.Background()
	store := storage.NewLocalStore(t.TempDir())
	inv := &recordingInvalidator{}
	p := NewPublisher(store, "https://cars.example.com/", nil, inv)

	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	p.now = fixedClock(first)
	a := sampleArticle()
	res, err := p.Publish(ctx, a)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Equal(t, "https://cars.example.com/articles/"+a.Slug, res.URL)
	assert.Nil(t, a.PublishedAt, "caller's article is untouched")

	second := first.Add(48 * time.Hour)
	p.now = fixedClock(second)
	updated := sampleArticle()
	updated.Title = "2026 Honda Accord vs Toyota Camry: Updated"
	res, err = p.Publish(ctx, updated)
	require.NoError(t, err)
	assert.False(t, res.Created)

	slugs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{a.Slug}, slugs)

	got, err := store.Get(ctx, a.Slug)
	require.NoError(t, err)
	assert.Equal(t, updated.Title, got.Title)
	require.NotNil(t, got.PublishedAt)
	require.NotNil(t, got.UpdatedAt)
	assert.True(t, got.PublishedAt.Equal(first))
	assert.True(t, got.UpdatedAt.Equal(second))

	require.Len(t, inv.events, 2)
	assert.True(t, inv.events[0].Created)
	assert.Equal(t, res.URL, inv.events[1].URL)
}

func TestPublishEmptySlug(t *testing.T) {
	inv := &recordingInvalidator{}
	p := NewPublisher(storage.NewLocalStore(t.TempDir()), "http://localhost:8080", nil, inv)

	a := sampleArticle()
	a.Slug = ""
	_, err := p.Publish(context.Background(), a)
	assert.ErrorIs(t, err, ErrEmptySlug)

	_, err = p.Publish(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptySlug)
	assert.Empty(t, inv.events)
}

func TestPublishWriteFailure(t *testing.T) {
	inv := &recordingInvalidator{}
	p := NewPublisher(failingStore{}, "http://localhost:8080", nil, inv)

	_, err := p.Publish(context.Background(), sampleArticle())

	var perr *PublishError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken", perr.Backend)
	assert.Equal(t, sampleArticle().Slug, perr.Slug)
	assert.ErrorContains(t, err, "disk full")
	assert.Empty(t, inv.events)
}

func TestPublishInvalidatorFailureIsNotFatal(t *testing.T) {
	failing := &recordingInvalidator{err: errors.New("nats down")}
	after := &recordingInvalidator{}
	p := NewPublisher(storage.NewLocalStore(t.TempDir()), "http://localhost:8080", nil, failing, after)

	res, err := p.Publish(context.Background(), sampleArticle())
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.Len(t, failing.events, 1)
	assert.Len(t, after.events, 1)
}

func TestEndToEndWithoutCredentials(t *testing.T) {
	ctx := context.Background()
	g := NewGenerator(nil, time.Second, NewSDKProvider("", "gemini-2.5-flash"), NewRESTProvider("", "", "gemini-2.5-flash"))
	gen := g.Generate(ctx, "2026 Honda Accord vs Toyota Camry")
	require.True(t, gen.UsedFallback)
	require.Equal(t, "2026-honda-accord-vs-toyota-camry", gen.Article.Slug)

	report := defaultEvaluator(t).Evaluate(gen.Article)
	require.True(t, report.Publishable)

	store := storage.NewLocalStore(t.TempDir())
	cache := NewArticleCache(store, 4)
	p := NewPublisher(store, "http://localhost:8080", nil, cache)
	res, err := p.Publish(ctx, gen.Article)
	require.NoError(t, err)
	assert.Contains(t, res.URL, "2026-honda-accord-vs-toyota-camry")

	got, err := cache.Get(ctx, res.Slug)
	require.NoError(t, err)
	assert.Equal(t, gen.Article.Title, got.Title)
	assert.Len(t, got.TOC, len(got.Blocks))
}
