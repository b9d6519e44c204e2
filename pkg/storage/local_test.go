package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-intel/pkg/models"
)

func testArticle(title string) *models.Article {
	return models.Normalize(map[string]any{
		"title":  title,
		"slug":   "kia-ev9-first-drive",
		"blocks": []any{map[string]any{"type": "intro", "id": "intro", "content": "Three rows, all electric."}},
	})
}

func TestSafeJoin(t *testing.T) {
	assert.Equal(t, filepath.Join("/data", "content", "a.json"), SafeJoin("/data", "content", "a.json"))
	assert.Empty(t, SafeJoin("/data", "content", "../secrets.json"))
	assert.Empty(t, SafeJoin("/data", "content", "a/../../b.json"))
	assert.Empty(t, SafeJoin("/data", "content", "/etc/passwd"))
}

func TestLocalStoreUpsert(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s := NewLocalStore(root)

	res, err := s.Put(ctx, testArticle("Kia EV9 First Drive"))
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = s.Put(ctx, testArticle("Kia EV9 First Drive, Updated"))
	require.NoError(t, err)
	assert.False(t, res.Created)

	slugs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kia-ev9-first-drive"}, slugs)

	got, err := s.Get(ctx, "kia-ev9-first-drive")
	require.NoError(t, err)
	assert.Equal(t, "Kia EV9 First Drive, Updated", got.Title)

	content, err := os.ReadFile(filepath.Join(root, "content", "articles", "kia-ev9-first-drive.json"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "\n  \"title\": ")
	assert.Equal(t, byte('\n'), content[len(content)-1])
}

func TestLocalStoreMissing(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStore(t.TempDir())

	_, err := s.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.Get(ctx, "../etc/passwd")
	assert.ErrorIs(t, err, ErrNotFound)

	slugs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, slugs)
}

func TestLocalStoreRejectsBadSlug(t *testing.T) {
	s := NewLocalStore(t.TempDir())
	a := testArticle("x")
	a.Slug = "../escape"

	_, err := s.Put(context.Background(), a)
	assert.Error(t, err)
}

func TestLocalStoreWriteFailure(t *testing.T) {
	root := t.TempDir()
	// A file where the articles directory should be.
	require.NoError(t, os.WriteFile(filepath.Join(root, "content"), []byte("x"), 0644))

	_, err := NewLocalStore(root).Put(context.Background(), testArticle("Kia EV9 First Drive"))
	assert.ErrorContains(t, err, "create directory")
}
