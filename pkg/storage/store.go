package storage

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"

	"vehicle-intel/pkg/models"
)

const ArticlesDir = "content/articles"

var ErrNotFound = errors.New("article not found")

type PutResult struct {
	Created bool
}

// Store persists articles keyed by slug. Put overwrites an existing record.
type Store interface {
	Name() string
	Get(ctx context.Context, slug string) (*models.Article, error)
	Put(ctx context.Context, a *models.Article) (PutResult, error)
	List(ctx context.Context) ([]string, error)
}

// ArticlePath is the repository-relative location of an article.
func ArticlePath(slug string) string {
	return path.Join(ArticlesDir, slug+".json")
}

// Encode renders the stored form: indented JSON with a trailing newline.
func Encode(a *models.Article) ([]byte, error) {
	b, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func decode(content []byte) (*models.Article, error) {
	var a models.Article
	if err := json.Unmarshal(content, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func slugFromName(name string) (string, bool) {
	if !strings.HasSuffix(name, ".json") {
		return "", false
	}
	return strings.TrimSuffix(name, ".json"), true
}
