package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/slug"
)

// LocalStore keeps articles under root/content/articles on disk.
type LocalStore struct {
	root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{root: root}
}

func (s *LocalStore) Name() string { return "local" }

// SafeJoin joins target under root/sub and refuses anything that climbs out.
func SafeJoin(root, sub, target string) string {
	cleanTarget := filepath.Clean(target)
	if strings.Contains(cleanTarget, "..") || filepath.IsAbs(cleanTarget) {
		return ""
	}
	return filepath.Join(root, sub, cleanTarget)
}

func (s *LocalStore) path(articleSlug string) (string, error) {
	if !slug.Valid(articleSlug) {
		return "", fmt.Errorf("invalid slug %q", articleSlug)
	}
	p := SafeJoin(s.root, filepath.FromSlash(ArticlesDir), articleSlug+".json")
	if p == "" {
		return "", fmt.Errorf("invalid slug %q", articleSlug)
	}
	return p, nil
}

func (s *LocalStore) Get(_ context.Context, articleSlug string) (*models.Article, error) {
	p, err := s.path(articleSlug)
	if err != nil {
		return nil, ErrNotFound
	}
	content, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read article: %w", err)
	}
	a, err := decode(content)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", p, err)
	}
	return a, nil
}

func (s *LocalStore) Put(_ context.Context, a *models.Article) (PutResult, error) {
	p, err := s.path(a.Slug)
	if err != nil {
		return PutResult{}, err
	}
	content, err := Encode(a)
	if err != nil {
		return PutResult{}, fmt.Errorf("encode article: %w", err)
	}

	_, statErr := os.Stat(p)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		return PutResult{}, fmt.Errorf("create directory: %w", err)
	}
	if err := os.WriteFile(p, content, 0644); err != nil {
		return PutResult{}, fmt.Errorf("write article: %w", err)
	}
	return PutResult{Created: created}, nil
}

func (s *LocalStore) List(_ context.Context) ([]string, error) {
	dir := filepath.Join(s.root, filepath.FromSlash(ArticlesDir))
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	slugs := []string{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := slugFromName(e.Name()); ok {
			slugs = append(slugs, name)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}
