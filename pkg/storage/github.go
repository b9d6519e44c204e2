package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/google/go-github/v74/github"
	"golang.org/x/oauth2"

	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/slug"
)

const DefaultGitHubAPI = "https://api.github.com"

type GitHubConfig struct {
	Token          string
	Owner          string
	Repo           string
	Branch         string
	BaseURL        string
	CommitterName  string
	CommitterEmail string
}

// GitHubStore writes articles as commits through the repository contents API.
type GitHubStore struct {
	cfg    GitHubConfig
	client *github.Client
}

func NewGitHubStore(ctx context.Context, cfg GitHubConfig) (*GitHubStore, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultGitHubAPI
	}
	if cfg.Branch == "" {
		cfg.Branch = "main"
	}
	baseURL, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse github api url: %w", err)
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))
	client.BaseURL = baseURL
	return &GitHubStore{cfg: cfg, client: client}, nil
}

func (s *GitHubStore) Name() string { return "github" }

// apiError maps a 404 to ErrNotFound and strips the token from everything
// else.
func (s *GitHubStore) apiError(err error) error {
	var ghErr *github.ErrorResponse
	if errors.As(err, &ghErr) && ghErr.Response != nil {
		if ghErr.Response.StatusCode == http.StatusNotFound {
			return ErrNotFound
		}
		method := ""
		if ghErr.Response.Request != nil {
			method = ghErr.Response.Request.Method + " "
		}
		return fmt.Errorf("github %s%d: %s", method, ghErr.Response.StatusCode, s.redact(ghErr.Message))
	}
	return errors.New(s.redact(err.Error()))
}

func (s *GitHubStore) redact(msg string) string {
	if s.cfg.Token == "" {
		return msg
	}
	return strings.ReplaceAll(msg, s.cfg.Token, "***")
}

func (s *GitHubStore) contents(ctx context.Context, p string) (*github.RepositoryContent, []*github.RepositoryContent, error) {
	file, dir, _, err := s.client.Repositories.GetContents(ctx, s.cfg.Owner, s.cfg.Repo, p,
		&github.RepositoryContentGetOptions{Ref: s.cfg.Branch})
	if err != nil {
		return nil, nil, s.apiError(err)
	}
	return file, dir, nil
}

func (s *GitHubStore) Get(ctx context.Context, articleSlug string) (*models.Article, error) {
	if !slug.Valid(articleSlug) {
		return nil, ErrNotFound
	}
	file, _, err := s.contents(ctx, ArticlePath(articleSlug))
	if err != nil {
		return nil, err
	}
	if file == nil {
		return nil, ErrNotFound
	}
	raw, err := file.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	a, err := decode([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", articleSlug, err)
	}
	return a, nil
}

// Put creates the file or updates it conditionally on the sha it just read.
func (s *GitHubStore) Put(ctx context.Context, a *models.Article) (PutResult, error) {
	if !slug.Valid(a.Slug) {
		return PutResult{}, fmt.Errorf("invalid slug %q", a.Slug)
	}
	content, err := Encode(a)
	if err != nil {
		return PutResult{}, fmt.Errorf("encode article: %w", err)
	}

	var sha string
	existing, _, err := s.contents(ctx, ArticlePath(a.Slug))
	switch {
	case err == nil && existing != nil:
		sha = existing.GetSHA()
	case err == nil, errors.Is(err, ErrNotFound):
	default:
		return PutResult{}, fmt.Errorf("look up %s: %w", a.Slug, err)
	}

	opts := &github.RepositoryContentFileOptions{
		Content: content,
		Branch:  github.Ptr(s.cfg.Branch),
	}
	if s.cfg.CommitterName != "" && s.cfg.CommitterEmail != "" {
		opts.Committer = &github.CommitAuthor{
			Name:  github.Ptr(s.cfg.CommitterName),
			Email: github.Ptr(s.cfg.CommitterEmail),
		}
	}

	if sha == "" {
		opts.Message = github.Ptr("Create article: " + a.Slug)
		_, _, err = s.client.Repositories.CreateFile(ctx, s.cfg.Owner, s.cfg.Repo, ArticlePath(a.Slug), opts)
	} else {
		opts.Message = github.Ptr("Update article: " + a.Slug)
		opts.SHA = github.Ptr(sha)
		_, _, err = s.client.Repositories.UpdateFile(ctx, s.cfg.Owner, s.cfg.Repo, ArticlePath(a.Slug), opts)
	}
	if err != nil {
		return PutResult{}, fmt.Errorf("write %s: %w", a.Slug, s.apiError(err))
	}
	return PutResult{Created: sha == ""}, nil
}

func (s *GitHubStore) List(ctx context.Context) ([]string, error) {
	_, entries, err := s.contents(ctx, ArticlesDir)
	if errors.Is(err, ErrNotFound) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list articles: %w", err)
	}
	slugs := []string{}
	for _, e := range entries {
		if e.GetType() != "file" {
			continue
		}
		if name, ok := slugFromName(e.GetName()); ok {
			slugs = append(slugs, name)
		}
	}
	sort.Strings(slugs)
	return slugs, nil
}
