package storage

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCommitter struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// fakePut is the body of a contents API PUT.
type fakePut struct {
	Message   string         `json:"message"`
	Content   string         `json:"content"`
	SHA       string         `json:"sha"`
	Branch    string         `json:"branch"`
	Committer *fakeCommitter `json:"committer"`
}

type fakeFile struct {
	content []byte
	sha     string
}

// fakeGitHub implements the slice of the contents API the store uses.
type fakeGitHub struct {
	mu       sync.Mutex
	files    map[string]fakeFile
	messages []string
	puts     []fakePut
	failPut  bool
}

func newFakeGitHub() *fakeGitHub {
	return &fakeGitHub{files: map[string]fakeFile{}}
}

func (f *fakeGitHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer gh-token" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message": "Bad credentials"}`))
		return
	}
	const prefix = "/repos/acme/articles/contents/"
	if !strings.HasPrefix(r.URL.Path, prefix) {
		http.NotFound(w, r)
		return
	}
	p := strings.TrimPrefix(r.URL.Path, prefix)

	switch r.Method {
	case http.MethodGet:
		if file, ok := f.files[p]; ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"name":     path.Base(p),
				"type":     "file",
				"sha":      file.sha,
				"encoding": "base64",
				"content":  wrap(base64.StdEncoding.EncodeToString(file.content)),
			})
			return
		}
		var entries []map[string]any
		for name := range f.files {
			if path.Dir(name) == p {
				entries = append(entries, map[string]any{"name": path.Base(name), "type": "file"})
			}
		}
		if entries == nil {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"message": "Not Found"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(entries)

	case http.MethodPut:
		var req fakePut
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.puts = append(f.puts, req)
		if f.failPut {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`{"message": "server error for gh-token"}`))
			return
		}
		existing, exists := f.files[p]
		if exists && req.SHA != existing.sha {
			w.WriteHeader(http.StatusConflict)
			_, _ = w.Write([]byte(`{"message": "sha does not match"}`))
			return
		}
		content, err := base64.StdEncoding.DecodeString(req.Content)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		sum := sha1.Sum(content)
		f.files[p] = fakeFile{content: content, sha: hex.EncodeToString(sum[:])}
		f.messages = append(f.messages, req.Message)
		if exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusCreated)
		}
		_, _ = w.Write([]byte(`{}`))
	}
}

func wrap(s string) string {
	var sb strings.Builder
	for len(s) > 60 {
		sb.WriteString(s[:60])
		sb.WriteByte('\n')
		s = s[60:]
	}
	sb.WriteString(s)
	return sb.String()
}

func newTestGitHubStore(t *testing.T, fake *fakeGitHub) *GitHubStore {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	s, err := NewGitHubStore(context.Background(), GitHubConfig{
		Token:          "gh-token",
		Owner:          "acme",
		Repo:           "articles",
		Branch:         "content",
		BaseURL:        srv.URL,
		CommitterName:  "Vehicle Intel Bot",
		CommitterEmail: "bot@vehicle-intel.local",
	})
	require.NoError(t, err)
	return s
}

func TestGitHubStoreUpsert(t *testing.T) {
	ctx := context.Background()
	fake := newFakeGitHub()
	s := newTestGitHubStore(t, fake)

	res, err := s.Put(ctx, testArticle("Kia EV9 First Drive"))
	require.NoError(t, err)
	assert.True(t, res.Created)

	res, err = s.Put(ctx, testArticle("Kia EV9 First Drive, Updated"))
	require.NoError(t, err)
	assert.False(t, res.Created)

	assert.Equal(t, []string{
		"Create article: kia-ev9-first-drive",
		"Update article: kia-ev9-first-drive",
	}, fake.messages)
	require.Len(t, fake.puts, 2)
	assert.Empty(t, fake.puts[0].SHA)
	assert.NotEmpty(t, fake.puts[1].SHA)
	assert.Equal(t, "content", fake.puts[1].Branch)
	assert.Equal(t, &fakeCommitter{Name: "Vehicle Intel Bot", Email: "bot@vehicle-intel.local"}, fake.puts[1].Committer)

	assert.Len(t, fake.files, 1)
	got, err := s.Get(ctx, "kia-ev9-first-drive")
	require.NoError(t, err)
	assert.Equal(t, "Kia EV9 First Drive, Updated", got.Title)

	slugs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"kia-ev9-first-drive"}, slugs)
}

func TestGitHubStoreMissing(t *testing.T) {
	ctx := context.Background()
	s := newTestGitHubStore(t, newFakeGitHub())

	_, err := s.Get(ctx, "kia-ev9-first-drive")
	assert.ErrorIs(t, err, ErrNotFound)

	slugs, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, slugs)
}

func TestGitHubStoreWriteFailureRedactsToken(t *testing.T) {
	fake := newFakeGitHub()
	fake.failPut = true
	s := newTestGitHubStore(t, fake)

	_, err := s.Put(context.Background(), testArticle("Kia EV9 First Drive"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "github PUT 500")
	assert.Contains(t, err.Error(), "server error for ***")
	assert.NotContains(t, err.Error(), "gh-token")
	assert.Empty(t, fake.files)
}
