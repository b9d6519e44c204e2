package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, key := range []string{"APP_URL", "PORT", "APP_ENV", "LOG_LEVEL", "GEMINI_API_KEY", "GEMINI_MODEL",
		"GITHUB_TOKEN", "GITHUB_OWNER", "GITHUB_REPO", "GITHUB_CLIENT_ID", "GENERATION_TIMEOUT",
		"CACHE_CONCURRENCY", "ALLOW_BROWSER_CALLS"} {
		t.Setenv(key, "")
	}

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.AppURL)
	assert.Equal(t, "gemini-2.5-flash", cfg.GeminiModel)
	assert.Equal(t, 30*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 20, cfg.CacheConcurrency)
	assert.False(t, cfg.GenerationConfigured())
	assert.False(t, cfg.RemoteStoreEnabled())
	assert.False(t, cfg.AuthEnabled())
	assert.False(t, cfg.AllowBrowserCalls)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("APP_URL", "https://cars.example.com/")
	t.Setenv("APP_ENV", "production")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("GENERATION_TIMEOUT", "45s")
	t.Setenv("ALLOW_BROWSER_CALLS", "true")
	t.Setenv("GITHUB_TOKEN", "token")
	t.Setenv("GITHUB_OWNER", "acme")
	t.Setenv("GITHUB_REPO", "articles")
	t.Setenv("GITHUB_CLIENT_ID", "client")
	t.Setenv("GITHUB_ALLOWED_USERS", " Alice-Editor, bob ,,")
	t.Setenv("CACHE_CONCURRENCY", "8")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "https://cars.example.com", cfg.AppURL)
	assert.True(t, cfg.Production())
	assert.True(t, cfg.GenerationConfigured())
	assert.True(t, cfg.RemoteStoreEnabled())
	assert.True(t, cfg.AllowBrowserCalls)
	assert.Equal(t, 45*time.Second, cfg.GenerationTimeout)
	assert.Equal(t, 8, cfg.CacheConcurrency)
	require.True(t, cfg.AuthEnabled())
	assert.Equal(t, "https://cars.example.com/auth/callback", cfg.OauthConf.RedirectURL)
	assert.Equal(t, []string{"alice-editor", "bob"}, cfg.GitHubAllowedUsers)
}

func TestFromEnvOAuthRequiresAllowlist(t *testing.T) {
	t.Setenv("GITHUB_CLIENT_ID", "client")
	t.Setenv("GITHUB_ALLOWED_USERS", " , ")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_ALLOWED_USERS")
}

func TestFromEnvInvalid(t *testing.T) {
	tests := map[string]string{
		"APP_URL":             "not a url",
		"APP_ENV":             "staging",
		"GENERATION_TIMEOUT":  "soon",
		"CACHE_CONCURRENCY":   "0",
		"ALLOW_BROWSER_CALLS": "maybe",
		"PORT":                "http",
	}
	for key, value := range tests {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := FromEnv()
			assert.Error(t, err)
		})
	}
}
