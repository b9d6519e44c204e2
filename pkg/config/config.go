package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
)

// Config is read once at start from the environment and an optional .env.
type Config struct {
	AppURL        string `validate:"required,url"`
	Port          string `validate:"required,numeric"`
	AppEnv        string `validate:"oneof=development production test"`
	LogLevel      string `validate:"oneof=debug info warn error"`
	SessionSecret string

	GeminiAPIKey      string
	GeminiModel       string `validate:"required"`
	GeminiAPIURL      string `validate:"omitempty,url"`
	AllowBrowserCalls bool
	GenerationTimeout time.Duration `validate:"gt=0"`

	ContentRoot    string `validate:"required"`
	GitHubToken    string
	GitHubOwner    string
	GitHubRepo     string
	GitHubBranch   string `validate:"required"`
	GitHubAPIURL   string `validate:"omitempty,url"`
	GitUserName    string
	GitUserEmail   string `validate:"omitempty,email"`
	QCRulesPath    string
	NatsURL        string
	SearchIndexDir string
	HistoryDBPath  string

	CacheConcurrency int `validate:"min=1,max=256"`

	OauthConf *oauth2.Config

	// GitHubAllowedUsers are the lower-cased logins allowed through OAuth.
	GitHubAllowedUsers []string
}

// Helper to get env with default
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Load reads the configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv reads the configuration from the process environment only.
func FromEnv() (*Config, error) {
	appURL := strings.TrimRight(getEnv("APP_URL", "http://localhost:8080"), "/")
	redirectURL := getEnv("GITHUB_REDIRECT_URL", appURL+"/auth/callback")

	cfg := &Config{
		AppURL:        appURL,
		Port:          getEnv("PORT", "8080"),
		AppEnv:        getEnv("APP_ENV", "development"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		SessionSecret: os.Getenv("SESSION_SECRET"),

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiAPIURL: os.Getenv("GEMINI_API_URL"),

		ContentRoot:    getEnv("CONTENT_ROOT", "./data"),
		GitHubToken:    os.Getenv("GITHUB_TOKEN"),
		GitHubOwner:    os.Getenv("GITHUB_OWNER"),
		GitHubRepo:     os.Getenv("GITHUB_REPO"),
		GitHubBranch:   getEnv("GITHUB_BRANCH", "main"),
		GitHubAPIURL:   os.Getenv("GITHUB_API_URL"),
		GitUserName:    getEnv("GIT_USER_NAME", "Vehicle Intel Bot"),
		GitUserEmail:   getEnv("GIT_USER_EMAIL", "bot@vehicle-intel.local"),
		QCRulesPath:    os.Getenv("QC_RULES_PATH"),
		NatsURL:        os.Getenv("NATS_URL"),
		SearchIndexDir: os.Getenv("SEARCH_INDEX_PATH"),
		HistoryDBPath:  getEnv("HISTORY_DB_PATH", "./data/history.db"),

		CacheConcurrency:  20,
		GenerationTimeout: 30 * time.Second,
	}

	var err error
	if cfg.AllowBrowserCalls, err = parseBool("ALLOW_BROWSER_CALLS", false); err != nil {
		return nil, err
	}
	if v := os.Getenv("GENERATION_TIMEOUT"); v != "" {
		if cfg.GenerationTimeout, err = time.ParseDuration(v); err != nil {
			return nil, fmt.Errorf("GENERATION_TIMEOUT: %w", err)
		}
	}
	if cc := os.Getenv("CACHE_CONCURRENCY"); cc != "" {
		if cfg.CacheConcurrency, err = strconv.Atoi(cc); err != nil {
			return nil, fmt.Errorf("CACHE_CONCURRENCY: %w", err)
		}
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if clientID := os.Getenv("GITHUB_CLIENT_ID"); clientID != "" {
		cfg.GitHubAllowedUsers = splitList(os.Getenv("GITHUB_ALLOWED_USERS"))
		if len(cfg.GitHubAllowedUsers) == 0 {
			return nil, errors.New("GITHUB_ALLOWED_USERS is required when GITHUB_CLIENT_ID is set")
		}
		cfg.OauthConf = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
			RedirectURL:  redirectURL,
		}
	}
	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.ToLower(strings.TrimSpace(item)); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

// RemoteStoreEnabled reports whether articles go to GitHub instead of disk.
func (c *Config) RemoteStoreEnabled() bool {
	return c.GitHubToken != "" && c.GitHubOwner != "" && c.GitHubRepo != ""
}

func (c *Config) GenerationConfigured() bool {
	return c.GeminiAPIKey != ""
}

func (c *Config) AuthEnabled() bool {
	return c.OauthConf != nil
}

func (c *Config) Production() bool {
	return c.AppEnv == "production"
}
