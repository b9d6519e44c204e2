package handlers

import (
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"vehicle-intel/pkg/logging"
)

// NewRouter mounts the API. Admin routes require a GitHub session only when
// OAuth is configured.
func NewRouter(api *API) *gin.Engine {
	cfg := api.Config
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.Middleware(api.Logger))

	secret := cfg.SessionSecret
	if secret == "" {
		// Sessions then last only as long as the process.
		secret = uuid.NewString() + uuid.NewString()
		if cfg.AuthEnabled() {
			api.Logger.Warn("SESSION_SECRET is not set, using a random one")
		}
	}
	store := cookie.NewStore([]byte(secret))
	store.Options(sessions.Options{Path: "/", HttpOnly: true, Secure: cfg.Production(), MaxAge: 86400 * 7})
	r.Use(sessions.Sessions("vehicle-intel", store))

	r.GET("/articles/:slug", api.GetArticle)

	pub := r.Group("/api")
	{
		pub.GET("/health", api.HandleHealth)
		pub.GET("/articles", api.ListArticles)
		pub.GET("/search", api.SearchArticles)
	}

	admin := r.Group("/api")
	if cfg.AuthEnabled() {
		auth := NewAuth(cfg.OauthConf, cfg.GitHubAPIURL, cfg.GitHubAllowedUsers)
		r.GET("/login", auth.GithubLogin)
		r.GET("/auth/callback", auth.AuthCallback)
		r.GET("/logout", auth.Logout)
		admin.Use(auth.AuthRequired)
	} else {
		api.Logger.Info("GitHub OAuth not configured, admin API is open", zap.Bool("production", cfg.Production()))
	}
	{
		admin.POST("/generate", api.HandleGenerate)
		admin.POST("/publish", api.HandlePublish)
		admin.POST("/qc", api.HandleQC)
		admin.GET("/history", api.ListHistory)
	}

	return r
}
