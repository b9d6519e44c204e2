package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vehicle-intel/pkg/history"
	"vehicle-intel/pkg/storage"
)

const (
	defaultSearchLimit = 10
	maxLimit           = 100
)

func (a *API) ListArticles(c *gin.Context) {
	articles, err := a.Cache.List(c.Request.Context())
	if err != nil {
		a.logger(c).Error("list articles", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch articles"})
		return
	}
	c.JSON(http.StatusOK, articles)
}

// GetArticle serves the published article from the render cache.
func (a *API) GetArticle(c *gin.Context) {
	art, err := a.Cache.Get(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		return
	}
	if err != nil {
		a.logger(c).Error("get article", zap.String("slug", c.Param("slug")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch article"})
		return
	}
	c.JSON(http.StatusOK, art)
}

func (a *API) SearchArticles(c *gin.Context) {
	if a.Search == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Search is disabled"})
		return
	}
	q := c.Query("q")
	if q == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q is required"})
		return
	}
	hits, err := a.Search.Search(q, queryLimit(c, defaultSearchLimit))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": q, "hits": hits})
}

func (a *API) ListHistory(c *gin.Context) {
	if a.History == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "History is disabled"})
		return
	}
	kind := history.Kind(c.Query("kind"))
	if kind != "" && kind != history.KindGenerate && kind != history.KindPublish {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be generate or publish"})
		return
	}
	events, err := a.History.Recent(c.Request.Context(), kind, queryLimit(c, 0))
	if err != nil {
		a.logger(c).Error("list history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}
	c.JSON(http.StatusOK, events)
}

func queryLimit(c *gin.Context, fallback int) int {
	n, err := strconv.Atoi(c.Query("limit"))
	if err != nil || n <= 0 {
		return fallback
	}
	return min(n, maxLimit)
}
