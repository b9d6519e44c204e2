package handlers

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vehicle-intel/pkg/config"
	"vehicle-intel/pkg/history"
	"vehicle-intel/pkg/logging"
	"vehicle-intel/pkg/models"
	"vehicle-intel/pkg/search"
	"vehicle-intel/pkg/services"
)

const minPromptLength = 5

// API holds the services behind the HTTP handlers. Search and History are
// optional.
type API struct {
	Config    *config.Config
	Logger    *zap.Logger
	Generator *services.Generator
	Evaluator *services.Evaluator
	Publisher *services.Publisher
	Cache     *services.ArticleCache
	Search    *search.Index
	History   *history.DB
}

type articleRequest struct {
	Article *models.Article `json:"article"`
}

func (a *API) logger(c *gin.Context) *zap.Logger {
	return logging.FromContext(c, a.Logger)
}

// HandleGenerate always answers 200 with an article once the prompt is
// accepted. Provider failures only show up in "error".
func (a *API) HandleGenerate(c *gin.Context) {
	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	prompt := strings.TrimSpace(req.Prompt)
	if utf8.RuneCountInString(prompt) < minPromptLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Prompt must be at least 5 characters"})
		return
	}

	res := a.Generator.Generate(c.Request.Context(), prompt)
	if a.History != nil {
		if err := a.History.RecordGeneration(c.Request.Context(), res); err != nil {
			a.logger(c).Warn("record generation", zap.Error(err))
		}
	}

	body := gin.H{
		"success":      true,
		"article":      res.Article,
		"usedFallback": res.UsedFallback,
		"method":       res.Method,
	}
	if diag := res.Diagnostics(); diag != "" {
		body["error"] = diag
	}
	c.JSON(http.StatusOK, body)
}

func (a *API) HandlePublish(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.Article == nil || req.Article.Slug == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": services.ErrEmptySlug.Error()})
		return
	}

	report := a.Evaluator.Evaluate(req.Article)
	if !report.Publishable {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       report.Err().Error(),
			"publishable": false,
			"results":     report.Results,
			"counts":      report.Counts,
		})
		return
	}

	res, err := a.Publisher.Publish(c.Request.Context(), req.Article)
	if err != nil {
		var pubErr *services.PublishError
		switch {
		case errors.As(err, &pubErr):
			c.JSON(http.StatusBadGateway, gin.H{"error": pubErr.Error(), "backend": pubErr.Backend})
		case errors.Is(err, services.ErrEmptySlug):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			a.logger(c).Error("publish", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Publish failed"})
		}
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *API) HandleQC(c *gin.Context) {
	var req articleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}
	if req.Article == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "article is required"})
		return
	}
	c.JSON(http.StatusOK, a.Evaluator.Evaluate(req.Article))
}

func (a *API) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"generationConfigured": a.Generator.Configured(),
		"model":                a.Config.GeminiModel,
		"browserCallsAllowed":  a.Config.AllowBrowserCalls,
		"storage":              a.Publisher.Backend(),
	})
}
