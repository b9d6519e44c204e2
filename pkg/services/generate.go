package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"vehicle-intel/pkg/models"
)

type Method string

const (
	MethodSDK      Method = "sdk"
	MethodREST     Method = "rest"
	MethodFallback Method = "fallback"
)

// SystemInstruction is sent with every provider request.
const SystemInstruction = `Generate vehicle-intelligence content as JSON matching the schema.
Respond with a single JSON object and nothing else:
{
  "title": string,
  "slug": string,
  "description": string,
  "hero": {"headline": string, "subheadline": string, "image": {"url": string, "alt": string}, "badges": [{"label": string}], "cta": {"label": string, "href": string}},
  "toc": [{"id": string, "label": string}],
  "blocks": [
    {"type": "intro", "id": string, "title": string, "content": string},
    {"type": "comparisonTable", "id": string, "title": string, "columns": [string], "items": [object]},
    {"type": "specGrid", "id": string, "title": string, "items": [{"label": string, "value": string}]},
    {"type": "prosCons", "id": string, "title": string, "pros": [string], "cons": [string]},
    {"type": "gallery", "id": string, "title": string, "images": [{"url": string, "alt": string}]},
    {"type": "faq", "id": string, "title": string, "items": [{"question": string, "answer": string}]},
    {"type": "ctaBanner", "id": string, "title": string, "text": string, "cta": {"label": string, "href": string}},
    {"type": "markdown", "id": string, "title": string, "content": string}
  ],
  "modules": [{"type": "tldr" | "key_takeaways" | "quiz" | "mpg_calculator" | "pull_quote" | "dropdown" | "reviews", ...}],
  "seo": {"canonical": string, "ogImage": string}
}
Every toc id must match a block id. Every image needs alt text.`

// ErrNotConfigured marks a provider that has no credentials. Such attempts
// are skipped rather than counted as failures.
var ErrNotConfigured = errors.New("provider not configured")

// Provider turns a prompt into raw model text.
type Provider interface {
	Method() Method
	Complete(ctx context.Context, system, prompt string) (string, error)
}

type Attempt struct {
	Method     Method `json:"method"`
	Skipped    bool   `json:"skipped,omitempty"`
	Error      string `json:"error,omitempty"`
	DurationMS int64  `json:"durationMs"`
}

// Result is what Generate returns. Article is never nil.
type Result struct {
	Article      *models.Article `json:"article"`
	Method       Method          `json:"method"`
	UsedFallback bool            `json:"usedFallback"`
	Attempts     []Attempt       `json:"attempts"`
}

// Diagnostics joins the errors of attempts that actually ran. It is empty
// when a provider succeeded or when every provider was skipped.
func (r Result) Diagnostics() string {
	if !r.UsedFallback {
		return ""
	}
	var parts []string
	for _, a := range r.Attempts {
		if !a.Skipped && a.Error != "" {
			parts = append(parts, fmt.Sprintf("%s: %s", a.Method, a.Error))
		}
	}
	return strings.Join(parts, "; ")
}

// Generator walks its providers in order and returns the first acceptable
// article, ending with the deterministic fallback.
type Generator struct {
	providers []Provider
	timeout   time.Duration
	logger    *zap.Logger
}

func NewGenerator(logger *zap.Logger, timeout time.Duration, providers ...Provider) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{providers: providers, timeout: timeout, logger: logger}
}

// Configured reports whether any provider has credentials.
func (g *Generator) Configured() bool {
	for _, p := range g.providers {
		if c, ok := p.(interface{ Configured() bool }); !ok || c.Configured() {
			return true
		}
	}
	return false
}

func (g *Generator) Generate(ctx context.Context, prompt string) Result {
	var attempts []Attempt
	for _, p := range g.providers {
		start := time.Now()
		article, err := g.attempt(ctx, p, prompt)
		at := Attempt{Method: p.Method(), DurationMS: time.Since(start).Milliseconds()}
		switch {
		case err == nil:
			attempts = append(attempts, at)
			g.logger.Info("article generated", zap.String("method", string(p.Method())), zap.String("slug", article.Slug))
			return Result{Article: article, Method: p.Method(), Attempts: attempts}
		case errors.Is(err, ErrNotConfigured):
			at.Skipped = true
		default:
			at.Error = err.Error()
			g.logger.Warn("generation attempt failed", zap.String("method", string(p.Method())), zap.Error(err))
		}
		attempts = append(attempts, at)
	}

	article := Fallback(prompt)
	attempts = append(attempts, Attempt{Method: MethodFallback})
	g.logger.Info("using fallback article", zap.String("slug", article.Slug))
	return Result{Article: article, Method: MethodFallback, UsedFallback: true, Attempts: attempts}
}

func (g *Generator) attempt(ctx context.Context, p Provider, prompt string) (*models.Article, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	text, err := p.Complete(ctx, SystemInstruction, prompt)
	if err != nil {
		return nil, err
	}
	candidate, err := ParseCandidate(text)
	if err != nil {
		return nil, err
	}
	return Accept(candidate)
}

var fencedJSON = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")

var ErrNoJSON = errors.New("no JSON found in model output")

// ParseCandidate decodes raw model text: first as JSON directly, then from
// the first fenced code block.
func ParseCandidate(text string) (any, error) {
	var v any
	trimmed := strings.TrimSpace(text)
	if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
		return v, nil
	}
	m := fencedJSON.FindStringSubmatch(text)
	if m == nil {
		return nil, ErrNoJSON
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &v); err != nil {
		return nil, fmt.Errorf("fenced block: %w", err)
	}
	return v, nil
}

// Accept normalizes a decoded candidate. The root must be an object and the
// result must be renderable.
func Accept(candidate any) (*models.Article, error) {
	if _, ok := candidate.(map[string]any); !ok {
		return nil, fmt.Errorf("candidate root is %T, want object", candidate)
	}
	a := models.Normalize(candidate)
	if err := a.CheckRenderable(); err != nil {
		return nil, err
	}
	return a, nil
}
