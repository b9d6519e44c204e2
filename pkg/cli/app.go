package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"vehicle-intel/pkg/config"
	"vehicle-intel/pkg/events"
	"vehicle-intel/pkg/history"
	"vehicle-intel/pkg/logging"
	"vehicle-intel/pkg/search"
	"vehicle-intel/pkg/services"
	"vehicle-intel/pkg/storage"
)

// app is the set of services shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	store     storage.Store
	generator *services.Generator
	evaluator *services.Evaluator
	publisher *services.Publisher
	cache     *services.ArticleCache
	index     *search.Index
	history   *history.DB

	closers []func() error
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func newEvaluator(path string) (*services.Evaluator, error) {
	var (
		rules *services.RuleSet
		err   error
	)
	if path == "" {
		rules, err = services.DefaultRules()
	} else {
		rules, err = services.LoadRules(path)
	}
	if err != nil {
		return nil, err
	}
	return services.NewEvaluator(rules)
}

func newGenerator(cfg *config.Config, logger *zap.Logger) *services.Generator {
	restURL := cfg.GeminiAPIURL
	if restURL == "" {
		restURL = services.DefaultGeminiURL
	}
	return services.NewGenerator(logger, cfg.GenerationTimeout,
		services.NewSDKProvider(cfg.GeminiAPIKey, cfg.GeminiModel),
		services.NewRESTProvider(restURL, cfg.GeminiAPIKey, cfg.GeminiModel),
	)
}

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if !cfg.RemoteStoreEnabled() {
		return storage.NewLocalStore(cfg.ContentRoot), nil
	}
	return storage.NewGitHubStore(ctx, storage.GitHubConfig{
		Token:          cfg.GitHubToken,
		Owner:          cfg.GitHubOwner,
		Repo:           cfg.GitHubRepo,
		Branch:         cfg.GitHubBranch,
		BaseURL:        cfg.GitHubAPIURL,
		CommitterName:  cfg.GitUserName,
		CommitterEmail: cfg.GitUserEmail,
	})
}

// newApp opens every backing service. Invalidators run in the order
// render cache, search index, history, NATS.
func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*app, error) {
	a := &app{cfg: cfg, logger: logger}

	var err error
	if a.evaluator, err = newEvaluator(cfg.QCRulesPath); err != nil {
		return nil, fmt.Errorf("load qc rules: %w", err)
	}
	a.generator = newGenerator(cfg, logger)
	if a.store, err = newStore(ctx, cfg); err != nil {
		return nil, fmt.Errorf("open article store: %w", err)
	}
	a.cache = services.NewArticleCache(a.store, cfg.CacheConcurrency)

	if a.index, err = search.Open(cfg.SearchIndexDir); err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.index.Close)

	if dir := filepath.Dir(cfg.HistoryDBPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			a.Close()
			return nil, fmt.Errorf("create history directory: %w", err)
		}
	}
	if a.history, err = history.Open(cfg.HistoryDBPath); err != nil {
		a.Close()
		return nil, err
	}
	a.closers = append(a.closers, a.history.Close)

	invalidators := []services.Invalidator{a.cache, a.index, a.history}
	if cfg.NatsURL != "" {
		conn, err := events.Connect(cfg.NatsURL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, func() error { return conn.Drain() })
		invalidators = append(invalidators, events.NewBroadcaster(conn))
		logger.Info("broadcasting invalidations", zap.String("nats", cfg.NatsURL))
	}

	a.publisher = services.NewPublisher(a.store, cfg.AppURL, logger, invalidators...)
	logger.Info("services ready",
		zap.String("storage", a.store.Name()),
		zap.Bool("generationConfigured", a.generator.Configured()),
		zap.Int("qcRules", len(a.evaluator.Rules())))
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	_ = a.logger.Sync()
	return errors.Join(errs...)
}
