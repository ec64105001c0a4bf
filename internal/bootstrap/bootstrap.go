package bootstrap

import (
	"context"
	"fmt"

	"github.com/shahabnazari/blackqm-theme-engine/internal/config"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/usecase"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/embedding"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/extraction/lexical"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/llm/ollama"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/queue/nats"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/repository/postgres"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/resilience"
)

type App struct {
	Config config.Config

	Queue     *nats.Queue
	Repo      ports.RunRepository
	ExtractUC ports.ThemeExtractionService
	SubmitUC  *usecase.SubmitRunUseCase
	ProcessUC ports.RunProcessor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewRunRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSRunSubject, cfg.NATSProgressSubject)
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	embedder, strategy, err := buildProviders(cfg)
	if err != nil {
		return nil, err
	}

	overrides, err := config.LoadPurposeOverrides(cfg.PurposeOverridesPath)
	if err != nil {
		return nil, fmt.Errorf("load purpose overrides: %w", err)
	}

	extractUC := usecase.NewExtractThemesUseCase(embedder, strategy, queue, usecase.PipelineConfig{
		BatchSize:           cfg.BatchSize,
		LocalConcurrency:    cfg.LocalConcurrency,
		RemoteConcurrency:   cfg.RemoteConcurrency,
		CrossMergeThreshold: cfg.CrossMergeThreshold,
		DedupeThreshold:     cfg.DedupeThreshold,
		PurposeOverrides:    overrides,
	})
	submitUC := usecase.NewSubmitRunUseCase(repo, queue)
	processUC := usecase.NewProcessRunUseCase(repo, extractUC)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		ExtractUC: extractUC,
		SubmitUC:  submitUC,
		ProcessUC: processUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

// buildProviders resolves the configured embedding provider and code
// extraction strategy. The remote variants share one resilience executor so
// the rate limit and breakers cover every Ollama call.
func buildProviders(cfg config.Config) (ports.EmbeddingProvider, ports.CodeExtractionStrategy, error) {
	var ollamaClient *ollama.Client
	if cfg.EmbeddingProvider == "ollama" || cfg.ExtractionStrategy == "llm" {
		executorCfg := resilience.DefaultConfig()
		executorCfg.RateLimitPerSecond = cfg.RemoteRatePerSecond
		executorCfg.RateBurst = cfg.RemoteRateBurst
		executor := resilience.NewExecutor(executorCfg)
		ollamaClient = ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	}

	var embedder ports.EmbeddingProvider
	switch cfg.EmbeddingProvider {
	case "local":
		embedder = embedding.NewLocal(cfg.LocalEmbedDimensions)
	case "ollama":
		embedder = ollama.NewEmbedder(ollamaClient)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	cached, err := embedding.NewCache(embedder, cfg.EmbeddingCacheSize)
	if err != nil {
		return nil, nil, fmt.Errorf("init embedding cache: %w", err)
	}

	var strategy ports.CodeExtractionStrategy
	switch cfg.ExtractionStrategy {
	case "lexical":
		strategy = lexical.New()
	case "llm":
		strategy = ollama.NewCodeExtractor(ollamaClient)
	default:
		return nil, nil, fmt.Errorf("unknown extraction strategy %q", cfg.ExtractionStrategy)
	}

	return cached, strategy, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
