package ports

import (
	"context"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// EmbeddingProvider produces a fixed-length vector for a text. Embeddings must
// be deterministic for identical input and model version.
type EmbeddingProvider interface {
	Embed(ctx context.Context, text string) (domain.Vector, error)
	ModelID() string
	// Remote reports whether calls leave the process. The batch orchestrator
	// lowers its concurrency for remote, rate-limited providers.
	Remote() bool
}

// EmbeddingCacheStats exposes hit/miss counters of a caching provider.
type EmbeddingCacheStats interface {
	CacheStats() (hits, misses int)
}

// CodeExtractionStrategy turns one source into labeled codes. Strategy
// selection is an explicit capability supplied by the caller, not a runtime
// guess. Codes are returned in a stable order.
type CodeExtractionStrategy interface {
	ExtractCodes(ctx context.Context, source domain.SourceContent, target domain.CodeRange) ([]domain.InitialCode, error)
	Name() string
}

// ProgressSink receives typed progress events. Publish failures must be
// swallowed by the caller; progress delivery never causes result loss.
type ProgressSink interface {
	Publish(ctx context.Context, event domain.ProgressEvent) error
}

// RunRepository persists run state and final results.
type RunRepository interface {
	CreateRun(ctx context.Context, run *domain.ExtractionRun, req domain.ExtractionRequest) error
	GetRun(ctx context.Context, id string) (*domain.ExtractionRun, error)
	GetRequest(ctx context.Context, id string) (*domain.ExtractionRequest, error)
	UpdateStatus(ctx context.Context, id string, status domain.RunStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result *domain.ExtractionResult) error
	GetResult(ctx context.Context, id string) (*domain.ExtractionResult, error)
}

// RunQueue publishes/consumes queued extraction runs.
type RunQueue interface {
	PublishRunQueued(ctx context.Context, runID string) error
	SubscribeRunQueued(ctx context.Context, handler func(context.Context, string) error) error
}
