package ports

import (
	"context"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// ThemeExtractionService is the inbound contract for synchronous extraction.
// The caller blocks for the final result; progress events are a side channel
// and their delivery never affects the returned result. When the pipeline
// fails after work has started, the returned result carries the run's stats
// next to the error; requests rejected before any work return a nil result.
type ThemeExtractionService interface {
	Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractionResult, error)
}

// RunProcessor is the inbound contract for asynchronous run processing.
type RunProcessor interface {
	ProcessByID(ctx context.Context, runID string) error
}

// RunReader is the inbound read model for run state and results.
type RunReader interface {
	GetRun(ctx context.Context, id string) (*domain.ExtractionRun, error)
	GetResult(ctx context.Context, id string) (*domain.ExtractionResult, error)
}
