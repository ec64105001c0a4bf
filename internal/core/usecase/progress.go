package usecase

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
)

// progressReporter drives the per-run progress state machine. Visibility comes
// from emitting real events as work completes; it must never slow the work
// down or fail the run when the sink is unreachable.
type progressReporter struct {
	sink  ports.ProgressSink
	runID string

	mu   sync.Mutex
	live domain.ProgressLiveStats
}

func newProgressReporter(sink ports.ProgressSink, runID string) *progressReporter {
	return &progressReporter{sink: sink, runID: runID}
}

func (r *progressReporter) stage(ctx context.Context, stage domain.ProgressStage, message string) {
	r.emit(ctx, stage, message)
}

// sourceRead records one familiarized source and emits a per-item event so a
// caller watching a long batch sees continuous forward progress.
func (r *progressReporter) sourceRead(ctx context.Context, words int, message string) {
	r.mu.Lock()
	r.live.SourcesProcessed++
	r.live.WordsRead += words
	r.mu.Unlock()
	r.emit(ctx, domain.StageFamiliarization, message)
}

func (r *progressReporter) sourceFailed(ctx context.Context, message string) {
	r.mu.Lock()
	r.live.SourcesFailed++
	r.mu.Unlock()
	r.emit(ctx, domain.StageFamiliarization, message)
}

func (r *progressReporter) codesGenerated(n int) {
	r.mu.Lock()
	r.live.CodesGenerated += n
	r.mu.Unlock()
}

func (r *progressReporter) themes(candidate, accepted int) {
	r.mu.Lock()
	r.live.ThemesCandidate = candidate
	r.live.ThemesAccepted = accepted
	r.mu.Unlock()
}

func (r *progressReporter) emit(ctx context.Context, stage domain.ProgressStage, message string) {
	if r == nil || r.sink == nil {
		return
	}
	r.mu.Lock()
	live := r.live
	r.mu.Unlock()

	event := domain.ProgressEvent{
		RunID:       r.runID,
		Stage:       stage,
		StageIndex:  domain.StageIndex(stage),
		TotalStages: domain.TotalStages(),
		Message:     message,
		Stats:       live,
		EmittedAt:   time.Now().UTC(),
	}
	if err := r.sink.Publish(ctx, event); err != nil {
		slog.Warn("progress_publish_failed",
			"run_id", r.runID,
			"stage", string(stage),
			"error", err,
		)
	}
}
