package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
)

// SubmitRunUseCase accepts an asynchronous extraction request, persists it
// and enqueues it for a worker. Configuration errors are rejected here,
// before any pipeline work starts.
type SubmitRunUseCase struct {
	repo  ports.RunRepository
	queue ports.RunQueue
}

func NewSubmitRunUseCase(repo ports.RunRepository, queue ports.RunQueue) *SubmitRunUseCase {
	return &SubmitRunUseCase{repo: repo, queue: queue}
}

func (uc *SubmitRunUseCase) Submit(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractionRun, error) {
	profile, err := domain.ProfileFor(req.Purpose)
	if err != nil {
		return nil, err
	}
	if _, err := profile.WithOverride(req.Options.Override); err != nil {
		return nil, err
	}
	if err := domain.ValidateSources(req.Sources); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	run := &domain.ExtractionRun{
		ID:          uuid.NewString(),
		Purpose:     req.Purpose,
		SourceCount: len(req.Sources),
		Status:      domain.RunQueued,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := uc.repo.CreateRun(ctx, run, req); err != nil {
		return nil, fmt.Errorf("create run record: %w", err)
	}
	if err := uc.queue.PublishRunQueued(ctx, run.ID); err != nil {
		return nil, fmt.Errorf("publish run queued event: %w", err)
	}
	return run, nil
}
