package usecase

import (
	"context"
	"fmt"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
)

// ProcessRunUseCase executes one queued extraction run: load the persisted
// request, run the pipeline, persist the result.
type ProcessRunUseCase struct {
	repo      ports.RunRepository
	extractor ports.ThemeExtractionService
}

func NewProcessRunUseCase(repo ports.RunRepository, extractor ports.ThemeExtractionService) *ProcessRunUseCase {
	return &ProcessRunUseCase{repo: repo, extractor: extractor}
}

func (uc *ProcessRunUseCase) ProcessByID(ctx context.Context, runID string) error {
	if err := uc.markStatus(ctx, runID, domain.RunRunning, ""); err != nil {
		return fmt.Errorf("set status=running: %w", err)
	}

	result, err := uc.runPipeline(ctx, runID)
	if err != nil {
		if failErr := uc.markFailed(ctx, runID, err); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveResult(ctx, runID, result); err != nil {
		if failErr := uc.markFailed(ctx, runID, err); failErr != nil {
			return fmt.Errorf("save result: %w; mark failed status: %v", err, failErr)
		}
		return fmt.Errorf("save result: %w", err)
	}

	if err := uc.markStatus(ctx, runID, domain.RunComplete, ""); err != nil {
		return fmt.Errorf("set status=complete: %w", err)
	}
	return nil
}

func (uc *ProcessRunUseCase) runPipeline(ctx context.Context, runID string) (*domain.ExtractionResult, error) {
	req, err := uc.repo.GetRequest(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("fetch run request: %w", err)
	}
	req.RunID = runID

	result, err := uc.extractor.Extract(ctx, *req)
	if err != nil {
		return nil, fmt.Errorf("extract themes: %w", err)
	}
	return result, nil
}

func (uc *ProcessRunUseCase) markStatus(ctx context.Context, runID string, status domain.RunStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, runID, status, errMessage)
}

func (uc *ProcessRunUseCase) markFailed(ctx context.Context, runID string, processErr error) error {
	if processErr == nil {
		return nil
	}
	return uc.markStatus(ctx, runID, domain.RunFailed, processErr.Error())
}
