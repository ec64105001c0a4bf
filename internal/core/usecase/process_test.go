package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

type memRunRepo struct {
	mu        sync.Mutex
	runs      map[string]*domain.ExtractionRun
	requests  map[string]domain.ExtractionRequest
	results   map[string]*domain.ExtractionResult
	statusLog []domain.RunStatus

	createErr error
	saveErr   error
}

func newMemRunRepo() *memRunRepo {
	return &memRunRepo{
		runs:     make(map[string]*domain.ExtractionRun),
		requests: make(map[string]domain.ExtractionRequest),
		results:  make(map[string]*domain.ExtractionResult),
	}
}

func (r *memRunRepo) CreateRun(_ context.Context, run *domain.ExtractionRun, req domain.ExtractionRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *run
	r.runs[run.ID], r.requests[run.ID] = &stored, req
	return nil
}

func (r *memRunRepo) GetRun(_ context.Context, id string) (*domain.ExtractionRun, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run", errors.New(id))
	}
	out := *run
	return &out, nil
}

func (r *memRunRepo) GetRequest(_ context.Context, id string) (*domain.ExtractionRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run request", errors.New(id))
	}
	return &req, nil
}

func (r *memRunRepo) UpdateStatus(_ context.Context, id string, status domain.RunStatus, errMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	run, ok := r.runs[id]
	if !ok {
		return domain.WrapError(domain.ErrRunNotFound, "update run status", errors.New(id))
	}
	run.Status = status
	run.Error = errMessage
	run.UpdatedAt = time.Now().UTC()
	r.statusLog = append(r.statusLog, status)
	return nil
}

func (r *memRunRepo) SaveResult(_ context.Context, id string, result *domain.ExtractionResult) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results[id] = result
	return nil
}

func (r *memRunRepo) GetResult(_ context.Context, id string) (*domain.ExtractionResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result, ok := r.results[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrRunNotFound, "get run result", errors.New(id))
	}
	return result, nil
}

type fakeExtractionService struct {
	result *domain.ExtractionResult
	err    error
	gotReq domain.ExtractionRequest
}

func (f *fakeExtractionService) Extract(_ context.Context, req domain.ExtractionRequest) (*domain.ExtractionResult, error) {
	f.gotReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func seedRun(t *testing.T, repo *memRunRepo, id string) {
	t.Helper()
	req := domain.ExtractionRequest{
		Purpose: domain.PurposeLiteratureReview,
		Sources: testSources("s1", "s2"),
	}
	run := &domain.ExtractionRun{ID: id, Purpose: req.Purpose, SourceCount: 2, Status: domain.RunQueued}
	if err := repo.CreateRun(context.Background(), run, req); err != nil {
		t.Fatalf("seed run: %v", err)
	}
}

func TestProcessByIDCompletesRun(t *testing.T) {
	repo := newMemRunRepo()
	seedRun(t, repo, "run-1")
	extractor := &fakeExtractionService{result: &domain.ExtractionResult{
		Themes: []domain.UnifiedTheme{{ID: "t-aaa", Label: "coping", SourceIDs: []string{"s1"}}},
	}}
	uc := NewProcessRunUseCase(repo, extractor)

	if err := uc.ProcessByID(context.Background(), "run-1"); err != nil {
		t.Fatalf("process: %v", err)
	}
	wantLog := []domain.RunStatus{domain.RunRunning, domain.RunComplete}
	if len(repo.statusLog) != 2 || repo.statusLog[0] != wantLog[0] || repo.statusLog[1] != wantLog[1] {
		t.Fatalf("status transitions = %v, want %v", repo.statusLog, wantLog)
	}
	if extractor.gotReq.RunID != "run-1" {
		t.Fatalf("pipeline received run id %q", extractor.gotReq.RunID)
	}
	if extractor.gotReq.Purpose != domain.PurposeLiteratureReview || len(extractor.gotReq.Sources) != 2 {
		t.Fatalf("pipeline received wrong request: %+v", extractor.gotReq)
	}
	saved, err := repo.GetResult(context.Background(), "run-1")
	if err != nil {
		t.Fatalf("result not persisted: %v", err)
	}
	if len(saved.Themes) != 1 || saved.Themes[0].ID != "t-aaa" {
		t.Fatalf("persisted result = %+v", saved)
	}
}

func TestProcessByIDMarksFailureWithMessage(t *testing.T) {
	repo := newMemRunRepo()
	seedRun(t, repo, "run-1")
	extractor := &fakeExtractionService{err: errors.New("provider exploded")}
	uc := NewProcessRunUseCase(repo, extractor)

	err := uc.ProcessByID(context.Background(), "run-1")
	if err == nil || !strings.Contains(err.Error(), "provider exploded") {
		t.Fatalf("got %v, want the pipeline error", err)
	}
	run, getErr := repo.GetRun(context.Background(), "run-1")
	if getErr != nil {
		t.Fatalf("get run: %v", getErr)
	}
	if run.Status != domain.RunFailed {
		t.Fatalf("status = %s, want failed", run.Status)
	}
	if !strings.Contains(run.Error, "provider exploded") {
		t.Fatalf("persisted error = %q", run.Error)
	}
	if _, err := repo.GetResult(context.Background(), "run-1"); !domain.IsKind(err, domain.ErrRunNotFound) {
		t.Fatalf("failed run must not persist a result, got %v", err)
	}
}

func TestProcessByIDSaveFailureMarksRunFailed(t *testing.T) {
	repo := newMemRunRepo()
	seedRun(t, repo, "run-1")
	repo.saveErr = errors.New("disk full")
	extractor := &fakeExtractionService{result: &domain.ExtractionResult{}}
	uc := NewProcessRunUseCase(repo, extractor)

	err := uc.ProcessByID(context.Background(), "run-1")
	if err == nil || !strings.Contains(err.Error(), "save result") {
		t.Fatalf("got %v, want save result error", err)
	}
	run, _ := repo.GetRun(context.Background(), "run-1")
	if run.Status != domain.RunFailed {
		t.Fatalf("status = %s, want failed", run.Status)
	}
}

func TestProcessByIDUnknownRun(t *testing.T) {
	uc := NewProcessRunUseCase(newMemRunRepo(), &fakeExtractionService{})

	err := uc.ProcessByID(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrRunNotFound) {
		t.Fatalf("got %v, want run not found", err)
	}
}
