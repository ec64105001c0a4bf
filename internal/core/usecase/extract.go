package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/ports"
)

// PipelineConfig tunes batching and merge thresholds. Concurrency is split by
// provider class because remote providers are rate limited and saturate at
// far lower parallelism than a local embedder.
type PipelineConfig struct {
	BatchSize           int
	LocalConcurrency    int
	RemoteConcurrency   int
	CrossMergeThreshold float64
	DedupeThreshold     float64

	// PurposeOverrides are operator-level threshold adjustments applied
	// before any per-request override.
	PurposeOverrides map[domain.ResearchPurpose]domain.PurposeOverride
}

func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		BatchSize:           10,
		LocalConcurrency:    8,
		RemoteConcurrency:   2,
		CrossMergeThreshold: 0.85,
		DedupeThreshold:     DefaultDedupeThreshold,
	}
}

func (c PipelineConfig) normalize() PipelineConfig {
	out := c
	def := DefaultPipelineConfig()
	if out.BatchSize <= 0 {
		out.BatchSize = def.BatchSize
	}
	if out.LocalConcurrency <= 0 {
		out.LocalConcurrency = def.LocalConcurrency
	}
	if out.RemoteConcurrency <= 0 {
		out.RemoteConcurrency = def.RemoteConcurrency
	}
	if out.CrossMergeThreshold <= 0 || out.CrossMergeThreshold > 1 {
		out.CrossMergeThreshold = def.CrossMergeThreshold
	}
	if out.DedupeThreshold <= 0 || out.DedupeThreshold > 1 {
		out.DedupeThreshold = def.DedupeThreshold
	}
	return out
}

// ExtractThemesUseCase orchestrates the extraction pipeline: familiarization,
// coding, clustering, validation and deduplication, configured per research
// purpose.
type ExtractThemesUseCase struct {
	embedder   ports.EmbeddingProvider
	strategy   ports.CodeExtractionStrategy
	sink       ports.ProgressSink
	aggregator *Aggregator
	validator  *Validator
	cfg        PipelineConfig
}

func NewExtractThemesUseCase(
	embedder ports.EmbeddingProvider,
	strategy ports.CodeExtractionStrategy,
	sink ports.ProgressSink,
	cfg PipelineConfig,
) *ExtractThemesUseCase {
	return &ExtractThemesUseCase{
		embedder:   embedder,
		strategy:   strategy,
		sink:       sink,
		aggregator: &Aggregator{},
		validator:  &Validator{},
		cfg:        cfg.normalize(),
	}
}

func (uc *ExtractThemesUseCase) Extract(ctx context.Context, req domain.ExtractionRequest) (*domain.ExtractionResult, error) {
	profile, err := domain.ProfileFor(req.Purpose)
	if err != nil {
		return nil, err
	}
	if override, ok := uc.cfg.PurposeOverrides[req.Purpose]; ok {
		profile, err = profile.WithOverride(override)
		if err != nil {
			return nil, err
		}
	}
	profile, err = profile.WithOverride(req.Options.Override)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateSources(req.Sources); err != nil {
		return nil, err
	}

	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	reporter := newProgressReporter(uc.sink, runID)
	concurrency := uc.concurrency(req.Options.Concurrency)

	stats := domain.BatchExtractionStats{BatchConcurrency: concurrency}
	stats.SourcesTotal = len(req.Sources)
	stats.StartedAt = time.Now().UTC()

	var hitsBefore, missesBefore int
	if cacheStats, ok := uc.embedder.(ports.EmbeddingCacheStats); ok {
		hitsBefore, missesBefore = cacheStats.CacheStats()
	}

	result, err := uc.run(ctx, req, profile, reporter, concurrency, &stats)
	if cacheStats, ok := uc.embedder.(ports.EmbeddingCacheStats); ok {
		hits, misses := cacheStats.CacheStats()
		stats.CacheHits = hits - hitsBefore
		stats.CacheMisses = misses - missesBefore
	}
	stats.FinishedAt = time.Now().UTC()
	stats.Elapsed = stats.FinishedAt.Sub(stats.StartedAt)
	if err != nil {
		reporter.stage(ctx, domain.StageFailed, err.Error())
		// The themes are gone but the run's counters still describe what
		// happened before the failure.
		return &domain.ExtractionResult{Stats: stats}, err
	}

	result.Stats = stats
	reporter.stage(ctx, domain.StageComplete, fmt.Sprintf("extracted %d themes from %d sources", len(result.Themes), stats.SourcesProcessed))
	return result, nil
}

func (uc *ExtractThemesUseCase) run(
	ctx context.Context,
	req domain.ExtractionRequest,
	profile domain.PurposeProfile,
	reporter *progressReporter,
	concurrency int,
	stats *domain.BatchExtractionStats,
) (*domain.ExtractionResult, error) {
	reporter.stage(ctx, domain.StagePreparing, fmt.Sprintf("purpose %s, %d sources", profile.Purpose, len(req.Sources)))

	reporter.stage(ctx, domain.StageFamiliarization, "reading sources")
	readable, err := uc.familiarize(ctx, req.Sources, reporter, concurrency, stats, req.Options.AllowPartial)
	if err != nil {
		return nil, err
	}

	reporter.stage(ctx, domain.StageCoding, "extracting codes")
	batchThemes, err := uc.codeAndCluster(ctx, readable, profile, reporter, concurrency,
		uc.batchSize(req.Options.BatchSize), stats, req.Options.AllowPartial)
	if err != nil {
		return nil, err
	}

	reporter.stage(ctx, domain.StageClustering, "merging themes across batches")
	candidateBefore := 0
	flat := make([]*domain.CandidateTheme, 0)
	for _, themes := range batchThemes {
		candidateBefore += len(themes)
		flat = append(flat, themes...)
	}
	merged := uc.aggregator.MergeAcross(flat, uc.cfg.CrossMergeThreshold)
	stats.ThemesMerged = candidateBefore - len(merged)
	candidates := uc.aggregator.Bound(merged, profile)
	stats.ThemesCandidate = len(candidates)
	reporter.themes(len(candidates), 0)

	if err := checkCodeConservation(candidates, stats.CodesEmbedded); err != nil {
		return nil, err
	}

	reporter.stage(ctx, domain.StageValidation, "scoring candidate themes")
	abstractOnly := domain.AllAbstractOnly(req.Sources)
	accepted, rejected := uc.validator.ValidateAll(candidates, profile, abstractOnly)
	stats.ThemesAccepted = len(accepted)
	stats.ThemesRejected = rejected
	reporter.themes(len(candidates), len(accepted))

	reporter.stage(ctx, domain.StageDeduplication, "merging near-duplicate themes")
	unified := freezeThemes(accepted, stats.SourcesProcessed)
	unified = NewDeduplicator(uc.cfg.DedupeThreshold).Deduplicate(unified)
	stats.ThemesAccepted = len(unified)

	if err := checkSourceCoverage(unified, req.Sources); err != nil {
		return nil, err
	}

	sort.Slice(unified, func(i, j int) bool { return unified[i].ID < unified[j].ID })
	return &domain.ExtractionResult{Themes: unified}, nil
}

// batchSize prefers the caller's positive hint over the configured default.
func (uc *ExtractThemesUseCase) batchSize(hint int) int {
	if hint > 0 {
		return hint
	}
	return uc.cfg.BatchSize
}

// concurrency clamps the caller's hint by the provider-class ceiling.
func (uc *ExtractThemesUseCase) concurrency(hint int) int {
	limit := uc.cfg.LocalConcurrency
	if uc.embedder.Remote() {
		limit = uc.cfg.RemoteConcurrency
	}
	if hint > 0 && hint < limit {
		return hint
	}
	return limit
}

// freezeThemes converts accepted mutable candidates into immutable unified
// themes. Weight is the share of processed sources supporting the theme.
func freezeThemes(accepted []*domain.CandidateTheme, sourcesProcessed int) []domain.UnifiedTheme {
	out := make([]domain.UnifiedTheme, 0, len(accepted))
	for _, theme := range accepted {
		weight := 0.0
		if sourcesProcessed > 0 {
			weight = float64(theme.SupportCount) / float64(sourcesProcessed)
		}
		out = append(out, domain.UnifiedTheme{
			ID:              theme.ID,
			Label:           theme.Label,
			Keywords:        themeKeywords(theme, 5),
			Description:     themeDescription(theme),
			SourceIDs:       theme.SortedSourceIDs(),
			Weight:          weight,
			ValidationScore: (theme.Coherence + theme.Distinctiveness) / 2,
			Centroid:        theme.Centroid,
		})
	}
	return out
}

func themeKeywords(theme *domain.CandidateTheme, limit int) []string {
	seen := make(map[string]struct{}, len(theme.Codes))
	out := make([]string, 0, limit)
	for _, code := range theme.Codes {
		key := strings.ToLower(strings.TrimSpace(code.Label))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, code.Label)
		if len(out) == limit {
			break
		}
	}
	return out
}

func themeDescription(theme *domain.CandidateTheme) string {
	keywords := themeKeywords(theme, 3)
	if len(keywords) == 0 {
		return theme.Label
	}
	return fmt.Sprintf("%s (related: %s; %d codes from %d sources)",
		theme.Label, strings.Join(keywords, ", "), len(theme.Codes), theme.SupportCount)
}

// checkCodeConservation enforces that clustering redistributed codes without
// dropping or duplicating any. A violation is fatal for the run.
func checkCodeConservation(themes []*domain.CandidateTheme, codesEmbedded int) error {
	total := 0
	for _, theme := range themes {
		if len(theme.Codes) == 0 {
			return domain.WrapError(domain.ErrInvariant, "cluster themes",
				fmt.Errorf("theme %s has zero codes", theme.ID))
		}
		total += len(theme.Codes)
	}
	if total != codesEmbedded {
		return domain.WrapError(domain.ErrInvariant, "cluster themes",
			fmt.Errorf("code count changed during clustering: %d clustered, %d embedded", total, codesEmbedded))
	}
	return nil
}

// checkSourceCoverage enforces that every theme's provenance is a non-empty
// subset of the input source ids.
func checkSourceCoverage(themes []domain.UnifiedTheme, sources []domain.SourceContent) error {
	known := make(map[string]struct{}, len(sources))
	for _, src := range sources {
		known[src.ID] = struct{}{}
	}
	for _, theme := range themes {
		if len(theme.SourceIDs) == 0 {
			return domain.WrapError(domain.ErrInvariant, "freeze themes",
				fmt.Errorf("theme %s has no source provenance", theme.ID))
		}
		for _, id := range theme.SourceIDs {
			if _, ok := known[id]; !ok {
				return domain.WrapError(domain.ErrInvariant, "freeze themes",
					fmt.Errorf("theme %s references unknown source %s", theme.ID, id))
			}
		}
	}
	return nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
