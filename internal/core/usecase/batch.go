package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// familiarize embeds every source up front with bounded concurrency, emitting
// one progress event per source. Sources that cannot be read are excluded
// from coding with an explicit failure marker.
func (uc *ExtractThemesUseCase) familiarize(
	ctx context.Context,
	sources []domain.SourceContent,
	reporter *progressReporter,
	concurrency int,
	stats *domain.BatchExtractionStats,
	allowPartial bool,
) ([]domain.SourceContent, error) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	readable := make([]domain.SourceContent, 0, len(sources))

	for _, src := range sources {
		src := src
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			_, err := uc.embedder.Embed(gctx, familiarizationText(src))
			if err != nil {
				if isCancellation(err) {
					return err
				}
				mu.Lock()
				stats.RecordFailure(src.ID, "familiarization", err)
				mu.Unlock()
				reporter.sourceFailed(gctx, fmt.Sprintf("source %s unreadable: %v", src.ID, err))
				return nil
			}

			mu.Lock()
			readable = append(readable, src)
			stats.WordsRead += src.WordCount()
			mu.Unlock()
			reporter.sourceRead(gctx, src.WordCount(), fmt.Sprintf("read source %s", src.ID))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if !(isCancellation(err) && allowPartial) {
			return nil, err
		}
	}

	sort.Slice(readable, func(i, j int) bool { return readable[i].ID < readable[j].ID })
	return readable, nil
}

// codeAndCluster fans extraction out over batches. Each batch extracts and
// embeds codes per source, then clusters its own codes; cross-batch merging
// and theme-count bounding happen later, globally.
func (uc *ExtractThemesUseCase) codeAndCluster(
	ctx context.Context,
	sources []domain.SourceContent,
	profile domain.PurposeProfile,
	reporter *progressReporter,
	concurrency int,
	batchSize int,
	stats *domain.BatchExtractionStats,
	allowPartial bool,
) ([][]*domain.CandidateTheme, error) {
	batches := splitBatches(sources, batchSize)
	stats.Batches = len(batches)

	// Splitting to the purpose's theme floor is deferred to the global
	// bounding pass; per-batch clustering only reduces.
	batchProfile := profile
	batchProfile.MinThemes = 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	var mu sync.Mutex
	results := make([][]*domain.CandidateTheme, len(batches))

	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			codes, err := uc.codeBatch(gctx, batch, profile, reporter, stats, &mu)
			if err != nil {
				// A tolerated cancellation still clusters the codes of the
				// sources that finished, so the counted work is not lost.
				if isCancellation(err) && allowPartial && len(codes) > 0 {
					themes := uc.aggregator.BuildThemes(codes, batchProfile)
					mu.Lock()
					results[i] = themes
					mu.Unlock()
				}
				return err
			}
			themes := uc.aggregator.BuildThemes(codes, batchProfile)
			mu.Lock()
			results[i] = themes
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if !(isCancellation(err) && allowPartial) {
			return nil, err
		}
	}
	return results, nil
}

// codeBatch runs code extraction and embedding for one batch of sources.
// Per-source failures are recorded and skipped; only cancellation aborts, and
// it returns the codes of the sources that were fully processed and counted,
// so partial output always agrees with the recorded stats.
func (uc *ExtractThemesUseCase) codeBatch(
	ctx context.Context,
	batch []domain.SourceContent,
	profile domain.PurposeProfile,
	reporter *progressReporter,
	stats *domain.BatchExtractionStats,
	mu *sync.Mutex,
) ([]domain.InitialCode, error) {
	out := make([]domain.InitialCode, 0, len(batch)*profile.CodesPerSource.Max)

	for _, src := range batch {
		if err := ctx.Err(); err != nil {
			return out, err
		}

		codes, err := uc.strategy.ExtractCodes(ctx, src, profile.CodesPerSource)
		if err != nil {
			if isCancellation(err) {
				return out, err
			}
			mu.Lock()
			stats.RecordFailure(src.ID, "coding", err)
			mu.Unlock()
			continue
		}

		embedded := 0
		skipped := 0
		for i, code := range codes {
			// Stable ids keep the whole downstream pipeline deterministic.
			code.ID = fmt.Sprintf("%s/c%02d", src.ID, i)
			code.SourceID = src.ID

			vector, err := uc.embedder.Embed(ctx, code.Label)
			if err != nil {
				if isCancellation(err) {
					// The current source's counters were not flushed yet;
					// drop its codes so out matches the stats.
					return out[:len(out)-embedded], err
				}
				// A missing embedding means skip, never a zero vector.
				skipped++
				continue
			}
			code.Embedding = vector
			out = append(out, code)
			embedded++
		}

		mu.Lock()
		stats.SourcesProcessed++
		stats.CodesGenerated += len(codes)
		stats.CodesEmbedded += embedded
		stats.CodesSkipped += skipped
		mu.Unlock()
		reporter.codesGenerated(len(codes))
	}
	return out, nil
}

func splitBatches(sources []domain.SourceContent, size int) [][]domain.SourceContent {
	if len(sources) == 0 {
		return nil
	}
	batches := make([][]domain.SourceContent, 0, (len(sources)+size-1)/size)
	for start := 0; start < len(sources); start += size {
		end := start + size
		if end > len(sources) {
			end = len(sources)
		}
		batches = append(batches, sources[start:end])
	}
	return batches
}

// familiarizationText keeps the reading pass cheap for very long full texts.
func familiarizationText(src domain.SourceContent) string {
	const maxRunes = 2000
	text := src.Title + "\n" + src.Content
	runes := []rune(text)
	if len(runes) > maxRunes {
		return string(runes[:maxRunes])
	}
	return text
}
