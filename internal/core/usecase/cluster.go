package usecase

import (
	"crypto/sha1"
	"encoding/hex"
	"sort"
	"strings"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// Aggregator clusters codes into candidate themes with merge-only hierarchical
// agglomeration, then applies a bounded splitting phase for purposes whose
// theme floor was not reached. Merging alone can only shrink the cluster
// count, so broad purposes rely on high per-source code targets plus this
// splitting step.
type Aggregator struct{}

// BuildThemes reduces one batch of codes to at most profile.MaxThemes
// clusters and bisects low-coherence clusters while under profile.MinThemes.
// Codes without an embedding must be filtered by the caller. The result is
// deterministic: equal-similarity merges are broken by combined support, then
// by cluster id.
func (a *Aggregator) BuildThemes(codes []domain.InitialCode, profile domain.PurposeProfile) []*domain.CandidateTheme {
	if len(codes) == 0 {
		return nil
	}

	sorted := make([]domain.InitialCode, len(codes))
	copy(sorted, codes)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	clusters := make([]*domain.CandidateTheme, 0, len(sorted))
	for _, code := range sorted {
		clusters = append(clusters, domain.NewCandidateTheme("s:"+code.ID, code))
	}

	clusters = mergeClosest(clusters, profile.MaxThemes, -1)
	clusters = a.splitToFloor(clusters, profile.MinThemes)

	finalizeThemes(clusters)
	return clusters
}

// MergeAcross merges themes from different batches whose centroids exceed the
// similarity threshold. Same merge primitive as per-batch clustering, coarser
// granularity.
func (a *Aggregator) MergeAcross(themes []*domain.CandidateTheme, threshold float64) []*domain.CandidateTheme {
	if len(themes) < 2 {
		finalizeThemes(themes)
		return themes
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	merged := mergeClosest(themes, 0, threshold)
	finalizeThemes(merged)
	return merged
}

// Bound applies the purpose's theme-count range to the globally merged
// candidate set: merge down to the ceiling, split up to the floor.
func (a *Aggregator) Bound(themes []*domain.CandidateTheme, profile domain.PurposeProfile) []*domain.CandidateTheme {
	if len(themes) == 0 {
		return themes
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
	themes = mergeClosest(themes, profile.MaxThemes, -1)
	themes = a.splitToFloor(themes, profile.MinThemes)
	finalizeThemes(themes)
	return themes
}

// mergeClosest repeatedly merges the most similar cluster pair. With
// threshold < 0 it merges while len > target; otherwise it merges any pair at
// or above the threshold, still respecting target as a floor of zero.
func mergeClosest(clusters []*domain.CandidateTheme, target int, threshold float64) []*domain.CandidateTheme {
	for len(clusters) > 1 {
		if threshold < 0 && len(clusters) <= target {
			break
		}

		bi, bj := -1, -1
		var bestSim float64
		var bestSupport int
		for i := 0; i < len(clusters); i++ {
			for j := i + 1; j < len(clusters); j++ {
				sim := domain.Cosine(clusters[i].Centroid, clusters[j].Centroid)
				support := clusters[i].SupportCount + clusters[j].SupportCount
				if bi < 0 || sim > bestSim || (sim == bestSim && support > bestSupport) {
					bi, bj = i, j
					bestSim = sim
					bestSupport = support
				}
			}
		}
		if bi < 0 {
			break
		}
		if threshold >= 0 && bestSim < threshold {
			break
		}

		clusters[bi].Absorb(clusters[bj])
		clusters = append(clusters[:bj], clusters[bj+1:]...)
		sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	}
	return clusters
}

// splitToFloor bisects the lowest-coherence multi-code cluster until the
// purpose's theme floor is met or nothing splittable remains. The candidate
// theme count stays capped by the total code count.
func (a *Aggregator) splitToFloor(clusters []*domain.CandidateTheme, minThemes int) []*domain.CandidateTheme {
	for len(clusters) < minThemes {
		idx := -1
		for i, c := range clusters {
			if len(c.Codes) < 2 {
				continue
			}
			c.RecomputeCoherence()
			if idx < 0 || c.Coherence < clusters[idx].Coherence ||
				(c.Coherence == clusters[idx].Coherence && c.ID < clusters[idx].ID) {
				idx = i
			}
		}
		if idx < 0 {
			break
		}

		left, right := bisect(clusters[idx])
		clusters = append(clusters[:idx], clusters[idx+1:]...)
		clusters = append(clusters, left, right)
		sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })
	}
	return clusters
}

// bisect splits a cluster around its two most dissimilar codes.
func bisect(theme *domain.CandidateTheme) (*domain.CandidateTheme, *domain.CandidateTheme) {
	codes := make([]domain.InitialCode, len(theme.Codes))
	copy(codes, theme.Codes)
	sort.Slice(codes, func(i, j int) bool { return codes[i].ID < codes[j].ID })

	si, sj := 0, 1
	worst := domain.Cosine(codes[0].Embedding, codes[1].Embedding)
	for i := 0; i < len(codes); i++ {
		for j := i + 1; j < len(codes); j++ {
			sim := domain.Cosine(codes[i].Embedding, codes[j].Embedding)
			if sim < worst {
				si, sj = i, j
				worst = sim
			}
		}
	}

	left := domain.NewCandidateTheme("s:"+codes[si].ID, codes[si])
	right := domain.NewCandidateTheme("s:"+codes[sj].ID, codes[sj])
	for i, code := range codes {
		if i == si || i == sj {
			continue
		}
		if domain.Cosine(code.Embedding, codes[si].Embedding) >= domain.Cosine(code.Embedding, codes[sj].Embedding) {
			left.Absorb(domain.NewCandidateTheme("s:"+code.ID, code))
		} else {
			right.Absorb(domain.NewCandidateTheme("s:"+code.ID, code))
		}
	}
	return left, right
}

// finalizeThemes assigns content-derived ids and labels so identical inputs
// always produce identical themes regardless of merge history.
func finalizeThemes(themes []*domain.CandidateTheme) {
	for _, theme := range themes {
		sort.Slice(theme.Codes, func(i, j int) bool { return theme.Codes[i].ID < theme.Codes[j].ID })
		theme.RecomputeCentroid()
		theme.RecomputeCoherence()
		theme.SupportCount = len(theme.SourceIDs)
		theme.ID = themeID(theme.Codes)
		theme.Label = representativeLabel(theme)
	}
	sort.Slice(themes, func(i, j int) bool { return themes[i].ID < themes[j].ID })
}

func themeID(codes []domain.InitialCode) string {
	ids := make([]string, 0, len(codes))
	for _, code := range codes {
		ids = append(ids, code.ID)
	}
	sort.Strings(ids)
	sum := sha1.Sum([]byte(strings.Join(ids, "|")))
	return "t-" + hex.EncodeToString(sum[:6])
}

// representativeLabel picks the member code closest to the centroid.
func representativeLabel(theme *domain.CandidateTheme) string {
	best := -1
	var bestSim float64
	for i, code := range theme.Codes {
		sim := domain.Cosine(code.Embedding, theme.Centroid)
		if best < 0 || sim > bestSim || (sim == bestSim && code.ID < theme.Codes[best].ID) {
			best = i
			bestSim = sim
		}
	}
	if best < 0 {
		return theme.Label
	}
	return theme.Codes[best].Label
}
