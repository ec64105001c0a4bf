package usecase

import (
	"sort"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// DefaultDedupeThreshold is the centroid similarity above which two unified
// themes are considered the same theme.
const DefaultDedupeThreshold = 0.92

// Deduplicator merges near-duplicate unified themes across batches/sources.
type Deduplicator struct {
	Threshold float64
}

func NewDeduplicator(threshold float64) *Deduplicator {
	if threshold <= 0 || threshold > 1 {
		threshold = DefaultDedupeThreshold
	}
	return &Deduplicator{Threshold: threshold}
}

// Deduplicate merges every theme pair exceeding the similarity threshold,
// keeping the label and description of the higher-support theme (tie:
// lexicographically first id). It runs to a fixpoint, so applying it to its
// own output is a no-op.
func (d *Deduplicator) Deduplicate(themes []domain.UnifiedTheme) []domain.UnifiedTheme {
	out := make([]domain.UnifiedTheme, len(themes))
	copy(out, themes)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	for {
		bi, bj := -1, -1
		var bestSim float64
		for i := 0; i < len(out); i++ {
			for j := i + 1; j < len(out); j++ {
				sim := domain.Cosine(out[i].Centroid, out[j].Centroid)
				if sim >= d.Threshold && (bi < 0 || sim > bestSim) {
					bi, bj = i, j
					bestSim = sim
				}
			}
		}
		if bi < 0 {
			return out
		}

		merged := mergeUnified(out[bi], out[bj])
		out = append(out[:bj], out[bj+1:]...)
		out[bi] = merged
		sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	}
}

func mergeUnified(a, b domain.UnifiedTheme) domain.UnifiedTheme {
	winner, loser := a, b
	if len(b.SourceIDs) > len(a.SourceIDs) || (len(b.SourceIDs) == len(a.SourceIDs) && b.ID < a.ID) {
		winner, loser = b, a
	}

	ids := make(map[string]struct{}, len(winner.SourceIDs)+len(loser.SourceIDs))
	for _, id := range winner.SourceIDs {
		ids[id] = struct{}{}
	}
	for _, id := range loser.SourceIDs {
		ids[id] = struct{}{}
	}
	union := make([]string, 0, len(ids))
	for id := range ids {
		union = append(union, id)
	}
	sort.Strings(union)

	wWeight := float64(len(winner.SourceIDs))
	lWeight := float64(len(loser.SourceIDs))
	centroid := weightedCentroid(winner.Centroid, wWeight, loser.Centroid, lWeight)

	score := winner.ValidationScore
	if loser.ValidationScore > score {
		score = loser.ValidationScore
	}

	return domain.UnifiedTheme{
		ID:              winner.ID,
		Label:           winner.Label,
		Keywords:        winner.Keywords,
		Description:     winner.Description,
		SourceIDs:       union,
		Weight:          winner.Weight + loser.Weight,
		ValidationScore: score,
		Centroid:        centroid,
	}
}

func weightedCentroid(a domain.Vector, wa float64, b domain.Vector, wb float64) domain.Vector {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 || len(a) != len(b) {
		return a
	}
	total := wa + wb
	if total == 0 {
		return a
	}
	out := make(domain.Vector, len(a))
	for i := range a {
		out[i] = float32((float64(a[i])*wa + float64(b[i])*wb) / total)
	}
	return out
}
