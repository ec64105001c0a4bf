package usecase

import (
	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// ValidationOutcome is the scoring result for one candidate theme.
type ValidationOutcome struct {
	Accepted        bool
	Coherence       float64
	Distinctiveness float64
	SupportCount    int
}

// Validator scores candidate themes on coherence, distinctiveness and source
// support, and applies the purpose-adaptive acceptance thresholds.
type Validator struct{}

// Validate scores theme against the full candidate set. Distinctiveness is
// relative to every other theme's centroid, so validation must run once
// globally over the merged candidate set, never per batch.
func (v *Validator) Validate(theme *domain.CandidateTheme, all []*domain.CandidateTheme, profile domain.PurposeProfile, abstractOnly bool) ValidationOutcome {
	theme.RecomputeCoherence()

	maxOther := 0.0
	for _, other := range all {
		if other.ID == theme.ID {
			continue
		}
		if sim := domain.Cosine(theme.Centroid, other.Centroid); sim > maxOther {
			maxOther = sim
		}
	}
	theme.Distinctiveness = 1 - maxOther
	theme.SupportCount = len(theme.SourceIDs)

	minDistinctiveness := profile.EffectiveMinDistinctiveness(abstractOnly)
	accepted := theme.Coherence >= profile.MinCoherence &&
		theme.Distinctiveness >= minDistinctiveness &&
		theme.SupportCount >= profile.MinSources

	return ValidationOutcome{
		Accepted:        accepted,
		Coherence:       theme.Coherence,
		Distinctiveness: theme.Distinctiveness,
		SupportCount:    theme.SupportCount,
	}
}

// ValidateAll partitions the candidate set into accepted and rejected themes.
func (v *Validator) ValidateAll(themes []*domain.CandidateTheme, profile domain.PurposeProfile, abstractOnly bool) (accepted []*domain.CandidateTheme, rejected int) {
	for _, theme := range themes {
		outcome := v.Validate(theme, themes, profile, abstractOnly)
		if outcome.Accepted {
			accepted = append(accepted, theme)
		} else {
			rejected++
		}
	}
	return accepted, rejected
}
