package domain

import "fmt"

// ResearchPurpose selects how broad and how strict theme extraction is.
type ResearchPurpose string

const (
	PurposeQMethodology         ResearchPurpose = "q_methodology"
	PurposeSurveyConstruction   ResearchPurpose = "survey_construction"
	PurposeLiteratureReview     ResearchPurpose = "literature_review"
	PurposeHypothesisGeneration ResearchPurpose = "hypothesis_generation"
)

// PurposeProfile holds the purpose-adaptive clustering targets and validation
// thresholds. CodesPerSource is deliberately sized so that the expected code
// count of a typical corpus exceeds MaxThemes before merge-only clustering
// starts; the splitting phase covers corpora that still land under MinThemes.
type PurposeProfile struct {
	Purpose            ResearchPurpose
	MinThemes          int
	MaxThemes          int
	CodesPerSource     CodeRange
	MinCoherence       float64
	MinDistinctiveness float64
	MinSources         int

	// RelaxedDistinctiveness marks profiles whose MinDistinctiveness is
	// already lenient. The abstract-only adjustment must not stack on top.
	RelaxedDistinctiveness float64
	AbstractOnlyDelta      float64
}

// ProfileFor maps every known purpose to an explicit threshold set. An
// unrecognized purpose is a configuration error, never a default branch.
func ProfileFor(purpose ResearchPurpose) (PurposeProfile, error) {
	switch purpose {
	case PurposeQMethodology:
		return PurposeProfile{
			Purpose:            purpose,
			MinThemes:          30,
			MaxThemes:          80,
			CodesPerSource:     CodeRange{Min: 15, Max: 20},
			MinCoherence:       0.35,
			MinDistinctiveness: 0.10,
			MinSources:         1,

			RelaxedDistinctiveness: 0.10,
			AbstractOnlyDelta:      0.05,
		}, nil
	case PurposeSurveyConstruction:
		return PurposeProfile{
			Purpose:            purpose,
			MinThemes:          8,
			MaxThemes:          15,
			CodesPerSource:     CodeRange{Min: 5, Max: 10},
			MinCoherence:       0.55,
			MinDistinctiveness: 0.30,
			MinSources:         2,

			AbstractOnlyDelta: 0.05,
		}, nil
	case PurposeLiteratureReview:
		return PurposeProfile{
			Purpose:            purpose,
			MinThemes:          15,
			MaxThemes:          30,
			CodesPerSource:     CodeRange{Min: 10, Max: 15},
			MinCoherence:       0.45,
			MinDistinctiveness: 0.20,
			MinSources:         2,

			AbstractOnlyDelta: 0.05,
		}, nil
	case PurposeHypothesisGeneration:
		return PurposeProfile{
			Purpose:            purpose,
			MinThemes:          10,
			MaxThemes:          25,
			CodesPerSource:     CodeRange{Min: 12, Max: 18},
			MinCoherence:       0.40,
			MinDistinctiveness: 0.15,
			MinSources:         1,

			RelaxedDistinctiveness: 0.15,
			AbstractOnlyDelta:      0.05,
		}, nil
	default:
		return PurposeProfile{}, WrapError(ErrInvalidPurpose, "resolve purpose profile", fmt.Errorf("purpose %q", purpose))
	}
}

// DistinctivenessAlreadyRelaxed reports whether the purpose itself lowered
// the distinctiveness floor, in which case the abstract-only adjustment is a
// no-op instead of stacking silently.
func (p PurposeProfile) DistinctivenessAlreadyRelaxed() bool {
	return p.RelaxedDistinctiveness > 0 && p.MinDistinctiveness <= p.RelaxedDistinctiveness
}

// EffectiveMinDistinctiveness applies the abstract-only relaxation at most
// once.
func (p PurposeProfile) EffectiveMinDistinctiveness(abstractOnly bool) float64 {
	if !abstractOnly || p.DistinctivenessAlreadyRelaxed() {
		return p.MinDistinctiveness
	}
	min := p.MinDistinctiveness - p.AbstractOnlyDelta
	if min < 0 {
		min = 0
	}
	return min
}

// PurposeOverride is an optional caller-supplied adjustment of a profile.
// Zero-valued fields leave the profile untouched.
type PurposeOverride struct {
	MinThemes          int     `yaml:"min_themes" json:"min_themes,omitempty"`
	MaxThemes          int     `yaml:"max_themes" json:"max_themes,omitempty"`
	MinCoherence       float64 `yaml:"min_coherence" json:"min_coherence,omitempty"`
	MinDistinctiveness float64 `yaml:"min_distinctiveness" json:"min_distinctiveness,omitempty"`
	MinSources         int     `yaml:"min_sources" json:"min_sources,omitempty"`
}

func (p PurposeProfile) WithOverride(o PurposeOverride) (PurposeProfile, error) {
	out := p
	if o.MinThemes > 0 {
		out.MinThemes = o.MinThemes
	}
	if o.MaxThemes > 0 {
		out.MaxThemes = o.MaxThemes
	}
	if o.MinCoherence > 0 {
		out.MinCoherence = o.MinCoherence
	}
	if o.MinDistinctiveness > 0 {
		out.MinDistinctiveness = o.MinDistinctiveness
	}
	if o.MinSources > 0 {
		out.MinSources = o.MinSources
	}
	if out.MinThemes > out.MaxThemes {
		return PurposeProfile{}, WrapError(ErrInvalidInput, "apply purpose override",
			fmt.Errorf("min_themes %d exceeds max_themes %d", out.MinThemes, out.MaxThemes))
	}
	return out, nil
}
