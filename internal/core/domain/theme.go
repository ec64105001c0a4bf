package domain

import "sort"

// CandidateTheme is a mutable cluster of codes. It owns its member codes for
// the life of the pipeline run and is frozen into a UnifiedTheme only after
// validation.
type CandidateTheme struct {
	ID              string
	Label           string
	Codes           []InitialCode
	Centroid        Vector
	SourceIDs       map[string]struct{}
	Coherence       float64
	Distinctiveness float64
	SupportCount    int
}

func NewCandidateTheme(id string, code InitialCode) *CandidateTheme {
	return &CandidateTheme{
		ID:           id,
		Label:        code.Label,
		Codes:        []InitialCode{code},
		Centroid:     code.Embedding,
		SourceIDs:    map[string]struct{}{code.SourceID: {}},
		SupportCount: 1,
	}
}

// Absorb moves every code of other into t and recomputes the derived state.
// The other theme must be discarded by the caller afterwards.
func (t *CandidateTheme) Absorb(other *CandidateTheme) {
	t.Codes = append(t.Codes, other.Codes...)
	for id := range other.SourceIDs {
		t.SourceIDs[id] = struct{}{}
	}
	t.RecomputeCentroid()
	t.SupportCount = len(t.SourceIDs)
}

func (t *CandidateTheme) RecomputeCentroid() {
	vectors := make([]Vector, 0, len(t.Codes))
	for _, code := range t.Codes {
		vectors = append(vectors, code.Embedding)
	}
	t.Centroid = Centroid(vectors)
}

// RecomputeCoherence sets the average member-to-centroid cosine similarity.
// A singleton theme is maximally coherent by definition.
func (t *CandidateTheme) RecomputeCoherence() {
	if len(t.Codes) <= 1 {
		t.Coherence = 1
		return
	}
	var total float64
	for _, code := range t.Codes {
		total += Cosine(code.Embedding, t.Centroid)
	}
	t.Coherence = total / float64(len(t.Codes))
}

func (t *CandidateTheme) SortedSourceIDs() []string {
	out := make([]string, 0, len(t.SourceIDs))
	for id := range t.SourceIDs {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// UnifiedTheme is the immutable accepted output. SourceIDs are provenance
// references for lookup, not ownership.
type UnifiedTheme struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	Keywords        []string `json:"keywords,omitempty"`
	Description     string   `json:"description,omitempty"`
	SourceIDs       []string `json:"source_ids"`
	Weight          float64  `json:"weight"`
	ValidationScore float64  `json:"validation_score"`
	Centroid        Vector   `json:"-"`
}
