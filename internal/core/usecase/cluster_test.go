package usecase

import (
	"math"
	"sort"
	"testing"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

// unitVec returns a 2D unit vector at the given angle so tests can place
// codes at exact cosine similarities to each other.
func unitVec(deg float64) domain.Vector {
	rad := deg * math.Pi / 180
	return domain.Vector{float32(math.Cos(rad)), float32(math.Sin(rad))}
}

func testCode(id, label, sourceID string, deg float64) domain.InitialCode {
	return domain.InitialCode{ID: id, Label: label, SourceID: sourceID, Embedding: unitVec(deg)}
}

func themeCodeIDs(theme *domain.CandidateTheme) []string {
	ids := make([]string, 0, len(theme.Codes))
	for _, code := range theme.Codes {
		ids = append(ids, code.ID)
	}
	sort.Strings(ids)
	return ids
}

func totalCodes(themes []*domain.CandidateTheme) int {
	total := 0
	for _, theme := range themes {
		total += len(theme.Codes)
	}
	return total
}

func TestBuildThemesGroupsSimilarCodes(t *testing.T) {
	agg := &Aggregator{}
	codes := []domain.InitialCode{
		testCode("s1/c00", "anxiety", "s1", 0),
		testCode("s1/c01", "worry", "s1", 5),
		testCode("s2/c00", "coping", "s2", 90),
		testCode("s2/c01", "resilience", "s2", 95),
	}
	profile := domain.PurposeProfile{MinThemes: 1, MaxThemes: 2}

	themes := agg.BuildThemes(codes, profile)
	if len(themes) != 2 {
		t.Fatalf("expected 2 themes, got %d", len(themes))
	}
	if totalCodes(themes) != len(codes) {
		t.Fatalf("code count changed: %d clustered vs %d input", totalCodes(themes), len(codes))
	}

	byFirstCode := make(map[string][]string, len(themes))
	for _, theme := range themes {
		ids := themeCodeIDs(theme)
		byFirstCode[ids[0]] = ids
		if theme.SupportCount != len(theme.SourceIDs) {
			t.Fatalf("support count %d disagrees with source set size %d", theme.SupportCount, len(theme.SourceIDs))
		}
	}
	wantA := []string{"s1/c00", "s1/c01"}
	wantB := []string{"s2/c00", "s2/c01"}
	if got := byFirstCode["s1/c00"]; len(got) != 2 || got[0] != wantA[0] || got[1] != wantA[1] {
		t.Fatalf("first cluster grouped %v, want %v", got, wantA)
	}
	if got := byFirstCode["s2/c00"]; len(got) != 2 || got[0] != wantB[0] || got[1] != wantB[1] {
		t.Fatalf("second cluster grouped %v, want %v", got, wantB)
	}
}

func TestBuildThemesDeterministicAcrossInputOrder(t *testing.T) {
	agg := &Aggregator{}
	forward := []domain.InitialCode{
		testCode("s1/c00", "anxiety", "s1", 0),
		testCode("s1/c01", "worry", "s1", 5),
		testCode("s2/c00", "coping", "s2", 90),
		testCode("s2/c01", "resilience", "s2", 95),
		testCode("s3/c00", "isolation", "s3", 45),
	}
	reversed := make([]domain.InitialCode, len(forward))
	for i, code := range forward {
		reversed[len(forward)-1-i] = code
	}
	profile := domain.PurposeProfile{MinThemes: 1, MaxThemes: 3}

	first := agg.BuildThemes(forward, profile)
	second := agg.BuildThemes(reversed, profile)
	if len(first) != len(second) {
		t.Fatalf("theme counts diverged: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("theme %d id diverged: %s vs %s", i, first[i].ID, second[i].ID)
		}
		if first[i].Label != second[i].Label {
			t.Fatalf("theme %d label diverged: %q vs %q", i, first[i].Label, second[i].Label)
		}
	}
}

func TestBuildThemesEmptyInput(t *testing.T) {
	themes := (&Aggregator{}).BuildThemes(nil, domain.PurposeProfile{MinThemes: 1, MaxThemes: 5})
	if themes != nil {
		t.Fatalf("expected nil for empty input, got %d themes", len(themes))
	}
}

func TestSplitToFloorBisectsAroundFarthestPair(t *testing.T) {
	agg := &Aggregator{}
	codes := []domain.InitialCode{
		testCode("s1/c00", "anxiety", "s1", 0),
		testCode("s1/c01", "worry", "s1", 5),
		testCode("s2/c00", "coping", "s2", 90),
		testCode("s2/c01", "resilience", "s2", 95),
	}
	cluster := domain.NewCandidateTheme("s:"+codes[0].ID, codes[0])
	for _, code := range codes[1:] {
		cluster.Absorb(domain.NewCandidateTheme("s:"+code.ID, code))
	}

	split := agg.splitToFloor([]*domain.CandidateTheme{cluster}, 2)
	if len(split) != 2 {
		t.Fatalf("expected 2 clusters after split, got %d", len(split))
	}
	if totalCodes(split) != len(codes) {
		t.Fatalf("split changed code count: %d vs %d", totalCodes(split), len(codes))
	}
	for _, c := range split {
		ids := themeCodeIDs(c)
		if len(ids) != 2 {
			t.Fatalf("expected even bisection, got cluster %v", ids)
		}
		sameSource := ids[0][:2] == ids[1][:2]
		if !sameSource {
			t.Fatalf("bisection mixed dissimilar codes: %v", ids)
		}
	}
}

func TestSplitToFloorStopsWhenNothingSplittable(t *testing.T) {
	agg := &Aggregator{}
	singleton := domain.NewCandidateTheme("s:s1/c00", testCode("s1/c00", "anxiety", "s1", 0))

	split := agg.splitToFloor([]*domain.CandidateTheme{singleton}, 5)
	if len(split) != 1 {
		t.Fatalf("singleton cluster must not split, got %d clusters", len(split))
	}
}

func TestMergeAcrossRespectsThreshold(t *testing.T) {
	agg := &Aggregator{}
	build := func() []*domain.CandidateTheme {
		return []*domain.CandidateTheme{
			domain.NewCandidateTheme("s:s1/c00", testCode("s1/c00", "anxiety", "s1", 0)),
			domain.NewCandidateTheme("s:s2/c00", testCode("s2/c00", "worry", "s2", 5)),
			domain.NewCandidateTheme("s:s3/c00", testCode("s3/c00", "coping", "s3", 90)),
		}
	}

	merged := agg.MergeAcross(build(), 0.9)
	if len(merged) != 2 {
		t.Fatalf("expected the two near-parallel themes to merge, got %d themes", len(merged))
	}
	var pair *domain.CandidateTheme
	for _, theme := range merged {
		if len(theme.Codes) == 2 {
			pair = theme
		}
	}
	if pair == nil {
		t.Fatal("no merged pair found")
	}
	if _, ok := pair.SourceIDs["s1"]; !ok {
		t.Fatal("merged theme lost source s1")
	}
	if _, ok := pair.SourceIDs["s2"]; !ok {
		t.Fatal("merged theme lost source s2")
	}

	untouched := agg.MergeAcross(build(), 0.9999)
	if len(untouched) != 3 {
		t.Fatalf("threshold above all pair similarities must merge nothing, got %d themes", len(untouched))
	}
}

func TestBoundMergesDownToCeiling(t *testing.T) {
	agg := &Aggregator{}
	themes := []*domain.CandidateTheme{
		domain.NewCandidateTheme("s:s1/c00", testCode("s1/c00", "anxiety", "s1", 0)),
		domain.NewCandidateTheme("s:s1/c01", testCode("s1/c01", "worry", "s1", 10)),
		domain.NewCandidateTheme("s:s2/c00", testCode("s2/c00", "coping", "s2", 80)),
		domain.NewCandidateTheme("s:s2/c01", testCode("s2/c01", "resilience", "s2", 90)),
	}

	bounded := agg.Bound(themes, domain.PurposeProfile{MinThemes: 1, MaxThemes: 2})
	if len(bounded) != 2 {
		t.Fatalf("expected bounding to reach the ceiling of 2, got %d", len(bounded))
	}
	if totalCodes(bounded) != 4 {
		t.Fatalf("bounding changed code count: %d vs 4", totalCodes(bounded))
	}
}

func TestFinalizeThemesContentDerivedIDs(t *testing.T) {
	agg := &Aggregator{}
	codes := []domain.InitialCode{
		testCode("s1/c00", "anxiety", "s1", 0),
		testCode("s2/c00", "worry", "s2", 5),
	}
	profile := domain.PurposeProfile{MinThemes: 1, MaxThemes: 1}

	themes := agg.BuildThemes(codes, profile)
	if len(themes) != 1 {
		t.Fatalf("expected 1 theme, got %d", len(themes))
	}
	if themes[0].ID == "" || themes[0].ID[:2] != "t-" {
		t.Fatalf("finalized theme id %q not content derived", themes[0].ID)
	}
	if themes[0].Label != "anxiety" && themes[0].Label != "worry" {
		t.Fatalf("label %q is not a member code label", themes[0].Label)
	}
	if themes[0].Coherence <= 0.9 {
		t.Fatalf("near-parallel codes should be highly coherent, got %f", themes[0].Coherence)
	}
}
