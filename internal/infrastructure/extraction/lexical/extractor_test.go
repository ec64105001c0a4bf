package lexical

import (
	"context"
	"strings"
	"testing"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

const sampleContent = `Teachers report heavy workload during examination periods.
Peer support among colleagues reduces classroom stress.
Administrative paperwork consumes preparation time every week.
Students respond well to structured feedback sessions.
Workload peaks coincide with reported burnout symptoms.`

func TestExtractCodesReturnsLabeledCodes(t *testing.T) {
	extractor := New()
	source := domain.SourceContent{
		ID:       "src-1",
		Title:    "Teacher workload study",
		Content:  sampleContent,
		Keywords: []string{"workload", "burnout"},
	}

	codes, err := extractor.ExtractCodes(context.Background(), source, domain.CodeRange{Min: 2, Max: 4})
	if err != nil {
		t.Fatalf("ExtractCodes() error = %v", err)
	}
	if len(codes) == 0 || len(codes) > 4 {
		t.Fatalf("ExtractCodes() len = %d, want 1..4", len(codes))
	}
	for _, code := range codes {
		if code.Label == "" {
			t.Fatalf("code with empty label: %+v", code)
		}
		if code.SourceID != "src-1" {
			t.Fatalf("code source = %q, want src-1", code.SourceID)
		}
		if code.RawText == "" {
			t.Fatalf("code without excerpt: %+v", code)
		}
	}
}

func TestExtractCodesIsDeterministic(t *testing.T) {
	extractor := New()
	source := domain.SourceContent{ID: "src-1", Content: sampleContent}

	first, err := extractor.ExtractCodes(context.Background(), source, domain.CodeRange{Min: 2, Max: 5})
	if err != nil {
		t.Fatalf("ExtractCodes() error = %v", err)
	}
	second, err := extractor.ExtractCodes(context.Background(), source, domain.CodeRange{Min: 2, Max: 5})
	if err != nil {
		t.Fatalf("ExtractCodes() error = %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].Label != second[i].Label || first[i].RawText != second[i].RawText {
			t.Fatalf("run mismatch at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestExtractCodesKeywordBoostSurfacesKeywordSentences(t *testing.T) {
	extractor := New()
	source := domain.SourceContent{
		ID:       "src-1",
		Content:  sampleContent,
		Keywords: []string{"paperwork"},
	}

	codes, err := extractor.ExtractCodes(context.Background(), source, domain.CodeRange{Min: 1, Max: 2})
	if err != nil {
		t.Fatalf("ExtractCodes() error = %v", err)
	}
	found := false
	for _, code := range codes {
		if strings.Contains(code.RawText, "paperwork") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a paperwork code in top 2, got %+v", codes)
	}
}

func TestExtractCodesRejectsEmptyContent(t *testing.T) {
	extractor := New()

	_, err := extractor.ExtractCodes(context.Background(), domain.SourceContent{ID: "s", Content: ""}, domain.CodeRange{Min: 1, Max: 5})
	if err == nil {
		t.Fatalf("expected error for empty content")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestExtractCodesRejectsSparseContent(t *testing.T) {
	extractor := New()

	_, err := extractor.ExtractCodes(context.Background(), domain.SourceContent{ID: "s", Content: "ok. no. hm."}, domain.CodeRange{Min: 1, Max: 5})
	if err == nil {
		t.Fatalf("expected error for sparse content")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
