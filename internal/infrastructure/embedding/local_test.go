package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

func TestLocalEmbedIsDeterministic(t *testing.T) {
	embedder := NewLocal(128)

	a, err := embedder.Embed(context.Background(), "teachers report heavy workload")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	b, err := embedder.Embed(context.Background(), "teachers report heavy workload")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(a) != 128 || len(b) != 128 {
		t.Fatalf("dims = %d, %d, want 128", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("vectors differ at %d: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestLocalEmbedIsUnitLength(t *testing.T) {
	embedder := NewLocal(0)
	if embedder.Dimensions() != DefaultLocalDimensions {
		t.Fatalf("Dimensions() = %d, want default %d", embedder.Dimensions(), DefaultLocalDimensions)
	}

	vec, err := embedder.Embed(context.Background(), "coding stress and peer support networks")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if math.Abs(math.Sqrt(norm)-1) > 1e-5 {
		t.Fatalf("norm = %v, want 1", math.Sqrt(norm))
	}
}

func TestLocalEmbedSimilarTextsScoreHigherThanUnrelated(t *testing.T) {
	embedder := NewLocal(256)

	a, _ := embedder.Embed(context.Background(), "teacher workload and classroom stress")
	b, _ := embedder.Embed(context.Background(), "classroom stress from teacher workload")
	c, _ := embedder.Embed(context.Background(), "quarterly revenue projections for logistics")

	related := domain.Cosine(a, b)
	unrelated := domain.Cosine(a, c)
	if related <= unrelated {
		t.Fatalf("expected related similarity %v > unrelated %v", related, unrelated)
	}
}

func TestLocalEmbedRejectsEmptyText(t *testing.T) {
	embedder := NewLocal(64)

	_, err := embedder.Embed(context.Background(), "   \n\t ")
	if err == nil {
		t.Fatalf("expected error for empty text")
	}
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
