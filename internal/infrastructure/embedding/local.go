package embedding

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

const DefaultLocalDimensions = 256

// Local is a deterministic in-process embedder using the hashing trick over
// unigrams and bigrams. It has a lower ceiling on nuance than a remote model
// but is free, fast and fully reproducible, which keeps pipeline output
// deterministic in tests and offline runs.
type Local struct {
	dim int
}

func NewLocal(dimensions int) *Local {
	if dimensions <= 0 {
		dimensions = DefaultLocalDimensions
	}
	return &Local{dim: dimensions}
}

func (l *Local) ModelID() string {
	return fmt.Sprintf("local-hash-v1/%d", l.dim)
}

func (l *Local) Remote() bool { return false }

func (l *Local) Dimensions() int { return l.dim }

func (l *Local) Embed(_ context.Context, text string) (domain.Vector, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "local embed", errors.New("no tokens in text"))
	}

	counts := make(map[uint32]float64, len(tokens)*2)
	for i, token := range tokens {
		counts[hashToken(token)%uint32(l.dim)]++
		if i+1 < len(tokens) {
			counts[hashToken(tokens[i]+"_"+tokens[i+1])%uint32(l.dim)]++
		}
	}

	vec := make(domain.Vector, l.dim)
	for idx, tf := range counts {
		vec[idx] = float32(1 + math.Log(tf))
	}
	return domain.Normalize(vec), nil
}

func hashToken(token string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(token))
	return h.Sum32()
}

func tokenize(s string) []string {
	if s == "" {
		return nil
	}
	out := make([]string, 0, 24)
	var b strings.Builder
	for _, r := range s {
		r = unicode.ToLower(r)
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if b.Len() > 0 {
			out = append(out, b.String())
			b.Reset()
		}
	}
	if b.Len() > 0 {
		out = append(out, b.String())
	}
	return out
}
