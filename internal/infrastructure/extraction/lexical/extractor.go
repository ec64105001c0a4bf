package lexical

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
	"github.com/shahabnazari/blackqm-theme-engine/internal/infrastructure/chunking"
)

const excerptMaxRunes = 240

// Extractor is the local, deterministic code extraction strategy. It scores
// sentences by term frequency with title/keyword boosts and turns the top
// sentences into short labeled codes. Free and reproducible, with a lower
// nuance ceiling than the LLM strategy.
type Extractor struct{}

func New() *Extractor { return &Extractor{} }

func (e *Extractor) Name() string { return "lexical" }

func (e *Extractor) ExtractCodes(ctx context.Context, source domain.SourceContent, target domain.CodeRange) ([]domain.InitialCode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sentences := chunking.Sentences(source.Content)
	if len(sentences) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "lexical extract", errors.New("no sentences in content"))
	}

	termScore := buildTermScores(source)

	type scored struct {
		index    int
		sentence string
		score    float64
		label    string
	}
	candidates := make([]scored, 0, len(sentences))
	for i, sentence := range sentences {
		tokens := tokenize(sentence)
		if len(tokens) < 3 {
			continue
		}
		var total float64
		for _, tok := range tokens {
			total += termScore[tok]
		}
		// Earlier sentences carry abstract-level statements; weigh them up.
		positionBoost := 1.0 + 0.5*float64(len(sentences)-i)/float64(len(sentences))
		label := bestPhrase(tokens, termScore)
		if label == "" {
			continue
		}
		candidates = append(candidates, scored{
			index:    i,
			sentence: sentence,
			score:    total / float64(len(tokens)) * positionBoost,
			label:    label,
		})
	}
	if len(candidates) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "lexical extract", errors.New("content too sparse for coding"))
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].index < candidates[j].index
	})

	want := target.Max
	if want <= 0 {
		want = target.Min
	}
	if want <= 0 {
		want = 1
	}

	seen := make(map[string]struct{}, want)
	codes := make([]domain.InitialCode, 0, want)
	for _, cand := range candidates {
		key := strings.ToLower(cand.label)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		codes = append(codes, domain.InitialCode{
			Label:    cand.label,
			SourceID: source.ID,
			RawText:  chunking.Window(cand.sentence, excerptMaxRunes),
		})
		if len(codes) == want {
			break
		}
	}
	return codes, nil
}

// buildTermScores weights document terms by frequency, boosted when they also
// appear in the title or the author keywords.
func buildTermScores(source domain.SourceContent) map[string]float64 {
	scores := make(map[string]float64, 256)
	for _, tok := range tokenize(source.Content) {
		if isStopword(tok) {
			continue
		}
		scores[tok]++
	}
	for _, tok := range tokenize(source.Title) {
		if !isStopword(tok) {
			scores[tok] *= 2
		}
	}
	for _, kw := range source.Keywords {
		for _, tok := range tokenize(kw) {
			if !isStopword(tok) {
				scores[tok] *= 2
			}
		}
	}
	return scores
}

// bestPhrase picks the highest-scoring run of up to three consecutive
// non-stopword tokens as the code label.
func bestPhrase(tokens []string, termScore map[string]float64) string {
	best := ""
	var bestScore float64
	for i := 0; i < len(tokens); i++ {
		if isStopword(tokens[i]) || termScore[tokens[i]] == 0 {
			continue
		}
		phrase := tokens[i]
		score := termScore[tokens[i]]
		for j := i + 1; j < len(tokens) && j < i+3; j++ {
			if isStopword(tokens[j]) || termScore[tokens[j]] == 0 {
				break
			}
			phrase += " " + tokens[j]
			score += termScore[tokens[j]]
		}
		if score > bestScore {
			best = phrase
			bestScore = score
		}
	}
	return best
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

var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "for": {}, "from": {}, "has": {}, "have": {},
	"in": {}, "into": {}, "is": {}, "it": {}, "its": {}, "more": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "our": {}, "such": {},
	"that": {}, "the": {}, "their": {}, "these": {}, "this": {}, "to": {},
	"was": {}, "were": {}, "which": {}, "with": {}, "we": {}, "can": {},
	"also": {}, "than": {}, "been": {}, "may": {}, "between": {},
}

func isStopword(tok string) bool {
	if len(tok) < 3 {
		return true
	}
	_, ok := stopwords[tok]
	return ok
}
