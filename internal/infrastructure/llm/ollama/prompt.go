package ollama

import (
	"fmt"
	"strings"

	"github.com/shahabnazari/blackqm-theme-engine/internal/core/domain"
)

func buildCodeExtractionPrompt(source domain.SourceContent, target domain.CodeRange) string {
	const maxSnippet = 6000
	snippet := source.Content
	if len(snippet) > maxSnippet {
		snippet = snippet[:maxSnippet]
	}

	var header strings.Builder
	if strings.TrimSpace(source.Title) != "" {
		header.WriteString("Title: " + source.Title + "\n")
	}
	if len(source.Keywords) > 0 {
		header.WriteString("Keywords: " + strings.Join(source.Keywords, ", ") + "\n")
	}

	return fmt.Sprintf(`You are a qualitative researcher performing initial coding.
Extract between %d and %d initial codes from the document below.
Each code is a short analytic label grounded in a verbatim excerpt.
Return a strict JSON array of objects with keys:
label (string, 2-6 words), excerpt (string, the supporting passage).
No markdown, no extra keys, no commentary.

%sDocument:
%s
`, target.Min, target.Max, header.String(), snippet)
}
