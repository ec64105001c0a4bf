package domain

import (
	"errors"
	"fmt"
	"strings"
)

// SourceContent is one input document. It is owned by the caller and never
// mutated by the pipeline.
type SourceContent struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Authors      []string `json:"authors,omitempty"`
	Year         int      `json:"year,omitempty"`
	Keywords     []string `json:"keywords,omitempty"`
	DOI          string   `json:"doi,omitempty"`
	AbstractOnly bool     `json:"abstract_only,omitempty"`
}

func (s SourceContent) WordCount() int {
	return len(strings.Fields(s.Content))
}

// ValidateSources rejects malformed input before any pipeline work starts.
func ValidateSources(sources []SourceContent) error {
	if len(sources) == 0 {
		return WrapError(ErrInvalidInput, "validate sources", errors.New("empty source list"))
	}
	seen := make(map[string]struct{}, len(sources))
	for i, src := range sources {
		if strings.TrimSpace(src.ID) == "" {
			return WrapError(ErrInvalidInput, "validate sources", fmt.Errorf("source at index %d has empty id", i))
		}
		if _, dup := seen[src.ID]; dup {
			return WrapError(ErrInvalidInput, "validate sources", fmt.Errorf("duplicate source id %q", src.ID))
		}
		seen[src.ID] = struct{}{}
		if strings.TrimSpace(src.Content) == "" {
			return WrapError(ErrInvalidInput, "validate sources", fmt.Errorf("source %q has empty content", src.ID))
		}
	}
	return nil
}

// AllAbstractOnly reports whether every source carries abstract-level text.
// Validation relaxes distinctiveness for such corpora.
func AllAbstractOnly(sources []SourceContent) bool {
	if len(sources) == 0 {
		return false
	}
	for _, src := range sources {
		if !src.AbstractOnly {
			return false
		}
	}
	return true
}
