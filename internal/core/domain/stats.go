package domain

import "time"

// SourceFailure records a single source that could not be processed. Failed
// sources are excluded from downstream stages with an explicit marker, never
// silently dropped.
type SourceFailure struct {
	SourceID string `json:"source_id"`
	Stage    string `json:"stage"`
	Error    string `json:"error"`
}

// ExtractionStats accumulates over one pipeline run and is read-only after
// completion. A caller can always distinguish "no signal" from "everything
// errored".
type ExtractionStats struct {
	SourcesTotal     int             `json:"sources_total"`
	SourcesProcessed int             `json:"sources_processed"`
	SourcesFailed    int             `json:"sources_failed"`
	Failures         []SourceFailure `json:"failures,omitempty"`

	WordsRead       int `json:"words_read"`
	CodesGenerated  int `json:"codes_generated"`
	CodesEmbedded   int `json:"codes_embedded"`
	CodesSkipped    int `json:"codes_skipped"`
	ThemesCandidate int `json:"themes_candidate"`
	ThemesAccepted  int `json:"themes_accepted"`
	ThemesRejected  int `json:"themes_rejected"`
	ThemesMerged    int `json:"themes_merged"`

	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`

	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Elapsed    time.Duration `json:"elapsed_ns"`
}

func (s ExtractionStats) CacheHitRate() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

func (s *ExtractionStats) RecordFailure(sourceID, stage string, err error) {
	s.SourcesFailed++
	s.Failures = append(s.Failures, SourceFailure{
		SourceID: sourceID,
		Stage:    stage,
		Error:    err.Error(),
	})
}

// BatchExtractionStats aggregates per-batch stats for a fan-out run.
type BatchExtractionStats struct {
	ExtractionStats

	Batches          int `json:"batches"`
	BatchConcurrency int `json:"batch_concurrency"`
}
