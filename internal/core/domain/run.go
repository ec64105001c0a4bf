package domain

import "time"

type RunStatus string

const (
	RunQueued   RunStatus = "queued"
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// ExtractionRun is the persisted record of one asynchronous extraction.
type ExtractionRun struct {
	ID          string          `json:"id"`
	Purpose     ResearchPurpose `json:"purpose"`
	SourceCount int             `json:"source_count"`
	Status      RunStatus       `json:"status"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExtractionOptions is the caller-facing configuration surface beyond the
// purpose itself.
type ExtractionOptions struct {
	Concurrency  int             `json:"concurrency,omitempty"`
	BatchSize    int             `json:"batch_size,omitempty"`
	AllowPartial bool            `json:"allow_partial,omitempty"`
	Override     PurposeOverride `json:"override,omitempty"`
}

// ExtractionRequest is the full input of one run.
type ExtractionRequest struct {
	RunID   string            `json:"run_id,omitempty"`
	Purpose ResearchPurpose   `json:"purpose"`
	Sources []SourceContent   `json:"sources"`
	Options ExtractionOptions `json:"options"`
}

// ExtractionResult pairs the accepted themes with the run statistics. Stats
// are populated even on partial failure.
type ExtractionResult struct {
	Themes []UnifiedTheme       `json:"themes"`
	Stats  BatchExtractionStats `json:"stats"`
}
