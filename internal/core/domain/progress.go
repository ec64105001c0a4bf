package domain

import "time"

// ProgressStage is one step of the extraction state machine. Failed is
// reachable from any stage.
type ProgressStage string

const (
	StagePreparing       ProgressStage = "preparing"
	StageFamiliarization ProgressStage = "familiarization"
	StageCoding          ProgressStage = "coding"
	StageClustering      ProgressStage = "clustering"
	StageValidation      ProgressStage = "validation"
	StageDeduplication   ProgressStage = "deduplication"
	StageComplete        ProgressStage = "complete"
	StageFailed          ProgressStage = "failed"
)

// progressStages is the forward order of the state machine; Failed sits
// outside the sequence.
var progressStages = []ProgressStage{
	StagePreparing,
	StageFamiliarization,
	StageCoding,
	StageClustering,
	StageValidation,
	StageDeduplication,
	StageComplete,
}

func TotalStages() int { return len(progressStages) }

func StageIndex(stage ProgressStage) int {
	for i, s := range progressStages {
		if s == stage {
			return i
		}
	}
	return -1
}

// ProgressLiveStats is the live counters payload carried by every event.
type ProgressLiveStats struct {
	SourcesProcessed int `json:"sources_processed"`
	SourcesFailed    int `json:"sources_failed"`
	WordsRead        int `json:"words_read"`
	CodesGenerated   int `json:"codes_generated"`
	ThemesCandidate  int `json:"themes_candidate"`
	ThemesAccepted   int `json:"themes_accepted"`
}

// ProgressEvent is the fixed message schema pushed to subscribers. Consumers
// rely on its shape; do not add open-ended payloads.
type ProgressEvent struct {
	RunID       string            `json:"run_id"`
	Stage       ProgressStage     `json:"stage"`
	StageIndex  int               `json:"stage_index"`
	TotalStages int               `json:"total_stages"`
	Message     string            `json:"message"`
	Stats       ProgressLiveStats `json:"stats"`
	EmittedAt   time.Time         `json:"emitted_at"`
}
