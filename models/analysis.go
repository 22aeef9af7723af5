package models

import (
	"encoding/json"
	"time"
)

// Analysis kinds stored in the analyses table.
const (
	AnalysisSummary    = "summary"
	AnalysisChapters   = "chapters"
	AnalysisHighlights = "highlights"
	AnalysisCustom     = "custom"
	AnalysisFlashcards = "flashcards"
	AnalysisQuiz       = "quiz"
)

// AnalysisRecord is one cached provider result, unique per
// (video, analysis kind). A later write replaces the prior record.
type AnalysisRecord struct {
	ID           int64           `json:"id"`
	VideoID      int64           `json:"video_id"`
	AnalysisType string          `json:"analysis_type"`
	Result       json.RawMessage `json:"result"`
	CreatedAt    time.Time       `json:"created_at"`
}
