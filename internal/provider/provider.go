// Package provider talks to the external video-understanding service:
// indexing uploads, summaries, chapters, highlights, open-ended analysis,
// and semantic search. Responses are decoded into the typed records below at
// this boundary; anything the service returns that does not match the
// expected shape surfaces as an *Error, never as guessed structure.
package provider

import "fmt"

// Error is any failure reported by (or while talking to) the provider:
// auth, quota, timeouts, not-yet-indexed videos, or malformed responses.
// The core never retries; callers surface Message to the user and offer a
// manual retry.
type Error struct {
	Op      string
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("provider %s failed (status %d): %s", e.Op, e.Status, e.Message)
	}
	return fmt.Sprintf("provider %s failed: %s", e.Op, e.Message)
}

// Chapter is one chronological chapter of a video.
type Chapter struct {
	ChapterNumber int     `json:"chapter_number"`
	StartSec      float64 `json:"start_sec"`
	EndSec        float64 `json:"end_sec"`
	Title         string  `json:"chapter_title"`
	Summary       string  `json:"chapter_summary,omitempty"`
}

// Highlight is one significant moment of a video.
type Highlight struct {
	Highlight string  `json:"highlight"`
	StartSec  float64 `json:"start_sec"`
	EndSec    float64 `json:"end_sec"`
}

// SearchHit is one scored segment returned by semantic search.
type SearchHit struct {
	VideoID    string  `json:"video_id"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Score      float64 `json:"score"`
	Confidence string  `json:"confidence,omitempty"`
	Text       string  `json:"text,omitempty"`
}

// VideoInfo describes one indexed video.
type VideoInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Duration float64 `json:"duration"`
	HLSURL   string  `json:"hls_url,omitempty"`
}

// Task is the state of one indexing task.
type Task struct {
	ID      string `json:"id"`
	VideoID string `json:"video_id"`
	Status  string `json:"status"`
}

// TaskStatusReady is the terminal success status of an indexing task.
const TaskStatusReady = "ready"
