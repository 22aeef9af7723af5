package models

import "time"

// VideoRecord tracks one uploaded video through the provider indexing
// lifecycle. Status is one of processing, ready, or failed; once a record
// leaves processing it never goes back.
type VideoRecord struct {
	ID              int64     `json:"id"`
	UserID          int64     `json:"user_id"`
	ProviderVideoID string    `json:"provider_video_id,omitempty"`
	Filename        string    `json:"filename,omitempty"`
	Status          string    `json:"status"`
	CreatedAt       time.Time `json:"created_at"`
}
