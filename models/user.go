package models

import "time"

// User represents a row in the users table. External identity (auth
// provider subject, email, name) is attached at login; the internal id is
// what every other record references.
type User struct {
	ID             int64     `json:"id"`
	ExternalAuthID string    `json:"external_auth_id"`
	Email          string    `json:"email,omitempty"`
	Name           string    `json:"name,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
