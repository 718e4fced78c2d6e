package model

import "time"

// Course represents a course in the catalogue. Content management lives in a
// separate back office; this service reads titles for display and validates
// that linked course IDs exist.
type Course struct {
	ID          string    `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
