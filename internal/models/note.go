package models

import (
	"time"

	"github.com/google/uuid"
)

// DailyNote is a free-form note tied to a calendar date. One note per
// (user, date); a second save for the same date replaces the content.
type DailyNote struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"user_id"`
	DateString string    `json:"date_string"` // YYYY-MM-DD
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
