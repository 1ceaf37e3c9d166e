package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents a user in the system
type User struct {
	ID          uuid.UUID       `json:"id"`
	Subject     string          `json:"subject"` // OIDC token subject
	Email       string          `json:"email"`
	Name        *string         `json:"name,omitempty"`
	Preferences UserPreferences `json:"preferences"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ExcludedTime is a recurring window the user never wants tasks in
type ExcludedTime struct {
	Day       string `json:"day"`
	TimeRange string `json:"time_range"`
}

// UserPreferences holds per-user scheduling preferences. The scheduling
// pipeline reads this value and never mutates it.
type UserPreferences struct {
	ExcludedTimes      []ExcludedTime          `json:"excluded_times"`
	TaskDurations      map[TaskCategory]int    `json:"task_durations"`       // minutes, overrides defaults
	PreferredTaskTimes map[TaskCategory]string `json:"preferred_task_times"` // category -> time-of-day tag
}

// Duration preference bounds, enforced wherever a duration override is set.
const (
	MinTaskDuration = 5   // minutes
	MaxTaskDuration = 480 // minutes
)

// DefaultPreferences returns the preferences installed for a new user.
func DefaultPreferences() UserPreferences {
	return UserPreferences{
		ExcludedTimes: []ExcludedTime{},
		TaskDurations: map[TaskCategory]int{
			CategoryAppointment: 60,
			CategoryCleaning:    45,
			CategoryErrands:     90,
			CategoryWork:        120,
			CategoryPersonal:    60,
			CategoryGeneric:     60,
		},
		PreferredTaskTimes: map[TaskCategory]string{
			CategoryCleaning:    "morning",
			CategoryErrands:     "weekend",
			CategoryWork:        "morning",
			CategoryPersonal:    "evening",
			CategoryAppointment: "any",
		},
	}
}
