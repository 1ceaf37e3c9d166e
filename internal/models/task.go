package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskCategory classifies what kind of task this is
type TaskCategory string

const (
	CategoryAppointment TaskCategory = "appointment"
	CategoryCleaning    TaskCategory = "cleaning"
	CategoryErrands     TaskCategory = "errands"
	CategoryWork        TaskCategory = "work"
	CategoryPersonal    TaskCategory = "personal"
	CategoryGeneric     TaskCategory = "generic"
)

// TaskPriority represents how urgent a task is
type TaskPriority string

const (
	PriorityHigh   TaskPriority = "high"
	PriorityMedium TaskPriority = "medium"
	PriorityLow    TaskPriority = "low"
)

// Task represents a parsed task, enriched in place by the scheduling
// pipeline. Category and Priority are always set after parsing; a missed
// keyword match resolves to CategoryGeneric / PriorityMedium, never to an
// empty value. Duration and the fields below it are populated during
// enrichment only.
type Task struct {
	ID            uuid.UUID    `json:"id"`
	UserID        uuid.UUID    `json:"user_id,omitempty"`
	Text          string       `json:"text"`
	Category      TaskCategory `json:"category"`
	Priority      TaskPriority `json:"priority"`
	IsAppointment bool         `json:"is_appointment"`

	// Raw matched substrings, verbatim as found in the lowercased phrase.
	// Never normalized into a clock type.
	ScheduledTime string `json:"scheduled_time,omitempty"`
	ScheduledDay  string `json:"scheduled_day,omitempty"`

	Duration              int      `json:"duration,omitempty"` // minutes
	PreferredTime         string   `json:"preferred_time,omitempty"`
	SchedulingSuggestions []string `json:"scheduling_suggestions,omitempty"`

	// Set only when the AI path succeeded for this entry.
	OptimalTime string   `json:"optimal_time,omitempty"`
	ADHDTips    []string `json:"adhd_tips,omitempty"`
	EnergyLevel string   `json:"energy_level,omitempty"`
	AIEnhanced  bool     `json:"ai_enhanced"`

	// Batch-level advice, attached to the first task of a batch only.
	OverallSuggestions []string `json:"overall_suggestions,omitempty"`
	Motivation         string   `json:"motivation,omitempty"`

	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ValidCategories lists every accepted task category.
func ValidCategories() []TaskCategory {
	return []TaskCategory{
		CategoryAppointment,
		CategoryCleaning,
		CategoryErrands,
		CategoryWork,
		CategoryPersonal,
		CategoryGeneric,
	}
}

// IsValidCategory reports whether c is a known task category.
func IsValidCategory(c TaskCategory) bool {
	switch c {
	case CategoryAppointment, CategoryCleaning, CategoryErrands,
		CategoryWork, CategoryPersonal, CategoryGeneric:
		return true
	}
	return false
}

// IsValidPriority reports whether p is a known task priority.
func IsValidPriority(p TaskPriority) bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}
