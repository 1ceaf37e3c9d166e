package taskparse

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// Time-of-day patterns, tried in order; the first one that matches anywhere
// in the lowercased phrase wins and the rest are skipped.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,2}):(\d{2})\s*(am|pm)`),
	regexp.MustCompile(`(\d{1,2})\s*(am|pm)`),
	regexp.MustCompile(`at\s+(\d{1,2}):(\d{2})`),
	regexp.MustCompile(`at\s+(\d{1,2})\s*(am|pm)`),
}

// Day patterns, tried in order independently of time extraction.
var dayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(monday|tuesday|wednesday|thursday|friday|saturday|sunday)`),
	regexp.MustCompile(`(mon|tue|wed|thu|fri|sat|sun)`),
	regexp.MustCompile(`(today|tomorrow|next week)`),
}

// categoryKeywords pairs each category with its keyword set. Declaration
// order is load-bearing: a phrase matching keywords from two categories
// always resolves to the earlier one.
var categoryKeywords = []struct {
	category models.TaskCategory
	keywords []string
}{
	{models.CategoryAppointment, []string{"dentist", "doctor", "meeting", "appointment", "call", "visit", "checkup"}},
	{models.CategoryCleaning, []string{"clean", "vacuum", "dishes", "laundry", "tidy", "sweep", "mop", "dust"}},
	{models.CategoryErrands, []string{"grocery", "shopping", "bank", "post office", "store", "pickup", "drop off"}},
	{models.CategoryWork, []string{"work", "project", "deadline", "presentation", "report", "email"}},
	{models.CategoryPersonal, []string{"exercise", "workout", "read", "call mom", "call dad", "family"}},
}

// priorityKeywords is checked high first, then low; no match means medium.
var priorityKeywords = []struct {
	priority models.TaskPriority
	keywords []string
}{
	{models.PriorityHigh, []string{"urgent", "important", "asap", "priority", "deadline"}},
	{models.PriorityLow, []string{"maybe", "eventually", "when possible", "someday"}},
}

// ParseTasks splits a comma-delimited task string into one task per
// non-empty trimmed segment, preserving input order. Order matters
// downstream: AI enrichment merges results back by position.
func ParseTasks(input string) []*models.Task {
	var tasks []*models.Task
	for _, segment := range strings.Split(input, ",") {
		segment = strings.TrimSpace(segment)
		if segment == "" {
			continue
		}
		tasks = append(tasks, parseSingleTask(segment))
	}
	return tasks
}

// ParseTask classifies a single phrase without splitting on commas, for
// callers that already hold exactly one task.
func ParseTask(phrase string) *models.Task {
	return parseSingleTask(strings.TrimSpace(phrase))
}

// parseSingleTask classifies one phrase. Unmatched input is not an error:
// category falls back to generic, priority to medium, and the time/day
// fields stay empty.
func parseSingleTask(phrase string) *models.Task {
	lower := strings.ToLower(phrase)

	var scheduledTime string
	for _, pattern := range timePatterns {
		if m := pattern.FindString(lower); m != "" {
			scheduledTime = m
			break
		}
	}

	var scheduledDay string
	for _, pattern := range dayPatterns {
		if m := pattern.FindString(lower); m != "" {
			scheduledDay = m
			break
		}
	}

	category := models.CategoryGeneric
	for _, entry := range categoryKeywords {
		if containsAny(lower, entry.keywords) {
			category = entry.category
			break
		}
	}

	priority := models.PriorityMedium
	for _, entry := range priorityKeywords {
		if containsAny(lower, entry.keywords) {
			priority = entry.priority
			break
		}
	}

	return &models.Task{
		ID:            uuid.New(),
		Text:          phrase,
		Category:      category,
		Priority:      priority,
		IsAppointment: scheduledTime != "",
		ScheduledTime: scheduledTime,
		ScheduledDay:  scheduledDay,
		Completed:     false,
		CreatedAt:     time.Now(),
	}
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
