package scheduling

import (
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// defaultDurations is the static fallback, in minutes, when the user has no
// duration override for a category.
var defaultDurations = map[models.TaskCategory]int{
	models.CategoryAppointment: 60,
	models.CategoryCleaning:    45,
	models.CategoryErrands:     90,
	models.CategoryWork:        120,
	models.CategoryPersonal:    60,
	models.CategoryGeneric:     60,
}

// preferredTimes maps a category to its ordered time-of-day tags; the first
// tag is what a flexible task receives.
var preferredTimes = map[models.TaskCategory][]string{
	models.CategoryCleaning:    {"morning"},
	models.CategoryErrands:     {"afternoon", "weekend"},
	models.CategoryWork:        {"morning", "afternoon"},
	models.CategoryPersonal:    {"evening", "weekend"},
	models.CategoryAppointment: {"any"},
}

// Scheduler applies deterministic rule-based enrichment. It is the
// guaranteed-available fallback for AI enrichment, so identical inputs must
// always produce identical output.
type Scheduler struct{}

// NewScheduler creates a new rule-based scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// ScheduleTasks enriches tasks in place and returns them in the same order.
// Appointments with a concrete time only get a duration; flexible tasks get
// duration, a preferred time window, and canned suggestions.
func (s *Scheduler) ScheduleTasks(tasks []*models.Task, prefs models.UserPreferences) []*models.Task {
	for _, task := range tasks {
		if task.IsAppointment && task.ScheduledTime != "" {
			task.Duration = durationFor(task.Category, prefs)
			continue
		}
		s.applySmartScheduling(task, prefs)
	}
	return tasks
}

// applySmartScheduling enriches a single flexible task
func (s *Scheduler) applySmartScheduling(task *models.Task, prefs models.UserPreferences) {
	task.Duration = durationFor(task.Category, prefs)

	if tags, ok := preferredTimes[task.Category]; ok {
		task.PreferredTime = tags[0]
	} else {
		task.PreferredTime = "any"
	}

	task.SchedulingSuggestions = schedulingSuggestions(task)
}

// durationFor resolves a task duration: user override, then the static
// per-category default, then 60 minutes.
func durationFor(category models.TaskCategory, prefs models.UserPreferences) int {
	if minutes, ok := prefs.TaskDurations[category]; ok {
		return minutes
	}
	if minutes, ok := defaultDurations[category]; ok {
		return minutes
	}
	return 60
}

// schedulingSuggestions returns the canned suggestion list for a task. The
// category rules are checked before the priority rule, so a high-priority
// cleaning task gets the cleaning suggestion only.
func schedulingSuggestions(task *models.Task) []string {
	switch {
	case task.Category == models.CategoryCleaning:
		return []string{"🌅 Best done in the morning when energy is high"}
	case task.Category == models.CategoryErrands:
		return []string{
			"🛍️ Consider batching with other errands",
			"🏪 Check store hours before scheduling",
		}
	case task.Category == models.CategoryWork:
		return []string{"⏰ Schedule during your peak focus hours"}
	case task.Priority == models.PriorityHigh:
		return []string{"🔥 High priority - schedule ASAP"}
	}
	return []string{}
}
