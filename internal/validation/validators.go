package validation

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

var (
	// Validate is a shared validator instance
	Validate *validator.Validate

	// timeRangePattern matches "HH:MM-HH:MM" excluded-time windows
	timeRangePattern = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d-([01]?\d|2[0-3]):[0-5]\d$`)

	// dayNames are the accepted lowercase weekday names for exclusions
	dayNames = map[string]bool{
		"monday": true, "tuesday": true, "wednesday": true, "thursday": true,
		"friday": true, "saturday": true, "sunday": true,
	}
)

func init() {
	Validate = validator.New()

	// Register custom validators for enums
	// These should never fail in normal operation, but log if they do
	if err := Validate.RegisterValidation("task_category", validateTaskCategory); err != nil {
		panic(fmt.Sprintf("failed to register task_category validator: %v", err))
	}
	if err := Validate.RegisterValidation("task_priority", validateTaskPriority); err != nil {
		panic(fmt.Sprintf("failed to register task_priority validator: %v", err))
	}
	if err := Validate.RegisterValidation("time_range", validateTimeRange); err != nil {
		panic(fmt.Sprintf("failed to register time_range validator: %v", err))
	}
	if err := Validate.RegisterValidation("date_string", validateDateString); err != nil {
		panic(fmt.Sprintf("failed to register date_string validator: %v", err))
	}
	if err := Validate.RegisterValidation("day_name", validateDayName); err != nil {
		panic(fmt.Sprintf("failed to register day_name validator: %v", err))
	}
}

// validateTaskCategory validates that a string is a valid TaskCategory enum value
func validateTaskCategory(fl validator.FieldLevel) bool {
	return models.IsValidCategory(models.TaskCategory(fl.Field().String()))
}

// validateTaskPriority validates that a string is a valid TaskPriority enum value
func validateTaskPriority(fl validator.FieldLevel) bool {
	return models.IsValidPriority(models.TaskPriority(fl.Field().String()))
}

// validateTimeRange validates a "HH:MM-HH:MM" window
func validateTimeRange(fl validator.FieldLevel) bool {
	return timeRangePattern.MatchString(fl.Field().String())
}

// validateDateString validates a "YYYY-MM-DD" calendar date
func validateDateString(fl validator.FieldLevel) bool {
	return ValidateDateString(fl.Field().String()) == nil
}

// validateDayName validates a lowercase weekday name
func validateDayName(fl validator.FieldLevel) bool {
	return ValidateDayName(fl.Field().String()) == nil
}

// SanitizeText sanitizes text input by trimming whitespace and removing control characters
func SanitizeText(text string) string {
	// Trim whitespace
	text = strings.TrimSpace(text)

	// Remove control characters except newline and tab
	var sanitized strings.Builder
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			continue
		}
		sanitized.WriteRune(r)
	}

	return sanitized.String()
}

// ValidateTaskCategory validates a TaskCategory string value
func ValidateTaskCategory(value string) error {
	if models.IsValidCategory(models.TaskCategory(value)) {
		return nil
	}
	return fmt.Errorf("invalid category: %s (must be 'appointment', 'cleaning', 'errands', 'work', 'personal', or 'generic')", value)
}

// ValidateTaskPriority validates a TaskPriority string value
func ValidateTaskPriority(value string) error {
	if models.IsValidPriority(models.TaskPriority(value)) {
		return nil
	}
	return fmt.Errorf("invalid priority: %s (must be 'high', 'medium', or 'low')", value)
}

// ValidateTimeRange validates a "HH:MM-HH:MM" excluded-time window
func ValidateTimeRange(value string) error {
	if timeRangePattern.MatchString(value) {
		return nil
	}
	return fmt.Errorf("invalid time range: %s (must be 'HH:MM-HH:MM')", value)
}

// ValidateDateString validates a "YYYY-MM-DD" calendar date
func ValidateDateString(value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("invalid date: %s (must be 'YYYY-MM-DD')", value)
	}
	return nil
}

// ValidateDayName validates a lowercase weekday name like "monday"
func ValidateDayName(value string) error {
	if dayNames[value] {
		return nil
	}
	return fmt.Errorf("invalid day: %s (must be a lowercase weekday name like 'monday')", value)
}

// ValidateDuration validates a per-category duration override in minutes
func ValidateDuration(minutes int) error {
	if minutes < models.MinTaskDuration || minutes > models.MaxTaskDuration {
		return fmt.Errorf("invalid duration: %d (must be between %d and %d minutes)", minutes, models.MinTaskDuration, models.MaxTaskDuration)
	}
	return nil
}
