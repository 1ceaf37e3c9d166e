package scheduling

import (
	"strings"
	"testing"

	"github.com/starcrunch/starcrunch-api/internal/models"
)

func TestBuildSchedulingPrompt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		rawText  string
		prefs    models.UserPreferences
		validate func(*testing.T, string)
	}{
		{
			name:    "embeds the raw unsplit input",
			rawText: "Dentist 2pm Tuesday, clean kitchen, buy milk",
			validate: func(t *testing.T, prompt string) {
				if !strings.Contains(prompt, `"Dentist 2pm Tuesday, clean kitchen, buy milk"`) {
					t.Error("raw input missing from prompt")
				}
			},
		},
		{
			name:    "notes absent preferences explicitly",
			rawText: "walk the dog",
			validate: func(t *testing.T, prompt string) {
				if !strings.Contains(prompt, "Excluded times: None specified") {
					t.Error("missing excluded-times placeholder")
				}
				if !strings.Contains(prompt, "Custom durations: Using defaults") {
					t.Error("missing durations placeholder")
				}
			},
		},
		{
			name:    "embeds preference values when present",
			rawText: "walk the dog",
			prefs: models.UserPreferences{
				ExcludedTimes: []models.ExcludedTime{{Day: "monday", TimeRange: "9am-5pm"}},
				TaskDurations: map[models.TaskCategory]int{models.CategoryCleaning: 30},
			},
			validate: func(t *testing.T, prompt string) {
				if !strings.Contains(prompt, "monday") || !strings.Contains(prompt, "9am-5pm") {
					t.Error("excluded times not embedded")
				}
				if !strings.Contains(prompt, "cleaning") || !strings.Contains(prompt, "30") {
					t.Error("custom durations not embedded")
				}
			},
		},
		{
			name:    "asks for the fixed JSON schema",
			rawText: "anything",
			validate: func(t *testing.T, prompt string) {
				for _, field := range []string{`"tasks"`, `"overall_suggestions"`, `"motivation"`, `"optimal_time"`, `"adhd_tips"`, `"energy_level"`} {
					if !strings.Contains(prompt, field) {
						t.Errorf("schema field %s missing from prompt", field)
					}
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			prompt := buildSchedulingPrompt(tt.rawText, tt.prefs)
			tt.validate(t, prompt)
		})
	}
}
