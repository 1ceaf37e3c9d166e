package taskparse

import (
	"testing"

	"github.com/starcrunch/starcrunch-api/internal/models"
)

func TestParseTasks_SplitsOnCommas(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		wantTexts []string
	}{
		{
			name:      "one task per segment in input order",
			input:     "buy groceries, clean the kitchen, finish report",
			wantTexts: []string{"buy groceries", "clean the kitchen", "finish report"},
		},
		{
			name:      "trims whitespace and preserves case",
			input:     "  Dentist 2pm Tuesday ,   Call Mom  ",
			wantTexts: []string{"Dentist 2pm Tuesday", "Call Mom"},
		},
		{
			name:      "drops empty segments",
			input:     "vacuum, , ,walk the dog,",
			wantTexts: []string{"vacuum", "walk the dog"},
		},
		{
			name:      "empty input yields no tasks",
			input:     "  , ,  ",
			wantTexts: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tasks := ParseTasks(tt.input)
			if len(tasks) != len(tt.wantTexts) {
				t.Fatalf("got %d tasks, want %d", len(tasks), len(tt.wantTexts))
			}
			for i, want := range tt.wantTexts {
				if tasks[i].Text != want {
					t.Errorf("task %d text = %q, want %q", i, tasks[i].Text, want)
				}
			}
		})
	}
}

func TestParseTask_KeepsCommas(t *testing.T) {
	t.Parallel()

	task := ParseTask("  grocery run: milk, eggs, bread  ")
	if task.Text != "grocery run: milk, eggs, bread" {
		t.Errorf("text = %q, want commas preserved", task.Text)
	}
	if task.Category != models.CategoryErrands {
		t.Errorf("category = %q, want %q", task.Category, models.CategoryErrands)
	}
	if task.Priority != models.PriorityMedium {
		t.Errorf("priority = %q, want %q", task.Priority, models.PriorityMedium)
	}
}

func TestParseTasks_Classification(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		input             string
		wantCategory      models.TaskCategory
		wantPriority      models.TaskPriority
		wantIsAppointment bool
		wantTime          string
		wantDay           string
	}{
		{
			name:              "appointment with time and day",
			input:             "Dentist 2pm Tuesday",
			wantCategory:      models.CategoryAppointment,
			wantPriority:      models.PriorityMedium,
			wantIsAppointment: true,
			wantTime:          "2pm",
			wantDay:           "tuesday",
		},
		{
			name:         "cleaning with high priority keyword",
			input:        "clean the kitchen ASAP",
			wantCategory: models.CategoryCleaning,
			wantPriority: models.PriorityHigh,
		},
		{
			name:         "cleaning keyword beats errands keyword",
			input:        "vacuum the store room",
			wantCategory: models.CategoryCleaning,
			wantPriority: models.PriorityMedium,
		},
		{
			name:         "appointment keyword beats personal keyword",
			input:        "call mom",
			wantCategory: models.CategoryAppointment,
			wantPriority: models.PriorityMedium,
		},
		{
			name:         "work keyword with deadline also raises priority",
			input:        "project deadline",
			wantCategory: models.CategoryWork,
			wantPriority: models.PriorityHigh,
		},
		{
			name:         "low priority keyword",
			input:        "read that book someday",
			wantCategory: models.CategoryPersonal,
			wantPriority: models.PriorityLow,
		},
		{
			name:         "no keyword match defaults to generic medium",
			input:        "figure out the thing",
			wantCategory: models.CategoryGeneric,
			wantPriority: models.PriorityMedium,
		},
		{
			name:              "day alone does not make an appointment",
			input:             "exercise tomorrow",
			wantCategory:      models.CategoryPersonal,
			wantPriority:      models.PriorityMedium,
			wantIsAppointment: false,
			wantDay:           "tomorrow",
		},
		{
			name:              "colon time with meridiem matches whole form",
			input:             "doctor visit 10:30am friday",
			wantCategory:      models.CategoryAppointment,
			wantPriority:      models.PriorityMedium,
			wantIsAppointment: true,
			wantTime:          "10:30am",
			wantDay:           "friday",
		},
		{
			name:              "bare meridiem wins over the at-prefixed pattern",
			input:             "meeting at 5pm",
			wantCategory:      models.CategoryAppointment,
			wantPriority:      models.PriorityMedium,
			wantIsAppointment: true,
			wantTime:          "5pm",
		},
		{
			name:              "at with colon and no meridiem",
			input:             "checkup at 9:15",
			wantCategory:      models.CategoryAppointment,
			wantPriority:      models.PriorityMedium,
			wantIsAppointment: true,
			wantTime:          "at 9:15",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			tasks := ParseTasks(tt.input)
			if len(tasks) != 1 {
				t.Fatalf("got %d tasks, want 1", len(tasks))
			}
			task := tasks[0]

			if task.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", task.Category, tt.wantCategory)
			}
			if task.Priority != tt.wantPriority {
				t.Errorf("priority = %q, want %q", task.Priority, tt.wantPriority)
			}
			if task.IsAppointment != tt.wantIsAppointment {
				t.Errorf("isAppointment = %v, want %v", task.IsAppointment, tt.wantIsAppointment)
			}
			if task.ScheduledTime != tt.wantTime {
				t.Errorf("scheduledTime = %q, want %q", task.ScheduledTime, tt.wantTime)
			}
			if task.ScheduledDay != tt.wantDay {
				t.Errorf("scheduledDay = %q, want %q", task.ScheduledDay, tt.wantDay)
			}
		})
	}
}

func TestParseTasks_DraftInvariants(t *testing.T) {
	t.Parallel()

	tasks := ParseTasks("dentist 2pm, mop the floor, something vague")
	if len(tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(tasks))
	}

	seen := make(map[string]bool)
	for i, task := range tasks {
		if task.ID.String() == "" || seen[task.ID.String()] {
			t.Errorf("task %d has missing or duplicate id", i)
		}
		seen[task.ID.String()] = true

		if task.Category == "" {
			t.Errorf("task %d has unset category", i)
		}
		if task.Priority == "" {
			t.Errorf("task %d has unset priority", i)
		}
		if task.Completed {
			t.Errorf("task %d starts completed", i)
		}
		if task.CreatedAt.IsZero() {
			t.Errorf("task %d has zero createdAt", i)
		}
		// Enrichment fields must be untouched on a bare draft.
		if task.Duration != 0 || task.PreferredTime != "" ||
			len(task.SchedulingSuggestions) != 0 || task.AIEnhanced {
			t.Errorf("task %d carries enrichment data before enrichment", i)
		}
	}
}
