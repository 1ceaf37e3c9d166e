package scheduling

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// fixedTask builds a draft with pinned identity so outputs can be compared
// byte for byte across runs.
func fixedTask(id string, text string, category models.TaskCategory, priority models.TaskPriority) *models.Task {
	return &models.Task{
		ID:        uuid.MustParse(id),
		Text:      text,
		Category:  category,
		Priority:  priority,
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func fixedAppointment(id string, text string, scheduledTime, scheduledDay string) *models.Task {
	task := fixedTask(id, text, models.CategoryAppointment, models.PriorityMedium)
	task.IsAppointment = true
	task.ScheduledTime = scheduledTime
	task.ScheduledDay = scheduledDay
	return task
}

func TestScheduleTasks_AppointmentKeepsTimeAndDay(t *testing.T) {
	t.Parallel()

	scheduler := NewScheduler()
	task := fixedAppointment("11111111-1111-1111-1111-111111111111", "Dentist 2pm Tuesday", "2pm", "tuesday")

	result := scheduler.ScheduleTasks([]*models.Task{task}, models.UserPreferences{})
	if len(result) != 1 {
		t.Fatalf("got %d tasks, want 1", len(result))
	}

	got := result[0]
	if got.Duration != 60 {
		t.Errorf("duration = %d, want 60", got.Duration)
	}
	if got.ScheduledTime != "2pm" || got.ScheduledDay != "tuesday" {
		t.Errorf("schedule fields changed: time=%q day=%q", got.ScheduledTime, got.ScheduledDay)
	}
	if got.PreferredTime != "" {
		t.Errorf("appointment got preferredTime %q", got.PreferredTime)
	}
	if len(got.SchedulingSuggestions) != 0 {
		t.Errorf("appointment got suggestions %v", got.SchedulingSuggestions)
	}
}

func TestScheduleTasks_DurationPrecedence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		category models.TaskCategory
		prefs    models.UserPreferences
		want     int
	}{
		{
			name:     "user override wins",
			category: models.CategoryCleaning,
			prefs: models.UserPreferences{
				TaskDurations: map[models.TaskCategory]int{models.CategoryCleaning: 30},
			},
			want: 30,
		},
		{
			name:     "static default without override",
			category: models.CategoryWork,
			prefs:    models.UserPreferences{},
			want:     120,
		},
		{
			name:     "unknown category falls back to 60",
			category: models.TaskCategory("mystery"),
			prefs:    models.UserPreferences{},
			want:     60,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scheduler := NewScheduler()
			task := fixedTask("22222222-2222-2222-2222-222222222222", "something", tt.category, models.PriorityMedium)

			scheduler.ScheduleTasks([]*models.Task{task}, tt.prefs)
			if task.Duration != tt.want {
				t.Errorf("duration = %d, want %d", task.Duration, tt.want)
			}
		})
	}
}

func TestScheduleTasks_PreferredTimeAndSuggestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name              string
		category          models.TaskCategory
		priority          models.TaskPriority
		wantPreferredTime string
		wantSuggestions   int
	}{
		{"cleaning gets morning and one suggestion", models.CategoryCleaning, models.PriorityMedium, "morning", 1},
		{"errands gets afternoon and two suggestions", models.CategoryErrands, models.PriorityMedium, "afternoon", 2},
		{"work gets morning and one suggestion", models.CategoryWork, models.PriorityMedium, "morning", 1},
		{"personal gets evening and no suggestions", models.CategoryPersonal, models.PriorityMedium, "evening", 0},
		{"high priority generic gets the priority suggestion", models.CategoryGeneric, models.PriorityHigh, "any", 1},
		{"generic medium gets nothing", models.CategoryGeneric, models.PriorityMedium, "any", 0},
		{"high priority cleaning keeps only the category suggestion", models.CategoryCleaning, models.PriorityHigh, "morning", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scheduler := NewScheduler()
			task := fixedTask("33333333-3333-3333-3333-333333333333", "flexible task", tt.category, tt.priority)

			scheduler.ScheduleTasks([]*models.Task{task}, models.UserPreferences{})
			if task.PreferredTime != tt.wantPreferredTime {
				t.Errorf("preferredTime = %q, want %q", task.PreferredTime, tt.wantPreferredTime)
			}
			if len(task.SchedulingSuggestions) != tt.wantSuggestions {
				t.Errorf("suggestions = %v, want %d entries", task.SchedulingSuggestions, tt.wantSuggestions)
			}
		})
	}
}

func TestScheduleTasks_Deterministic(t *testing.T) {
	t.Parallel()

	prefs := models.UserPreferences{
		TaskDurations: map[models.TaskCategory]int{models.CategoryErrands: 45},
	}

	build := func() []*models.Task {
		return []*models.Task{
			fixedAppointment("44444444-4444-4444-4444-444444444444", "doctor 10am", "10am", ""),
			fixedTask("55555555-5555-5555-5555-555555555555", "grocery run", models.CategoryErrands, models.PriorityMedium),
			fixedTask("66666666-6666-6666-6666-666666666666", "urgent thing", models.CategoryGeneric, models.PriorityHigh),
		}
	}

	scheduler := NewScheduler()
	first, err := json.Marshal(scheduler.ScheduleTasks(build(), prefs))
	if err != nil {
		t.Fatalf("marshal first run: %v", err)
	}
	second, err := json.Marshal(scheduler.ScheduleTasks(build(), prefs))
	if err != nil {
		t.Fatalf("marshal second run: %v", err)
	}

	if string(first) != string(second) {
		t.Errorf("outputs differ:\n%s\n%s", first, second)
	}
}

func TestScheduleTasks_DoesNotMutatePreferences(t *testing.T) {
	t.Parallel()

	prefs := models.UserPreferences{
		ExcludedTimes: []models.ExcludedTime{{Day: "monday", TimeRange: "9am-5pm"}},
		TaskDurations: map[models.TaskCategory]int{models.CategoryWork: 90},
		PreferredTaskTimes: map[models.TaskCategory]string{
			models.CategoryWork: "morning",
		},
	}
	before, err := json.Marshal(prefs)
	if err != nil {
		t.Fatalf("marshal prefs: %v", err)
	}

	scheduler := NewScheduler()
	scheduler.ScheduleTasks([]*models.Task{
		fixedTask("77777777-7777-7777-7777-777777777777", "write report", models.CategoryWork, models.PriorityMedium),
	}, prefs)

	after, err := json.Marshal(prefs)
	if err != nil {
		t.Fatalf("marshal prefs: %v", err)
	}
	if string(before) != string(after) {
		t.Errorf("preferences mutated:\n%s\n%s", before, after)
	}
}

func TestScheduleTasks_PreservesOrder(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		fixedTask("88888888-8888-8888-8888-888888888888", "first", models.CategoryGeneric, models.PriorityMedium),
		fixedTask("99999999-9999-9999-9999-999999999999", "second", models.CategoryCleaning, models.PriorityMedium),
		fixedTask("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa", "third", models.CategoryWork, models.PriorityLow),
	}

	result := NewScheduler().ScheduleTasks(tasks, models.UserPreferences{})
	for i, want := range []string{"first", "second", "third"} {
		if result[i].Text != want {
			t.Errorf("position %d = %q, want %q", i, result[i].Text, want)
		}
	}
}
