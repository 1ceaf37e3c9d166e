package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/starcrunch/starcrunch-api/internal/models"
)

func TestRenderSchedule(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		{
			Text:          "Dentist 2pm Tuesday",
			Category:      models.CategoryAppointment,
			Priority:      models.PriorityMedium,
			IsAppointment: true,
			ScheduledTime: "2pm",
			ScheduledDay:  "tuesday",
			Duration:      60,
		},
		{
			Text:          "clean the kitchen",
			Category:      models.CategoryCleaning,
			Priority:      models.PriorityMedium,
			Duration:      45,
			PreferredTime: "morning",
			SchedulingSuggestions: []string{
				"🌅 Best done in the morning when energy is high",
			},
		},
	}

	msg := RenderSchedule(tasks)

	if msg.Title != "🦕 Tasks Scheduled!" {
		t.Errorf("Unexpected title: %q", msg.Title)
	}
	if msg.Description != "I've added 2 tasks to your mission log:" {
		t.Errorf("Unexpected description: %q", msg.Description)
	}

	if len(msg.Blocks) != 3 {
		t.Fatalf("Expected 3 blocks (2 tasks + 1 tips), got %d: %+v", len(msg.Blocks), msg.Blocks)
	}

	first := msg.Blocks[0]
	if first.Name != "📅 Task 1" {
		t.Errorf("Unexpected first block name: %q", first.Name)
	}
	if !strings.Contains(first.Value, "**Dentist 2pm Tuesday**") {
		t.Errorf("Expected bolded task text, got %q", first.Value)
	}
	if !strings.Contains(first.Value, "Category: Appointment") {
		t.Errorf("Expected title-cased category, got %q", first.Value)
	}
	if !strings.Contains(first.Value, "Priority: ⚡ Medium") {
		t.Errorf("Expected priority line with emoji, got %q", first.Value)
	}
	if !strings.Contains(first.Value, "Duration: 60 minutes") {
		t.Errorf("Expected duration line, got %q", first.Value)
	}
	if !strings.Contains(first.Value, "⏰ Fixed appointment at 2pm on tuesday") {
		t.Errorf("Expected appointment line with time and day, got %q", first.Value)
	}

	second := msg.Blocks[1]
	if second.Name != "🧹 Task 2" {
		t.Errorf("Unexpected second block name: %q", second.Name)
	}
	if !strings.Contains(second.Value, "📋 Flexible task (best in morning)") {
		t.Errorf("Expected flexible line with preferred time, got %q", second.Value)
	}

	tips := msg.Blocks[2]
	if tips.Name != "💡 Scheduling Tips" {
		t.Errorf("Expected scheduling tips block, got %q", tips.Name)
	}
	if !strings.Contains(tips.Value, "🌅 Best done in the morning when energy is high") {
		t.Errorf("Expected suggestion text, got %q", tips.Value)
	}

	if msg.Footer != "🚀 Use /show_week to see your full schedule!" {
		t.Errorf("Expected rule-based footer, got %q", msg.Footer)
	}
}

func TestRenderSchedule_AIEnhanced(t *testing.T) {
	t.Parallel()

	tasks := []*models.Task{
		{
			Text:        "finish the report",
			Category:    models.CategoryWork,
			Priority:    models.PriorityHigh,
			Duration:    120,
			AIEnhanced:  true,
			OptimalTime: "morning",
			ADHDTips: []string{
				"Break it into 25-minute sprints",
				"Silence notifications first",
				"Reward yourself after each section",
			},
			OverallSuggestions: []string{
				"Start with the hardest task",
				"Batch your errands",
				"Leave buffer time between tasks",
				"A fourth tip that should not render",
			},
			Motivation: "You've got this, space explorer!",
		},
	}

	msg := RenderSchedule(tasks)

	var tipBlock, motivationBlock, strategyBlock *Block
	for i := range msg.Blocks {
		switch msg.Blocks[i].Name {
		case "🧠 ADHD Tips":
			tipBlock = &msg.Blocks[i]
		case "🦕 Starcrunch says:":
			motivationBlock = &msg.Blocks[i]
		case "🚀 Mission Strategy:":
			strategyBlock = &msg.Blocks[i]
		}
	}

	if tipBlock == nil {
		t.Fatal("Expected an ADHD tips block")
	}
	tipLines := strings.Split(tipBlock.Value, "\n")
	if len(tipLines) != 2 {
		t.Errorf("Expected tips capped at 2, got %d: %v", len(tipLines), tipLines)
	}
	for _, line := range tipLines {
		if !strings.HasPrefix(line, "🤖 ") {
			t.Errorf("Expected tip line prefixed with robot emoji, got %q", line)
		}
	}

	if motivationBlock == nil {
		t.Fatal("Expected a motivation block")
	}
	if motivationBlock.Value != "You've got this, space explorer!" {
		t.Errorf("Unexpected motivation: %q", motivationBlock.Value)
	}

	if strategyBlock == nil {
		t.Fatal("Expected a mission strategy block")
	}
	strategyLines := strings.Split(strategyBlock.Value, "\n")
	if len(strategyLines) != 3 {
		t.Errorf("Expected strategy capped at 3 items, got %d", len(strategyLines))
	}
	if strategyLines[0] != "• Start with the hardest task" {
		t.Errorf("Expected bulleted strategy, got %q", strategyLines[0])
	}

	if msg.Footer != "🤖 Enhanced with AI • Use /show_week to see your full schedule!" {
		t.Errorf("Expected AI footer, got %q", msg.Footer)
	}
}

func TestRenderWeek(t *testing.T) {
	t.Parallel()

	t.Run("empty log", func(t *testing.T) {
		t.Parallel()
		msg := RenderWeek(nil)
		if msg.Description != EmptyWeekMessage {
			t.Errorf("Expected empty-log message, got %q", msg.Description)
		}
		if len(msg.Blocks) != 0 {
			t.Errorf("Expected no blocks for empty log, got %d", len(msg.Blocks))
		}
	})

	t.Run("splits pending and completed", func(t *testing.T) {
		t.Parallel()

		var tasks []*models.Task
		for i := 0; i < 12; i++ {
			tasks = append(tasks, &models.Task{
				Text:          fmt.Sprintf("pending %d", i+1),
				IsAppointment: i == 0,
			})
		}
		for i := 0; i < 7; i++ {
			tasks = append(tasks, &models.Task{
				Text:      fmt.Sprintf("done %d", i+1),
				Completed: true,
			})
		}

		msg := RenderWeek(tasks)

		if msg.Title != "🦕 Your Weekly Mission Schedule" {
			t.Errorf("Unexpected title: %q", msg.Title)
		}
		if len(msg.Blocks) != 2 {
			t.Fatalf("Expected pending and completed blocks, got %d", len(msg.Blocks))
		}

		pending := msg.Blocks[0]
		if pending.Name != "🎯 Pending Tasks" {
			t.Errorf("Unexpected pending block name: %q", pending.Name)
		}
		pendingLines := strings.Split(strings.TrimRight(pending.Value, "\n"), "\n")
		if len(pendingLines) != 10 {
			t.Errorf("Expected pending capped at 10, got %d", len(pendingLines))
		}
		if !strings.HasPrefix(pendingLines[0], "📅 ") {
			t.Errorf("Expected appointment marker on first line, got %q", pendingLines[0])
		}
		if !strings.HasPrefix(pendingLines[1], "📋 ") {
			t.Errorf("Expected flexible marker on second line, got %q", pendingLines[1])
		}

		completed := msg.Blocks[1]
		if completed.Name != "🏆 Recently Completed" {
			t.Errorf("Unexpected completed block name: %q", completed.Name)
		}
		completedLines := strings.Split(strings.TrimRight(completed.Value, "\n"), "\n")
		if len(completedLines) != 5 {
			t.Errorf("Expected completed capped at last 5, got %d", len(completedLines))
		}
		if completedLines[0] != "✅ done 3" {
			t.Errorf("Expected the last five completed tasks, got first line %q", completedLines[0])
		}
		if completedLines[4] != "✅ done 7" {
			t.Errorf("Expected most recent completion last, got %q", completedLines[4])
		}
	})
}

func TestEmote(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "complete code", input: "🦕", want: "<:starcrunch:1392407227394035814>"},
		{name: "placeholder falls back", input: "🚀", want: "🚀"},
		{name: "day name", input: "monday", want: "<:monday:1392407080782135336>"},
		{name: "day name case-insensitive", input: "Saturday", want: "<:saturday:1392407182292684820>"},
		{name: "placeholder day falls back", input: "tuesday", want: "tuesday"},
		{name: "unknown input", input: "🍩", want: "🍩"},
		{name: "animated banner", input: "info_banner", want: "<a:info_banner:1393082430218436788>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Emote(tt.input); got != tt.want {
				t.Errorf("Emote(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestReplaceTokens(t *testing.T) {
	t.Parallel()

	got := ReplaceTokens("🦕 blast off 🚀")
	if !strings.Contains(got, "<:starcrunch:1392407227394035814>") {
		t.Errorf("Expected dinosaur replaced with emote code, got %q", got)
	}
	if !strings.Contains(got, "🚀") {
		t.Errorf("Expected placeholder rocket left as emoji, got %q", got)
	}
}

func TestCategoryAndPriorityEmoji(t *testing.T) {
	t.Parallel()

	if got := CategoryEmoji(models.CategoryErrands); got != "🛍️" {
		t.Errorf("CategoryEmoji(errands) = %q", got)
	}
	if got := CategoryEmoji(models.TaskCategory("mystery")); got != "📋" {
		t.Errorf("Expected clipboard fallback for unknown category, got %q", got)
	}
	if got := PriorityEmoji(models.PriorityHigh); got != "🔥" {
		t.Errorf("PriorityEmoji(high) = %q", got)
	}
	if got := PriorityEmoji(models.TaskPriority("")); got != "⚡" {
		t.Errorf("Expected lightning fallback for unknown priority, got %q", got)
	}
}
