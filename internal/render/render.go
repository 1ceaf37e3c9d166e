package render

import (
	"fmt"
	"strings"

	"github.com/starcrunch/starcrunch-api/internal/models"
)

const (
	// EmptyWeekMessage is shown when a user has no tasks at all
	EmptyWeekMessage = "🦕 Your mission log is empty! Use `/schedule` to add some tasks, space explorer! 🚀"

	maxPendingTasks    = 10
	maxRecentCompleted = 5
	maxTipsPerTask     = 2
	maxStrategyItems   = 3
)

var categoryEmoji = map[models.TaskCategory]string{
	models.CategoryAppointment: "📅",
	models.CategoryCleaning:    "🧹",
	models.CategoryErrands:     "🛍️",
	models.CategoryWork:        "💼",
	models.CategoryPersonal:    "👤",
	models.CategoryGeneric:     "📋",
}

var priorityEmoji = map[models.TaskPriority]string{
	models.PriorityHigh:   "🔥",
	models.PriorityMedium: "⚡",
	models.PriorityLow:    "💤",
}

// CategoryEmoji returns the emoji for a task category
func CategoryEmoji(category models.TaskCategory) string {
	if emoji, ok := categoryEmoji[category]; ok {
		return emoji
	}
	return "📋"
}

// PriorityEmoji returns the emoji for a task priority
func PriorityEmoji(priority models.TaskPriority) string {
	if emoji, ok := priorityEmoji[priority]; ok {
		return emoji
	}
	return "⚡"
}

// Block is one named section of a rendered message
type Block struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is a rendered, human-readable view of a schedule or week
type Message struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Blocks      []Block `json:"blocks,omitempty"`
	Footer      string  `json:"footer,omitempty"`
}

// Markdown flattens the message into a single markdown string
func (m *Message) Markdown() string {
	var b strings.Builder
	b.WriteString(m.Title)
	b.WriteString("\n")
	if m.Description != "" {
		b.WriteString(m.Description)
		b.WriteString("\n")
	}
	for _, block := range m.Blocks {
		b.WriteString("\n")
		b.WriteString(block.Name)
		b.WriteString("\n")
		b.WriteString(block.Value)
		b.WriteString("\n")
	}
	if m.Footer != "" {
		b.WriteString("\n")
		b.WriteString(m.Footer)
		b.WriteString("\n")
	}
	return b.String()
}

// RenderSchedule renders a freshly scheduled batch of tasks
func RenderSchedule(tasks []*models.Task) *Message {
	msg := &Message{
		Title:       "🦕 Tasks Scheduled!",
		Description: fmt.Sprintf("I've added %d tasks to your mission log:", len(tasks)),
	}

	for i, task := range tasks {
		var b strings.Builder
		fmt.Fprintf(&b, "**%s**\n", task.Text)
		fmt.Fprintf(&b, "Category: %s\n", title(string(task.Category)))
		fmt.Fprintf(&b, "Priority: %s %s\n", PriorityEmoji(task.Priority), title(string(task.Priority)))
		fmt.Fprintf(&b, "Duration: %d minutes\n", task.Duration)

		if task.IsAppointment {
			b.WriteString("⏰ Fixed appointment")
			if task.ScheduledTime != "" {
				fmt.Fprintf(&b, " at %s", task.ScheduledTime)
			}
			if task.ScheduledDay != "" {
				fmt.Fprintf(&b, " on %s", task.ScheduledDay)
			}
		} else {
			b.WriteString("📋 Flexible task")
			if task.PreferredTime != "" && task.PreferredTime != "any" {
				fmt.Fprintf(&b, " (best in %s)", task.PreferredTime)
			}
		}

		msg.Blocks = append(msg.Blocks, Block{
			Name:  fmt.Sprintf("%s Task %d", CategoryEmoji(task.Category), i+1),
			Value: b.String(),
		})

		if len(task.ADHDTips) > 0 {
			tips := task.ADHDTips
			if len(tips) > maxTipsPerTask {
				tips = tips[:maxTipsPerTask]
			}
			lines := make([]string, 0, len(tips))
			for _, tip := range tips {
				lines = append(lines, "🤖 "+tip)
			}
			msg.Blocks = append(msg.Blocks, Block{Name: "🧠 ADHD Tips", Value: strings.Join(lines, "\n")})
		} else if len(task.SchedulingSuggestions) > 0 {
			suggestions := task.SchedulingSuggestions
			if len(suggestions) > maxTipsPerTask {
				suggestions = suggestions[:maxTipsPerTask]
			}
			msg.Blocks = append(msg.Blocks, Block{Name: "💡 Scheduling Tips", Value: strings.Join(suggestions, "\n")})
		}
	}

	// Batch advice rides on the first task
	if len(tasks) > 0 {
		first := tasks[0]
		if first.Motivation != "" {
			msg.Blocks = append(msg.Blocks, Block{Name: "🦕 Starcrunch says:", Value: first.Motivation})
		}
		if len(first.OverallSuggestions) > 0 {
			suggestions := first.OverallSuggestions
			if len(suggestions) > maxStrategyItems {
				suggestions = suggestions[:maxStrategyItems]
			}
			lines := make([]string, 0, len(suggestions))
			for _, s := range suggestions {
				lines = append(lines, "• "+s)
			}
			msg.Blocks = append(msg.Blocks, Block{Name: "🚀 Mission Strategy:", Value: strings.Join(lines, "\n")})
		}
	}

	aiEnhanced := false
	for _, task := range tasks {
		if task.AIEnhanced {
			aiEnhanced = true
			break
		}
	}
	if aiEnhanced {
		msg.Footer = "🤖 Enhanced with AI • Use /show_week to see your full schedule!"
	} else {
		msg.Footer = "🚀 Use /show_week to see your full schedule!"
	}

	return msg
}

// RenderWeek renders a user's weekly view, splitting pending from completed
func RenderWeek(tasks []*models.Task) *Message {
	if len(tasks) == 0 {
		return &Message{Description: EmptyWeekMessage}
	}

	msg := &Message{
		Title:       "🦕 Your Weekly Mission Schedule",
		Description: "Here's what's planned for your space mission:",
		Footer:      "🚀 Great job on your space mission progress!",
	}

	var pending, completed []*models.Task
	for _, task := range tasks {
		if task.Completed {
			completed = append(completed, task)
		} else {
			pending = append(pending, task)
		}
	}

	if len(pending) > 0 {
		show := pending
		if len(show) > maxPendingTasks {
			show = show[:maxPendingTasks]
		}
		var b strings.Builder
		for _, task := range show {
			statusEmoji := "📋"
			if task.IsAppointment {
				statusEmoji = "📅"
			}
			fmt.Fprintf(&b, "%s %s\n", statusEmoji, task.Text)
		}
		msg.Blocks = append(msg.Blocks, Block{Name: "🎯 Pending Tasks", Value: b.String()})
	}

	if len(completed) > 0 {
		show := completed
		if len(show) > maxRecentCompleted {
			show = show[len(show)-maxRecentCompleted:]
		}
		var b strings.Builder
		for _, task := range show {
			fmt.Fprintf(&b, "✅ %s\n", task.Text)
		}
		msg.Blocks = append(msg.Blocks, Block{Name: "🏆 Recently Completed", Value: b.String()})
	}

	return msg
}

// title upper-cases the first letter of a known lowercase word
func title(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
