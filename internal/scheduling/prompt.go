package scheduling

import (
	"encoding/json"
	"strings"

	"github.com/starcrunch/starcrunch-api/internal/models"
)

// System prompts for the two model tiers. The fallback model gets the
// simplified role to keep its reduced token budget on the answer.
const (
	schedulingSystemPrompt = "You are Starcrunch, a friendly dinosaur astronaut that helps " +
		"people with ADHD schedule tasks. Be helpful and encouraging while providing " +
		"practical scheduling advice."
	schedulingFallbackSystemPrompt = "You are Starcrunch, a helpful task scheduling assistant."
)

// buildSchedulingPrompt assembles the single user prompt for a batch. It
// embeds the raw unsplit input so the model sees exactly what the user
// typed, plus the preference values that affect scheduling.
func buildSchedulingPrompt(rawText string, prefs models.UserPreferences) string {
	excludedTimes := "None specified"
	if len(prefs.ExcludedTimes) > 0 {
		if data, err := json.Marshal(prefs.ExcludedTimes); err == nil {
			excludedTimes = string(data)
		}
	}

	customDurations := "Using defaults"
	if len(prefs.TaskDurations) > 0 {
		if data, err := json.Marshal(prefs.TaskDurations); err == nil {
			customDurations = string(data)
		}
	}

	var b strings.Builder
	b.WriteString("🦕 Hi! I'm Starcrunch, and I need help scheduling these tasks for a space explorer with ADHD:\n\n")
	b.WriteString("TASKS TO SCHEDULE: \"")
	b.WriteString(rawText)
	b.WriteString("\"\n\n")
	b.WriteString("USER PREFERENCES:\n")
	b.WriteString("- Excluded times: ")
	b.WriteString(excludedTimes)
	b.WriteString("\n")
	b.WriteString("- Custom durations: ")
	b.WriteString(customDurations)
	b.WriteString("\n\n")
	b.WriteString(`Please analyze these tasks and provide:
1. Enhanced task categorization (appointment, cleaning, errands, work, personal, generic)
2. Priority assessment (high, medium, low) based on urgency indicators
3. Realistic duration estimates (in minutes)
4. Optimal scheduling suggestions (morning, afternoon, evening, weekend)
5. ADHD-friendly tips for completing each task

Respond in JSON format:
{
  "tasks": [
    {
      "text": "original task text",
      "category": "detected_category",
      "priority": "detected_priority",
      "duration": estimated_minutes,
      "optimal_time": "best_time_period",
      "adhd_tips": ["tip1", "tip2"],
      "energy_level": "high/medium/low"
    }
  ],
  "overall_suggestions": ["general scheduling advice"],
  "motivation": "encouraging message for the user"
}

Focus on being helpful, realistic, and encouraging! 🚀`)

	return b.String()
}
