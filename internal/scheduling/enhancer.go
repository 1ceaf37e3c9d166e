package scheduling

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/starcrunch/starcrunch-api/internal/models"
	"github.com/starcrunch/starcrunch-api/internal/services/ai"
)

// Failure modes TryEnhanceTasks reports. Provider errors are returned
// unwrapped so callers can classify rate limits and quota exhaustion.
var (
	ErrAIUnavailable  = errors.New("no completion provider configured")
	ErrReplyNotUsable = errors.New("model reply carried no usable analysis")
)

// Model call budgets. The fallback tier runs with half the output budget
// and the simplified system role.
const (
	enhanceTemperature = 0.3
	primaryMaxTokens   = 1000
	fallbackMaxTokens  = 500
)

// taskAnalysis is one per-task object in the model's JSON reply
type taskAnalysis struct {
	Text        string   `json:"text"`
	Category    string   `json:"category"`
	Priority    string   `json:"priority"`
	Duration    int      `json:"duration"`
	OptimalTime string   `json:"optimal_time"`
	ADHDTips    []string `json:"adhd_tips"`
	EnergyLevel string   `json:"energy_level"`
}

// scheduleAnalysis is the full JSON schema the prompt asks for
type scheduleAnalysis struct {
	Tasks              []taskAnalysis `json:"tasks"`
	OverallSuggestions []string       `json:"overall_suggestions"`
	Motivation         string         `json:"motivation"`
}

// analysisResult carries the outcome of the AI round trip. When Enhanced is
// false, Reason holds the diagnostic and Raw the reply text, if any; the
// batch then goes to the rule-based scheduler in full.
type analysisResult struct {
	Enhanced bool
	Data     *scheduleAnalysis
	Reason   string
	Raw      string
}

// Enhancer runs AI-assisted enrichment with a guaranteed rule-based
// fallback. Every failure mode of the AI path terminates in the fallback;
// no error escapes to the caller.
type Enhancer struct {
	provider      ai.CompletionProvider
	fallback      *Scheduler
	primaryModel  string
	fallbackModel string
	logger        *zap.Logger
}

// NewEnhancer creates an enhancer. provider may be nil, which disables the
// AI path entirely; the enhancer then behaves exactly like its fallback
// scheduler.
func NewEnhancer(provider ai.CompletionProvider, primaryModel, fallbackModel string, logger *zap.Logger) *Enhancer {
	if primaryModel == "" {
		primaryModel = ai.DefaultGroqModel
	}
	// The fallback call must name its model explicitly: an empty model in a
	// completion request resolves to the provider default, which is the
	// primary model.
	if fallbackModel == "" {
		fallbackModel = ai.DefaultGroqFallbackModel
	}
	return &Enhancer{
		provider:      provider,
		fallback:      NewScheduler(),
		primaryModel:  primaryModel,
		fallbackModel: fallbackModel,
		logger:        logger,
	}
}

// Fallback exposes the owned rule-based scheduler
func (e *Enhancer) Fallback() *Scheduler {
	return e.fallback
}

// AIAvailable reports whether a completion provider is configured
func (e *Enhancer) AIAvailable() bool {
	return e.provider != nil
}

// EnhanceTasks enriches a parsed batch. With a provider configured it makes
// at most two sequential model calls (primary, then the smaller fallback
// model), parses the reply, and merges per-task results onto the drafts by
// positional index. Without a provider, or when both calls fail or the
// reply cannot be parsed, the entire original batch is delegated to the
// rule-based scheduler instead; AI fields are never mixed with missing
// enrichment inside one batch.
func (e *Enhancer) EnhanceTasks(ctx context.Context, tasks []*models.Task, rawText string, prefs models.UserPreferences) []*models.Task {
	if e.provider == nil {
		return e.fallback.ScheduleTasks(tasks, prefs)
	}

	result, _ := e.analyzeWithAI(ctx, rawText, prefs)
	if !result.Enhanced {
		e.logger.Info("using_fallback_scheduler",
			zap.String("reason", result.Reason),
		)
		return e.fallback.ScheduleTasks(tasks, prefs)
	}

	e.applyEnhancements(tasks, result.Data)
	return tasks
}

// TryEnhanceTasks runs the AI path only and reports failure instead of
// degrading. The enrichment worker uses it to retry batches stored without
// AI fields: provider errors come back as-is for retry classification, a
// reply with no parseable analysis comes back as ErrReplyNotUsable. On
// success the drafts are merged in place exactly as EnhanceTasks does.
func (e *Enhancer) TryEnhanceTasks(ctx context.Context, tasks []*models.Task, rawText string, prefs models.UserPreferences) error {
	if e.provider == nil {
		return ErrAIUnavailable
	}

	result, err := e.analyzeWithAI(ctx, rawText, prefs)
	if err != nil {
		return err
	}
	if !result.Enhanced {
		return fmt.Errorf("%w: %s", ErrReplyNotUsable, result.Reason)
	}

	e.applyEnhancements(tasks, result.Data)
	return nil
}

// analyzeWithAI performs the primary call and, on any failure, one fallback
// call with the reduced budget. The result always describes the outcome;
// the error is non-nil only when both calls failed, and carries the second
// call's provider error.
func (e *Enhancer) analyzeWithAI(ctx context.Context, rawText string, prefs models.UserPreferences) (analysisResult, error) {
	prompt := buildSchedulingPrompt(rawText, prefs)

	reply, err := e.provider.Complete(ctx, ai.CompletionRequest{
		SystemPrompt: schedulingSystemPrompt,
		UserPrompt:   prompt,
		Model:        e.primaryModel,
		Temperature:  enhanceTemperature,
		MaxTokens:    primaryMaxTokens,
	})
	if err == nil {
		return parseAnalysisResponse(reply), nil
	}

	e.logger.Warn("primary_model_failed",
		zap.String("model", e.primaryModel),
		zap.Error(err),
	)

	reply, err = e.provider.Complete(ctx, ai.CompletionRequest{
		SystemPrompt: schedulingFallbackSystemPrompt,
		UserPrompt:   prompt,
		Model:        e.fallbackModel,
		Temperature:  enhanceTemperature,
		MaxTokens:    fallbackMaxTokens,
	})
	if err == nil {
		return parseAnalysisResponse(reply), nil
	}

	e.logger.Warn("fallback_model_failed",
		zap.String("model", e.fallbackModel),
		zap.Error(err),
	)

	return analysisResult{Enhanced: false, Reason: "AI error: " + err.Error()}, err
}

// parseAnalysisResponse extracts the JSON object from a free-text reply by
// locating the first '{' and the last '}', tolerating models that wrap the
// JSON in prose. A reply without a brace pair, or one that does not parse
// as the expected schema, is unstructured advice, not a hard failure.
func parseAnalysisResponse(reply string) analysisResult {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start == -1 || end <= start {
		return analysisResult{
			Enhanced: false,
			Reason:   "no JSON object in reply",
			Raw:      reply,
		}
	}

	var data scheduleAnalysis
	if err := json.Unmarshal([]byte(reply[start:end+1]), &data); err != nil {
		return analysisResult{
			Enhanced: false,
			Reason:   "parse error: " + err.Error(),
			Raw:      reply,
		}
	}

	return analysisResult{Enhanced: true, Data: &data, Raw: reply}
}

// applyEnhancements merges AI results onto the drafts by positional index:
// the i-th analysis object overwrites the i-th draft. When the model
// returned fewer objects than drafts, the trailing drafts stay exactly as
// parsed and are not marked enhanced. Batch-level suggestions and the
// motivation line go on the first task only.
func (e *Enhancer) applyEnhancements(tasks []*models.Task, data *scheduleAnalysis) {
	for i, task := range tasks {
		if i >= len(data.Tasks) {
			break
		}
		at := data.Tasks[i]

		if at.Category != "" {
			task.Category = models.TaskCategory(at.Category)
		}
		if at.Priority != "" {
			task.Priority = models.TaskPriority(at.Priority)
		}
		if at.Duration > 0 {
			task.Duration = at.Duration
		}
		task.OptimalTime = at.OptimalTime
		if task.OptimalTime == "" {
			task.OptimalTime = "any"
		}
		task.ADHDTips = at.ADHDTips
		if task.ADHDTips == nil {
			task.ADHDTips = []string{}
		}
		task.EnergyLevel = at.EnergyLevel
		if task.EnergyLevel == "" {
			task.EnergyLevel = "medium"
		}
		task.AIEnhanced = true
	}

	if len(tasks) > 0 && len(data.OverallSuggestions) > 0 {
		tasks[0].OverallSuggestions = data.OverallSuggestions
		tasks[0].Motivation = data.Motivation
	}
}
