package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/starcrunch/starcrunch-api/internal/middleware"
	"github.com/starcrunch/starcrunch-api/internal/services/ai"
	"github.com/starcrunch/starcrunch-api/internal/validation"
	"go.uber.org/zap"
)

// MaxChatMessageLength is the maximum length for a single chat message
const MaxChatMessageLength = 4000

// ChatHandler handles AI chat requests
type ChatHandler struct {
	chatService    *ai.ChatService
	contextService *ai.ContextService
	logger         *zap.Logger
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *ai.ChatService, contextService *ai.ContextService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		chatService:    chatService,
		contextService: contextService,
		logger:         logger,
	}
}

// RegisterRoutes registers chat routes on the given router.
// The router should already have the /chat prefix.
func (h *ChatHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("", h.StartChat).Methods("POST")
	r.HandleFunc("/message", h.SendMessage).Methods("POST")
}

// ChatMessageRequest represents a chat message request
type ChatMessageRequest struct {
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

// StartChat opens a chat session as an SSE stream. The stream carries
// pings until the client disconnects, at which point the session is
// summarized into the persisted context and closed.
func (h *ChatHandler) StartChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	session := h.chatService.GetOrCreateSession(user.ID)

	if _, err := fmt.Fprintf(w, "data: %s\n\n", formatSSEMessage("connected", map[string]any{
		"message":    "Chat session started",
		"session_id": session.UserID.String(),
	})); err != nil {
		h.logger.Warn("failed to write SSE message", zap.Error(err))
		return
	}

	flusher, ok := w.(http.Flusher)
	if ok {
		flusher.Flush()
	}

	ctx := r.Context()
	// Cleanup work runs after the request context is cancelled, so it
	// needs a context that survives the disconnect.
	cleanupCtx := context.WithoutCancel(ctx)
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := fmt.Fprintf(w, ": ping\n\n"); err != nil {
					return
				}
				if flusher != nil {
					flusher.Flush()
				}
			}
		}
	}()

	// Block until the client disconnects
	<-ctx.Done()

	if session.NeedsSummaryUpdate && len(session.Messages) > 0 {
		userID := user.ID
		messages := make([]ai.ChatMessage, len(session.Messages))
		copy(messages, session.Messages)

		go func(ctx context.Context) {
			updateCtx, updateCancel := context.WithTimeout(ctx, 5*time.Second)
			defer updateCancel()

			if err := h.contextService.UpdateContextSummary(updateCtx, userID, messages); err != nil {
				h.logger.Warn("failed to save chat summary",
					zap.String("user_id", userID.String()),
					zap.Error(err))
			}
		}(cleanupCtx)
	}

	h.chatService.CloseSession(user.ID)
}

// SendMessage sends a message in the chat session
func (h *ChatHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFromContext(r)
	if user == nil {
		respondJSONError(w, http.StatusUnauthorized, "Unauthorized", "User not found in context")
		return
	}

	var req ChatMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateStruct(w, req) {
		return
	}

	req.Message = validation.SanitizeText(req.Message)
	if req.Message == "" {
		respondJSONError(w, http.StatusBadRequest, "Bad Request", "Message cannot be empty after sanitization")
		return
	}

	session := h.chatService.GetOrCreateSession(user.ID)
	h.chatService.AddMessage(session, "user", req.Message)

	// A missing context is not fatal; the conversation just starts cold.
	ctx := r.Context()
	contextSummary := ""
	if chatContext, err := h.contextService.LoadContext(ctx, user.ID); err == nil {
		contextSummary = chatContext.ContextSummary
	} else {
		h.logger.Warn("failed to load chat context",
			zap.String("user_id", user.ID.String()),
			zap.Error(err))
	}

	response, err := h.chatService.GetResponse(ctx, session, contextSummary)
	if err != nil {
		respondJSONError(w, http.StatusInternalServerError, "Internal Server Error", "Failed to get AI response")
		return
	}

	// Refresh the persisted summary every 10 messages
	if len(session.Messages) > 0 && len(session.Messages)%10 == 0 {
		userID := user.ID
		messages := make([]ai.ChatMessage, len(session.Messages))
		copy(messages, session.Messages)

		go func(ctx context.Context) {
			summaryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()

			if err := h.contextService.UpdateContextSummary(summaryCtx, userID, messages); err != nil {
				h.logger.Warn("failed to summarize conversation",
					zap.String("user_id", userID.String()),
					zap.Error(err))
			}
		}(context.WithoutCancel(ctx))
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"message":      response.Message,
		"summary":      response.Summary,
		"needs_update": response.NeedsUpdate,
	})
}

// formatSSEMessage formats an event payload for SSE
func formatSSEMessage(event string, data any) string {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return ""
	}
	return fmt.Sprintf(`{"event":%q,"data":%s}`, event, string(jsonData))
}
