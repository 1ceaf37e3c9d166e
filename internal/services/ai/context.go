package ai

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/database"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// ContextService manages persisted chat context for users
type ContextService struct {
	provider    CompletionProvider
	contextRepo *database.ChatContextRepository
}

// NewContextService creates a new context service
func NewContextService(provider CompletionProvider, contextRepo *database.ChatContextRepository) *ContextService {
	return &ContextService{
		provider:    provider,
		contextRepo: contextRepo,
	}
}

// GetOrCreateContext gets or creates chat context for a user
func (s *ContextService) GetOrCreateContext(ctx context.Context, userID uuid.UUID) (*models.ChatContext, error) {
	chatContext, err := s.contextRepo.GetByUserID(ctx, userID)
	if err == nil {
		return chatContext, nil
	}

	// Create new context if not found
	chatContext = &models.ChatContext{
		UserID:      userID,
		Preferences: make(map[string]any),
	}

	if err := s.contextRepo.Create(ctx, chatContext); err != nil {
		return nil, fmt.Errorf("failed to create chat context: %w", err)
	}

	return chatContext, nil
}

// UpdateContextSummary updates the context summary from a conversation
func (s *ContextService) UpdateContextSummary(ctx context.Context, userID uuid.UUID, conversationHistory []ChatMessage) error {
	summary, err := s.provider.SummarizeContext(ctx, conversationHistory)
	if err != nil {
		return fmt.Errorf("failed to summarize context: %w", err)
	}

	chatContext, err := s.GetOrCreateContext(ctx, userID)
	if err != nil {
		return err
	}

	chatContext.ContextSummary = summary

	if err := s.contextRepo.Update(ctx, chatContext); err != nil {
		return fmt.Errorf("failed to update context: %w", err)
	}

	return nil
}

// MergeContextSummary merges a new summary with existing context
func (s *ContextService) MergeContextSummary(ctx context.Context, userID uuid.UUID, newSummary string) error {
	chatContext, err := s.GetOrCreateContext(ctx, userID)
	if err != nil {
		return err
	}

	// Simple merge: append new summary to existing
	if chatContext.ContextSummary != "" {
		chatContext.ContextSummary = chatContext.ContextSummary + "\n\n" + newSummary
	} else {
		chatContext.ContextSummary = newSummary
	}

	if err := s.contextRepo.Update(ctx, chatContext); err != nil {
		return fmt.Errorf("failed to update context: %w", err)
	}

	return nil
}

// LoadContext loads a user's chat context for a conversation turn
func (s *ContextService) LoadContext(ctx context.Context, userID uuid.UUID) (*models.ChatContext, error) {
	return s.GetOrCreateContext(ctx, userID)
}
