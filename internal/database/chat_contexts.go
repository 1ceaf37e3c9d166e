package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// ChatContextRepository persists what the assistant remembers about a
// user between chat sessions.
type ChatContextRepository struct {
	db *DB
}

// NewChatContextRepository creates a new chat context repository
func NewChatContextRepository(db *DB) *ChatContextRepository {
	return &ChatContextRepository{db: db}
}

// GetByUserID retrieves chat context by user ID
func (r *ChatContextRepository) GetByUserID(ctx context.Context, userID uuid.UUID) (*models.ChatContext, error) {
	chatContext := &models.ChatContext{}
	var preferencesJSON []byte

	query := `
		SELECT id, user_id, context_summary, preferences, created_at, updated_at
		FROM chat_contexts
		WHERE user_id = $1
	`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&chatContext.ID,
		&chatContext.UserID,
		&chatContext.ContextSummary,
		&preferencesJSON,
		&chatContext.CreatedAt,
		&chatContext.UpdatedAt,
	)

	if err != nil {
		return nil, fmt.Errorf("failed to get chat context: %w", err)
	}

	if len(preferencesJSON) > 0 {
		if err := json.Unmarshal(preferencesJSON, &chatContext.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	return chatContext, nil
}

// Create creates a new chat context
func (r *ChatContextRepository) Create(ctx context.Context, chatContext *models.ChatContext) error {
	query := `
		INSERT INTO chat_contexts (id, user_id, context_summary, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at
	`

	preferencesJSON, err := json.Marshal(chatContext.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		chatContext.ID,
		chatContext.UserID,
		chatContext.ContextSummary,
		preferencesJSON,
		now,
		now,
	).Scan(&chatContext.CreatedAt, &chatContext.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create chat context: %w", err)
	}

	return nil
}

// Update updates an existing chat context
func (r *ChatContextRepository) Update(ctx context.Context, chatContext *models.ChatContext) error {
	query := `
		UPDATE chat_contexts
		SET context_summary = $2, preferences = $3, updated_at = $4
		WHERE user_id = $1
		RETURNING id, created_at, updated_at
	`

	preferencesJSON, err := json.Marshal(chatContext.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		chatContext.UserID,
		chatContext.ContextSummary,
		preferencesJSON,
		time.Now(),
	).Scan(&chatContext.ID, &chatContext.CreatedAt, &chatContext.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to update chat context: %w", err)
	}

	return nil
}

// Upsert creates or updates chat context
func (r *ChatContextRepository) Upsert(ctx context.Context, chatContext *models.ChatContext) error {
	if chatContext.ID == uuid.Nil {
		chatContext.ID = uuid.New()
	}

	query := `
		INSERT INTO chat_contexts (id, user_id, context_summary, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (user_id) DO UPDATE
		SET context_summary = EXCLUDED.context_summary,
		    preferences = EXCLUDED.preferences,
		    updated_at = EXCLUDED.updated_at
		RETURNING created_at, updated_at
	`

	preferencesJSON, err := json.Marshal(chatContext.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		chatContext.ID,
		chatContext.UserID,
		chatContext.ContextSummary,
		preferencesJSON,
		now,
		now,
	).Scan(&chatContext.CreatedAt, &chatContext.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert chat context: %w", err)
	}

	return nil
}
