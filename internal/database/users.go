package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, subject, email, name, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`

	preferencesJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	now := time.Now()
	err = r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Subject,
		user.Email,
		user.Name,
		preferencesJSON,
		now,
		now,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	var preferencesJSON []byte

	query := `
		SELECT id, subject, email, name, preferences, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&preferencesJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if len(preferencesJSON) > 0 {
		if err := json.Unmarshal(preferencesJSON, &user.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	return user, nil
}

// GetBySubject retrieves a user by OIDC token subject
func (r *UserRepository) GetBySubject(ctx context.Context, subject string) (*models.User, error) {
	user := &models.User{}
	var preferencesJSON []byte

	query := `
		SELECT id, subject, email, name, preferences, created_at, updated_at
		FROM users
		WHERE subject = $1
	`

	err := r.db.QueryRowContext(ctx, query, subject).Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&preferencesJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %w", err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by subject: %w", err)
	}

	if len(preferencesJSON) > 0 {
		if err := json.Unmarshal(preferencesJSON, &user.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	return user, nil
}

// GetOrCreateBySubject returns the user for an OIDC subject, creating it
// with default preferences on first sight. The insert upserts on subject
// so concurrent first requests for the same subject cannot fail.
func (r *UserRepository) GetOrCreateBySubject(ctx context.Context, subject, email string, name *string) (*models.User, error) {
	user, err := r.GetBySubject(ctx, subject)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	query := `
		INSERT INTO users (id, subject, email, name, preferences, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		ON CONFLICT (subject) DO UPDATE
		SET email = EXCLUDED.email,
		    name = COALESCE(EXCLUDED.name, users.name),
		    updated_at = EXCLUDED.updated_at
		RETURNING id, subject, email, name, preferences, created_at, updated_at
	`

	preferencesJSON, err := json.Marshal(models.DefaultPreferences())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal preferences: %w", err)
	}

	user = &models.User{}
	var storedJSON []byte

	err = r.db.QueryRowContext(ctx, query,
		uuid.New(),
		subject,
		email,
		name,
		preferencesJSON,
		time.Now(),
	).Scan(
		&user.ID,
		&user.Subject,
		&user.Email,
		&user.Name,
		&storedJSON,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if len(storedJSON) > 0 {
		if err := json.Unmarshal(storedJSON, &user.Preferences); err != nil {
			return nil, fmt.Errorf("failed to unmarshal preferences: %w", err)
		}
	}

	return user, nil
}

// UpdatePreferences replaces a user's scheduling preferences
func (r *UserRepository) UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences models.UserPreferences) error {
	query := `
		UPDATE users
		SET preferences = $2, updated_at = $3
		WHERE id = $1
		RETURNING updated_at
	`

	preferencesJSON, err := json.Marshal(preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	var updatedAt time.Time
	err = r.db.QueryRowContext(ctx, query, userID, preferencesJSON, time.Now()).Scan(&updatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update preferences: %w", err)
	}

	return nil
}

// Update updates an existing user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, name = $3, preferences = $4, updated_at = $5
		WHERE id = $1
		RETURNING updated_at
	`

	preferencesJSON, err := json.Marshal(user.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	err = r.db.QueryRowContext(ctx, query,
		user.ID,
		user.Email,
		user.Name,
		preferencesJSON,
		time.Now(),
	).Scan(&user.UpdatedAt)

	if err == sql.ErrNoRows {
		return fmt.Errorf("user not found")
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}

// Delete deletes a user by ID
func (r *UserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM users WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return fmt.Errorf("user not found")
	}

	return nil
}
