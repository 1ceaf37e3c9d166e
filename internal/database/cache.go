package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/starcrunch/starcrunch-api/internal/models"
)

// DefaultPreferencesTTL bounds how stale a cached preference read can be
const DefaultPreferencesTTL = 5 * time.Minute

type preferencesSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdatePreferences(ctx context.Context, userID uuid.UUID, preferences models.UserPreferences) error
}

// PreferencesCache fronts user preference reads with Redis. Cache
// problems never fail a request; every miss or Redis error falls back
// to Postgres. Writes go to Postgres first, then evict.
type PreferencesCache struct {
	users preferencesSource
	redis *redis.Client
	ttl   time.Duration
}

// NewPreferencesCache creates a preferences cache over the user
// repository. A nil client disables caching and every read goes
// straight to the repository.
func NewPreferencesCache(users preferencesSource, client *redis.Client, ttl time.Duration) *PreferencesCache {
	if ttl < 0 {
		ttl = 0
	}
	return &PreferencesCache{
		users: users,
		redis: client,
		ttl:   ttl,
	}
}

// Get returns a user's scheduling preferences, from cache when fresh
func (c *PreferencesCache) Get(ctx context.Context, userID uuid.UUID) (models.UserPreferences, error) {
	if prefs, ok := c.loadFromCache(ctx, userID); ok {
		return prefs, nil
	}

	user, err := c.users.GetByID(ctx, userID)
	if err != nil {
		return models.UserPreferences{}, err
	}

	c.store(ctx, userID, user.Preferences)
	return user.Preferences, nil
}

// Set persists new preferences and evicts the cached copy
func (c *PreferencesCache) Set(ctx context.Context, userID uuid.UUID, prefs models.UserPreferences) error {
	if err := c.users.UpdatePreferences(ctx, userID, prefs); err != nil {
		return err
	}

	c.Evict(ctx, userID)
	return nil
}

// Evict drops the cached preferences for a user
func (c *PreferencesCache) Evict(ctx context.Context, userID uuid.UUID) {
	if c.redis == nil {
		return
	}
	_, _ = c.redis.Del(ctx, preferencesCacheKey(userID)).Result()
}

func (c *PreferencesCache) loadFromCache(ctx context.Context, userID uuid.UUID) (models.UserPreferences, bool) {
	if c.redis == nil {
		return models.UserPreferences{}, false
	}

	data, err := c.redis.Get(ctx, preferencesCacheKey(userID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			// On redis errors fall back to Postgres without failing.
			_ = c.redis.Del(ctx, preferencesCacheKey(userID)).Err()
		}
		return models.UserPreferences{}, false
	}

	var prefs models.UserPreferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		_ = c.redis.Del(ctx, preferencesCacheKey(userID)).Err()
		return models.UserPreferences{}, false
	}

	return prefs, true
}

func (c *PreferencesCache) store(ctx context.Context, userID uuid.UUID, prefs models.UserPreferences) {
	if c.redis == nil || c.ttl == 0 {
		return
	}

	data, err := json.Marshal(prefs)
	if err != nil {
		return
	}
	_ = c.redis.Set(ctx, preferencesCacheKey(userID), data, c.ttl).Err()
}

func preferencesCacheKey(userID uuid.UUID) string {
	return "prefs:" + userID.String()
}
