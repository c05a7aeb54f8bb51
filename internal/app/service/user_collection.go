package service

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/pkg/logger"
)

const (
	CollectionUserCarts     = "userCarts"
	CollectionUserWishlists = "userWishlists"
)

// UserCollection is a user-scoped list persisted wholesale as one JSON object blob
// {"<user>": [...]} under a single collection key.
type UserCollection[T any] struct {
	repo repository.CollectionRepository
	key  string
	mu   sync.Mutex
}

func NewUserCollection[T any](repo repository.CollectionRepository, key string) *UserCollection[T] {
	return &UserCollection[T]{repo: repo, key: key}
}

// Load returns the stored list for user. Missing, unreadable or corrupt data yields an empty list.
func (c *UserCollection[T]) Load(ctx context.Context, user string) []T {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll(ctx)
	if err != nil {
		return []T{}
	}
	list := all[user]
	if list == nil {
		return []T{}
	}
	return list
}

// Save replaces the stored list for user, leaving other users' lists untouched.
// Failures are logged and swallowed.
func (c *UserCollection[T]) Save(ctx context.Context, user string, list []T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	all, err := c.readAll(ctx)
	if err != nil {
		logger.Warn("Skipping collection save: current blob unreadable", map[string]interface{}{
			"collection": c.key,
			"user":       user,
			"error":      err.Error(),
		})
		return
	}

	if list == nil {
		list = []T{}
	}
	all[user] = list

	data, err := json.Marshal(all)
	if err != nil {
		logger.Error("Failed to encode collection", err, map[string]interface{}{
			"collection": c.key,
		})
		return
	}
	if err := c.repo.Save(ctx, c.key, data); err != nil {
		logger.Error("Failed to persist collection", err, map[string]interface{}{
			"collection": c.key,
			"user":       user,
		})
	}
}

// readAll returns an error only when the backend itself failed; a corrupt blob decodes as empty.
func (c *UserCollection[T]) readAll(ctx context.Context) (map[string][]T, error) {
	data, found, err := c.repo.Load(ctx, c.key)
	if err != nil {
		logger.Warn("Failed to read collection, using empty", map[string]interface{}{
			"collection": c.key,
			"error":      err.Error(),
		})
		return nil, err
	}

	all := make(map[string][]T)
	if !found || len(data) == 0 {
		return all, nil
	}
	if err := json.Unmarshal(data, &all); err != nil {
		logger.Warn("Corrupt collection blob, using empty", map[string]interface{}{
			"collection": c.key,
			"error":      err.Error(),
		})
		return make(map[string][]T), nil
	}
	return all, nil
}
