package repository

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type redisCollectionRepository struct {
	client *redis.Client
	prefix string
}

// NewRedisCollectionRepository stores each collection blob under "<prefix>collection:<key>"
// without expiry.
func NewRedisCollectionRepository(client *redis.Client, prefix string) CollectionRepository {
	return &redisCollectionRepository{client: client, prefix: prefix}
}

func (r *redisCollectionRepository) redisKey(key string) string {
	return r.prefix + "collection:" + key
}

func (r *redisCollectionRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.redisKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to load collection from Redis", err, map[string]interface{}{
			"collection": key,
		})
		return nil, false, err
	}
	return data, true, nil
}

func (r *redisCollectionRepository) Save(ctx context.Context, key string, data []byte) error {
	if err := r.client.Set(ctx, r.redisKey(key), data, 0).Err(); err != nil {
		logger.Error("Failed to save collection to Redis", err, map[string]interface{}{
			"collection": key,
		})
		return err
	}
	return nil
}
