package repository

import (
	"context"
	"errors"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionRepository persists one serialized blob per logical collection key
// (userCarts, userWishlists). Blobs are read and written wholesale.
type CollectionRepository interface {
	Load(ctx context.Context, key string) ([]byte, bool, error)
	Save(ctx context.Context, key string, data []byte) error
}

type collectionRepository struct {
	db *gorm.DB
}

func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

func (r *collectionRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	logger.Debug("Loading collection from database", map[string]interface{}{
		"collection": key,
	})

	var row model.StoredCollection
	err := r.db.WithContext(ctx).Where("collection_key = ?", key).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		logger.Error("Failed to load collection from database", err, map[string]interface{}{
			"collection": key,
		})
		return nil, false, err
	}

	return []byte(row.Data), true, nil
}

func (r *collectionRepository) Save(ctx context.Context, key string, data []byte) error {
	logger.Debug("Saving collection to database", map[string]interface{}{
		"collection": key,
		"size":       len(data),
	})

	row := model.StoredCollection{
		CollectionKey: key,
		Data:          string(data),
	}
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection_key"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(&row).Error
	if err != nil {
		logger.Error("Failed to save collection to database", err, map[string]interface{}{
			"collection": key,
		})
		return err
	}
	return nil
}
