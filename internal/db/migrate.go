package db

import (
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"gorm.io/gorm"
)

func models() []interface{} {
	return []interface{}{
		&model.StoredCollection{},
	}
}

// Migrate runs database migrations
func Migrate() error {
	return MigrateDB(DB)
}

// MigrateDB runs migrations against the given connection.
func MigrateDB(conn *gorm.DB) error {
	logger.Info("Running database migrations...")

	ms := models()
	if err := conn.AutoMigrate(ms...); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(ms),
	})
	return nil
}
