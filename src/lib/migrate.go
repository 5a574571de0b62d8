package lib

import (
	"fmt"

	"github.com/theleywin/talentnest-connections/src/models"
	"gorm.io/gorm"
)

// AutoMigrate runs all database migrations
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ConnectionRequest{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	Log().Info("Database migration completed!")
	return nil
}
