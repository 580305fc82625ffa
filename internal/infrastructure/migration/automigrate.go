package migration

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/mishbel44/ortp-botik/internal/infrastructure/persistence/models"
)

// AutoMigrate syncs the schema from the GORM models. Used for sqlite
// development databases where versioned scripts are overkill.
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.UserModel{},
		&models.ChallengeModel{},
		&models.TicketModel{},
		&models.NotificationModel{},
	)
	if err != nil {
		return fmt.Errorf("auto migration failed: %w", err)
	}
	return nil
}
