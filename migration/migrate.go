package migration

import (
	"freight-app/models"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Destination{},
		&models.Company{},
		&models.InShipment{},
		&models.OutShipment{},
		&models.OutShipmentItem{},
	)
}
