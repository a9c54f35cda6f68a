package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/agrisurvey/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20250114_create_survey_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.User{}, &models.Route{}, &models.Farm{},
					&models.Crop{}, &models.SoilSample{}, &models.WaterSample{},
					&models.PestDiseaseReport{},
				)
			},
		},
		{
			// GPS point + postal address columns added for the mobile
			// client; AutoMigrate backfills them on existing installs.
			ID: "20250302_add_farm_gps_and_address",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Farm{})
			},
		},
	})

	return m.Migrate()
}
