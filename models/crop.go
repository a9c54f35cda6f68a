// models/crop.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Crop is a planting recorded against a farm. ExpectedHarvest, when
// present, must not precede PlantingDate; handlers enforce this.
type Crop struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID          uuid.UUID `gorm:"type:uuid;index;not null" json:"farm"`
	Farm            *Farm     `gorm:"foreignKey:FarmID" json:"-"`
	CropType        string    `gorm:"size:100;not null" json:"cropType"`
	Variety         *string   `gorm:"size:100" json:"variety,omitempty"`
	PlantingDate    Date      `gorm:"type:date;not null" json:"plantingDate"`
	ExpectedHarvest *Date     `gorm:"type:date" json:"expectedHarvest,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (c *Crop) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return
}
