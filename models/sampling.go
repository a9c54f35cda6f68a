// models/sampling.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SoilSample is one soil observation taken on a farm.
type SoilSample struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID      uuid.UUID `gorm:"type:uuid;index;not null" json:"farm"`
	Farm        *Farm     `gorm:"foreignKey:FarmID" json:"-"`
	SampleDate  Date      `gorm:"type:date;not null" json:"sampleDate"`
	PH          float64   `gorm:"column:ph;not null" json:"pH"`
	MoisturePct *float64  `gorm:"column:moisture_pct" json:"moisturePct,omitempty"`
	NutrientN   *float64  `gorm:"column:nutrient_n" json:"nutrientN,omitempty"`
	NutrientP   *float64  `gorm:"column:nutrient_p" json:"nutrientP,omitempty"`
	NutrientK   *float64  `gorm:"column:nutrient_k" json:"nutrientK,omitempty"`
	Notes       *string   `gorm:"type:text" json:"notes,omitempty"`
	PhotoURL    *string   `gorm:"size:512" json:"photoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (s *SoilSample) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// WaterSample is one water observation taken on a farm.
type WaterSample struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID     uuid.UUID `gorm:"type:uuid;index;not null" json:"farm"`
	Farm       *Farm     `gorm:"foreignKey:FarmID" json:"-"`
	SampleDate Date      `gorm:"type:date;not null" json:"sampleDate"`
	// Water source description, e.g. river, well, irrigation channel.
	Source    string    `gorm:"size:255;not null" json:"source"`
	PH        float64   `gorm:"column:ph;not null" json:"pH"`
	Turbidity *float64  `json:"turbidity,omitempty"`
	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	PhotoURL  *string   `gorm:"size:512" json:"photoUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (s *WaterSample) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}
