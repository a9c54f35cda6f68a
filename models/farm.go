// models/farm.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Farm is one surveyed holding on a route.
type Farm struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	RouteID   uuid.UUID      `gorm:"type:uuid;index;not null" json:"route"`
	Route     *Route         `gorm:"foreignKey:RouteID" json:"-"`
	Name      string         `gorm:"size:255;not null" json:"name"`
	OwnerName string         `gorm:"size:255;not null" json:"ownerName"`
	SizeHa    float64        `gorm:"not null" json:"sizeHa"`
	Location  string         `gorm:"type:text" json:"location,omitempty"`
	Address   string         `gorm:"type:text" json:"address,omitempty"`
	Latitude  *float64       `json:"latitude,omitempty"`
	Longitude *float64       `json:"longitude,omitempty"`
	// GeoJSON geometry of the farm boundary, validated on write.
	BoundaryGeo datatypes.JSON `gorm:"type:jsonb" json:"boundaryGeo,omitempty"`
	PhotoURL    *string        `gorm:"size:512" json:"photoUrl,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`

	Crops              []Crop              `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE" json:"crops,omitempty"`
	SoilSamples        []SoilSample        `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE" json:"-"`
	WaterSamples       []WaterSample       `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE" json:"-"`
	PestDiseaseReports []PestDiseaseReport `gorm:"foreignKey:FarmID;constraint:OnDelete:CASCADE" json:"-"`
}

func (f *Farm) BeforeCreate(tx *gorm.DB) (err error) {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return
}
