// models/pest.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Pest/disease report categories.
const (
	CategoryPest    = "pest"
	CategoryDisease = "disease"
)

// Report severities.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

func ValidCategories() []string {
	return []string{CategoryPest, CategoryDisease}
}

func IsValidCategory(s string) bool {
	return s == CategoryPest || s == CategoryDisease
}

func ValidSeverities() []string {
	return []string{SeverityLow, SeverityMedium, SeverityHigh}
}

func IsValidSeverity(s string) bool {
	return s == SeverityLow || s == SeverityMedium || s == SeverityHigh
}

// CategoryLabel returns the human-readable form used in summaries.
func CategoryLabel(category string) string {
	if category == CategoryDisease {
		return "Disease"
	}
	return "Pest"
}

// PestDiseaseReport records a pest or disease sighting on a farm.
type PestDiseaseReport struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	FarmID      uuid.UUID `gorm:"type:uuid;index;not null" json:"farm"`
	Farm        *Farm     `gorm:"foreignKey:FarmID" json:"-"`
	ReportDate  Date      `gorm:"type:date;not null" json:"reportDate"`
	Category    string    `gorm:"size:20;not null;default:pest" json:"category"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Severity    string    `gorm:"size:20;not null;default:medium" json:"severity"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	LocationLat *float64  `json:"locationLat,omitempty"`
	LocationLng *float64  `json:"locationLng,omitempty"`
	PhotoURL    *string   `gorm:"size:512" json:"photoUrl,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (p *PestDiseaseReport) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Category == "" {
		p.Category = CategoryPest
	}
	if p.Severity == "" {
		p.Severity = SeverityMedium
	}
	return
}
