// models/route.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Route statuses.
const (
	RouteStatusPending    = "pending"
	RouteStatusInProgress = "in_progress"
	RouteStatusComplete   = "complete"
)

// ValidRouteStatuses lists the accepted status values in lifecycle order.
func ValidRouteStatuses() []string {
	return []string{RouteStatusPending, RouteStatusInProgress, RouteStatusComplete}
}

// IsValidRouteStatus reports whether s is a known route status.
func IsValidRouteStatus(s string) bool {
	switch s {
	case RouteStatusPending, RouteStatusInProgress, RouteStatusComplete:
		return true
	}
	return false
}

// Route is a survey route assigned to exactly one enumerator. The
// assignee owns the route for visibility purposes only.
type Route struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	AssignedToID uuid.UUID `gorm:"type:uuid;index;not null" json:"assignedTo"`
	AssignedTo   *User     `gorm:"foreignKey:AssignedToID;constraint:OnDelete:CASCADE" json:"-"`
	DateAssigned Date      `gorm:"type:date;not null" json:"dateAssigned"`
	Status       string    `gorm:"size:20;not null;default:pending" json:"status"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Farms []Farm `gorm:"foreignKey:RouteID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r *Route) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.DateAssigned.IsZero() {
		r.DateAssigned = Today()
	}
	if r.Status == "" {
		r.Status = RouteStatusPending
	}
	return
}
