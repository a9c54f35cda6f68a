// models/user.go
package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Roles. Role is assigned by an admin operation and is not settable
// through self-registration.
const (
	RoleAdmin      = "admin"
	RoleEnumerator = "enumerator"
)

// ValidRoles lists the accepted role values.
func ValidRoles() []string {
	return []string{RoleAdmin, RoleEnumerator}
}

// IsValidRole reports whether s is a known role.
func IsValidRole(s string) bool {
	return s == RoleAdmin || s == RoleEnumerator
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string    `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Name         string    `gorm:"size:255" json:"name"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         string    `gorm:"size:20;not null;default:enumerator" json:"role"`
	IsActive     bool      `gorm:"default:true" json:"isActive"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Deleting a user removes their route assignments and everything
	// under them. The cascade is intentional.
	Routes []Route `gorm:"foreignKey:AssignedToID;constraint:OnDelete:CASCADE" json:"-"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return
}

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

func (u *User) IsEnumerator() bool { return u.Role == RoleEnumerator }

// DisplayName falls back to the username when no full name was recorded.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
