package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SystemRole is a platform-wide role, independent of any organization.
type SystemRole string

const (
	SystemRoleSuperAdmin SystemRole = "SUPER_ADMIN"
	SystemRoleUser       SystemRole = "USER"
)

// User represents a platform user.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email         string     `gorm:"uniqueIndex;not null" json:"email" validate:"required,email"`
	PasswordHash  string     `gorm:"not null" json:"-" swaggerignore:"true"`
	Name          string     `gorm:"not null" json:"name" validate:"required"`
	SystemRole    SystemRole `gorm:"type:varchar(32);not null;default:'USER'" json:"systemRole"`
	EmailVerified bool       `gorm:"not null;default:false" json:"isEmailVerified"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	ensureID(&u.ID)
	if u.SystemRole == "" {
		u.SystemRole = SystemRoleUser
	}
	return nil
}

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
