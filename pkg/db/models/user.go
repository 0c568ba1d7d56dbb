package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the canonical identity entity. UserID is the small
// sequential integer handed to clients; ID is the storage key.
type User struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID        int64      `gorm:"column:user_id;not null;uniqueIndex:ux_users_user_id"`
	Email         string     `gorm:"type:text;not null;uniqueIndex:ux_users_email"`
	PasswordHash  *string    `gorm:"column:password_hash"`
	Name          string     `gorm:"column:name;not null"`
	ProfileImage  *string    `gorm:"column:profile_image"`
	IsActive      bool       `gorm:"column:is_active;not null;default:true"`
	LastLoginAt   *time.Time `gorm:"column:last_login_at"`
	DeactivatedAt *time.Time `gorm:"column:deactivated_at"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
