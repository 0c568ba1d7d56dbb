package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mathmindlabs/mathmind-backend/pkg/enums"
)

// AuthCredential links an external identity (provider plus the id the
// provider knows the user by) to an internal user. A user may hold one
// credential per provider.
type AuthCredential struct {
	ID             uuid.UUID          `gorm:"type:uuid;primaryKey"`
	UserID         int64              `gorm:"column:user_id;not null;index"`
	Provider       enums.AuthProvider `gorm:"column:provider;type:text;not null;uniqueIndex:ux_credentials_provider_subject"`
	ProviderUserID string             `gorm:"column:provider_user_id;not null;uniqueIndex:ux_credentials_provider_subject"`
	CreatedAt      time.Time          `gorm:"column:created_at;autoCreateTime"`
	LastLoginAt    *time.Time         `gorm:"column:last_login_at"`
}

func (AuthCredential) TableName() string {
	return "auth_credentials"
}

func (c *AuthCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
