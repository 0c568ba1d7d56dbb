package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Calculation is one append-only entry in a user's calculation history.
// Result is stored verbatim, empty string included.
type Calculation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID    int64     `gorm:"column:user_id;not null;index:ix_calculations_user_created"`
	Type      string    `gorm:"column:type;not null"`
	Input     string    `gorm:"column:input;not null"`
	Result    string    `gorm:"column:result;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime;index:ix_calculations_user_created"`
}

func (c *Calculation) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
