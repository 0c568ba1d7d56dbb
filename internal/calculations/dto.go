package calculations

import (
	"time"

	"github.com/google/uuid"

	"github.com/mathmindlabs/mathmind-backend/pkg/db/models"
)

// SaveCalculationDTO carries one history entry to persist. Result is a
// pointer because "" and "0" are legitimate results; only an absent
// result is rejected.
type SaveCalculationDTO struct {
	Type   string  `json:"type" validate:"required"`
	Input  string  `json:"input" validate:"required"`
	Result *string `json:"result" validate:"required"`
}

// CalculationDTO is the transport shape of one history entry.
type CalculationDTO struct {
	ID        uuid.UUID `json:"id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Input     string    `json:"input"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

// CalculationList is one page of a user's history plus the cursor for
// the next page, empty when the page is the last.
type CalculationList struct {
	Calculations []CalculationDTO `json:"calculations"`
	NextCursor   string           `json:"next_cursor,omitempty"`
}

func FromModel(c *models.Calculation) *CalculationDTO {
	if c == nil {
		return nil
	}

	return &CalculationDTO{
		ID:        c.ID,
		UserID:    c.UserID,
		Type:      c.Type,
		Input:     c.Input,
		Result:    c.Result,
		CreatedAt: c.CreatedAt,
	}
}
