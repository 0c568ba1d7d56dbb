package payloads

import "time"

// UserRegisteredEvent is emitted once a registration transaction commits.
// The email worker turns it into a welcome email.
type UserRegisteredEvent struct {
	UserID       int64     `json:"user_id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Provider     string    `json:"provider"`
	RegisteredAt time.Time `json:"registered_at"`
}

// CalculationSavedEvent feeds the analytics pipeline with usage data.
type CalculationSavedEvent struct {
	CalculationID string    `json:"calculation_id"`
	UserID        int64     `json:"user_id"`
	Type          string    `json:"type"`
	Input         string    `json:"input"`
	SavedAt       time.Time `json:"saved_at"`
}
