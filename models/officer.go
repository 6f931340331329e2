package models

import (
	"time"

	"github.com/google/uuid"
)

// SecurityOfficer binds a user to exactly one event. EventID never changes
// after creation; only Active is mutable.
type SecurityOfficer struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	EventID   uuid.UUID `json:"event_id" db:"event_id"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AssignOfficerRequest struct {
	UserID string `json:"user_id" binding:"required"`
}

type UpdateOfficerRequest struct {
	Active *bool `json:"active" binding:"required"`
}
