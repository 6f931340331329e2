package models

import (
	"time"

	"github.com/google/uuid"
)

// Event status constants. Status is maintained outside the verification path;
// scans are gated on StartDate/EndDate, never on Status.
const (
	StatusUpcoming  = "UPCOMING"
	StatusOngoing   = "ONGOING"
	StatusCompleted = "COMPLETED"
)

type Event struct {
	ID          uuid.UUID `json:"id" db:"id"`
	OrganizerID uuid.UUID `json:"organizer_id" db:"organizer_id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description,omitempty" db:"description"`
	Location    *string   `json:"location,omitempty" db:"location"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type CreateEventRequest struct {
	Title       string    `json:"title" binding:"required"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	StartDate   time.Time `json:"start_date" binding:"required"`
	EndDate     time.Time `json:"end_date" binding:"required"`
}

type UpdateEventStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ValidStatus reports whether s is one of the event status constants.
func ValidStatus(s string) bool {
	switch s {
	case StatusUpcoming, StatusOngoing, StatusCompleted:
		return true
	}
	return false
}
