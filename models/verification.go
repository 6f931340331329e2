package models

import (
	"time"

	"github.com/google/uuid"
)

const ActionMarkedUsed = "MARKED_USED"

// VerificationLogEntry is an append-only audit record. TicketHolder is filled
// from the users table on reads and is not stored.
type VerificationLogEntry struct {
	ID           uuid.UUID `json:"id" db:"id"`
	TicketID     uuid.UUID `json:"ticket_id" db:"ticket_id"`
	EventID      uuid.UUID `json:"event_id" db:"event_id"`
	OfficerID    uuid.UUID `json:"officer_id" db:"officer_id"`
	Action       string    `json:"action" db:"action"`
	Details      string    `json:"details" db:"details"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	TicketHolder string    `json:"ticket_holder,omitempty"`
}

type VerifyTicketRequest struct {
	TicketID  string `json:"ticket_id" binding:"required"`
	EventID   string `json:"event_id" binding:"required"`
	OfficerID string `json:"officer_id" binding:"required"`
}

// VerifyCodeRequest carries the opaque string read from a ticket's QR code.
type VerifyCodeRequest struct {
	Code      string `json:"code" binding:"required"`
	EventID   string `json:"event_id" binding:"required"`
	OfficerID string `json:"officer_id" binding:"required"`
}
