package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	UsageUnused = "unused"
	UsageUsed   = "used"
)

type Ticket struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	EventID    uuid.UUID  `json:"event_id" db:"event_id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	OrderID    *uuid.UUID `json:"order_id,omitempty" db:"order_id"`
	Code       string     `json:"code" db:"code"`
	UsageState string     `json:"usage_state" db:"usage_state"`
	UsedAt     *time.Time `json:"used_at,omitempty" db:"used_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IssueTicketRequest stands in for order completion, which creates tickets
// in a full deployment.
type IssueTicketRequest struct {
	UserID  string `json:"user_id" binding:"required"`
	OrderID string `json:"order_id"`
}
