package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a ticket holder, organizer or security officer. Authentication is
// handled elsewhere; this service only needs the id and display name.
type User struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Email     *string   `json:"email" db:"email"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type CreateUserRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email"`
}
