// Package store persists users, events, officers, tickets and the
// verification audit log.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"ticketing-backend/models"
)

var (
	ErrNotFound = errors.New("record not found")
	ErrConflict = errors.New("record already exists")

	// ErrAlreadyUsed is returned by MarkUsed when the ticket left the unused
	// state before this call could claim it.
	ErrAlreadyUsed = errors.New("ticket already used")

	// ErrMarkLimit is returned by AppendMark when the ticket already carries
	// the maximum number of marks for the window.
	ErrMarkLimit = errors.New("ticket mark limit reached")
)

// VerificationFilter selects audit entries for ListVerifications. Zero values
// are ignored. Results are ordered newest first.
type VerificationFilter struct {
	EventID   uuid.UUID
	OfficerID *uuid.UUID
	TicketID  *uuid.UUID
	Since     *time.Time
	Until     *time.Time
	Limit     int
}

type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)

	CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	UpdateEventStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) (*models.Event, error)

	CreateOfficer(ctx context.Context, officer *models.SecurityOfficer) (*models.SecurityOfficer, error)
	GetOfficer(ctx context.Context, id uuid.UUID) (*models.SecurityOfficer, error)
	ListOfficers(ctx context.Context, eventID uuid.UUID) ([]models.SecurityOfficer, error)
	SetOfficerActive(ctx context.Context, id, eventID uuid.UUID, active bool, at time.Time) (*models.SecurityOfficer, error)

	CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error)
	GetTicket(ctx context.Context, id, eventID uuid.UUID) (*models.Ticket, error)
	GetTicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error)
	ResolveCode(ctx context.Context, code string) (*models.Ticket, error)

	// MarkUsed moves the ticket from unused to used, stamping UsedAt with
	// entry.CreatedAt, and appends entry in the same transaction. If the
	// ticket is already used it returns the stored ticket with ErrAlreadyUsed
	// and appends nothing.
	MarkUsed(ctx context.Context, entry *models.VerificationLogEntry) (*models.Ticket, error)

	// AppendMark appends entry if fewer than limit MARKED_USED entries exist
	// for the ticket within [from, to], returning the count including the new
	// entry. At the limit it returns the existing count with ErrMarkLimit.
	// Concurrent calls for the same ticket are serialized.
	AppendMark(ctx context.Context, entry *models.VerificationLogEntry, from, to time.Time, limit int) (int, error)

	CountVerifications(ctx context.Context, officerID, eventID uuid.UUID) (int, error)
	ListVerifications(ctx context.Context, filter VerificationFilter) ([]models.VerificationLogEntry, error)
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
