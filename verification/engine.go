// Package verification decides whether a ticket scan is accepted and keeps
// the audit log that backs officer statistics.
package verification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"ticketing-backend/logger"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

type Policy string

const (
	// SingleUse admits a ticket exactly once.
	SingleUse Policy = "single_use"
	// BoundedRepeat admits a ticket up to MaxMarks times per event window,
	// for venues with re-entry.
	BoundedRepeat Policy = "bounded_repeat"
)

const DefaultMaxMarks = 100

func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case SingleUse, BoundedRepeat:
		return p, nil
	}
	return "", fmt.Errorf("unknown verification policy %q", s)
}

// Store is the persistence the engine needs.
type Store interface {
	OfficerReader
	GetTicket(ctx context.Context, id, eventID uuid.UUID) (*models.Ticket, error)
	GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error)
	MarkUsed(ctx context.Context, entry *models.VerificationLogEntry) (*models.Ticket, error)
	AppendMark(ctx context.Context, entry *models.VerificationLogEntry, from, to time.Time, limit int) (int, error)
	CountVerifications(ctx context.Context, officerID, eventID uuid.UUID) (int, error)
}

type Config struct {
	Policy   Policy
	MaxMarks int
	// Now defaults to time.Now.
	Now func() time.Time
}

type Engine struct {
	store    Store
	policy   Policy
	maxMarks int
	now      func() time.Time
}

func NewEngine(st Store, cfg Config) *Engine {
	e := &Engine{
		store:    st,
		policy:   cfg.Policy,
		maxMarks: cfg.MaxMarks,
		now:      cfg.Now,
	}
	if e.policy == "" {
		e.policy = SingleUse
	}
	if e.maxMarks <= 0 {
		e.maxMarks = DefaultMaxMarks
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *Engine) Policy() Policy {
	return e.policy
}

// Request is a single scan. IDs arrive as strings from the transport and are
// validated before anything touches the store.
type Request struct {
	TicketID  string
	EventID   string
	OfficerID string
	// ActorID, when set, is the signed-in user presenting the officer id.
	ActorID string
	// Now overrides the engine clock for this call.
	Now *time.Time
}

type ids struct {
	ticket, event, officer uuid.UUID
}

func (r Request) validate() (ids, error) {
	var parsed ids
	var err error
	if parsed.ticket, err = uuid.Parse(strings.TrimSpace(r.TicketID)); err != nil {
		return parsed, reject(KindInvalidRequest, "Invalid ticket ID format")
	}
	if parsed.event, err = uuid.Parse(strings.TrimSpace(r.EventID)); err != nil {
		return parsed, reject(KindInvalidRequest, "Invalid event ID format")
	}
	if parsed.officer, err = uuid.Parse(strings.TrimSpace(r.OfficerID)); err != nil {
		return parsed, reject(KindInvalidRequest, "Invalid officer ID format")
	}
	return parsed, nil
}

type Stats struct {
	TotalVerified int `json:"totalVerified"`
}

type Result struct {
	Ticket      *models.Ticket `json:"ticket"`
	Message     string         `json:"message"`
	MarkCount   int            `json:"markCount"`
	Stats       Stats          `json:"stats"`
	EventWindow Window         `json:"eventWindow"`
	Policy      Policy         `json:"policy"`
}

// Verify runs one scan through resolve, authorize, window and usage policy.
// Business rejections are returned as *Error; any other error is an
// infrastructure fault. On rejection nothing has been written.
func (e *Engine) Verify(ctx context.Context, req Request) (*Result, error) {
	id, err := req.validate()
	if err != nil {
		return nil, err
	}
	now := e.now()
	if req.Now != nil {
		now = *req.Now
	}

	ticket, err := e.store.GetTicket(ctx, id.ticket, id.event)
	if errors.Is(err, store.ErrNotFound) {
		return nil, reject(KindTicketNotFound, "Ticket not found for this event")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve ticket: %w", err)
	}

	officer, err := Authorize(ctx, e.store, id.officer, id.event, req.ActorID)
	if err != nil {
		return nil, err
	}

	event, err := e.store.GetEvent(ctx, id.event)
	if errors.Is(err, store.ErrNotFound) {
		return nil, reject(KindTicketNotFound, "Event not found")
	}
	if err != nil {
		return nil, fmt.Errorf("resolve event: %w", err)
	}

	window := WindowOf(event)
	switch window.At(now) {
	case BeforeStart:
		return nil, reject(KindEventNotStarted, "Event has not started yet. Verification opens at %s", formatTime(window.Start))
	case AfterEnd:
		return nil, reject(KindEventEnded, "Event has ended. Verification closed at %s", formatTime(window.End))
	}

	entry := &models.VerificationLogEntry{
		ID:        uuid.New(),
		TicketID:  ticket.ID,
		EventID:   event.ID,
		OfficerID: officer.ID,
		Action:    models.ActionMarkedUsed,
		Details:   fmt.Sprintf("Ticket %s verified by officer %s", ticket.ID, officer.ID),
		CreatedAt: now,
	}

	result := &Result{EventWindow: window, Policy: e.policy}
	switch e.policy {
	case BoundedRepeat:
		count, err := e.store.AppendMark(ctx, entry, window.Start, window.End, e.maxMarks)
		if errors.Is(err, store.ErrMarkLimit) {
			return nil, reject(KindMarkLimitExceeded, "Ticket has been marked %d times, the maximum of %d for this event", count, e.maxMarks)
		}
		if err != nil {
			return nil, fmt.Errorf("append mark: %w", err)
		}
		result.Ticket = ticket
		result.MarkCount = count
		result.Message = fmt.Sprintf("Ticket marked as used (%d of %d)", count, e.maxMarks)
	default:
		updated, err := e.store.MarkUsed(ctx, entry)
		if errors.Is(err, store.ErrAlreadyUsed) {
			usedAt := "an earlier scan"
			if updated != nil && updated.UsedAt != nil {
				usedAt = formatTime(*updated.UsedAt)
			}
			return nil, reject(KindAlreadyUsed, "Ticket has already been used at %s", usedAt)
		}
		if err != nil {
			return nil, fmt.Errorf("mark ticket used: %w", err)
		}
		result.Ticket = updated
		result.MarkCount = 1
		result.Message = fmt.Sprintf("Ticket verified and marked as used at %s (1 scan)", formatTime(now))
	}

	// The scan is already committed; a failed count only degrades the stats.
	total, err := e.store.CountVerifications(ctx, officer.ID, event.ID)
	if err != nil {
		logger.Log.Warn("[verify] could not count officer verifications", "officer_id", officer.ID, "error", err)
	}
	result.Stats.TotalVerified = total

	logger.Log.Info("[verify] ticket accepted",
		"ticket_id", ticket.ID,
		"event_id", event.ID,
		"officer_id", officer.ID,
		"policy", e.policy,
		"mark_count", result.MarkCount,
	)
	return result, nil
}
