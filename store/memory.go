package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"ticketing-backend/models"
)

// MemoryStore keeps everything in process. It backs tests and
// DATABASE_URL=memory development runs; a single mutex serializes all writes,
// which gives MarkUsed and AppendMark the same atomicity as the Postgres
// transactions.
type MemoryStore struct {
	mu       sync.Mutex
	users    map[uuid.UUID]models.User
	events   map[uuid.UUID]models.Event
	officers map[uuid.UUID]models.SecurityOfficer
	tickets  map[uuid.UUID]models.Ticket
	logs     []models.VerificationLogEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[uuid.UUID]models.User),
		events:   make(map[uuid.UUID]models.Event),
		officers: make(map[uuid.UUID]models.SecurityOfficer),
		tickets:  make(map[uuid.UUID]models.Ticket),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return nil, fmt.Errorf("insert user: %w", ErrConflict)
	}
	s.users[user.ID] = *user
	created := *user
	return &created, nil
}

func (s *MemoryStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return nil, fmt.Errorf("get user %s: %w", id, ErrNotFound)
	}
	return &user, nil
}

func (s *MemoryStore) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[event.ID]; ok {
		return nil, fmt.Errorf("insert event: %w", ErrConflict)
	}
	if _, ok := s.users[event.OrganizerID]; !ok {
		return nil, fmt.Errorf("insert event: organizer %s: %w", event.OrganizerID, ErrNotFound)
	}
	s.events[event.ID] = *event
	created := *event
	return &created, nil
}

func (s *MemoryStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("get event %s: %w", id, ErrNotFound)
	}
	return &event, nil
}

func (s *MemoryStore) UpdateEventStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) (*models.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	event, ok := s.events[id]
	if !ok {
		return nil, fmt.Errorf("update event %s status: %w", id, ErrNotFound)
	}
	event.Status = status
	event.UpdatedAt = at
	s.events[id] = event
	return &event, nil
}

func (s *MemoryStore) CreateOfficer(ctx context.Context, officer *models.SecurityOfficer) (*models.SecurityOfficer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[officer.EventID]; !ok {
		return nil, fmt.Errorf("insert officer: event %s: %w", officer.EventID, ErrNotFound)
	}
	if _, ok := s.users[officer.UserID]; !ok {
		return nil, fmt.Errorf("insert officer: user %s: %w", officer.UserID, ErrNotFound)
	}
	for _, existing := range s.officers {
		if existing.ID == officer.ID || (existing.UserID == officer.UserID && existing.EventID == officer.EventID) {
			return nil, fmt.Errorf("insert officer: %w", ErrConflict)
		}
	}
	s.officers[officer.ID] = *officer
	created := *officer
	return &created, nil
}

func (s *MemoryStore) GetOfficer(ctx context.Context, id uuid.UUID) (*models.SecurityOfficer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	officer, ok := s.officers[id]
	if !ok {
		return nil, fmt.Errorf("get officer %s: %w", id, ErrNotFound)
	}
	return &officer, nil
}

func (s *MemoryStore) ListOfficers(ctx context.Context, eventID uuid.UUID) ([]models.SecurityOfficer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	officers := []models.SecurityOfficer{}
	for _, officer := range s.officers {
		if officer.EventID == eventID {
			officers = append(officers, officer)
		}
	}
	sort.Slice(officers, func(i, j int) bool {
		return officers[i].CreatedAt.Before(officers[j].CreatedAt)
	})
	return officers, nil
}

func (s *MemoryStore) SetOfficerActive(ctx context.Context, id, eventID uuid.UUID, active bool, at time.Time) (*models.SecurityOfficer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	officer, ok := s.officers[id]
	if !ok || officer.EventID != eventID {
		return nil, fmt.Errorf("update officer %s: %w", id, ErrNotFound)
	}
	officer.Active = active
	officer.UpdatedAt = at
	s.officers[id] = officer
	return &officer, nil
}

func (s *MemoryStore) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.events[ticket.EventID]; !ok {
		return nil, fmt.Errorf("insert ticket: event %s: %w", ticket.EventID, ErrNotFound)
	}
	if _, ok := s.users[ticket.UserID]; !ok {
		return nil, fmt.Errorf("insert ticket: user %s: %w", ticket.UserID, ErrNotFound)
	}
	for _, existing := range s.tickets {
		if existing.ID == ticket.ID || existing.Code == ticket.Code {
			return nil, fmt.Errorf("insert ticket: %w", ErrConflict)
		}
	}
	s.tickets[ticket.ID] = *ticket
	created := *ticket
	return &created, nil
}

func (s *MemoryStore) GetTicket(ctx context.Context, id, eventID uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok || ticket.EventID != eventID {
		return nil, fmt.Errorf("get ticket %s: %w", id, ErrNotFound)
	}
	return &ticket, nil
}

func (s *MemoryStore) GetTicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[id]
	if !ok {
		return nil, fmt.Errorf("get ticket %s: %w", id, ErrNotFound)
	}
	return &ticket, nil
}

func (s *MemoryStore) ResolveCode(ctx context.Context, code string) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ticket := range s.tickets {
		if ticket.Code == code {
			return &ticket, nil
		}
	}
	return nil, fmt.Errorf("resolve ticket code: %w", ErrNotFound)
}

// appendEntry requires s.mu to be held.
func (s *MemoryStore) appendEntry(entry *models.VerificationLogEntry) error {
	ticket, ok := s.tickets[entry.TicketID]
	if !ok || ticket.EventID != entry.EventID {
		return fmt.Errorf("insert verification log: ticket %s: %w", entry.TicketID, ErrNotFound)
	}
	if _, ok := s.officers[entry.OfficerID]; !ok {
		return fmt.Errorf("insert verification log: officer %s: %w", entry.OfficerID, ErrNotFound)
	}
	stored := *entry
	stored.TicketHolder = ""
	s.logs = append(s.logs, stored)
	return nil
}

func (s *MemoryStore) MarkUsed(ctx context.Context, entry *models.VerificationLogEntry) (*models.Ticket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[entry.TicketID]
	if !ok || ticket.EventID != entry.EventID {
		return nil, fmt.Errorf("get ticket %s: %w", entry.TicketID, ErrNotFound)
	}
	if ticket.UsageState == models.UsageUsed {
		return &ticket, ErrAlreadyUsed
	}

	if err := s.appendEntry(entry); err != nil {
		return nil, err
	}
	usedAt := entry.CreatedAt
	ticket.UsageState = models.UsageUsed
	ticket.UsedAt = &usedAt
	s.tickets[ticket.ID] = ticket
	return &ticket, nil
}

func (s *MemoryStore) AppendMark(ctx context.Context, entry *models.VerificationLogEntry, from, to time.Time, limit int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[entry.TicketID]
	if !ok || ticket.EventID != entry.EventID {
		return 0, fmt.Errorf("lock ticket %s: %w", entry.TicketID, ErrNotFound)
	}

	count := 0
	for _, logged := range s.logs {
		if logged.TicketID == entry.TicketID && logged.Action == models.ActionMarkedUsed &&
			!logged.CreatedAt.Before(from) && !logged.CreatedAt.After(to) {
			count++
		}
	}
	if count >= limit {
		return count, ErrMarkLimit
	}

	if err := s.appendEntry(entry); err != nil {
		return 0, err
	}
	return count + 1, nil
}

func (s *MemoryStore) CountVerifications(ctx context.Context, officerID, eventID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	total := 0
	for _, logged := range s.logs {
		if logged.OfficerID == officerID && logged.EventID == eventID {
			total++
		}
	}
	return total, nil
}

func (s *MemoryStore) ListVerifications(ctx context.Context, filter VerificationFilter) ([]models.VerificationLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := []models.VerificationLogEntry{}
	for _, logged := range s.logs {
		if logged.EventID != filter.EventID {
			continue
		}
		if filter.OfficerID != nil && logged.OfficerID != *filter.OfficerID {
			continue
		}
		if filter.TicketID != nil && logged.TicketID != *filter.TicketID {
			continue
		}
		if filter.Since != nil && logged.CreatedAt.Before(*filter.Since) {
			continue
		}
		if filter.Until != nil && !logged.CreatedAt.Before(*filter.Until) {
			continue
		}
		if ticket, ok := s.tickets[logged.TicketID]; ok {
			logged.TicketHolder = s.users[ticket.UserID].Name
		}
		entries = append(entries, logged)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if filter.Limit > 0 && len(entries) > filter.Limit {
		entries = entries[:filter.Limit]
	}
	return entries, nil
}
