package store

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"ticketing-backend/models"
)

const uniqueViolation = "23505"

const (
	eventColumns   = `id, organizer_id, title, description, location, start_date, end_date, status, created_at, updated_at`
	officerColumns = `id, user_id, event_id, active, created_at, updated_at`
	ticketColumns  = `id, event_id, user_id, order_id, code, usage_state, used_at, created_at`
)

type PostgresStore struct {
	db *pgxpool.Pool
}

func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// translate maps driver errors onto the package sentinels.
func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrConflict, pgErr.ConstraintName)
	}
	return err
}

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (id, name, email, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, created_at
	`

	var created models.User
	err := s.db.QueryRow(ctx, query, user.ID, user.Name, user.Email, user.CreatedAt).Scan(
		&created.ID,
		&created.Name,
		&created.Email,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", translate(err))
	}
	return &created, nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.QueryRow(ctx, "SELECT id, name, email, created_at FROM users WHERE id = $1", id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get user %s: %w", id, translate(err))
	}
	return &user, nil
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var event models.Event
	err := row.Scan(
		&event.ID,
		&event.OrganizerID,
		&event.Title,
		&event.Description,
		&event.Location,
		&event.StartDate,
		&event.EndDate,
		&event.Status,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (s *PostgresStore) CreateEvent(ctx context.Context, event *models.Event) (*models.Event, error) {
	query := `
		INSERT INTO events (` + eventColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + eventColumns

	created, err := scanEvent(s.db.QueryRow(ctx, query,
		event.ID,
		event.OrganizerID,
		event.Title,
		event.Description,
		event.Location,
		event.StartDate,
		event.EndDate,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", translate(err))
	}
	return created, nil
}

func (s *PostgresStore) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	event, err := scanEvent(s.db.QueryRow(ctx, "SELECT "+eventColumns+" FROM events WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, translate(err))
	}
	return event, nil
}

func (s *PostgresStore) UpdateEventStatus(ctx context.Context, id uuid.UUID, status string, at time.Time) (*models.Event, error) {
	query := `
		UPDATE events
		SET status = $1, updated_at = $2
		WHERE id = $3
		RETURNING ` + eventColumns

	event, err := scanEvent(s.db.QueryRow(ctx, query, status, at, id))
	if err != nil {
		return nil, fmt.Errorf("update event %s status: %w", id, translate(err))
	}
	return event, nil
}

func scanOfficer(row pgx.Row) (*models.SecurityOfficer, error) {
	var officer models.SecurityOfficer
	err := row.Scan(
		&officer.ID,
		&officer.UserID,
		&officer.EventID,
		&officer.Active,
		&officer.CreatedAt,
		&officer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &officer, nil
}

func (s *PostgresStore) CreateOfficer(ctx context.Context, officer *models.SecurityOfficer) (*models.SecurityOfficer, error) {
	query := `
		INSERT INTO security_officers (` + officerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + officerColumns

	created, err := scanOfficer(s.db.QueryRow(ctx, query,
		officer.ID,
		officer.UserID,
		officer.EventID,
		officer.Active,
		officer.CreatedAt,
		officer.UpdatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert officer: %w", translate(err))
	}
	return created, nil
}

func (s *PostgresStore) GetOfficer(ctx context.Context, id uuid.UUID) (*models.SecurityOfficer, error) {
	officer, err := scanOfficer(s.db.QueryRow(ctx, "SELECT "+officerColumns+" FROM security_officers WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get officer %s: %w", id, translate(err))
	}
	return officer, nil
}

func (s *PostgresStore) ListOfficers(ctx context.Context, eventID uuid.UUID) ([]models.SecurityOfficer, error) {
	rows, err := s.db.Query(ctx, "SELECT "+officerColumns+" FROM security_officers WHERE event_id = $1 ORDER BY created_at", eventID)
	if err != nil {
		return nil, fmt.Errorf("list officers: %w", err)
	}
	defer rows.Close()

	officers := []models.SecurityOfficer{}
	for rows.Next() {
		officer, err := scanOfficer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan officer: %w", err)
		}
		officers = append(officers, *officer)
	}
	return officers, rows.Err()
}

// SetOfficerActive only touches the active flag; an officer's event binding
// is fixed at creation.
func (s *PostgresStore) SetOfficerActive(ctx context.Context, id, eventID uuid.UUID, active bool, at time.Time) (*models.SecurityOfficer, error) {
	query := `
		UPDATE security_officers
		SET active = $1, updated_at = $2
		WHERE id = $3 AND event_id = $4
		RETURNING ` + officerColumns

	officer, err := scanOfficer(s.db.QueryRow(ctx, query, active, at, id, eventID))
	if err != nil {
		return nil, fmt.Errorf("update officer %s: %w", id, translate(err))
	}
	return officer, nil
}

func scanTicket(row pgx.Row) (*models.Ticket, error) {
	var ticket models.Ticket
	err := row.Scan(
		&ticket.ID,
		&ticket.EventID,
		&ticket.UserID,
		&ticket.OrderID,
		&ticket.Code,
		&ticket.UsageState,
		&ticket.UsedAt,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (s *PostgresStore) CreateTicket(ctx context.Context, ticket *models.Ticket) (*models.Ticket, error) {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + ticketColumns

	created, err := scanTicket(s.db.QueryRow(ctx, query,
		ticket.ID,
		ticket.EventID,
		ticket.UserID,
		ticket.OrderID,
		ticket.Code,
		ticket.UsageState,
		ticket.UsedAt,
		ticket.CreatedAt,
	))
	if err != nil {
		return nil, fmt.Errorf("insert ticket: %w", translate(err))
	}
	return created, nil
}

func (s *PostgresStore) GetTicket(ctx context.Context, id, eventID uuid.UUID) (*models.Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRow(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = $1 AND event_id = $2", id, eventID))
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, translate(err))
	}
	return ticket, nil
}

func (s *PostgresStore) GetTicketByID(ctx context.Context, id uuid.UUID) (*models.Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRow(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = $1", id))
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", id, translate(err))
	}
	return ticket, nil
}

func (s *PostgresStore) ResolveCode(ctx context.Context, code string) (*models.Ticket, error) {
	ticket, err := scanTicket(s.db.QueryRow(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE code = $1", code))
	if err != nil {
		return nil, fmt.Errorf("resolve ticket code: %w", translate(err))
	}
	return ticket, nil
}

func insertEntry(ctx context.Context, tx pgx.Tx, entry *models.VerificationLogEntry) error {
	query := `
		INSERT INTO verification_logs (id, ticket_id, event_id, officer_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := tx.Exec(ctx, query,
		entry.ID,
		entry.TicketID,
		entry.EventID,
		entry.OfficerID,
		entry.Action,
		entry.Details,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification log: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) MarkUsed(ctx context.Context, entry *models.VerificationLogEntry) (*models.Ticket, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// The state predicate makes this a compare-and-set: a concurrent scan
	// blocks on the row lock and then matches zero rows.
	updateQuery := `
		UPDATE tickets
		SET usage_state = 'used', used_at = $3
		WHERE id = $1 AND event_id = $2 AND usage_state = 'unused'
		RETURNING ` + ticketColumns

	ticket, err := scanTicket(tx.QueryRow(ctx, updateQuery, entry.TicketID, entry.EventID, entry.CreatedAt))
	if errors.Is(err, pgx.ErrNoRows) {
		current, err := scanTicket(tx.QueryRow(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE id = $1 AND event_id = $2", entry.TicketID, entry.EventID))
		if err != nil {
			return nil, fmt.Errorf("get ticket %s: %w", entry.TicketID, translate(err))
		}
		return current, ErrAlreadyUsed
	}
	if err != nil {
		return nil, fmt.Errorf("mark ticket %s used: %w", entry.TicketID, err)
	}

	if err := insertEntry(ctx, tx, entry); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit failed: %w", err)
	}
	return ticket, nil
}

func (s *PostgresStore) AppendMark(ctx context.Context, entry *models.VerificationLogEntry, from, to time.Time, limit int) (int, error) {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the ticket row so count-then-insert is atomic per ticket.
	var locked uuid.UUID
	err = tx.QueryRow(ctx, "SELECT id FROM tickets WHERE id = $1 AND event_id = $2 FOR UPDATE", entry.TicketID, entry.EventID).Scan(&locked)
	if err != nil {
		return 0, fmt.Errorf("lock ticket %s: %w", entry.TicketID, translate(err))
	}

	countQuery := `
		SELECT COUNT(*)
		FROM verification_logs
		WHERE ticket_id = $1 AND action = $2 AND created_at BETWEEN $3 AND $4
	`
	var count int
	if err := tx.QueryRow(ctx, countQuery, entry.TicketID, models.ActionMarkedUsed, from, to).Scan(&count); err != nil {
		return 0, fmt.Errorf("count marks for ticket %s: %w", entry.TicketID, err)
	}
	if count >= limit {
		return count, ErrMarkLimit
	}

	if err := insertEntry(ctx, tx, entry); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit failed: %w", err)
	}
	return count + 1, nil
}

func (s *PostgresStore) CountVerifications(ctx context.Context, officerID, eventID uuid.UUID) (int, error) {
	var total int
	err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM verification_logs WHERE officer_id = $1 AND event_id = $2", officerID, eventID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count verifications: %w", err)
	}
	return total, nil
}

func (s *PostgresStore) ListVerifications(ctx context.Context, filter VerificationFilter) ([]models.VerificationLogEntry, error) {
	query := `
		SELECT vl.id, vl.ticket_id, vl.event_id, vl.officer_id, vl.action, vl.details, vl.created_at,
		       COALESCE(u.name, '')
		FROM verification_logs vl
		JOIN tickets t ON t.id = vl.ticket_id
		LEFT JOIN users u ON u.id = t.user_id
		WHERE vl.event_id = $1
	`
	args := []interface{}{filter.EventID}
	argIndex := 2

	if filter.OfficerID != nil {
		query += " AND vl.officer_id = $" + strconv.Itoa(argIndex)
		args = append(args, *filter.OfficerID)
		argIndex++
	}

	if filter.TicketID != nil {
		query += " AND vl.ticket_id = $" + strconv.Itoa(argIndex)
		args = append(args, *filter.TicketID)
		argIndex++
	}

	if filter.Since != nil {
		query += " AND vl.created_at >= $" + strconv.Itoa(argIndex)
		args = append(args, *filter.Since)
		argIndex++
	}

	if filter.Until != nil {
		query += " AND vl.created_at < $" + strconv.Itoa(argIndex)
		args = append(args, *filter.Until)
		argIndex++
	}

	query += " ORDER BY vl.created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT $" + strconv.Itoa(argIndex)
		args = append(args, filter.Limit)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list verifications: %w", err)
	}
	defer rows.Close()

	entries := []models.VerificationLogEntry{}
	for rows.Next() {
		var entry models.VerificationLogEntry
		err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.EventID,
			&entry.OfficerID,
			&entry.Action,
			&entry.Details,
			&entry.CreatedAt,
			&entry.TicketHolder,
		)
		if err != nil {
			return nil, fmt.Errorf("scan verification log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
