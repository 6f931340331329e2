package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"ticketing-backend/logger"
)

const createUsersTableSQL = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    name TEXT NOT NULL,
    email TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const createEventsTableSQL = `
CREATE TABLE IF NOT EXISTS events (
    id UUID PRIMARY KEY,
    organizer_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    description TEXT,
    location TEXT,
    start_date TIMESTAMPTZ NOT NULL,
    end_date TIMESTAMPTZ NOT NULL,
    status TEXT NOT NULL DEFAULT 'UPCOMING',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    CHECK (end_date >= start_date)
);`

const createSecurityOfficersTableSQL = `
CREATE TABLE IF NOT EXISTS security_officers (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    active BOOLEAN NOT NULL DEFAULT true,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (user_id, event_id)
);`

const createTicketsTableSQL = `
CREATE TABLE IF NOT EXISTS tickets (
    id UUID PRIMARY KEY,
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    order_id UUID,
    code TEXT NOT NULL UNIQUE,
    usage_state TEXT NOT NULL DEFAULT 'unused' CHECK (usage_state IN ('unused', 'used')),
    used_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    UNIQUE (id, event_id)
);`

// The composite key keeps every audit entry on the same event as its ticket.
const createVerificationLogsTableSQL = `
CREATE TABLE IF NOT EXISTS verification_logs (
    id UUID PRIMARY KEY,
    ticket_id UUID NOT NULL,
    event_id UUID NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    officer_id UUID NOT NULL REFERENCES security_officers(id) ON DELETE CASCADE,
    action TEXT NOT NULL,
    details TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL,
    FOREIGN KEY (ticket_id, event_id) REFERENCES tickets(id, event_id) ON DELETE CASCADE
);`

const createTicketLogIndexSQL = `
CREATE INDEX IF NOT EXISTS verification_logs_ticket_idx ON verification_logs (ticket_id, action, created_at);`

const createOfficerLogIndexSQL = `
CREATE INDEX IF NOT EXISTS verification_logs_officer_idx ON verification_logs (officer_id, event_id, created_at);`

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	statements := []struct {
		name string
		sql  string
	}{
		{"users", createUsersTableSQL},
		{"events", createEventsTableSQL},
		{"security_officers", createSecurityOfficersTableSQL},
		{"tickets", createTicketsTableSQL},
		{"verification_logs", createVerificationLogsTableSQL},
		{"verification_logs_ticket_idx", createTicketLogIndexSQL},
		{"verification_logs_officer_idx", createOfficerLogIndexSQL},
	}

	for _, stmt := range statements {
		logger.Log.Debug("[db] applying migration", "name", stmt.name)
		if _, err := pool.Exec(ctx, stmt.sql); err != nil {
			return fmt.Errorf("migrate %s: %w", stmt.name, err)
		}
	}
	logger.Log.Info("[db] schema is up to date", "statements", len(statements))
	return nil
}
