package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

func at(hour, minute int) time.Time {
	return time.Date(2024, 6, 1, hour, minute, 0, 0, time.UTC)
}

type fixture struct {
	store       *store.MemoryStore
	organizer   *models.User
	holder      *models.User
	officerUser *models.User
	event       *models.Event
	officer     *models.SecurityOfficer
	ticket      *models.Ticket
}

// newFixture seeds one event running 2024-06-01 10:00-18:00 UTC with an
// active officer and an unused ticket.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	st := store.NewMemoryStore()
	created := at(8, 0)

	f := &fixture{store: st}
	f.organizer = f.addUser(t, "Organizer")
	f.holder = f.addUser(t, "Ada Holder")
	f.officerUser = f.addUser(t, "Gate Officer")

	event, err := st.CreateEvent(ctx, &models.Event{
		ID:          uuid.New(),
		OrganizerID: f.organizer.ID,
		Title:       "Summer Fest",
		StartDate:   at(10, 0),
		EndDate:     at(18, 0),
		Status:      models.StatusUpcoming,
		CreatedAt:   created,
		UpdatedAt:   created,
	})
	require.NoError(t, err)
	f.event = event

	f.officer = f.addOfficer(t, f.officerUser.ID, event.ID)
	f.ticket = f.addTicket(t, event.ID)
	return f
}

func (f *fixture) addUser(t *testing.T, name string) *models.User {
	t.Helper()
	user, err := f.store.CreateUser(context.Background(), &models.User{ID: uuid.New(), Name: name, CreatedAt: at(8, 0)})
	require.NoError(t, err)
	return user
}

func (f *fixture) addOfficer(t *testing.T, userID, eventID uuid.UUID) *models.SecurityOfficer {
	t.Helper()
	officer, err := f.store.CreateOfficer(context.Background(), &models.SecurityOfficer{
		ID:        uuid.New(),
		UserID:    userID,
		EventID:   eventID,
		Active:    true,
		CreatedAt: at(8, 0),
		UpdatedAt: at(8, 0),
	})
	require.NoError(t, err)
	return officer
}

func (f *fixture) addTicket(t *testing.T, eventID uuid.UUID) *models.Ticket {
	t.Helper()
	id := uuid.New()
	ticket, err := f.store.CreateTicket(context.Background(), &models.Ticket{
		ID:         id,
		EventID:    eventID,
		UserID:     f.holder.ID,
		Code:       "TKT-" + id.String(),
		UsageState: models.UsageUnused,
		CreatedAt:  at(8, 0),
	})
	require.NoError(t, err)
	return ticket
}

func (f *fixture) request(ticket *models.Ticket, now time.Time) Request {
	return Request{
		TicketID:  ticket.ID.String(),
		EventID:   ticket.EventID.String(),
		OfficerID: f.officer.ID.String(),
		Now:       &now,
	}
}
