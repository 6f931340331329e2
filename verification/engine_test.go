package verification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var verr *Error
	require.True(t, errors.As(err, &verr), "expected *Error, got %T: %v", err, err)
	require.Equal(t, kind, verr.Kind, verr.Message)
	return verr
}

func logCount(t *testing.T, f *fixture) int {
	t.Helper()
	entries, err := f.store.ListVerifications(context.Background(), store.VerificationFilter{EventID: f.event.ID})
	require.NoError(t, err)
	return len(entries)
}

func TestVerifySingleUseAcceptsFirstScan(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})

	result, err := engine.Verify(context.Background(), f.request(f.ticket, at(12, 0)))
	require.NoError(t, err)

	require.NotNil(t, result.Ticket.UsedAt)
	assert.Equal(t, at(12, 0), *result.Ticket.UsedAt)
	assert.Equal(t, models.UsageUsed, result.Ticket.UsageState)
	assert.Equal(t, 1, result.MarkCount)
	assert.Equal(t, 1, result.Stats.TotalVerified)
	assert.Equal(t, Window{Start: at(10, 0), End: at(18, 0)}, result.EventWindow)
	assert.Contains(t, result.Message, "1 scan")

	entries, err := f.store.ListVerifications(context.Background(), store.VerificationFilter{EventID: f.event.ID})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionMarkedUsed, entries[0].Action)
	assert.Equal(t, f.ticket.ID, entries[0].TicketID)
	assert.Equal(t, f.officer.ID, entries[0].OfficerID)
	assert.Equal(t, at(12, 0), entries[0].CreatedAt)
}

func TestVerifySingleUseRejectsSecondScan(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})
	ctx := context.Background()

	_, err := engine.Verify(ctx, f.request(f.ticket, at(12, 0)))
	require.NoError(t, err)

	_, err = engine.Verify(ctx, f.request(f.ticket, at(12, 5)))
	verr := requireKind(t, err, KindAlreadyUsed)
	assert.Contains(t, verr.Message, "2024-06-01T12:00Z")

	stored, err := f.store.GetTicketByID(ctx, f.ticket.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.UsedAt)
	assert.Equal(t, at(12, 0), *stored.UsedAt)
	assert.Equal(t, 1, logCount(t, f))
}

func TestVerifyBeforeStart(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})

	_, err := engine.Verify(context.Background(), f.request(f.ticket, at(9, 0)))
	verr := requireKind(t, err, KindEventNotStarted)
	assert.Contains(t, verr.Message, "10:00")

	stored, err := f.store.GetTicketByID(context.Background(), f.ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UsageUnused, stored.UsageState)
	assert.Equal(t, 0, logCount(t, f))
}

func TestVerifyWindowAppliesRegardlessOfTicketState(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})
	ctx := context.Background()

	_, err := engine.Verify(ctx, f.request(f.ticket, at(12, 0)))
	require.NoError(t, err)

	_, err = engine.Verify(ctx, f.request(f.ticket, at(9, 0)))
	requireKind(t, err, KindEventNotStarted)

	_, err = engine.Verify(ctx, f.request(f.ticket, at(19, 0)))
	requireKind(t, err, KindEventEnded)
}

func TestVerifyAfterEnd(t *testing.T) {
	for _, policy := range []Policy{SingleUse, BoundedRepeat} {
		t.Run(string(policy), func(t *testing.T) {
			f := newFixture(t)
			engine := NewEngine(f.store, Config{Policy: policy})

			_, err := engine.Verify(context.Background(), f.request(f.ticket, at(18, 1)))
			verr := requireKind(t, err, KindEventEnded)
			assert.Contains(t, verr.Message, "18:00")
			assert.Equal(t, 0, logCount(t, f))
		})
	}
}

func TestVerifyWindowIsInclusive(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})
	ctx := context.Background()

	_, err := engine.Verify(ctx, f.request(f.ticket, at(10, 0)))
	require.NoError(t, err)

	late := f.addTicket(t, f.event.ID)
	_, err = engine.Verify(ctx, f.request(late, at(18, 0)))
	require.NoError(t, err)
}

func TestVerifyBoundedRepeatCapsMarks(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: BoundedRepeat})
	ctx := context.Background()
	scanAt := at(12, 0)

	for i := 1; i <= DefaultMaxMarks; i++ {
		result, err := engine.Verify(ctx, f.request(f.ticket, scanAt.Add(time.Duration(i)*time.Second)))
		require.NoError(t, err, "scan %d", i)
		assert.Equal(t, i, result.MarkCount)
		assert.Equal(t, i, result.Stats.TotalVerified)
		assert.Equal(t, models.UsageUnused, result.Ticket.UsageState)
	}

	_, err := engine.Verify(ctx, f.request(f.ticket, at(13, 0)))
	verr := requireKind(t, err, KindMarkLimitExceeded)
	assert.Contains(t, verr.Message, "100")
	assert.Equal(t, DefaultMaxMarks, logCount(t, f))

	stored, err := f.store.GetTicketByID(ctx, f.ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UsageUnused, stored.UsageState)
	assert.Nil(t, stored.UsedAt)
}

func TestVerifyBoundedRepeatCustomLimit(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: BoundedRepeat, MaxMarks: 2})
	ctx := context.Background()

	result, err := engine.Verify(ctx, f.request(f.ticket, at(11, 0)))
	require.NoError(t, err)
	assert.Equal(t, "Ticket marked as used (1 of 2)", result.Message)

	_, err = engine.Verify(ctx, f.request(f.ticket, at(11, 30)))
	require.NoError(t, err)

	_, err = engine.Verify(ctx, f.request(f.ticket, at(12, 0)))
	requireKind(t, err, KindMarkLimitExceeded)
}

func TestVerifyDeactivatedOfficerIsRejected(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: BoundedRepeat})
	ctx := context.Background()

	_, err := engine.Verify(ctx, f.request(f.ticket, at(12, 0)))
	require.NoError(t, err)

	_, err = f.store.SetOfficerActive(ctx, f.officer.ID, f.event.ID, false, at(12, 1))
	require.NoError(t, err)

	for _, now := range []time.Time{at(12, 2), at(15, 0), at(17, 59)} {
		_, err = engine.Verify(ctx, f.request(f.ticket, now))
		requireKind(t, err, KindUnauthorized)
	}
	assert.Equal(t, 1, logCount(t, f))
}

func TestVerifyOfficerBoundToAnotherEvent(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})
	ctx := context.Background()

	other, err := f.store.CreateEvent(ctx, &models.Event{
		ID:          uuid.New(),
		OrganizerID: f.organizer.ID,
		Title:       "Other Show",
		StartDate:   at(10, 0),
		EndDate:     at(18, 0),
		Status:      models.StatusUpcoming,
	})
	require.NoError(t, err)
	foreign := f.addOfficer(t, f.officerUser.ID, other.ID)

	req := f.request(f.ticket, at(12, 0))
	req.OfficerID = foreign.ID.String()
	_, err = engine.Verify(ctx, req)
	requireKind(t, err, KindUnauthorized)
}

func TestVerifyActorMustMatchOfficer(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})

	req := f.request(f.ticket, at(12, 0))
	req.ActorID = f.holder.ID.String()
	_, err := engine.Verify(context.Background(), req)
	requireKind(t, err, KindUnauthorized)

	req.ActorID = f.officerUser.ID.String()
	_, err = engine.Verify(context.Background(), req)
	require.NoError(t, err)
}

func TestVerifyUnknownTicket(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})

	req := f.request(f.ticket, at(12, 0))
	req.TicketID = uuid.NewString()
	_, err := engine.Verify(context.Background(), req)
	requireKind(t, err, KindTicketNotFound)

	// A real ticket presented at the wrong event is not found either.
	req = f.request(f.ticket, at(12, 0))
	req.EventID = uuid.NewString()
	_, err = engine.Verify(context.Background(), req)
	requireKind(t, err, KindTicketNotFound)
}

func TestVerifyRejectsMalformedIDs(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})

	for name, mutate := range map[string]func(*Request){
		"ticket":  func(r *Request) { r.TicketID = "not-a-uuid" },
		"event":   func(r *Request) { r.EventID = "" },
		"officer": func(r *Request) { r.OfficerID = "42" },
	} {
		t.Run(name, func(t *testing.T) {
			req := f.request(f.ticket, at(12, 0))
			mutate(&req)
			_, err := engine.Verify(context.Background(), req)
			requireKind(t, err, KindInvalidRequest)
		})
	}
	assert.Equal(t, 0, logCount(t, f))
}

func TestVerifyUsesEngineClock(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse, Now: func() time.Time { return at(9, 30) }})

	req := f.request(f.ticket, at(12, 0))
	req.Now = nil
	_, err := engine.Verify(context.Background(), req)
	requireKind(t, err, KindEventNotStarted)
}

func TestVerifyConcurrentSingleUseScans(t *testing.T) {
	f := newFixture(t)
	engine := NewEngine(f.store, Config{Policy: SingleUse})

	const gates = 16
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
		used     int
	)
	for i := 0; i < gates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := engine.Verify(context.Background(), f.request(f.ticket, at(12, 0)))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				accepted++
			case KindOf(err) == KindAlreadyUsed:
				used++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, accepted)
	assert.Equal(t, gates-1, used)
	assert.Equal(t, 1, logCount(t, f))
}

type failingStore struct {
	Store
	err error
}

func (s failingStore) GetTicket(ctx context.Context, id, eventID uuid.UUID) (*models.Ticket, error) {
	return nil, s.err
}

func TestVerifyPropagatesStoreFaults(t *testing.T) {
	f := newFixture(t)
	fault := errors.New("connection refused")
	engine := NewEngine(failingStore{Store: f.store, err: fault}, Config{Policy: SingleUse})

	_, err := engine.Verify(context.Background(), f.request(f.ticket, at(12, 0)))
	require.Error(t, err)
	assert.ErrorIs(t, err, fault)
	assert.Equal(t, Kind(""), KindOf(err))
}

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy("Bounded_Repeat ")
	require.NoError(t, err)
	assert.Equal(t, BoundedRepeat, p)

	p, err = ParsePolicy("single_use")
	require.NoError(t, err)
	assert.Equal(t, SingleUse, p)

	_, err = ParsePolicy("both")
	assert.Error(t, err)
}
