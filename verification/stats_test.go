package verification

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ticketing-backend/models"
)

func (f *fixture) mark(t *testing.T, ticket *models.Ticket, when time.Time) *models.VerificationLogEntry {
	t.Helper()
	entry := &models.VerificationLogEntry{
		ID:        uuid.New(),
		TicketID:  ticket.ID,
		EventID:   ticket.EventID,
		OfficerID: f.officer.ID,
		Action:    models.ActionMarkedUsed,
		CreatedAt: when,
	}
	_, err := f.store.AppendMark(context.Background(), entry, when.AddDate(0, 0, -7), when.AddDate(0, 0, 7), 1000)
	require.NoError(t, err)
	return entry
}

func TestSummarizeEmptyLog(t *testing.T) {
	f := newFixture(t)
	agg := NewAggregator(f.store, time.UTC, 0)

	summary, err := agg.Summarize(context.Background(), f.officer.ID, f.event.ID, at(12, 0))
	require.NoError(t, err)

	assert.Equal(t, 0, summary.TotalVerifications)
	assert.Equal(t, 0, summary.TodayVerifications)
	require.Len(t, summary.HourlyStats, 24)
	for hour, stat := range summary.HourlyStats {
		assert.Equal(t, 0, stat.Verifications)
		assert.Equal(t, time.Date(2024, 1, 1, hour, 0, 0, 0, time.UTC).Format("15:04"), stat.Hour)
	}
	require.NotNil(t, summary.RecentActivity)
	assert.Empty(t, summary.RecentActivity)
}

func TestSummarizeBucketsTodayByHour(t *testing.T) {
	f := newFixture(t)
	second := f.addTicket(t, f.event.ID)

	f.mark(t, f.ticket, at(10, 5))
	f.mark(t, f.ticket, at(10, 55))
	f.mark(t, second, at(11, 30))
	latest := f.mark(t, second, at(17, 59))
	// Yesterday counts towards the total but not today.
	f.mark(t, f.ticket, at(23, 0).AddDate(0, 0, -1))

	agg := NewAggregator(f.store, time.UTC, 3)
	summary, err := agg.Summarize(context.Background(), f.officer.ID, f.event.ID, at(18, 0))
	require.NoError(t, err)

	assert.Equal(t, 5, summary.TotalVerifications)
	assert.Equal(t, 4, summary.TodayVerifications)
	assert.Equal(t, 2, summary.HourlyStats[10].Verifications)
	assert.Equal(t, 1, summary.HourlyStats[11].Verifications)
	assert.Equal(t, 1, summary.HourlyStats[17].Verifications)
	assert.Equal(t, 0, summary.HourlyStats[23].Verifications)
	assert.Equal(t, "17:00", summary.HourlyStats[17].Hour)

	require.Len(t, summary.RecentActivity, 3)
	assert.Equal(t, latest.ID, summary.RecentActivity[0].ID)
	assert.Equal(t, at(17, 59), summary.RecentActivity[0].Timestamp)
	assert.Equal(t, models.ActionMarkedUsed, summary.RecentActivity[0].Action)
	assert.Equal(t, "Ada Holder", summary.RecentActivity[0].TicketHolder)
	assert.Equal(t, at(11, 30), summary.RecentActivity[1].Timestamp)
}

func TestSummarizeUsesLocalCalendarDay(t *testing.T) {
	f := newFixture(t)
	lagos := time.FixedZone("WAT", 3600)

	// 23:30 UTC on May 31 is 00:30 on June 1 in Lagos.
	f.mark(t, f.ticket, time.Date(2024, 5, 31, 23, 30, 0, 0, time.UTC))
	// 23:30 UTC on June 1 is already June 2 in Lagos.
	f.mark(t, f.ticket, time.Date(2024, 6, 1, 23, 30, 0, 0, time.UTC))

	agg := NewAggregator(f.store, lagos, 10)
	summary, err := agg.Summarize(context.Background(), f.officer.ID, f.event.ID, at(12, 0))
	require.NoError(t, err)

	assert.Equal(t, 2, summary.TotalVerifications)
	assert.Equal(t, 1, summary.TodayVerifications)
	assert.Equal(t, 1, summary.HourlyStats[0].Verifications)
}

func TestSummarizeIsScopedToOfficer(t *testing.T) {
	f := newFixture(t)
	f.mark(t, f.ticket, at(12, 0))

	other := f.addOfficer(t, f.addUser(t, "Second Officer").ID, f.event.ID)
	agg := NewAggregator(f.store, time.UTC, 10)

	summary, err := agg.Summarize(context.Background(), other.ID, f.event.ID, at(12, 30))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalVerifications)
	assert.Empty(t, summary.RecentActivity)
}
