package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

const DefaultRecentLimit = 10

type LogReader interface {
	CountVerifications(ctx context.Context, officerID, eventID uuid.UUID) (int, error)
	ListVerifications(ctx context.Context, filter store.VerificationFilter) ([]models.VerificationLogEntry, error)
}

type HourlyStat struct {
	Hour          string `json:"hour"`
	Verifications int    `json:"verifications"`
}

type Activity struct {
	ID           uuid.UUID `json:"id"`
	Action       string    `json:"action"`
	Timestamp    time.Time `json:"timestamp"`
	TicketHolder string    `json:"ticketHolder"`
}

type Summary struct {
	TotalVerifications int          `json:"totalVerifications"`
	TodayVerifications int          `json:"todayVerifications"`
	HourlyStats        []HourlyStat `json:"hourlyStats"`
	RecentActivity     []Activity   `json:"recentActivity"`
}

// Aggregator summarizes the audit log for one officer at one event. It only
// reads.
type Aggregator struct {
	logs        LogReader
	loc         *time.Location
	recentLimit int
}

func NewAggregator(logs LogReader, loc *time.Location, recentLimit int) *Aggregator {
	if loc == nil {
		loc = time.Local
	}
	if recentLimit <= 0 {
		recentLimit = DefaultRecentLimit
	}
	return &Aggregator{logs: logs, loc: loc, recentLimit: recentLimit}
}

// Summarize buckets today's entries by local hour. "Today" is the calendar
// day containing now in the aggregator's location.
func (a *Aggregator) Summarize(ctx context.Context, officerID, eventID uuid.UUID, now time.Time) (*Summary, error) {
	local := now.In(a.loc)
	dayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, a.loc)
	dayEnd := dayStart.AddDate(0, 0, 1)

	total, err := a.logs.CountVerifications(ctx, officerID, eventID)
	if err != nil {
		return nil, fmt.Errorf("count verifications: %w", err)
	}

	today, err := a.logs.ListVerifications(ctx, store.VerificationFilter{
		EventID:   eventID,
		OfficerID: &officerID,
		Since:     &dayStart,
		Until:     &dayEnd,
	})
	if err != nil {
		return nil, fmt.Errorf("list today's verifications: %w", err)
	}

	recent, err := a.logs.ListVerifications(ctx, store.VerificationFilter{
		EventID:   eventID,
		OfficerID: &officerID,
		Limit:     a.recentLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list recent verifications: %w", err)
	}

	summary := &Summary{
		TotalVerifications: total,
		TodayVerifications: len(today),
		HourlyStats:        make([]HourlyStat, 24),
		RecentActivity:     make([]Activity, 0, len(recent)),
	}
	for hour := range summary.HourlyStats {
		summary.HourlyStats[hour].Hour = fmt.Sprintf("%02d:00", hour)
	}
	for _, entry := range today {
		summary.HourlyStats[entry.CreatedAt.In(a.loc).Hour()].Verifications++
	}
	for _, entry := range recent {
		summary.RecentActivity = append(summary.RecentActivity, Activity{
			ID:           entry.ID,
			Action:       entry.Action,
			Timestamp:    entry.CreatedAt,
			TicketHolder: entry.TicketHolder,
		})
	}
	return summary, nil
}
