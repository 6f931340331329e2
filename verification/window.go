package verification

import (
	"time"

	"ticketing-backend/models"
)

type Phase int

const (
	BeforeStart Phase = iota
	Active
	AfterEnd
)

func (p Phase) String() string {
	switch p {
	case BeforeStart:
		return "BEFORE_START"
	case Active:
		return "ACTIVE"
	case AfterEnd:
		return "AFTER_END"
	}
	return "UNKNOWN"
}

// Window is the interval during which scans are accepted. Both ends are
// inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func WindowOf(event *models.Event) Window {
	return Window{Start: event.StartDate, End: event.EndDate}
}

func (w Window) At(now time.Time) Phase {
	return Classify(w.Start, w.End, now)
}

func Classify(start, end, now time.Time) Phase {
	if now.Before(start) {
		return BeforeStart
	}
	if now.After(end) {
		return AfterEnd
	}
	return Active
}

// StatusAt maps the window phase onto the event status enum.
func StatusAt(event *models.Event, now time.Time) string {
	switch WindowOf(event).At(now) {
	case BeforeStart:
		return models.StatusUpcoming
	case Active:
		return models.StatusOngoing
	default:
		return models.StatusCompleted
	}
}
