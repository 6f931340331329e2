package verification

import (
	"errors"
	"fmt"
	"time"
)

// Kind names a business rejection. Infrastructure faults are never a Kind;
// they come back as plain wrapped errors.
type Kind string

const (
	KindInvalidRequest    Kind = "InvalidRequest"
	KindTicketNotFound    Kind = "TicketNotFound"
	KindUnauthorized      Kind = "Unauthorized"
	KindEventNotStarted   Kind = "EventNotStarted"
	KindEventEnded        Kind = "EventEnded"
	KindAlreadyUsed       Kind = "AlreadyUsed"
	KindMarkLimitExceeded Kind = "MarkLimitExceeded"
)

// Error is a terminal rejection of a scan. Message is safe to show to the
// officer at the gate.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func reject(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the rejection kind of err, or "" if err is not a rejection.
func KindOf(err error) Kind {
	var verr *Error
	if errors.As(err, &verr) {
		return verr.Kind
	}
	return ""
}

// messageTimeLayout renders e.g. 2024-06-01T12:00Z.
const messageTimeLayout = "2006-01-02T15:04Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(messageTimeLayout)
}
