package verification

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"ticketing-backend/models"
	"ticketing-backend/store"
)

type OfficerReader interface {
	GetOfficer(ctx context.Context, id uuid.UUID) (*models.SecurityOfficer, error)
}

// Authorize loads the officer and checks that it is bound to eventID and
// active. When actorID is set the officer must also belong to that user.
// Nothing is cached: deactivation applies to the very next call.
func Authorize(ctx context.Context, officers OfficerReader, officerID, eventID uuid.UUID, actorID string) (*models.SecurityOfficer, error) {
	officer, err := officers.GetOfficer(ctx, officerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, reject(KindUnauthorized, "Security officer not found")
	}
	if err != nil {
		return nil, fmt.Errorf("authorize officer: %w", err)
	}

	if officer.EventID != eventID {
		return nil, reject(KindUnauthorized, "Security officer is not assigned to this event")
	}
	if !officer.Active {
		return nil, reject(KindUnauthorized, "Security officer access has been deactivated for this event")
	}
	if actorID != "" && officer.UserID.String() != actorID {
		return nil, reject(KindUnauthorized, "Signed-in user does not match the security officer")
	}
	return officer, nil
}
