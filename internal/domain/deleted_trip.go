package domain

import (
	"time"

	"github.com/google/uuid"
)

// DeletedTrip records a trip the user explicitly removed. The resolver
// consults it before recreating a trip for the same place and dates: the
// autonomous scan path suppresses recreation, the direct-forward path
// overrides and clears the record (explicit user intent wins).
type DeletedTrip struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Destination      string
	StartDate        time.Time
	EndDate          time.Time
	OriginalTripName string
	DeletedAt        time.Time
}
