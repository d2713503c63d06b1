// Package domain contains the core data types for the itinerary ingestion
// pipeline. This package has zero dependencies beyond uuid and is imported by
// every other internal package (repo, service, handler).
package domain

import (
	"time"

	"github.com/google/uuid"
)

// TripStatus is the lifecycle state of a persisted trip.
type TripStatus string

const (
	TripUpcoming  TripStatus = "upcoming"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
)

// Trip is the top-level itinerary aggregate. Reservations belong to a trip
// and cascade on delete. The date range is expand-only: merging a new
// reservation into an existing trip may widen StartDate/EndDate but never
// shrinks them.
type Trip struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	Destination string
	StartDate   time.Time
	EndDate     time.Time
	Status      TripStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
