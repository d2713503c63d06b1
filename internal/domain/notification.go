package domain

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an in-app notification row. Push delivery rides alongside
// it but is best-effort; the row is the durable record.
type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Title     string
	Body      string
	TripID    *uuid.UUID
	CreatedAt time.Time
}
