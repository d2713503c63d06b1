package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the minimal view of a user account the pipeline needs: the
// forwarding token that routes inbound mail to the user, and an optional
// push token for notifications.
type Profile struct {
	ID           uuid.UUID
	Email        string
	ForwardToken string
	PushToken    string
	CreatedAt    time.Time
}
