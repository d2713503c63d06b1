package domain

import (
	"time"

	"github.com/google/uuid"
)

// ClaimStatus is the lifecycle state of a processing claim.
type ClaimStatus string

const (
	ClaimProcessing ClaimStatus = "processing"
	ClaimProcessed  ClaimStatus = "processed"
	ClaimFailed     ClaimStatus = "failed"
)

// ProcessingClaim marks exclusive intent to process one inbound message for
// one user. The (UserID, MessageHash) pair is unique at the database level,
// which is what makes the pipeline idempotent under repeated webhook
// delivery. It approximates, but is not, a lock: staleness and cooldown
// policies decide when a row may be reclaimed.
type ProcessingClaim struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	MessageHash string
	Status      ClaimStatus
	ClaimedAt   time.Time
}
