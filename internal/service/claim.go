package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

// hashBodyPrefix is how much of the body feeds the content hash. Truncating
// tolerates provider-side encoding noise deep in the body while sender and
// subject keep truncated-identical bodies from colliding.
const hashBodyPrefix = 500

// ContentHash fingerprints a message for claim purposes:
// sha256(from, subject, first 500 bytes of body), hex-encoded.
func ContentHash(from, subject, body string) string {
	if len(body) > hashBodyPrefix {
		body = body[:hashBodyPrefix]
	}
	h := sha256.New()
	h.Write([]byte(from))
	h.Write([]byte{'\n'})
	h.Write([]byte(subject))
	h.Write([]byte{'\n'})
	h.Write([]byte(body))
	return hex.EncodeToString(h.Sum(nil))
}

// ClaimOutcome is the tagged result of a claim attempt. A boolean is not
// enough: reclaimed and reforwarded messages proceed like fresh claims but
// are logged differently, and already-claimed is a success/no-op, not an error.
type ClaimOutcome string

const (
	// OutcomeClaimed: first delivery, row inserted, proceed.
	OutcomeClaimed ClaimOutcome = "claimed"
	// OutcomeStaleReclaimed: a prior attempt crashed mid-run or failed;
	// this delivery takes over.
	OutcomeStaleReclaimed ClaimOutcome = "stale_reclaimed"
	// OutcomeReforward: the user deliberately resubmitted an
	// already-processed message after the cooldown window (forward path only).
	OutcomeReforward ClaimOutcome = "reforward"
	// OutcomeAlreadyClaimed: duplicate delivery; short-circuit with a no-op
	// success response.
	OutcomeAlreadyClaimed ClaimOutcome = "already_claimed"
)

// ClaimStore implements the dedup claim policy over the uniqueness-constrained
// processing_claims table. It approximates mutual exclusion across stateless
// invocations; true locking is unavailable, so every ambiguous or failing
// case resolves to already-claimed. Double-processing is worse than a dropped
// message — the sender retries, we do not.
type ClaimStore struct {
	claims         repo.ClaimRepo
	staleAfter     time.Duration
	reforwardAfter time.Duration
	log            *slog.Logger
	now            func() time.Time
}

// NewClaimStore constructs a ClaimStore. staleAfter bounds how long a
// "processing" row blocks reclaim; reforwardAfter is the cooldown before a
// direct forward of a processed message is treated as deliberate resubmission.
func NewClaimStore(claims repo.ClaimRepo, staleAfter, reforwardAfter time.Duration, log *slog.Logger) *ClaimStore {
	return &ClaimStore{
		claims:         claims,
		staleAfter:     staleAfter,
		reforwardAfter: reforwardAfter,
		log:            log,
		now:            time.Now,
	}
}

// Claim attempts to take ownership of (userID, messageHash) for this
// invocation. It never returns an error: storage failures fail closed to
// OutcomeAlreadyClaimed.
func (s *ClaimStore) Claim(ctx context.Context, userID uuid.UUID, messageHash string, source domain.Source) ClaimOutcome {
	inserted, err := s.claims.TryInsert(ctx, userID, messageHash)
	if err != nil {
		s.log.ErrorContext(ctx, "claim insert failed, treating as already claimed",
			"user_id", userID, "hash", shortHash(messageHash), "error", err)
		return OutcomeAlreadyClaimed
	}
	if inserted {
		return OutcomeClaimed
	}

	existing, err := s.claims.Get(ctx, userID, messageHash)
	if err != nil {
		s.log.ErrorContext(ctx, "claim read failed, treating as already claimed",
			"user_id", userID, "hash", shortHash(messageHash), "error", err)
		return OutcomeAlreadyClaimed
	}

	age := s.now().Sub(existing.ClaimedAt)
	var outcome ClaimOutcome
	switch {
	case existing.Status == domain.ClaimProcessing && age > s.staleAfter:
		outcome = OutcomeStaleReclaimed
	case existing.Status == domain.ClaimFailed:
		outcome = OutcomeStaleReclaimed
	case existing.Status == domain.ClaimProcessed && age > s.reforwardAfter && source == domain.SourceForward:
		outcome = OutcomeReforward
	default:
		return OutcomeAlreadyClaimed
	}

	// Refresh the row to processing/now so concurrent deliveries observe a
	// live claim while this invocation runs.
	if err := s.claims.UpsertStatus(ctx, userID, messageHash, domain.ClaimProcessing); err != nil {
		s.log.ErrorContext(ctx, "claim refresh failed, treating as already claimed",
			"user_id", userID, "hash", shortHash(messageHash), "error", err)
		return OutcomeAlreadyClaimed
	}

	s.log.InfoContext(ctx, "claim reclaimed",
		"user_id", userID, "hash", shortHash(messageHash),
		"outcome", string(outcome), "previous_status", string(existing.Status), "age", age)
	return outcome
}

// Finish records the terminal status of the pipeline run. Failures to write
// the marker are logged and swallowed: the worst case is a stale "processing"
// row that the staleness window eventually reopens.
func (s *ClaimStore) Finish(ctx context.Context, userID uuid.UUID, messageHash string, status domain.ClaimStatus) {
	if err := s.claims.UpsertStatus(ctx, userID, messageHash, status); err != nil {
		s.log.ErrorContext(ctx, "claim marker write failed",
			"user_id", userID, "hash", shortHash(messageHash),
			"status", string(status), "error", err)
	}
}

// shortHash truncates a content hash for log lines.
func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
