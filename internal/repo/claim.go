package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// ClaimRepo defines the persistence operations for ProcessingClaims. The
// (user_id, message_hash) pair is unique at the DB level; TryInsert leans on
// that constraint instead of an application lock.
type ClaimRepo interface {
	// TryInsert attempts to insert a fresh claim in status "processing".
	// Returns true if the row was inserted, false if the uniqueness
	// constraint on (user_id, message_hash) suppressed it.
	TryInsert(ctx context.Context, userID uuid.UUID, messageHash string) (bool, error)

	// Get returns the claim for (userID, messageHash).
	// Returns domain.ErrNotFound if no such claim exists.
	Get(ctx context.Context, userID uuid.UUID, messageHash string) (domain.ProcessingClaim, error)

	// UpsertStatus writes the terminal (or reclaimed) status for a claim with
	// a fresh claimed_at timestamp, inserting the row if it vanished.
	UpsertStatus(ctx context.Context, userID uuid.UUID, messageHash string, status domain.ClaimStatus) error
}

// pgClaimRepo is the Postgres implementation of ClaimRepo.
type pgClaimRepo struct {
	db db
}

// NewClaimRepo constructs a ClaimRepo backed by the provided db connection.
func NewClaimRepo(db db) ClaimRepo {
	return &pgClaimRepo{db: db}
}

func (r *pgClaimRepo) TryInsert(ctx context.Context, userID uuid.UUID, messageHash string) (bool, error) {
	const q = `
		INSERT INTO processing_claims (user_id, message_hash, status, claimed_at)
		VALUES (@user_id, @message_hash, 'processing', now())
		ON CONFLICT (user_id, message_hash) DO NOTHING`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"user_id": userID, "message_hash": messageHash})
	if err != nil {
		return false, fmt.Errorf("repo.ClaimRepo.TryInsert: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgClaimRepo) Get(ctx context.Context, userID uuid.UUID, messageHash string) (domain.ProcessingClaim, error) {
	const q = `
		SELECT id, user_id, message_hash, status, claimed_at
		FROM processing_claims
		WHERE user_id = @user_id AND message_hash = @message_hash`

	var (
		c   domain.ProcessingClaim
		id  pgtype.UUID
		uid pgtype.UUID
	)
	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"user_id": userID, "message_hash": messageHash})
	err := row.Scan(&id, &uid, &c.MessageHash, &c.Status, &c.ClaimedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProcessingClaim{}, fmt.Errorf("repo.ClaimRepo.Get: %w", domain.ErrNotFound)
		}
		return domain.ProcessingClaim{}, fmt.Errorf("repo.ClaimRepo.Get: %w", err)
	}

	c.ID = uuid.UUID(id.Bytes)
	c.UserID = uuid.UUID(uid.Bytes)
	return c, nil
}

func (r *pgClaimRepo) UpsertStatus(ctx context.Context, userID uuid.UUID, messageHash string, status domain.ClaimStatus) error {
	const q = `
		INSERT INTO processing_claims (user_id, message_hash, status, claimed_at)
		VALUES (@user_id, @message_hash, @status, now())
		ON CONFLICT (user_id, message_hash)
		DO UPDATE SET status = EXCLUDED.status, claimed_at = EXCLUDED.claimed_at`

	_, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"user_id":      userID,
		"message_hash": messageHash,
		"status":       status,
	})
	if err != nil {
		return fmt.Errorf("repo.ClaimRepo.UpsertStatus: %w", err)
	}
	return nil
}
