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

// ProfileRepo defines the read operations the pipeline needs on user profiles.
type ProfileRepo interface {
	// GetByForwardToken resolves a forwarding token to a profile.
	// Returns domain.ErrNotFound if no profile carries that token.
	GetByForwardToken(ctx context.Context, token string) (domain.Profile, error)

	// GetByID retrieves a profile by primary key.
	// Returns domain.ErrNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error)
}

// pgProfileRepo is the Postgres implementation of ProfileRepo.
type pgProfileRepo struct {
	db db
}

// NewProfileRepo constructs a ProfileRepo backed by the provided db connection.
func NewProfileRepo(db db) ProfileRepo {
	return &pgProfileRepo{db: db}
}

func (r *pgProfileRepo) GetByForwardToken(ctx context.Context, token string) (domain.Profile, error) {
	const q = `
		SELECT id, email, forward_token, coalesce(push_token, ''), created_at
		FROM profiles
		WHERE forward_token = @token`

	p, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"token": token}))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.GetByForwardToken: %w", err)
	}
	return p, nil
}

func (r *pgProfileRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Profile, error) {
	const q = `
		SELECT id, email, forward_token, coalesce(push_token, ''), created_at
		FROM profiles
		WHERE id = @id`

	p, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Profile{}, fmt.Errorf("repo.ProfileRepo.GetByID: %w", err)
	}
	return p, nil
}

func scanProfile(s scanner) (domain.Profile, error) {
	var (
		p  domain.Profile
		id pgtype.UUID
	)
	err := s.Scan(&id, &p.Email, &p.ForwardToken, &p.PushToken, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Profile{}, domain.ErrNotFound
		}
		return domain.Profile{}, err
	}
	p.ID = uuid.UUID(id.Bytes)
	return p, nil
}
