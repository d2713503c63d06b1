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

// ReservationRepo defines the persistence operations for Reservations.
type ReservationRepo interface {
	// Create inserts a new reservation and returns the persisted record.
	Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error)

	// ListByTrip returns all reservations for a trip ordered by start_time ascending.
	ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error)

	// FindByConfirmationAcrossUser returns every reservation with the given
	// confirmation number under any of the user's trips. Used by the
	// cross-trip dedup heuristic that catches concurrent requests which
	// created two different trips before the resolver converged.
	FindByConfirmationAcrossUser(ctx context.Context, userID uuid.UUID, confirmation string) ([]domain.Reservation, error)

	// UpdateStatus sets a reservation's status.
	// Returns domain.ErrNotFound if no reservation with that ID exists.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error

	// CountByTrip returns the number of reservations under a trip.
	CountByTrip(ctx context.Context, tripID uuid.UUID) (int, error)
}

// pgReservationRepo is the Postgres implementation of ReservationRepo.
type pgReservationRepo struct {
	db db
}

// NewReservationRepo constructs a ReservationRepo backed by the provided db connection.
func NewReservationRepo(db db) ReservationRepo {
	return &pgReservationRepo{db: db}
}

const reservationColumns = `id, trip_id, type, title, subtitle, start_time, end_time,
	location, address, confirmation_number, status, details, created_at, updated_at`

func (r *pgReservationRepo) Create(ctx context.Context, res domain.Reservation) (domain.Reservation, error) {
	const q = `
		INSERT INTO reservations
			(trip_id, type, title, subtitle, start_time, end_time, location, address,
			 confirmation_number, status, details)
		VALUES
			(@trip_id, @type, @title, @subtitle, @start_time, @end_time, @location, @address,
			 @confirmation_number, @status, @details)
		RETURNING ` + reservationColumns

	details := res.Details
	if details == nil {
		details = map[string]string{}
	}

	args := pgx.NamedArgs{
		"trip_id":             res.TripID,
		"type":                res.Type,
		"title":               res.Title,
		"subtitle":            res.Subtitle,
		"start_time":          res.StartTime,
		"end_time":            res.EndTime, // nil becomes NULL
		"location":            res.Location,
		"address":             res.Address,
		"confirmation_number": res.ConfirmationNumber,
		"status":              res.Status,
		"details":             details,
	}

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanReservation(row)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("repo.ReservationRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgReservationRepo) ListByTrip(ctx context.Context, tripID uuid.UUID) ([]domain.Reservation, error) {
	const q = `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE trip_id = @trip_id
		ORDER BY start_time ASC`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"trip_id": tripID})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.ListByTrip: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows, "repo.ReservationRepo.ListByTrip")
}

func (r *pgReservationRepo) FindByConfirmationAcrossUser(ctx context.Context, userID uuid.UUID, confirmation string) ([]domain.Reservation, error) {
	const q = `
		SELECT r.id, r.trip_id, r.type, r.title, r.subtitle, r.start_time, r.end_time,
		       r.location, r.address, r.confirmation_number, r.status, r.details,
		       r.created_at, r.updated_at
		FROM reservations r
		JOIN trips t ON t.id = r.trip_id
		WHERE t.user_id = @user_id AND r.confirmation_number = @confirmation`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "confirmation": confirmation})
	if err != nil {
		return nil, fmt.Errorf("repo.ReservationRepo.FindByConfirmationAcrossUser: %w", err)
	}
	defer rows.Close()

	return collectReservations(rows, "repo.ReservationRepo.FindByConfirmationAcrossUser")
}

func (r *pgReservationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.ReservationStatus) error {
	const q = `
		UPDATE reservations
		SET status     = @status,
		    updated_at = now()
		WHERE id = @id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "status": status})
	if err != nil {
		return fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ReservationRepo.UpdateStatus: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *pgReservationRepo) CountByTrip(ctx context.Context, tripID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM reservations WHERE trip_id = @trip_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"trip_id": tripID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.ReservationRepo.CountByTrip: %w", err)
	}
	return n, nil
}

// collectReservations drains rows into a slice, wrapping errors with op.
func collectReservations(rows pgx.Rows, op string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}
	return out, nil
}

// scanReservation maps a single database row into a domain.Reservation.
// It handles the UUID, nullable end_time, and jsonb details conversions.
func scanReservation(s scanner) (domain.Reservation, error) {
	var (
		res domain.Reservation
		id  pgtype.UUID
		tid pgtype.UUID
		end pgtype.Timestamptz
	)

	err := s.Scan(&id, &tid, &res.Type, &res.Title, &res.Subtitle, &res.StartTime, &end,
		&res.Location, &res.Address, &res.ConfirmationNumber, &res.Status, &res.Details,
		&res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrNotFound
		}
		return domain.Reservation{}, err
	}

	res.ID = uuid.UUID(id.Bytes)
	res.TripID = uuid.UUID(tid.Bytes)
	if end.Valid {
		et := end.Time
		res.EndTime = &et
	}

	return res, nil
}
