package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// DeletedTripRepo defines the persistence operations for deleted-trip records.
type DeletedTripRepo interface {
	// ListOverlapping returns records for the user whose date range overlaps
	// [from, to]. Callers widen the window before calling.
	ListOverlapping(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DeletedTrip, error)

	// Delete removes a record by ID. Deleting an already-removed record is
	// not an error; the override path may race an earlier delete.
	Delete(ctx context.Context, id uuid.UUID) error
}

// pgDeletedTripRepo is the Postgres implementation of DeletedTripRepo.
type pgDeletedTripRepo struct {
	db db
}

// NewDeletedTripRepo constructs a DeletedTripRepo backed by the provided db connection.
func NewDeletedTripRepo(db db) DeletedTripRepo {
	return &pgDeletedTripRepo{db: db}
}

func (r *pgDeletedTripRepo) ListOverlapping(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]domain.DeletedTrip, error) {
	const q = `
		SELECT id, user_id, destination, start_date, end_date, original_trip_name, deleted_at
		FROM deleted_trips
		WHERE user_id = @user_id
		  AND start_date <= @to
		  AND end_date   >= @from`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"user_id": userID, "from": from, "to": to})
	if err != nil {
		return nil, fmt.Errorf("repo.DeletedTripRepo.ListOverlapping: %w", err)
	}
	defer rows.Close()

	var out []domain.DeletedTrip
	for rows.Next() {
		var (
			d     domain.DeletedTrip
			id    pgtype.UUID
			uid   pgtype.UUID
			start pgtype.Date
			end   pgtype.Date
		)
		if err := rows.Scan(&id, &uid, &d.Destination, &start, &end, &d.OriginalTripName, &d.DeletedAt); err != nil {
			return nil, fmt.Errorf("repo.DeletedTripRepo.ListOverlapping: scan: %w", err)
		}
		d.ID = uuid.UUID(id.Bytes)
		d.UserID = uuid.UUID(uid.Bytes)
		d.StartDate = start.Time
		d.EndDate = end.Time
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.DeletedTripRepo.ListOverlapping: rows: %w", err)
	}

	return out, nil
}

func (r *pgDeletedTripRepo) Delete(ctx context.Context, id uuid.UUID) error {
	const q = `DELETE FROM deleted_trips WHERE id = @id`

	if _, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id}); err != nil {
		return fmt.Errorf("repo.DeletedTripRepo.Delete: %w", err)
	}
	return nil
}
