package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
)

// NotificationRepo defines the persistence operations for in-app notifications.
type NotificationRepo interface {
	// Create inserts a notification row.
	Create(ctx context.Context, n domain.Notification) error
}

// pgNotificationRepo is the Postgres implementation of NotificationRepo.
type pgNotificationRepo struct {
	db db
}

// NewNotificationRepo constructs a NotificationRepo backed by the provided db connection.
func NewNotificationRepo(db db) NotificationRepo {
	return &pgNotificationRepo{db: db}
}

func (r *pgNotificationRepo) Create(ctx context.Context, n domain.Notification) error {
	const q = `
		INSERT INTO notifications (user_id, title, body, trip_id)
		VALUES (@user_id, @title, @body, @trip_id)`

	args := pgx.NamedArgs{
		"user_id": n.UserID,
		"title":   n.Title,
		"body":    n.Body,
		"trip_id": n.TripID, // nil becomes NULL
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.NotificationRepo.Create: %w", err)
	}
	return nil
}
