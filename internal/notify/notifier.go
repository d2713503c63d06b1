// Package notify dispatches trip-update notifications: a durable in-app
// notification row plus a best-effort push send. Nothing here may fail the
// pipeline — every error is logged and swallowed.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

// Notifier writes in-app notifications and POSTs to the push gateway.
type Notifier struct {
	notifications repo.NotificationRepo
	pushURL       string
	httpClient    *http.Client
	log           *slog.Logger
}

// New constructs a Notifier. An empty pushURL disables push sends; the
// in-app row is still written.
func New(notifications repo.NotificationRepo, pushURL string, log *slog.Logger) *Notifier {
	return &Notifier{
		notifications: notifications,
		pushURL:       pushURL,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
		log:           log,
	}
}

// pushRequest is the push gateway payload.
type pushRequest struct {
	To    string            `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Data  map[string]string `json:"data"`
}

// TripUpdated records that a trip gained or cancelled reservations.
// Best-effort on both legs: a notification the user never sees is better
// than a retried webhook double-processing their itinerary.
func (n *Notifier) TripUpdated(ctx context.Context, profile domain.Profile, trip domain.Trip, created, cancelled int) {
	title, body := composeTripUpdate(trip, created, cancelled)

	tripID := trip.ID
	err := n.notifications.Create(ctx, domain.Notification{
		UserID: profile.ID,
		Title:  title,
		Body:   body,
		TripID: &tripID,
	})
	if err != nil {
		n.log.ErrorContext(ctx, "in-app notification insert failed",
			"user_id", profile.ID, "trip_id", trip.ID, "error", err)
	}

	if n.pushURL == "" || profile.PushToken == "" {
		return
	}
	if err := n.push(ctx, profile.PushToken, title, body, trip.ID.String()); err != nil {
		n.log.ErrorContext(ctx, "push send failed",
			"user_id", profile.ID, "trip_id", trip.ID, "error", err)
	}
}

// push POSTs one notification to the push gateway.
func (n *Notifier) push(ctx context.Context, token, title, body, tripID string) error {
	payload, err := json.Marshal(pushRequest{
		To:    token,
		Title: title,
		Body:  body,
		Data:  map[string]string{"tripId": tripID},
	})
	if err != nil {
		return fmt.Errorf("notify.Notifier.push: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.pushURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("notify.Notifier.push: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notify.Notifier.push: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify.Notifier.push: gateway status %d", resp.StatusCode)
	}
	return nil
}

// composeTripUpdate builds the user-facing notification text.
func composeTripUpdate(trip domain.Trip, created, cancelled int) (string, string) {
	switch {
	case created > 0 && cancelled > 0:
		return trip.Name, fmt.Sprintf("%d reservation(s) added and %d cancelled", created, cancelled)
	case cancelled > 0:
		return trip.Name, fmt.Sprintf("%d reservation(s) cancelled", cancelled)
	case created == 1:
		return trip.Name, "1 reservation added to your trip"
	default:
		return trip.Name, fmt.Sprintf("%d reservations added to your trip", created)
	}
}
