package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/notify"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

// mockNotificationRepo implements repo.NotificationRepo.
type mockNotificationRepo struct {
	create func(ctx context.Context, n domain.Notification) error
}

func (m *mockNotificationRepo) Create(ctx context.Context, n domain.Notification) error {
	return m.create(ctx, n)
}

var _ repo.NotificationRepo = (*mockNotificationRepo)(nil)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func profileFixture() domain.Profile {
	return domain.Profile{
		ID:        uuid.New(),
		Email:     "user@example.com",
		PushToken: "ExponentPushToken[xyz]",
	}
}

func tripFixture() domain.Trip {
	return domain.Trip{ID: uuid.New(), Name: "Tokyo Trip", Destination: "Tokyo"}
}

func TestTripUpdated_WritesRowAndSendsPush(t *testing.T) {
	var stored domain.Notification
	repo := &mockNotificationRepo{
		create: func(_ context.Context, n domain.Notification) error {
			stored = n
			return nil
		},
	}

	var gotPush map[string]any
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPush))
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	profile := profileFixture()
	trip := tripFixture()
	n := notify.New(repo, gateway.URL, discardLogger())
	n.TripUpdated(context.Background(), profile, trip, 2, 0)

	assert.Equal(t, profile.ID, stored.UserID)
	assert.Equal(t, "Tokyo Trip", stored.Title)
	assert.Equal(t, "2 reservations added to your trip", stored.Body)
	require.NotNil(t, stored.TripID)
	assert.Equal(t, trip.ID, *stored.TripID)

	require.NotNil(t, gotPush)
	assert.Equal(t, profile.PushToken, gotPush["to"])
	assert.Equal(t, "Tokyo Trip", gotPush["title"])
	data, ok := gotPush["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, trip.ID.String(), data["tripId"])
}

func TestTripUpdated_NoPushWithoutToken(t *testing.T) {
	repo := &mockNotificationRepo{
		create: func(_ context.Context, _ domain.Notification) error { return nil },
	}

	var pushCalls int
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		pushCalls++
		w.WriteHeader(http.StatusOK)
	}))
	defer gateway.Close()

	profile := profileFixture()
	profile.PushToken = ""
	n := notify.New(repo, gateway.URL, discardLogger())
	n.TripUpdated(context.Background(), profile, tripFixture(), 1, 0)

	assert.Zero(t, pushCalls)
}

func TestTripUpdated_NoPushWithoutGatewayURL(t *testing.T) {
	var rowWritten bool
	repo := &mockNotificationRepo{
		create: func(_ context.Context, _ domain.Notification) error {
			rowWritten = true
			return nil
		},
	}

	// Empty push URL disables the push leg entirely; the row still lands.
	n := notify.New(repo, "", discardLogger())
	n.TripUpdated(context.Background(), profileFixture(), tripFixture(), 1, 0)

	assert.True(t, rowWritten)
}

func TestTripUpdated_SwallowsAllFailures(t *testing.T) {
	repo := &mockNotificationRepo{
		create: func(_ context.Context, _ domain.Notification) error {
			return errors.New("insert failed")
		},
	}
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer gateway.Close()

	// Must not panic or propagate: notification failure never fails the run.
	n := notify.New(repo, gateway.URL, discardLogger())
	n.TripUpdated(context.Background(), profileFixture(), tripFixture(), 1, 1)
}

func TestTripUpdated_CancellationOnlyWording(t *testing.T) {
	var stored domain.Notification
	repo := &mockNotificationRepo{
		create: func(_ context.Context, n domain.Notification) error {
			stored = n
			return nil
		},
	}

	n := notify.New(repo, "", discardLogger())
	n.TripUpdated(context.Background(), profileFixture(), tripFixture(), 0, 2)

	assert.Equal(t, "2 reservation(s) cancelled", stored.Body)
}
