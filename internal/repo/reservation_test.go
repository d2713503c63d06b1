package repo_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

func reservationFixture(tripID uuid.UUID) domain.Reservation {
	return domain.Reservation{
		TripID:             tripID,
		Type:               domain.ReservationHotel,
		Title:              "Park Hyatt Tokyo",
		Subtitle:           "Deluxe King",
		StartTime:          time.Date(2026, 2, 15, 6, 0, 0, 0, time.UTC),
		Location:           "Shinjuku",
		Address:            "3-7-1-2 Nishi-Shinjuku",
		ConfirmationNumber: "HYT-443",
		Status:             domain.ReservationConfirmed,
		Details: map[string]string{
			domain.DetailStartTimeLocal: "2026-02-15T15:00:00",
			domain.DetailUTCOffset:      "+09:00",
		},
	}
}

func TestReservationRepo_Create(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)

	input := reservationFixture(trip.ID)
	end := time.Date(2026, 2, 22, 2, 0, 0, 0, time.UTC)
	input.EndTime = &end

	got, err := r.Create(ctx, input)

	require.NoError(t, err)
	assert.NotEqual(t, uuid.UUID{}, got.ID)
	assert.Equal(t, trip.ID, got.TripID)
	assert.Equal(t, domain.ReservationHotel, got.Type)
	assert.Equal(t, input.Title, got.Title)
	assert.True(t, got.StartTime.Equal(input.StartTime), "StartTime mismatch")
	require.NotNil(t, got.EndTime)
	assert.True(t, got.EndTime.Equal(end), "EndTime mismatch")
	assert.Equal(t, input.ConfirmationNumber, got.ConfirmationNumber)
	assert.Equal(t, input.Details, got.Details, "details jsonb must round-trip")
	assert.False(t, got.CreatedAt.IsZero())
}

func TestReservationRepo_Create_NilEndTime(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)

	got, err := r.Create(ctx, reservationFixture(trip.ID))

	require.NoError(t, err)
	assert.Nil(t, got.EndTime)
}

func TestReservationRepo_ListByTrip_OrderedByStartTime(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)

	later := reservationFixture(trip.ID)
	later.Title = "Dinner"
	later.Type = domain.ReservationEvent
	later.ConfirmationNumber = ""
	later.StartTime = time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC)

	earlier := reservationFixture(trip.ID)
	earlier.Title = "Check-in"

	for _, res := range []domain.Reservation{later, earlier} {
		_, err := r.Create(ctx, res)
		require.NoError(t, err)
	}

	got, err := r.ListByTrip(ctx, trip.ID)

	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Check-in", got[0].Title)
	assert.Equal(t, "Dinner", got[1].Title)
}

func TestReservationRepo_UpdateStatus(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)
	created, err := r.Create(ctx, reservationFixture(trip.ID))
	require.NoError(t, err)

	require.NoError(t, r.UpdateStatus(ctx, created.ID, domain.ReservationCancelled))

	got, err := r.ListByTrip(ctx, trip.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.ReservationCancelled, got[0].Status)
}

func TestReservationRepo_UpdateStatus_NotFound(t *testing.T) {
	r := repo.NewReservationRepo(beginTx(t))

	err := r.UpdateStatus(context.Background(), uuid.New(), domain.ReservationCancelled)

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReservationRepo_CountByTrip(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)

	n, err := r.CountByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = r.Create(ctx, reservationFixture(trip.ID))
	require.NoError(t, err)

	n, err = r.CountByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestReservationRepo_FindByConfirmationAcrossUser(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()
	userID := uuid.New()

	// Two trips for the same user, the booking sits under the first.
	tripA, err := trips.Create(ctx, tripFixture(userID))
	require.NoError(t, err)
	tripBFix := tripFixture(userID)
	tripBFix.Name = "Second Trip"
	_, err = trips.Create(ctx, tripBFix)
	require.NoError(t, err)

	_, err = r.Create(ctx, reservationFixture(tripA.ID))
	require.NoError(t, err)

	// Same confirmation under a different user must not be visible.
	otherTrip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)
	_, err = r.Create(ctx, reservationFixture(otherTrip.ID))
	require.NoError(t, err)

	got, err := r.FindByConfirmationAcrossUser(ctx, userID, "HYT-443")

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, tripA.ID, got[0].TripID)
}

func TestReservationRepo_CascadeDeleteWithTrip(t *testing.T) {
	tx := beginTx(t)
	trips := repo.NewTripRepo(tx)
	r := repo.NewReservationRepo(tx)
	ctx := context.Background()

	trip, err := trips.Create(ctx, tripFixture(uuid.New()))
	require.NoError(t, err)
	_, err = r.Create(ctx, reservationFixture(trip.ID))
	require.NoError(t, err)

	require.NoError(t, trips.Delete(ctx, trip.ID))

	n, err := r.CountByTrip(ctx, trip.ID)
	require.NoError(t, err)
	assert.Zero(t, n, "reservations must cascade with the trip")
}
