package domain

import (
	"time"

	"github.com/google/uuid"
)

// ReservationType classifies a reservation. Flights get extra dedup
// heuristics (flight number, airport pair); everything else dedups on
// confirmation number and start time.
type ReservationType string

const (
	ReservationFlight  ReservationType = "flight"
	ReservationHotel   ReservationType = "hotel"
	ReservationCar     ReservationType = "car"
	ReservationTrain   ReservationType = "train"
	ReservationMeeting ReservationType = "meeting"
	ReservationEvent   ReservationType = "event"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationDelayed   ReservationStatus = "delayed"
)

// Reservation is a single booked item under a trip. StartTime and EndTime are
// UTC instants; the original local wall-clock literal and its UTC offset are
// preserved verbatim in Details so display code never re-derives local time
// from UTC.
type Reservation struct {
	ID                 uuid.UUID
	TripID             uuid.UUID
	Type               ReservationType
	Title              string
	Subtitle           string
	StartTime          time.Time
	EndTime            *time.Time
	Location           string
	Address            string
	ConfirmationNumber string
	Status             ReservationStatus
	Details            map[string]string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Well-known Details keys written by the timezone normalizer.
const (
	DetailStartTimeLocal = "start_time_local"
	DetailEndTimeLocal   = "end_time_local"
	DetailUTCOffset      = "utc_offset"
	DetailArrivalOffset  = "arrival_utc_offset"
	DetailFlightNumber   = "flight_number"
	DetailDepartAirport  = "departure_airport"
	DetailArriveAirport  = "arrival_airport"
)
