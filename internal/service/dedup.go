package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

// DedupStats counts what a dedup pass actually changed. The orchestrator uses
// Created+CancelledUpdates to decide whether anything is worth notifying
// about, and CancelledUpdates to decide whether to re-check the
// all-cancelled trip-status flip.
type DedupStats struct {
	Created          int
	CancelledUpdates int
	Duplicates       int
}

// ReservationDeduper applies the per-reservation duplicate heuristics and
// inserts the survivors with UTC-normalized times. The heuristics are
// best-effort, not a DB constraint: they re-derive everything from persisted
// state so a re-run after a crash converges.
type ReservationDeduper struct {
	reservations repo.ReservationRepo
	log          *slog.Logger
}

// NewReservationDeduper constructs a ReservationDeduper.
func NewReservationDeduper(reservations repo.ReservationRepo, log *slog.Logger) *ReservationDeduper {
	return &ReservationDeduper{reservations: reservations, log: log}
}

// Apply processes each parsed reservation against the target trip:
// cancellation updates first, then the five duplicate heuristics, then
// insert. Returns an error only on storage failures or unparseable required
// times; duplicates are counted, not errors.
func (d *ReservationDeduper) Apply(ctx context.Context, userID uuid.UUID, trip domain.Trip, parsed []domain.ParsedReservation) (DedupStats, error) {
	var stats DedupStats

	existing, err := d.reservations.ListByTrip(ctx, trip.ID)
	if err != nil {
		return stats, fmt.Errorf("service.ReservationDeduper.Apply: %w", err)
	}

	for _, p := range parsed {
		// Cancellations with a confirmation number update in place; the
		// duplicate heuristics are skipped entirely.
		if p.Status == domain.ReservationCancelled && p.ConfirmationNumber != "" {
			if idx := indexByConfirmation(existing, p.ConfirmationNumber); idx >= 0 {
				if err := d.reservations.UpdateStatus(ctx, existing[idx].ID, domain.ReservationCancelled); err != nil {
					return stats, fmt.Errorf("service.ReservationDeduper.Apply: cancel: %w", err)
				}
				existing[idx].Status = domain.ReservationCancelled
				stats.CancelledUpdates++
				d.log.InfoContext(ctx, "reservation cancelled",
					"trip_id", trip.ID, "reservation_id", existing[idx].ID,
					"confirmation", p.ConfirmationNumber)
				continue
			}
			// No match to cancel; fall through and record the cancellation
			// as its own (deduped) reservation.
		}

		res, err := d.buildReservation(ctx, trip.ID, p)
		if err != nil {
			return stats, err
		}

		if rule, dup := isDuplicate(existing, res); dup {
			stats.Duplicates++
			d.log.InfoContext(ctx, "duplicate reservation skipped",
				"trip_id", trip.ID, "title", res.Title, "heuristic", rule)
			continue
		}

		// Cross-trip confirmation check catches two concurrent requests that
		// created two different trips before the resolver converged.
		if res.Type != domain.ReservationFlight && res.ConfirmationNumber != "" {
			elsewhere, err := d.reservations.FindByConfirmationAcrossUser(ctx, userID, res.ConfirmationNumber)
			if err != nil {
				return stats, fmt.Errorf("service.ReservationDeduper.Apply: cross-trip lookup: %w", err)
			}
			if len(elsewhere) > 0 {
				stats.Duplicates++
				d.log.InfoContext(ctx, "duplicate reservation skipped",
					"trip_id", trip.ID, "title", res.Title, "heuristic", "cross_trip_confirmation")
				continue
			}
		}

		created, err := d.reservations.Create(ctx, res)
		if err != nil {
			return stats, fmt.Errorf("service.ReservationDeduper.Apply: insert: %w", err)
		}
		existing = append(existing, created)
		stats.Created++
	}

	return stats, nil
}

// buildReservation normalizes a parsed reservation's times to UTC and
// assembles the row to insert. The original local literals and offsets are
// preserved in Details so display never re-derives local time from UTC.
func (d *ReservationDeduper) buildReservation(ctx context.Context, tripID uuid.UUID, p domain.ParsedReservation) (domain.Reservation, error) {
	details := make(map[string]string, len(p.Details)+2)
	for k, v := range p.Details {
		details[k] = v
	}

	startOffset := details[domain.DetailUTCOffset]
	endOffset := startOffset
	if p.Type == domain.ReservationFlight {
		// Flights cross zones: departure and arrival carry separate offsets.
		if o := details[domain.DetailArrivalOffset]; o != "" {
			endOffset = o
		}
	}

	start, applied, err := NormalizeLocalTime(p.StartTimeLocal, startOffset)
	if err != nil {
		return domain.Reservation{}, fmt.Errorf("service.ReservationDeduper.Apply: start time: %w", err)
	}
	if !applied {
		d.log.WarnContext(ctx, "no usable UTC offset, treating local time as UTC",
			"trip_id", tripID, "title", p.Title, "offset", startOffset)
	}
	details[domain.DetailStartTimeLocal] = p.StartTimeLocal

	res := domain.Reservation{
		TripID:             tripID,
		Type:               p.Type,
		Title:              p.Title,
		Subtitle:           p.Subtitle,
		StartTime:          start,
		Location:           p.Location,
		Address:            p.Address,
		ConfirmationNumber: strings.TrimSpace(p.ConfirmationNumber),
		Status:             p.Status,
		Details:            details,
	}
	if res.Status == "" {
		res.Status = domain.ReservationConfirmed
	}

	if p.EndTimeLocal != "" {
		end, _, err := NormalizeLocalTime(p.EndTimeLocal, endOffset)
		if err != nil {
			// End times are optional; a garbled one is dropped, not fatal.
			d.log.WarnContext(ctx, "unparseable end time dropped",
				"trip_id", tripID, "title", p.Title, "end_time_local", p.EndTimeLocal)
		} else {
			res.EndTime = &end
			details[domain.DetailEndTimeLocal] = p.EndTimeLocal
		}
	}

	return res, nil
}

// isDuplicate runs the in-trip duplicate heuristics, in order. The returned
// rule names the heuristic that fired, for logging.
func isDuplicate(existing []domain.Reservation, candidate domain.Reservation) (string, bool) {
	// 1. Same type, identical start instant.
	for _, e := range existing {
		if e.Type == candidate.Type && e.StartTime.Equal(candidate.StartTime) {
			return "type_and_start_time", true
		}
	}

	if candidate.Type == domain.ReservationFlight {
		// 2. Identical normalized flight number.
		if fn := normalizeFlightNumber(flightNumber(candidate)); fn != "" {
			for _, e := range existing {
				if e.Type == domain.ReservationFlight && normalizeFlightNumber(flightNumber(e)) == fn {
					return "flight_number", true
				}
			}
		}

		// 3. Same calendar day, identical airport pair.
		dep, arr := airportPair(candidate)
		if dep != "" && arr != "" {
			cy, cm, cd := candidate.StartTime.UTC().Date()
			for _, e := range existing {
				if e.Type != domain.ReservationFlight {
					continue
				}
				ey, em, ed := e.StartTime.UTC().Date()
				if cy == ey && cm == em && cd == ed {
					if edep, earr := airportPair(e); edep == dep && earr == arr {
						return "airport_pair_same_day", true
					}
				}
			}
		}
		return "", false
	}

	// 4. Identical confirmation number within the trip (non-flights).
	if candidate.ConfirmationNumber != "" {
		if indexByConfirmation(existing, candidate.ConfirmationNumber) >= 0 {
			return "confirmation_number", true
		}
	}
	return "", false
}

// indexByConfirmation returns the index of the first reservation with the
// given confirmation number, or -1.
func indexByConfirmation(existing []domain.Reservation, confirmation string) int {
	confirmation = strings.TrimSpace(confirmation)
	if confirmation == "" {
		return -1
	}
	for i, e := range existing {
		if strings.TrimSpace(e.ConfirmationNumber) == confirmation {
			return i
		}
	}
	return -1
}

// flightNumber pulls a reservation's flight number from details, falling back
// to the title for extraction output that put it nowhere else.
func flightNumber(r domain.Reservation) string {
	if fn := r.Details[domain.DetailFlightNumber]; fn != "" {
		return fn
	}
	return r.Title
}

// normalizeFlightNumber strips all whitespace and uppercases, so "AA 1531"
// and "aa1531" compare equal.
func normalizeFlightNumber(fn string) string {
	return strings.ToUpper(strings.Join(strings.Fields(fn), ""))
}

// airportPair returns the normalized departure/arrival airport strings.
func airportPair(r domain.Reservation) (string, string) {
	norm := func(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }
	return norm(r.Details[domain.DetailDepartAirport]), norm(r.Details[domain.DetailArriveAirport])
}
