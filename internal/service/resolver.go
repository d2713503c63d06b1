package service

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

const (
	// fuzzySlackDays widens the date window for tier-2/3 matching.
	fuzzySlackDays = 3
	// deletedSlackDays widens the date window for deleted-trip suppression.
	deletedSlackDays = 7
)

// Resolution is the result of resolving a parsed trip against persisted state.
type Resolution struct {
	// Trip is the selected or created trip. Zero when Suppressed.
	Trip domain.Trip
	// Created is true when this invocation created the trip.
	Created bool
	// Suppressed is true when a deleted-trip record blocked recreation
	// (scan path only). No trip was touched.
	Suppressed bool
	// Rule is the relatedness rule that selected an existing trip, for
	// diagnostics. Empty for exact matches, creations, and suppressions.
	Rule MatchRule
}

// TripResolver finds-or-creates the trip an email belongs to, using a tiered
// fallback of increasingly permissive matching rules.
//
// Creation is racy by design: two distinct emails about the same new trip can
// arrive concurrently, and the claim store only serializes identical
// messages. The jitter-then-recheck step narrows, but does not close, the
// duplicate-creation window; the cross-trip confirmation dedup heuristic and
// ghost cleanup mop up the residue.
type TripResolver struct {
	trips   repo.TripRepo
	deleted repo.DeletedTripRepo
	log     *slog.Logger
	sleep   func(ctx context.Context, d time.Duration)
	jitter  func() time.Duration
}

// NewTripResolver constructs a TripResolver.
func NewTripResolver(trips repo.TripRepo, deleted repo.DeletedTripRepo, log *slog.Logger) *TripResolver {
	return &TripResolver{
		trips:   trips,
		deleted: deleted,
		log:     log,
		sleep:   sleepCtx,
		jitter: func() time.Duration {
			return 100*time.Millisecond + time.Duration(rand.Int63n(int64(400*time.Millisecond)))
		},
	}
}

// Resolve selects the target trip for a parsed email. start/end are the
// already-repaired trip dates. The source selects the deleted-trip policy:
// the scan path suppresses recreation of a deleted trip, the forward path
// overrides and clears the matching records.
func (r *TripResolver) Resolve(ctx context.Context, userID uuid.UUID, parsed domain.ParsedTrip, start, end time.Time, source domain.Source) (Resolution, error) {
	trips, err := r.trips.ListByUser(ctx, userID)
	if err != nil {
		return Resolution{}, fmt.Errorf("service.TripResolver.Resolve: %w", err)
	}

	if t, rule, ok := matchExisting(trips, parsed, start, end); ok {
		return r.adopt(ctx, t, start, end, rule)
	}

	suppressed, err := r.checkDeleted(ctx, userID, parsed, start, end, source)
	if err != nil {
		return Resolution{}, fmt.Errorf("service.TripResolver.Resolve: %w", err)
	}
	if suppressed {
		r.log.InfoContext(ctx, "trip recreation suppressed by deleted-trip record",
			"user_id", userID, "destination", parsed.Destination)
		return Resolution{Suppressed: true}, nil
	}

	// Nothing matched. Before creating, wait a randomized beat and look
	// again: a concurrent invocation for the same real trip may have just
	// created it. Best-effort only.
	r.sleep(ctx, r.jitter())

	trips, err = r.trips.ListByUser(ctx, userID)
	if err != nil {
		return Resolution{}, fmt.Errorf("service.TripResolver.Resolve: recheck: %w", err)
	}
	if t, rule, ok := matchExisting(trips, parsed, start, end); ok {
		r.log.InfoContext(ctx, "adopted concurrently created trip",
			"user_id", userID, "trip_id", t.ID, "rule", string(rule))
		return r.adopt(ctx, t, start, end, rule)
	}

	created, err := r.trips.Create(ctx, domain.Trip{
		UserID:      userID,
		Name:        parsed.TripName,
		Destination: parsed.Destination,
		StartDate:   start,
		EndDate:     end,
		Status:      domain.TripUpcoming,
	})
	if err != nil {
		return Resolution{}, fmt.Errorf("service.TripResolver.Resolve: create: %w", err)
	}
	r.log.InfoContext(ctx, "trip created",
		"user_id", userID, "trip_id", created.ID, "destination", created.Destination)
	return Resolution{Trip: created, Created: true}, nil
}

// matchExisting runs the tier-1/2/3 matching rules over the user's trips.
// Pure: no I/O.
func matchExisting(trips []domain.Trip, parsed domain.ParsedTrip, start, end time.Time) (domain.Trip, MatchRule, bool) {
	hint := parsed.Region
	if hint == "" {
		hint = parsed.Country
	}

	unknown := IsUnknownDestination(parsed.Destination)

	if !unknown {
		// Tier 1: exact destination, overlapping dates.
		for _, t := range trips {
			if normalizePlace(t.Destination) == normalizePlace(parsed.Destination) &&
				rangesOverlap(start, end, t.StartDate, t.EndDate, 0) {
				return t, MatchEqual, true
			}
		}

		// Tier 2: fuzzy relatedness inside the widened window.
		for _, t := range trips {
			if !rangesOverlap(start, end, t.StartDate, t.EndDate, fuzzySlackDays) {
				continue
			}
			if ok, rule := DestinationsRelated(parsed.Destination, t.Destination, t.Name, hint); ok {
				return t, rule, true
			}
		}
		return domain.Trip{}, MatchNone, false
	}

	// Tier 3: the model couldn't name a place. If exactly one trip sits in
	// the widened window, it is almost certainly the one.
	var candidate domain.Trip
	var hits int
	for _, t := range trips {
		if rangesOverlap(start, end, t.StartDate, t.EndDate, fuzzySlackDays) {
			candidate = t
			hits++
		}
	}
	if hits == 1 {
		return candidate, MatchNone, true
	}
	return domain.Trip{}, MatchNone, false
}

// adopt selects an existing trip and widens its date range to contain the new
// dates. The range only ever grows.
func (r *TripResolver) adopt(ctx context.Context, t domain.Trip, start, end time.Time, rule MatchRule) (Resolution, error) {
	newStart, newEnd := t.StartDate, t.EndDate
	if start.Before(newStart) {
		newStart = start
	}
	if end.After(newEnd) {
		newEnd = end
	}
	if !newStart.Equal(t.StartDate) || !newEnd.Equal(t.EndDate) {
		if err := r.trips.UpdateDates(ctx, t.ID, newStart, newEnd); err != nil {
			return Resolution{}, fmt.Errorf("service.TripResolver.Resolve: expand dates: %w", err)
		}
		t.StartDate, t.EndDate = newStart, newEnd
	}
	return Resolution{Trip: t, Rule: rule}, nil
}

// checkDeleted consults deleted-trip records in the ±7-day window. On the
// scan path a match suppresses (returns true, no side effects). On the
// forward path a match is overridden: the records are cleared so future scans
// stop suppressing too, and resolution proceeds.
func (r *TripResolver) checkDeleted(ctx context.Context, userID uuid.UUID, parsed domain.ParsedTrip, start, end time.Time, source domain.Source) (bool, error) {
	records, err := r.deleted.ListOverlapping(ctx, userID,
		start.AddDate(0, 0, -deletedSlackDays), end.AddDate(0, 0, deletedSlackDays))
	if err != nil {
		return false, err
	}

	hint := parsed.Region
	if hint == "" {
		hint = parsed.Country
	}

	var matched []domain.DeletedTrip
	for _, rec := range records {
		if ok, _ := DestinationsRelated(parsed.Destination, rec.Destination, rec.OriginalTripName, hint); ok {
			matched = append(matched, rec)
		}
	}
	if len(matched) == 0 {
		return false, nil
	}

	if source == domain.SourceScan {
		return true, nil
	}

	// Direct forward: explicit user intent overrides the deletion. Clear the
	// records so background scans stop suppressing this trip as well.
	for _, rec := range matched {
		if err := r.deleted.Delete(ctx, rec.ID); err != nil {
			return false, err
		}
		r.log.InfoContext(ctx, "deleted-trip record cleared by forward override",
			"user_id", userID, "destination", rec.Destination)
	}
	return false, nil
}

// sleepCtx sleeps for d unless the context is cancelled first.
func sleepCtx(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
