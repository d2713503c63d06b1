package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/justingrant1/triptrackv3-sub001/internal/domain"
	"github.com/justingrant1/triptrackv3-sub001/internal/inbound"
	"github.com/justingrant1/triptrackv3-sub001/internal/repo"
)

// Extractor is the extraction collaborator as the pipeline sees it: email
// text in, structured trip guess out. Defined here (in the consumer package)
// so tests can inject a fake without an HTTP server.
type Extractor interface {
	ExtractTrip(ctx context.Context, msg domain.InboundMessage, existing []domain.Trip) (domain.ParsedTrip, error)
}

// Notifier dispatches the "your trip was updated" notification. Best-effort:
// implementations log failures and never return them.
type Notifier interface {
	TripUpdated(ctx context.Context, profile domain.Profile, trip domain.Trip, created, cancelled int)
}

// Result is the pipeline's answer for one inbound message, serialized into
// the webhook response.
type Result struct {
	// Skipped is true for duplicate deliveries and suppressed recreations:
	// nothing was done, and that is success.
	Skipped           bool
	TripID            uuid.UUID
	TripName          string
	ReservationsCount int
}

// Pipeline sequences the ingestion steps: resolve token → claim → extract →
// validate dates → resolve trip → dedup reservations → finalize → notify.
//
// Every write along the way is independently idempotent and no transaction
// spans entities: a crash mid-run leaves partial state (at worst an empty
// trip) that the claim's staleness window plus the ghost check on the next
// successful run converge away.
type Pipeline struct {
	profiles     repo.ProfileRepo
	trips        repo.TripRepo
	reservations repo.ReservationRepo
	claims       *ClaimStore
	resolver     *TripResolver
	deduper      *ReservationDeduper
	extractor    Extractor
	notifier     Notifier
	log          *slog.Logger
}

// NewPipeline constructs the orchestrator from its collaborators.
func NewPipeline(
	profiles repo.ProfileRepo,
	trips repo.TripRepo,
	reservations repo.ReservationRepo,
	claims *ClaimStore,
	resolver *TripResolver,
	deduper *ReservationDeduper,
	extractor Extractor,
	notifier Notifier,
	log *slog.Logger,
) *Pipeline {
	return &Pipeline{
		profiles:     profiles,
		trips:        trips,
		reservations: reservations,
		claims:       claims,
		resolver:     resolver,
		deduper:      deduper,
		extractor:    extractor,
		notifier:     notifier,
		log:          log,
	}
}

// Process runs the full pipeline for one inbound message.
//
// Errors before the claim is taken (bad address, unknown token) leave no
// state behind. Errors after the claim mark it failed — enabling retry — and
// deliberately skip compensating rollback of any trip already created; the
// ghost check on a later successful run cleans that up.
func (p *Pipeline) Process(ctx context.Context, source domain.Source, msg domain.InboundMessage) (Result, error) {
	token, err := inbound.ExtractToken(msg.Recipient)
	if err != nil {
		return Result{}, err
	}

	profile, err := p.profiles.GetByForwardToken(ctx, token)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return Result{}, fmt.Errorf("service.Pipeline.Process: token %q: %w", token, domain.ErrUnknownToken)
		}
		return Result{}, fmt.Errorf("service.Pipeline.Process: %w", err)
	}

	hash := ContentHash(msg.From, msg.Subject, msg.Body)
	outcome := p.claims.Claim(ctx, profile.ID, hash, source)
	if outcome == OutcomeAlreadyClaimed {
		p.log.InfoContext(ctx, "duplicate delivery skipped",
			"user_id", profile.ID, "hash", shortHash(hash))
		return Result{Skipped: true}, nil
	}
	p.log.InfoContext(ctx, "message claimed",
		"user_id", profile.ID, "hash", shortHash(hash),
		"outcome", string(outcome), "source", string(source))

	result, err := p.run(ctx, source, profile, msg)
	if err != nil {
		p.claims.Finish(ctx, profile.ID, hash, domain.ClaimFailed)
		return Result{}, err
	}
	p.claims.Finish(ctx, profile.ID, hash, domain.ClaimProcessed)
	return result, nil
}

// run is the post-claim body of the pipeline. Split out so Process can
// uniformly mark the claim failed on any error path.
func (p *Pipeline) run(ctx context.Context, source domain.Source, profile domain.Profile, msg domain.InboundMessage) (Result, error) {
	existing, err := p.trips.ListByUser(ctx, profile.ID)
	if err != nil {
		return Result{}, fmt.Errorf("service.Pipeline.Process: %w", err)
	}

	parsed, err := p.extractor.ExtractTrip(ctx, msg, existing)
	if err != nil {
		return Result{}, fmt.Errorf("service.Pipeline.Process: %w", err)
	}

	start, corrected, err := RepairDate(parsed.StartDate)
	if err != nil {
		return Result{}, fmt.Errorf("service.Pipeline.Process: start date: %w", err)
	}
	if corrected {
		p.log.WarnContext(ctx, "repaired impossible start date",
			"user_id", profile.ID, "literal", parsed.StartDate, "repaired", start.Format("2006-01-02"))
	}
	end, corrected, err := RepairDate(parsed.EndDate)
	if err != nil {
		return Result{}, fmt.Errorf("service.Pipeline.Process: end date: %w", err)
	}
	if corrected {
		p.log.WarnContext(ctx, "repaired impossible end date",
			"user_id", profile.ID, "literal", parsed.EndDate, "repaired", end.Format("2006-01-02"))
	}

	resolution, err := p.resolver.Resolve(ctx, profile.ID, parsed, start, end, source)
	if err != nil {
		return Result{}, err
	}
	if resolution.Suppressed {
		return Result{Skipped: true}, nil
	}
	trip := resolution.Trip

	stats, err := p.deduper.Apply(ctx, profile.ID, trip, parsed.Reservations)
	if err != nil {
		return Result{}, err
	}

	deleted, err := p.finalize(ctx, trip, resolution.Created, stats)
	if err != nil {
		return Result{}, err
	}
	if deleted {
		// Ghost: every reservation was a duplicate elsewhere and the trip
		// holds nothing. It no longer exists.
		return Result{TripName: trip.Name}, nil
	}

	if stats.Created+stats.CancelledUpdates > 0 {
		p.notifier.TripUpdated(ctx, profile, trip, stats.Created, stats.CancelledUpdates)
	}

	p.log.InfoContext(ctx, "message processed",
		"user_id", profile.ID, "trip_id", trip.ID,
		"created", stats.Created, "cancelled", stats.CancelledUpdates,
		"duplicates", stats.Duplicates)

	return Result{
		TripID:            trip.ID,
		TripName:          trip.Name,
		ReservationsCount: stats.Created,
	}, nil
}

// finalize applies the end-of-run trip transitions: ghost cleanup when a trip
// created this run ends it with zero reservations, and the completed flip when
// a cancellation pass left every reservation cancelled. Returns whether the
// trip was deleted.
func (p *Pipeline) finalize(ctx context.Context, trip domain.Trip, created bool, stats DedupStats) (bool, error) {
	count, err := p.reservations.CountByTrip(ctx, trip.ID)
	if err != nil {
		return false, fmt.Errorf("service.Pipeline.Process: finalize: %w", err)
	}

	// Ghost cleanup applies only to trips created in this run; a pre-existing
	// empty trip is left for the run that eventually lands reservations in it.
	if count == 0 && created {
		if err := p.trips.Delete(ctx, trip.ID); err != nil {
			return false, fmt.Errorf("service.Pipeline.Process: ghost cleanup: %w", err)
		}
		p.log.InfoContext(ctx, "ghost trip deleted", "trip_id", trip.ID)
		return true, nil
	}

	if stats.CancelledUpdates > 0 {
		all, err := p.reservations.ListByTrip(ctx, trip.ID)
		if err != nil {
			return false, fmt.Errorf("service.Pipeline.Process: finalize: %w", err)
		}
		if allCancelled(all) {
			if err := p.trips.UpdateStatus(ctx, trip.ID, domain.TripCompleted); err != nil {
				return false, fmt.Errorf("service.Pipeline.Process: completed flip: %w", err)
			}
			p.log.InfoContext(ctx, "trip completed, all reservations cancelled", "trip_id", trip.ID)
		}
	}

	return false, nil
}

// allCancelled reports whether every reservation in the slice is cancelled.
func allCancelled(reservations []domain.Reservation) bool {
	for _, r := range reservations {
		if r.Status != domain.ReservationCancelled {
			return false
		}
	}
	return len(reservations) > 0
}
